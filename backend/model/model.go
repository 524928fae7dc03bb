package model

import (
	"encoding/json"
	"errors"
)

// Role is a connection's fixed function in the camera topology.
// It is assigned once by the first registration message and never changes.
type Role string

const (
	RoleUnassigned Role = ""
	RoleCamera     Role = "camera"
	RoleViewer     Role = "viewer"
)

// Client-originated message types.
const (
	TypeRegisterCamera    = "register-camera"
	TypeRegisterViewer    = "register-viewer"
	TypeViewerWantsStream = "viewer-wants-stream"
	TypeOffer             = "offer"
	TypeAnswer            = "answer"
	TypeICECandidate      = "ice-candidate"
)

// Server-originated event types.
const (
	TypeWelcome      = "welcome"
	TypeCamerasList  = "cameras-list"
	TypeCameraJoined = "camera-joined"
	TypeCameraLeft   = "camera-left"
)

var ErrMalformed = errors.New("malformed frame")

// Kind classifies a decoded frame for dispatch.
type Kind int

const (
	// KindIgnored covers frames with an unrecognized type. They are valid
	// JSON and are deliberately dropped without penalizing the sender.
	KindIgnored Kind = iota
	KindRegisterCamera
	KindRegisterViewer
	// KindSignal covers the four peer-negotiation types that are relayed
	// verbatim: viewer-wants-stream, offer, answer, ice-candidate.
	KindSignal
)

// Message is a decoded inbound frame. Only the envelope fields (type, to,
// name) are interpreted; everything else stays raw so signal payloads pass
// through the relay byte-identical.
type Message struct {
	Kind Kind
	Type string
	To   string
	Name string

	fields map[string]json.RawMessage
}

// Decode parses a frame into a Message. Frames that are not JSON objects or
// carry no usable type field are malformed; unknown types decode to
// KindIgnored.
func Decode(data []byte) (Message, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return Message{}, errors.Join(ErrMalformed, err)
	}

	msg := Message{fields: fields}
	stringField(fields, "type", &msg.Type)
	if msg.Type == "" {
		return Message{}, ErrMalformed
	}

	switch msg.Type {
	case TypeRegisterCamera:
		msg.Kind = KindRegisterCamera
		stringField(fields, "name", &msg.Name)
	case TypeRegisterViewer:
		msg.Kind = KindRegisterViewer
	case TypeViewerWantsStream, TypeOffer, TypeAnswer, TypeICECandidate:
		msg.Kind = KindSignal
		stringField(fields, "to", &msg.To)
	default:
		msg.Kind = KindIgnored
	}
	return msg, nil
}

// stringField extracts a string member into dst, leaving dst untouched when
// the member is absent or not a string.
func stringField(fields map[string]json.RawMessage, key string, dst *string) {
	raw, ok := fields[key]
	if !ok {
		return
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		*dst = s
	}
}

// Forward re-encodes the original frame with the from field set to src.
// All other members keep their original raw values.
func (m Message) Forward(src string) ([]byte, error) {
	out := make(map[string]json.RawMessage, len(m.fields)+1)
	for k, v := range m.fields {
		out[k] = v
	}
	from, err := json.Marshal(src)
	if err != nil {
		return nil, err
	}
	out["from"] = from
	return json.Marshal(out)
}

// CameraInfo identifies one registered camera to viewers.
type CameraInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Welcome struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

type CamerasList struct {
	Type    string       `json:"type"`
	Cameras []CameraInfo `json:"cameras"`
}

type CameraJoined struct {
	Type string `json:"type"`
	ID   string `json:"id"`
	Name string `json:"name"`
}

type CameraLeft struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

func NewWelcome(id string) Welcome {
	return Welcome{Type: TypeWelcome, ID: id}
}

func NewCamerasList(cameras []CameraInfo) CamerasList {
	if cameras == nil {
		cameras = []CameraInfo{}
	}
	return CamerasList{Type: TypeCamerasList, Cameras: cameras}
}

func NewCameraJoined(id, name string) CameraJoined {
	return CameraJoined{Type: TypeCameraJoined, ID: id, Name: name}
}

func NewCameraLeft(id string) CameraLeft {
	return CameraLeft{Type: TypeCameraLeft, ID: id}
}
