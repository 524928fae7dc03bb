package relay

import (
	"encoding/json"

	"github.com/rs/zerolog"

	"github.com/lancam-app/lancam/backend/model"
	"github.com/lancam-app/lancam/backend/registry"
)

// Relay interprets signaling frames against the registry: it assigns roles,
// announces camera topology changes to viewers, and forwards peer-negotiation
// messages point to point. Payloads of forwarded messages are opaque; only
// the envelope is read.
type Relay struct {
	reg    *registry.Registry
	logger zerolog.Logger
}

func New(reg *registry.Registry, logger *zerolog.Logger) *Relay {
	return &Relay{
		reg:    reg,
		logger: logger.With().Str("component", "relay").Logger(),
	}
}

// Connect admits a new transport session: it registers an unassigned peer
// and queues the welcome frame telling the client its id.
func (rl *Relay) Connect() *registry.Peer {
	peer := rl.reg.Add()
	rl.send(peer, model.NewWelcome(peer.ID()))
	rl.logger.Debug().
		Str("id", peer.ID()).
		Msg("peer connected")
	return peer
}

// Disconnect removes the peer and, when it was a camera, announces the
// departure to every current viewer.
func (rl *Relay) Disconnect(peer *registry.Peer) {
	peer.Close()
	role := peer.Role()
	rl.reg.Remove(peer.ID())
	if role == model.RoleCamera {
		rl.broadcastToViewers(model.NewCameraLeft(peer.ID()))
		rl.logger.Info().
			Str("id", peer.ID()).
			Str("name", peer.Name()).
			Msg("camera disconnected")
		return
	}
	rl.logger.Debug().
		Str("id", peer.ID()).
		Str("role", string(role)).
		Msg("peer disconnected")
}

// Handle applies one decoded frame from src. All faults are handled locally;
// nothing is ever reported back to the sender.
func (rl *Relay) Handle(src *registry.Peer, msg model.Message) {
	switch msg.Kind {
	case model.KindRegisterCamera:
		rl.registerCamera(src, msg)
	case model.KindRegisterViewer:
		rl.registerViewer(src)
	case model.KindSignal:
		rl.forward(src, msg)
	default:
		rl.logger.Debug().
			Str("id", src.ID()).
			Str("type", msg.Type).
			Msg("unknown message type ignored")
	}
}

func (rl *Relay) registerCamera(src *registry.Peer, msg model.Message) {
	name := msg.Name
	if name == "" {
		name = "Camera " + src.ID()
	}
	if !src.Promote(model.RoleCamera, name) {
		rl.logger.Debug().
			Str("id", src.ID()).
			Msg("camera registration ignored, peer is a viewer")
		return
	}
	rl.broadcastToViewers(model.NewCameraJoined(src.ID(), name))
	rl.logger.Info().
		Str("id", src.ID()).
		Str("name", name).
		Msg("camera registered")
}

func (rl *Relay) registerViewer(src *registry.Peer) {
	if !src.Promote(model.RoleViewer, "") {
		rl.logger.Debug().
			Str("id", src.ID()).
			Msg("viewer registration ignored, peer is a camera")
		return
	}

	cams := rl.reg.ListByRole(model.RoleCamera)
	list := make([]model.CameraInfo, 0, len(cams))
	for _, cam := range cams {
		list = append(list, model.CameraInfo{ID: cam.ID(), Name: cam.Name()})
	}
	rl.send(src, model.NewCamerasList(list))
	rl.logger.Info().
		Str("id", src.ID()).
		Int("cameras", len(list)).
		Msg("viewer registered")
}

func (rl *Relay) forward(src *registry.Peer, msg model.Message) {
	logger := rl.logger.With().
		Str("type", msg.Type).
		Str("src", src.ID()).
		Str("dst", msg.To).Logger()

	if msg.To == "" {
		logger.Debug().Msg("cannot forward, no dst")
		return
	}
	dst, ok := rl.reg.Get(msg.To)
	if !ok {
		logger.Debug().Msg("cannot forward, dst not found")
		return
	}
	frame, err := msg.Forward(src.ID())
	if err != nil {
		logger.Error().Err(err).Msg("failed to encode forwarded message")
		return
	}
	if !dst.Send(frame) {
		logger.Debug().Msg("dead endpoint, message dropped")
		return
	}
	logger.Trace().Msg("message forwarded")
}

// broadcastToViewers delivers the event to a snapshot of current viewers.
// Delivery is best-effort; a viewer connecting mid-broadcast may miss it.
func (rl *Relay) broadcastToViewers(event any) {
	frame, err := json.Marshal(event)
	if err != nil {
		rl.logger.Error().Err(err).Msg("failed to marshal broadcast event")
		return
	}

	var sent int
	for _, viewer := range rl.reg.ListByRole(model.RoleViewer) {
		if viewer.Send(frame) {
			sent++
		}
	}
	if sent == 0 {
		rl.logger.Debug().Msg("broadcast did not reach anyone")
	}
}

func (rl *Relay) send(peer *registry.Peer, event any) {
	frame, err := json.Marshal(event)
	if err != nil {
		rl.logger.Error().Err(err).Msg("failed to marshal event")
		return
	}
	if !peer.Send(frame) {
		rl.logger.Debug().
			Str("dst", peer.ID()).
			Msg("dead endpoint, event dropped")
	}
}
