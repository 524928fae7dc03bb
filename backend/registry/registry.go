package registry

import (
	"strconv"
	"sync"

	"github.com/lancam-app/lancam/backend/model"
)

const defaultSendBuffer = 64

// Peer is one live signaling connection. The id is unique for the lifetime
// of the process; the role is set at most once by a registration message.
type Peer struct {
	id string

	mx   sync.Mutex
	role model.Role
	name string

	out  chan []byte
	done chan struct{}
	once sync.Once
}

func (p *Peer) ID() string {
	return p.id
}

func (p *Peer) Role() model.Role {
	p.mx.Lock()
	defer p.mx.Unlock()
	return p.role
}

func (p *Peer) Name() string {
	p.mx.Lock()
	defer p.mx.Unlock()
	return p.name
}

// Promote assigns the peer's role. It reports false when the peer already
// holds the other role; promoting to the same role again succeeds and
// updates the name (last write wins).
func (p *Peer) Promote(role model.Role, name string) bool {
	p.mx.Lock()
	defer p.mx.Unlock()
	if p.role != model.RoleUnassigned && p.role != role {
		return false
	}
	p.role = role
	p.name = name
	return true
}

// Send queues a frame for delivery to the peer's transport. It never blocks:
// frames for a closed peer or a saturated buffer are dropped and Send
// reports false.
func (p *Peer) Send(frame []byte) bool {
	select {
	case <-p.done:
		return false
	default:
	}
	select {
	case p.out <- frame:
		return true
	case <-p.done:
		return false
	default:
		return false
	}
}

// Out is the delivery channel drained by the transport sender. It is never
// closed; senders should stop on Done instead.
func (p *Peer) Out() <-chan []byte {
	return p.out
}

// Done is closed when the peer's transport session ends.
func (p *Peer) Done() <-chan struct{} {
	return p.done
}

// Close marks the peer as gone. Idempotent; in-flight Sends racing with
// Close fail silently.
func (p *Peer) Close() {
	p.once.Do(func() {
		close(p.done)
	})
}

// Registry is the single source of truth for connected signaling peers.
// All operations are safe for concurrent use.
type Registry struct {
	mx      *sync.Mutex
	peers   map[string]*Peer
	order   []*Peer
	nextID  uint64
	sendBuf int
}

func New(sendBuffer int) *Registry {
	if sendBuffer <= 0 {
		sendBuffer = defaultSendBuffer
	}
	return &Registry{
		mx:      &sync.Mutex{},
		peers:   make(map[string]*Peer),
		sendBuf: sendBuffer,
	}
}

// Add creates an unassigned peer with a fresh id and inserts it.
// Ids come from a monotonic counter and are never reused while the
// process runs.
func (r *Registry) Add() *Peer {
	r.mx.Lock()
	defer r.mx.Unlock()

	r.nextID++
	peer := &Peer{
		id:   strconv.FormatUint(r.nextID, 10),
		out:  make(chan []byte, r.sendBuf),
		done: make(chan struct{}),
	}
	r.peers[peer.id] = peer
	r.order = append(r.order, peer)
	return peer
}

// Get resolves a routing target. A miss means the target is no longer
// reachable; callers drop the message.
func (r *Registry) Get(id string) (*Peer, bool) {
	r.mx.Lock()
	defer r.mx.Unlock()

	peer, ok := r.peers[id]
	return peer, ok
}

// Remove deletes the entry. Removing an absent id is a no-op.
func (r *Registry) Remove(id string) {
	r.mx.Lock()
	defer r.mx.Unlock()

	if _, ok := r.peers[id]; !ok {
		return
	}
	delete(r.peers, id)
	for i, peer := range r.order {
		if peer.id == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// ListByRole returns a snapshot of peers holding the role, in registration
// order. The snapshot can be iterated without blocking registry mutation.
func (r *Registry) ListByRole(role model.Role) []*Peer {
	r.mx.Lock()
	defer r.mx.Unlock()

	var out []*Peer
	for _, peer := range r.order {
		if peer.Role() == role {
			out = append(out, peer)
		}
	}
	return out
}

// Counts reports how many cameras and viewers are currently connected.
func (r *Registry) Counts() (cameras, viewers int) {
	r.mx.Lock()
	defer r.mx.Unlock()

	for _, peer := range r.order {
		switch peer.Role() {
		case model.RoleCamera:
			cameras++
		case model.RoleViewer:
			viewers++
		}
	}
	return cameras, viewers
}

func (r *Registry) Len() int {
	r.mx.Lock()
	defer r.mx.Unlock()
	return len(r.peers)
}
