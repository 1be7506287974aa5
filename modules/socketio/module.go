// Package socketio bridges a socket.io server with running graphs: remote
// events are dispatched as graph events and graphs emit through the
// SocketIO.Emit function.
package socketio

import (
	"context"
	"errors"
	"sync"

	"github.com/specialistvlad/ceresflow/internal/registry"
)

// ErrNotConnected is returned by SocketIO.Emit before a client is attached.
var ErrNotConnected = errors.New("socket.io client is not connected")

// Emitter sends events to the remote side.
type Emitter interface {
	Emit(event string, args ...any) error
}

// Module implements the registry.Module interface for this package.
type Module struct {
	mu      sync.RWMutex
	emitter Emitter
}

// Attach sets the emitter used by SocketIO.Emit. Passing nil detaches it.
func (m *Module) Attach(e Emitter) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.emitter = e
}

func (m *Module) emit(_ context.Context, event string, data any) (bool, error) {
	m.mu.RLock()
	e := m.emitter
	m.mu.RUnlock()
	if e == nil {
		return false, ErrNotConnected
	}
	if data == nil {
		return true, e.Emit(event)
	}
	return true, e.Emit(event, data)
}

// Register registers the SocketIO functions.
func (m *Module) Register(r *registry.Registry) {
	registry.Func2(r, "SocketIO", "Emit", m.emit)
	registry.Func0(r, "SocketIO", "Connected", func(context.Context) (bool, error) {
		m.mu.RLock()
		defer m.mu.RUnlock()
		return m.emitter != nil, nil
	})
}
