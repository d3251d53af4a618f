// Package netconn implements the connection/handshake layer: per-peer
// handles, the middleware chain, transport handlers and the transport
// manager that multiplexes them, the datagram dispatcher, and the root
// network manager.
package netconn

import (
	"github.com/google/uuid"

	"github.com/Wizzerinus/magicnet/bus"
	"github.com/Wizzerinus/magicnet/observability"
	"github.com/Wizzerinus/magicnet/protocol"
	"github.com/Wizzerinus/magicnet/typecheck"
	"github.com/Wizzerinus/magicnet/wireerr"
)

// HandleState is a handle's position in its INACTIVE -> ACTIVE -> DESTROYED
// lifecycle. The transition is one-way; activate and destroy are each
// idempotent and fire their event exactly once.
type HandleState int

const (
	HandleInactive HandleState = iota
	HandleActive
	HandleDestroyed
)

// Handle is one connected peer's identity, scoped to the TransportHandler
// that owns it.
type Handle struct {
	id        uuid.UUID
	transport *TransportHandler
	opaqueLink any

	state HandleState

	localContext     map[string]any
	sharedParameters map[string]any

	bus *bus.Bus
	log observability.Logger
}

func newHandle(transport *TransportHandler, opaqueLink any, b *bus.Bus, log observability.Logger) *Handle {
	return &Handle{
		id:               uuid.New(),
		transport:        transport,
		opaqueLink:       opaqueLink,
		state:            HandleInactive,
		localContext:     make(map[string]any),
		sharedParameters: make(map[string]any),
		bus:              b,
		log:              log,
	}
}

// UUID is the identity used in message routing, shared-parameter events, and
// the bus owner key for this handle's own registrations.
func (h *Handle) UUID() uuid.UUID { return h.id }

// Owner is this handle's bus.Owner key, used so its destroy path can mass
// unregister whatever it registered on the bus (currently nothing, but kept
// for symmetry with middlewares/object views that do).
func (h *Handle) Owner() bus.Owner { return bus.Owner(h.id.String()) }

// Transport returns the TransportHandler this handle belongs to, so a
// message processor can address a reply directly at it.
func (h *Handle) Transport() *TransportHandler { return h.transport }

func (h *Handle) Activated() bool { return h.state == HandleActive }
func (h *Handle) Destroyed() bool { return h.state == HandleDestroyed }

// Activate is idempotent: the first call transitions the handle to ACTIVE,
// registers it in the owning transport's connection map, and fires
// HANDLE_ACTIVATED. Later calls are no-ops.
func (h *Handle) Activate() {
	if h.state != HandleInactive {
		return
	}
	h.state = HandleActive
	h.transport.registerHandle(h)
	h.bus.Emit(bus.EventHandleActivated, h)
}

// Destroy is idempotent: the first call fires HANDLE_DESTROYED, asks the
// transport to tear down the underlying link, and removes the handle from
// its connection map. Later calls are no-ops.
func (h *Handle) Destroy() {
	if h.state == HandleDestroyed {
		return
	}
	h.state = HandleDestroyed
	h.bus.Emit(bus.EventHandleDestroyed, h)
	h.transport.closeLink(h)
	h.transport.removeHandle(h)
}

// SendDisconnect sends a DISCONNECT message addressed specifically at this
// handle (bypassing the filter) and then destroys it.
func (h *Handle) SendDisconnect(reason protocol.DisconnectReason, detail string) {
	msg := protocol.Message{Type: protocol.MsgDISCONNECT, Params: []any{uint8(reason), detail}}.WithDestination(h.id)
	if err := h.transport.Deliver([]protocol.Message{msg}); err != nil {
		h.log.Warn("failed to deliver disconnect message", "handle", h.id, "error", err)
	}
	h.Destroy()
}

// SetSharedParameter updates the local shared-parameter table and sends a
// SHARED_PARAMETER message to the peer so both sides agree on the value.
func (h *Handle) SetSharedParameter(name string, value any) {
	h.sharedParameters[name] = value
	msg := protocol.Message{Type: protocol.MsgSHAREDPARAMETER, Params: []any{name, value}}.WithDestination(h.id)
	if err := h.transport.Deliver([]protocol.Message{msg}); err != nil {
		h.log.Warn("failed to deliver shared parameter", "handle", h.id, "name", name, "error", err)
	}
}

// setSharedParameterLocal is called by the SHARED_PARAMETER processor when a
// value arrives from the peer: it updates the table without resending.
func (h *Handle) setSharedParameterLocal(name string, value any) {
	h.sharedParameters[name] = value
}

// GetSharedParameter reads and type-checks a shared parameter. On missing or
// wrong-type value, it either disconnects the peer with BROKEN_INVARIANT (if
// disconnect is true) or emits a warning and returns ok=false.
func (h *Handle) GetSharedParameter(name string, expr typecheck.Expr, disconnect bool) (any, bool) {
	value, present := h.sharedParameters[name]
	if present {
		if err := typecheck.CheckType(value, expr); err == nil {
			return value, true
		}
	}
	if disconnect {
		h.SendDisconnect(protocol.ReasonBrokenInvariant, "shared parameter "+name+" missing or malformed")
		return nil, false
	}
	h.bus.Emit(bus.EventWarning, wireerr.NewValidationError(wireerr.KindTypeComparisonFailed, expr.String(),
		"shared parameter %q missing or malformed", name))
	return nil, false
}

// LocalContext is a per-handle scratch map for local-only state (never
// replicated, never transmitted).
func (h *Handle) LocalContext() map[string]any { return h.localContext }
