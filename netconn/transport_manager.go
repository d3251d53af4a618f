package netconn

import (
	"github.com/google/uuid"

	"github.com/Wizzerinus/magicnet/bus"
	"github.com/Wizzerinus/magicnet/observability"
	"github.com/Wizzerinus/magicnet/protocol"
)

// ResolveDestination maps a message to the set of remote roles it should be
// delivered to. The zero value (nil) makes TransportManager fall back to
// "every known remote role".
type ResolveDestination func(msg protocol.Message, knownRoles []string) []string

// TransportManager multiplexes one TransportHandler per remote role and
// batches outbound sends through a re-entrant queue.
type TransportManager struct {
	role     string
	handlers map[string]*TransportHandler
	resolve  ResolveDestination

	queueDepth int
	queue      []protocol.Message

	bus *bus.Bus
	log observability.Logger
}

// NewTransportManager returns a manager for role, with resolve as the
// destination strategy (nil means "every known remote role").
func NewTransportManager(role string, resolve ResolveDestination, b *bus.Bus, log observability.Logger) *TransportManager {
	return &TransportManager{
		role:     role,
		handlers: make(map[string]*TransportHandler),
		resolve:  resolve,
		bus:      b,
		log:      log,
	}
}

// RegisterHandler attaches a TransportHandler for remoteRole.
func (tm *TransportManager) RegisterHandler(remoteRole string, h *TransportHandler) {
	tm.handlers[remoteRole] = h
}

func (tm *TransportManager) Handler(remoteRole string) (*TransportHandler, bool) {
	h, ok := tm.handlers[remoteRole]
	return h, ok
}

func (tm *TransportManager) knownRoles() []string {
	roles := make([]string, 0, len(tm.handlers))
	for r := range tm.handlers {
		roles = append(roles, r)
	}
	return roles
}

// Send appends msg to the delivery queue if a MessageQueue scope is active,
// otherwise delivers it immediately.
func (tm *TransportManager) Send(msg protocol.Message) {
	if tm.queueDepth > 0 {
		tm.queue = append(tm.queue, msg)
		return
	}
	tm.deliver([]protocol.Message{msg})
}

// MessageQueue runs fn with queuing active, flushing every message sent
// during fn in one batch when the outermost scope exits. Nested calls are
// re-entrant: only the outermost call flushes.
func (tm *TransportManager) MessageQueue(fn func()) {
	tm.queueDepth++
	defer func() {
		tm.queueDepth--
		if tm.queueDepth == 0 && len(tm.queue) > 0 {
			pending := tm.queue
			tm.queue = nil
			tm.deliver(pending)
		}
	}()
	fn()
}

// ownerRole returns the role of the one handler whose connection/pending map
// contains id, if any. Used to route an explicit-destination message
// directly instead of fanning it out to every handler to find out which one
// owns it.
func (tm *TransportManager) ownerRole(id uuid.UUID) (string, bool) {
	for role, h := range tm.handlers {
		if _, ok := h.lookup(id); ok {
			return role, true
		}
	}
	return "", false
}

func (tm *TransportManager) deliver(messages []protocol.Message) {
	roles := tm.knownRoles()
	byRole := make(map[string][]protocol.Message)
	order := make([]string, 0)
	for _, msg := range messages {
		var targets []string
		if msg.Destination != nil {
			if role, ok := tm.ownerRole(*msg.Destination); ok {
				targets = []string{role}
			} else {
				// Unknown to every handler; fan out so whichever handler
				// would normally report the miss still gets a chance to.
				targets = roles
			}
		} else if tm.resolve != nil {
			targets = tm.resolve(msg, roles)
		} else {
			targets = roles
		}
		for _, role := range targets {
			if _, ok := byRole[role]; !ok {
				order = append(order, role)
			}
			byRole[role] = append(byRole[role], msg)
		}
	}
	for _, role := range order {
		handler, ok := tm.handlers[role]
		if !ok {
			tm.bus.Emit(bus.EventError, "unknown destination role", role)
			continue
		}
		if err := handler.Deliver(byRole[role]); err != nil {
			tm.bus.Emit(bus.EventWarning, "delivery failed", role, err)
		}
	}
}
