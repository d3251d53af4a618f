// Package bus provides the ordered event/math-target dispatch that every
// other package in this module uses for cross-cutting notification: "an
// event happened" (Emit, fire-and-forget, fan-out) and "fold a value through
// every interested listener" (Calculate, an ordered reduce). Both are keyed
// by an owner id so that a single IgnoreAll call can mass-unregister
// everything one component installed, without the component having to track
// its own subscription handles.
package bus

import "sort"

// Owner identifies whoever registered a listener or math target, so that
// Bus.IgnoreAll(owner) can remove every registration that owner made in one
// call. Connection handles and transport middlewares use their own identity
// (e.g. a uuid.UUID string) as the owner.
type Owner string

// Standard event names fired by netconn and netobject. Applications may emit
// their own event names; the bus does not distinguish reserved from
// application events the way the message-type-code range does.
const (
	EventDebug            = "DEBUG"
	EventInfo             = "INFO"
	EventWarning          = "WARNING"
	EventError            = "ERROR"
	EventException        = "EXCEPTION"
	EventDatagramReceived = "DATAGRAM_RECEIVED"
	EventHandleActivated  = "HANDLE_ACTIVATED"
	EventHandleDestroyed  = "HANDLE_DESTROYED"
	EventMotdSet          = "MOTD_SET"
	EventBeforeLaunch     = "BEFORE_LAUNCH"
	EventBeforeShutdown   = "BEFORE_SHUTDOWN"
	EventDisconnect       = "DISCONNECT"
	EventBadNetworkCall   = "BAD_NETWORK_OBJECT_CALL"
)

// Standard math-target names. A math target folds a starting value through
// every registered callback in priority order; the result of one callback
// becomes the input to the next.
const (
	MathMsgSend           = "MSG_SEND"
	MathMsgRecv           = "MSG_RECV"
	MathByteSend          = "BYTE_SEND"
	MathByteRecv          = "BYTE_RECV"
	MathVisibleObjects    = "VISIBLE_OBJECTS"
	MathFieldCallAllowed  = "FIELD_CALL_ALLOWED"
)

// Listener is called when an event fires. Return values are ignored; use
// Calculate for a value-carrying reduce.
type Listener func(args ...any)

// MathCallback folds an accumulator value. It receives the current value
// plus the same extra args every callback in the chain receives, and returns
// the (possibly transformed) value for the next callback.
type MathCallback func(value any, args ...any) any

type registration struct {
	owner    Owner
	priority int
	seq      uint64 // insertion order, for stable sort among equal priorities
	listener Listener
	math     MathCallback
}

// Bus is the event/math-target dispatcher. Build one with New; the zero
// value has no registration maps and Listen panics on it. A
// Bus is not safe for concurrent use from multiple goroutines without
// external synchronization; every network manager owns exactly one goroutine,
// so no bus instance is ever touched from two goroutines at once.
type Bus struct {
	events       map[string][]*registration
	mathTargets  map[string][]*registration
	byOwner      map[Owner][]*registration
	seq          uint64
	currentEvent *eventContext
}

type eventContext struct {
	event  string
	args   []any
	parent *eventContext
}

// New returns a ready-to-use Bus.
func New() *Bus {
	return &Bus{
		events:      make(map[string][]*registration),
		mathTargets: make(map[string][]*registration),
		byOwner:     make(map[Owner][]*registration),
	}
}

// Listen registers listener for event under owner, at the given priority.
// Events dispatch in ascending priority order.
func (b *Bus) Listen(owner Owner, event string, priority int, listener Listener) {
	reg := &registration{owner: owner, priority: priority, seq: b.nextSeq(), listener: listener}
	b.events[event] = insertSorted(b.events[event], reg)
	b.byOwner[owner] = append(b.byOwner[owner], reg)
}

// AddMathTarget registers a math callback for target under owner, at the
// given priority. Math callbacks run in ascending priority order.
func (b *Bus) AddMathTarget(owner Owner, target string, priority int, cb MathCallback) {
	reg := &registration{owner: owner, priority: priority, seq: b.nextSeq(), math: cb}
	b.mathTargets[target] = insertSorted(b.mathTargets[target], reg)
	b.byOwner[owner] = append(b.byOwner[owner], reg)
}

func (b *Bus) nextSeq() uint64 {
	b.seq++
	return b.seq
}

func insertSorted(regs []*registration, reg *registration) []*registration {
	regs = append(regs, reg)
	sort.SliceStable(regs, func(i, j int) bool {
		if regs[i].priority != regs[j].priority {
			return regs[i].priority < regs[j].priority
		}
		return regs[i].seq < regs[j].seq
	})
	return regs
}

// Emit fires event in ascending-priority order, fanning out to every
// registered listener. A no-op if nothing is registered for event.
func (b *Bus) Emit(event string, args ...any) {
	regs := b.events[event]
	if len(regs) == 0 {
		return
	}
	ctx := &eventContext{event: event, args: args, parent: b.currentEvent}
	b.currentEvent = ctx
	defer func() { b.currentEvent = ctx.parent }()
	for _, reg := range regs {
		reg.listener(args...)
	}
}

// Calculate folds value through every math target registered for target, in
// priority order, and returns the final value. A no-op passthrough if
// nothing is registered.
func (b *Bus) Calculate(target string, value any, args ...any) any {
	for _, reg := range b.mathTargets[target] {
		value = reg.math(value, args...)
	}
	return value
}

// CurrentEvent returns the event name currently being dispatched (the
// innermost Emit on the call stack), or "" if none.
func (b *Bus) CurrentEvent() string {
	if b.currentEvent == nil {
		return ""
	}
	return b.currentEvent.event
}

// IgnoreAll removes every listener and math target owner registered,
// regardless of which event or target it was registered under. This is what
// backs a connection handle's or middleware's idempotent Destroy.
func (b *Bus) IgnoreAll(owner Owner) {
	regs, ok := b.byOwner[owner]
	if !ok {
		return
	}
	delete(b.byOwner, owner)
	owned := make(map[*registration]bool, len(regs))
	for _, r := range regs {
		owned[r] = true
	}
	for event, list := range b.events {
		b.events[event] = filterOut(list, owned)
	}
	for target, list := range b.mathTargets {
		b.mathTargets[target] = filterOut(list, owned)
	}
}

func filterOut(regs []*registration, owned map[*registration]bool) []*registration {
	out := regs[:0:0]
	for _, r := range regs {
		if !owned[r] {
			out = append(out, r)
		}
	}
	return out
}
