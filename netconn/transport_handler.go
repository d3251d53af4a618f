package netconn

import (
	"github.com/google/uuid"

	"github.com/Wizzerinus/magicnet/bus"
	"github.com/Wizzerinus/magicnet/observability"
	"github.com/Wizzerinus/magicnet/protocol"
	"github.com/Wizzerinus/magicnet/wireerr"
)

// Reasons passed to observability.RecordMessageDropped.
const (
	dropReasonValidation         = "validation"
	dropReasonUnknownDestination = "unknown_destination"
)

// LinkSender transmits an encoded datagram body over handle's underlying
// link. Supplied by whichever concrete transport (a battery or an
// application-provided adapter) owns the actual I/O.
type LinkSender func(handle *Handle, data []byte) error

// LinkCloser tears down handle's underlying link.
type LinkCloser func(handle *Handle)

// TransportHandler owns every handle speaking to one remote role: framing,
// encoding, the middleware chain, and filter-based routing.
type TransportHandler struct {
	role        string
	encoder     protocol.Encoder
	filter      HandleFilter
	middlewares *Chain

	connections map[uuid.UUID]*Handle // activated handles, eligible for filter fan-out
	pending     map[uuid.UUID]*Handle // every handle, including pre-activation

	send  LinkSender
	close LinkCloser

	bus *bus.Bus
	log observability.Logger
}

// NewTransportHandler constructs a handler for one remote role. filter may
// be nil, in which case DefaultFilter{} is used.
func NewTransportHandler(role string, encoder protocol.Encoder, filter HandleFilter, send LinkSender, closeFn LinkCloser, b *bus.Bus, log observability.Logger) *TransportHandler {
	if filter == nil {
		filter = DefaultFilter{}
	}
	return &TransportHandler{
		role:        role,
		encoder:     encoder,
		filter:      filter,
		middlewares: NewChain(),
		connections: make(map[uuid.UUID]*Handle),
		pending:     make(map[uuid.UUID]*Handle),
		send:        send,
		close:       closeFn,
		bus:         b,
		log:         log,
	}
}

func (t *TransportHandler) Role() string           { return t.role }
func (t *TransportHandler) Middlewares() *Chain     { return t.middlewares }

// NewHandle creates a handle for a new link. The handle starts INACTIVE; the
// handshake processors (or an application-level connect hook) call Activate
// once HELLO/MOTD succeeds.
func (t *TransportHandler) NewHandle(opaqueLink any) *Handle {
	h := newHandle(t, opaqueLink, t.bus, t.log)
	t.pending[h.id] = h
	return h
}

func (t *TransportHandler) registerHandle(h *Handle) {
	t.connections[h.id] = h
	observability.SetActiveConnections(t.role, len(t.connections))
}

func (t *TransportHandler) removeHandle(h *Handle) {
	delete(t.connections, h.id)
	delete(t.pending, h.id)
	observability.SetActiveConnections(t.role, len(t.connections))
}

func (t *TransportHandler) closeLink(h *Handle) {
	if t.close != nil {
		t.close(h)
	}
}

func (t *TransportHandler) lookup(id uuid.UUID) (*Handle, bool) {
	if h, ok := t.connections[id]; ok {
		return h, true
	}
	if h, ok := t.pending[id]; ok {
		return h, true
	}
	return nil, false
}

// DatagramReceived is the entry point from the I/O layer: runs BYTE_RECV
// middleware (dropping the datagram on a reject), decodes via the encoder,
// stamps each message's sender, runs MSG_RECV middleware (dropping
// individually rejected messages), then fires DATAGRAM_RECEIVED upstream
// with whatever survives.
func (t *TransportHandler) DatagramReceived(handle *Handle, data []byte) error {
	data, ok := t.middlewares.RunByteRecv(data)
	if !ok {
		return nil
	}
	messages, err := t.encoder.Unpack(data)
	if err != nil {
		return wireerr.NewTransportError(err, "failed to decode datagram from handle %s", handle.id)
	}
	for i := range messages {
		messages[i].Sender = handle.id
		observability.RecordMessageReceived(t.role)
	}
	decoded := len(messages)
	messages = t.middlewares.RunMsgRecv(messages, handle)
	for i := 0; i < decoded-len(messages); i++ {
		observability.RecordMessageDropped(dropReasonValidation)
	}
	if len(messages) == 0 {
		return nil
	}
	t.bus.Emit(bus.EventDatagramReceived, messages, handle)
	return nil
}

// Deliver groups messages by resolved destination (explicit Destination
// wins; otherwise the filter determines the fan-out), then for each
// destination group runs MSG_SEND middleware, packs via the encoder, runs
// BYTE_SEND middleware, and hands the result to the link sender. Unknown
// destination UUIDs are dropped with a warning.
func (t *TransportHandler) Deliver(messages []protocol.Message) error {
	groups := make(map[uuid.UUID][]protocol.Message)
	order := make([]uuid.UUID, 0)
	for _, msg := range messages {
		var targets []uuid.UUID
		if msg.Destination != nil {
			targets = []uuid.UUID{*msg.Destination}
		} else {
			targets = t.filter.Resolve(t.connections)
		}
		for _, id := range targets {
			if _, seen := groups[id]; !seen {
				order = append(order, id)
			}
			groups[id] = append(groups[id], msg)
		}
	}
	for _, id := range order {
		group := groups[id]
		handle, ok := t.lookup(id)
		if !ok {
			for range group {
				observability.RecordMessageDropped(dropReasonUnknownDestination)
			}
			t.bus.Emit(bus.EventWarning, "delivery to unknown handle", id.String())
			continue
		}
		sendable := t.middlewares.RunMsgSend(group, handle)
		for i := 0; i < len(group)-len(sendable); i++ {
			observability.RecordMessageDropped(dropReasonValidation)
		}
		if len(sendable) == 0 {
			continue
		}
		body, err := t.encoder.Pack(sendable)
		if err != nil {
			t.bus.Emit(bus.EventError, err)
			continue
		}
		body, ok = t.middlewares.RunByteSend(body)
		if !ok {
			continue
		}
		if t.send == nil {
			continue
		}
		if err := t.send(handle, body); err != nil {
			t.bus.Emit(bus.EventWarning, "failed to send datagram", id.String(), err)
			continue
		}
		for range sendable {
			observability.RecordMessageSent(t.role)
		}
	}
	return nil
}

// SendMotd sends a MOTD message addressed specifically at handle. The
// server side calls this before activating the handle.
func (t *TransportHandler) SendMotd(handle *Handle, motd string) error {
	msg := protocol.Message{Type: protocol.MsgMOTD, Params: []any{motd}}.WithDestination(handle.id)
	return t.Deliver([]protocol.Message{msg})
}

// Shutdown destroys every handle, active or pending; each destroy fires
// HANDLE_DESTROYED.
func (t *TransportHandler) Shutdown() {
	seen := make(map[uuid.UUID]bool)
	handles := make([]*Handle, 0, len(t.connections)+len(t.pending))
	for _, h := range t.connections {
		handles = append(handles, h)
		seen[h.id] = true
	}
	for _, h := range t.pending {
		if !seen[h.id] {
			handles = append(handles, h)
		}
	}
	for _, h := range handles {
		h.Destroy()
	}
}
