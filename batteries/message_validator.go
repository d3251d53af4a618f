package batteries

import (
	"fmt"

	"github.com/Wizzerinus/magicnet/bus"
	"github.com/Wizzerinus/magicnet/netconn"
	"github.com/Wizzerinus/magicnet/protocol"
	"github.com/Wizzerinus/magicnet/typecheck"
)

// MessageValidator type-checks message Params against a declared shape
// before a message is sent and after one is received, dropping whatever
// doesn't match. A message type with no registered shape passes through
// unchecked.
//
// Schemas are supplied explicitly rather than discovered by introspection:
// this module has no processor registry entry equivalent to a Python
// handler's declared argument type to read back, so the caller hands over
// the same shape it already gave the dispatcher when registering the
// processor.
type MessageValidator struct {
	schemas map[protocol.MessageType]typecheck.TupleExpr
}

// NewMessageValidator returns a validator with no schemas registered; add
// them with Register before installing the middleware.
func NewMessageValidator() *MessageValidator {
	return &MessageValidator{schemas: make(map[protocol.MessageType]typecheck.TupleExpr)}
}

// Register declares that every message of type t must have Params matching
// shape.
func (v *MessageValidator) Register(t protocol.MessageType, shape typecheck.TupleExpr) {
	v.schemas[t] = shape
}

// Middleware builds the netconn.Middleware this validator installs on a
// transport handler's chain. Outgoing messages that fail validation are
// dropped (a bug in local code, not a protocol violation, so it's reported
// through the bus rather than risked on the wire); incoming messages that
// fail are dropped with a warning, the same as the original's "ignore and
// warn" handling of a peer sending garbage.
func (v *MessageValidator) Middleware(b *bus.Bus, priority int) netconn.Middleware {
	return netconn.Middleware{
		Name:     "message-validator",
		Priority: priority,
		OnMsgSend: func(msg protocol.Message, _ *netconn.Handle) (protocol.Message, bool) {
			if err := v.check(msg); err != nil {
				b.Emit(bus.EventError, fmt.Errorf("refusing to send invalid message %v: %w", msg.Type, err))
				return msg, false
			}
			return msg, true
		},
		OnMsgRecv: func(msg protocol.Message, _ *netconn.Handle) (protocol.Message, bool) {
			if err := v.check(msg); err != nil {
				b.Emit(bus.EventWarning, fmt.Sprintf("invalid parameters received for message %v, ignoring: %v", msg.Type, err))
				return msg, false
			}
			return msg, true
		},
	}
}

func (v *MessageValidator) check(msg protocol.Message) error {
	shape, ok := v.schemas[msg.Type]
	if !ok {
		return nil
	}
	return typecheck.CheckType(msg.Params, shape)
}
