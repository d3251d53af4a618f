package netconn

import (
	"sort"

	"github.com/Wizzerinus/magicnet/protocol"
)

// MsgOperator transforms or drops one message. handle is the peer the
// message is being received from (OnMsgRecv) or delivered to (OnMsgSend);
// send-side operators use it for per-recipient decisions such as
// zone-based visibility filtering. Returning ok=false drops the message.
type MsgOperator func(msg protocol.Message, handle *Handle) (out protocol.Message, ok bool)

// ByteOperator transforms or drops an entire datagram body. Returning
// ok=false drops the whole datagram.
type ByteOperator func(data []byte) (out []byte, ok bool)

// Middleware installs up to two operators per direction (bytes and/or
// messages). Any of the four fields may be nil.
type Middleware struct {
	Name     string
	Priority int

	OnMsgSend  MsgOperator
	OnMsgRecv  MsgOperator
	OnByteSend ByteOperator
	OnByteRecv ByteOperator
}

// Chain holds the registered middlewares for one transport handler, kept
// sorted by Priority so send (ascending) and receive (descending) passes can
// both walk it directly.
type Chain struct {
	middlewares []Middleware
}

// NewChain returns an empty middleware chain.
func NewChain() *Chain { return &Chain{} }

// Register adds mw to the chain, keeping it sorted ascending by priority.
func (c *Chain) Register(mw Middleware) {
	c.middlewares = append(c.middlewares, mw)
	sort.SliceStable(c.middlewares, func(i, j int) bool {
		return c.middlewares[i].Priority < c.middlewares[j].Priority
	})
}

// RunMsgSend applies every OnMsgSend operator in ascending priority order,
// dropping messages any operator rejects. handle is the recipient this
// batch is being delivered to.
func (c *Chain) RunMsgSend(messages []protocol.Message, handle *Handle) []protocol.Message {
	for _, mw := range c.middlewares {
		if mw.OnMsgSend == nil {
			continue
		}
		messages = applyMsgOperator(messages, handle, mw.OnMsgSend)
	}
	return messages
}

// RunMsgRecv applies every OnMsgRecv operator in descending priority order.
// handle is the sender this batch was received from.
func (c *Chain) RunMsgRecv(messages []protocol.Message, handle *Handle) []protocol.Message {
	for i := len(c.middlewares) - 1; i >= 0; i-- {
		mw := c.middlewares[i]
		if mw.OnMsgRecv == nil {
			continue
		}
		messages = applyMsgOperator(messages, handle, mw.OnMsgRecv)
	}
	return messages
}

// RunByteSend applies every OnByteSend operator in ascending priority order.
// Returns ok=false if any operator drops the datagram.
func (c *Chain) RunByteSend(data []byte) ([]byte, bool) {
	for _, mw := range c.middlewares {
		if mw.OnByteSend == nil {
			continue
		}
		var ok bool
		data, ok = mw.OnByteSend(data)
		if !ok {
			return nil, false
		}
	}
	return data, true
}

// RunByteRecv applies every OnByteRecv operator in descending priority order.
func (c *Chain) RunByteRecv(data []byte) ([]byte, bool) {
	for i := len(c.middlewares) - 1; i >= 0; i-- {
		mw := c.middlewares[i]
		if mw.OnByteRecv == nil {
			continue
		}
		var ok bool
		data, ok = mw.OnByteRecv(data)
		if !ok {
			return nil, false
		}
	}
	return data, true
}

func applyMsgOperator(messages []protocol.Message, handle *Handle, op MsgOperator) []protocol.Message {
	out := messages[:0:0]
	for _, m := range messages {
		if transformed, ok := op(m, handle); ok {
			out = append(out, transformed)
		}
	}
	return out
}
