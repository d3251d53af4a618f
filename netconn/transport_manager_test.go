package netconn_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Wizzerinus/magicnet/bus"
	"github.com/Wizzerinus/magicnet/netconn"
	"github.com/Wizzerinus/magicnet/observability"
	"github.com/Wizzerinus/magicnet/protocol"
)

func TestMessageQueueReentrantFlushesOnce(t *testing.T) {
	b := bus.New()
	var deliveries int
	handler := netconn.NewTransportHandler("peer", jsonEncoder{}, nil,
		func(h *netconn.Handle, data []byte) error { deliveries++; return nil },
		func(h *netconn.Handle) {}, b, observability.NoopLogger())
	h := handler.NewHandle(nil)
	h.Activate()

	tm := netconn.NewTransportManager("local", nil, b, observability.NoopLogger())
	tm.RegisterHandler("peer", handler)

	tm.MessageQueue(func() {
		tm.MessageQueue(func() {
			tm.Send(protocol.Message{Type: protocol.MsgMOTD})
			tm.Send(protocol.Message{Type: protocol.MsgSHUTDOWN})
		})
		// still inside the outer scope: nothing flushed yet.
		assert.Equal(t, 0, deliveries)
	})
	assert.Equal(t, 1, deliveries)
}

func TestSendDeliversImmediatelyWhenNotQueued(t *testing.T) {
	b := bus.New()
	var packed int
	handler := netconn.NewTransportHandler("peer", jsonEncoder{}, nil,
		func(h *netconn.Handle, data []byte) error { packed++; return nil },
		func(h *netconn.Handle) {}, b, observability.NoopLogger())
	h := handler.NewHandle(nil)
	h.Activate()

	tm := netconn.NewTransportManager("local", nil, b, observability.NoopLogger())
	tm.RegisterHandler("peer", handler)

	tm.Send(protocol.Message{Type: protocol.MsgMOTD})
	assert.Equal(t, 1, packed)
}
