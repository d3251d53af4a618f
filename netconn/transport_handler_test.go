package netconn_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Wizzerinus/magicnet/bus"
	"github.com/Wizzerinus/magicnet/netconn"
	"github.com/Wizzerinus/magicnet/observability"
	"github.com/Wizzerinus/magicnet/protocol"
)

func TestDeliverExplicitDestinationBypassesFilter(t *testing.T) {
	b := bus.New()
	var sentTo []uuid.UUID
	handler := netconn.NewTransportHandler("peer", jsonEncoder{}, netconn.DefaultFilter{},
		func(h *netconn.Handle, data []byte) error { sentTo = append(sentTo, h.UUID()); return nil },
		func(h *netconn.Handle) {}, b, observability.NoopLogger())

	h1 := handler.NewHandle(nil)
	h1.Activate()
	h2 := handler.NewHandle(nil)
	h2.Activate()

	msg := protocol.Message{Type: protocol.MsgSHAREDPARAMETER}.WithDestination(h2.UUID())
	require.NoError(t, handler.Deliver([]protocol.Message{msg}))

	assert.Equal(t, []uuid.UUID{h2.UUID()}, sentTo)
}

func TestDeliverUnknownDestinationWarns(t *testing.T) {
	b := bus.New()
	warnings := 0
	b.Listen("test", bus.EventWarning, 0, func(args ...any) { warnings++ })

	handler := netconn.NewTransportHandler("peer", jsonEncoder{}, nil,
		func(h *netconn.Handle, data []byte) error { return nil },
		func(h *netconn.Handle) {}, b, observability.NoopLogger())

	msg := protocol.Message{Type: protocol.MsgSHAREDPARAMETER}.WithDestination(uuid.New())
	require.NoError(t, handler.Deliver([]protocol.Message{msg}))
	assert.Equal(t, 1, warnings)
}

func TestDatagramReceivedAppliesMiddlewareAndFiresEvent(t *testing.T) {
	b := bus.New()
	var received []protocol.Message
	b.Listen("test", bus.EventDatagramReceived, 0, func(args ...any) {
		received = args[0].([]protocol.Message)
	})

	handler := netconn.NewTransportHandler("peer", jsonEncoder{}, nil,
		func(h *netconn.Handle, data []byte) error { return nil },
		func(h *netconn.Handle) {}, b, observability.NoopLogger())
	handler.Middlewares().Register(netconn.Middleware{
		Name: "drop-hello", Priority: 0,
		OnMsgRecv: func(msg protocol.Message, _ *netconn.Handle) (protocol.Message, bool) {
			return msg, msg.Type != protocol.MsgHELLO
		},
	})

	h := handler.NewHandle(nil)
	body, err := jsonEncoder{}.Pack([]protocol.Message{{Type: protocol.MsgHELLO}, {Type: protocol.MsgMOTD}})
	require.NoError(t, err)

	require.NoError(t, handler.DatagramReceived(h, body))
	require.Len(t, received, 1)
	assert.Equal(t, protocol.MsgMOTD, received[0].Type)
	assert.Equal(t, h.UUID(), received[0].Sender)
}
