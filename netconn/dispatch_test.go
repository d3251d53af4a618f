package netconn_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Wizzerinus/magicnet/bus"
	"github.com/Wizzerinus/magicnet/netconn"
	"github.com/Wizzerinus/magicnet/observability"
	"github.com/Wizzerinus/magicnet/protocol"
)

func TestProcessMessageRequiresHelloGateDisconnectsInactiveSender(t *testing.T) {
	b := bus.New()
	disconnects := 0
	b.Listen("test", bus.EventHandleDestroyed, 0, func(args ...any) { disconnects++ })

	handler := netconn.NewTransportHandler("peer", jsonEncoder{}, nil,
		func(h *netconn.Handle, data []byte) error { return nil },
		func(h *netconn.Handle) {}, b, observability.NoopLogger())
	h := handler.NewHandle(nil)

	invoked := false
	d := netconn.NewDispatcher(b, observability.NoopLogger())
	d.Register(200, netconn.NewProcessor(true, func(ctx *netconn.ProcessContext) error {
		invoked = true
		return nil
	}))

	d.ProcessMessage(&netconn.ProcessContext{Message: protocol.Message{Type: 200}, Sender: h})
	assert.False(t, invoked)
	assert.True(t, h.Destroyed())
	assert.Equal(t, 1, disconnects)
}

func TestProcessMessageAllowsActivatedSender(t *testing.T) {
	b := bus.New()
	handler := netconn.NewTransportHandler("peer", jsonEncoder{}, nil,
		func(h *netconn.Handle, data []byte) error { return nil },
		func(h *netconn.Handle) {}, b, observability.NoopLogger())
	h := handler.NewHandle(nil)
	h.Activate()

	invoked := false
	d := netconn.NewDispatcher(b, observability.NoopLogger())
	d.Register(200, netconn.NewProcessor(true, func(ctx *netconn.ProcessContext) error {
		invoked = true
		return nil
	}))

	d.ProcessMessage(&netconn.ProcessContext{Message: protocol.Message{Type: 200}, Sender: h})
	assert.True(t, invoked)
	assert.False(t, h.Destroyed())
}

func TestProcessMessageUnknownReservedCodeEmitsError(t *testing.T) {
	b := bus.New()
	errs := 0
	b.Listen("test", bus.EventError, 0, func(args ...any) { errs++ })
	d := netconn.NewDispatcher(b, observability.NoopLogger())

	d.ProcessMessage(&netconn.ProcessContext{Message: protocol.Message{Type: 9}})
	assert.Equal(t, 1, errs)
}

func TestProcessMessageUnknownApplicationCodeEmitsWarning(t *testing.T) {
	b := bus.New()
	warnings := 0
	b.Listen("test", bus.EventWarning, 0, func(args ...any) { warnings++ })
	d := netconn.NewDispatcher(b, observability.NoopLogger())

	d.ProcessMessage(&netconn.ProcessContext{Message: protocol.Message{Type: 100}})
	assert.Equal(t, 1, warnings)
}

func TestProcessMessageProcessorErrorBecomesException(t *testing.T) {
	b := bus.New()
	exceptions := 0
	b.Listen("test", bus.EventException, 0, func(args ...any) { exceptions++ })

	handler := netconn.NewTransportHandler("peer", jsonEncoder{}, nil,
		func(h *netconn.Handle, data []byte) error { return nil },
		func(h *netconn.Handle) {}, b, observability.NoopLogger())
	h := handler.NewHandle(nil)
	h.Activate()

	d := netconn.NewDispatcher(b, observability.NoopLogger())
	d.Register(200, netconn.NewProcessor(false, func(ctx *netconn.ProcessContext) error {
		return errors.New("boom")
	}))

	d.ProcessMessage(&netconn.ProcessContext{Message: protocol.Message{Type: 200}, Sender: h})
	assert.Equal(t, 1, exceptions)
}

func TestProcessMessagePanicIsRecoveredAsException(t *testing.T) {
	b := bus.New()
	exceptions := 0
	b.Listen("test", bus.EventException, 0, func(args ...any) { exceptions++ })

	handler := netconn.NewTransportHandler("peer", jsonEncoder{}, nil,
		func(h *netconn.Handle, data []byte) error { return nil },
		func(h *netconn.Handle) {}, b, observability.NoopLogger())
	h := handler.NewHandle(nil)
	h.Activate()

	d := netconn.NewDispatcher(b, observability.NoopLogger())
	d.Register(200, netconn.NewProcessor(false, func(ctx *netconn.ProcessContext) error {
		panic("kaboom")
	}))

	assert.NotPanics(t, func() {
		d.ProcessMessage(&netconn.ProcessContext{Message: protocol.Message{Type: 200}, Sender: h})
	})
	assert.Equal(t, 1, exceptions)
}
