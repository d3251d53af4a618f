package netconn_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Wizzerinus/magicnet/bus"
	"github.com/Wizzerinus/magicnet/netconn"
	"github.com/Wizzerinus/magicnet/observability"
	"github.com/Wizzerinus/magicnet/typecheck"
)

func newTestHandler(t *testing.T, b *bus.Bus) *netconn.TransportHandler {
	t.Helper()
	return netconn.NewTransportHandler("peer", jsonEncoder{}, nil,
		func(h *netconn.Handle, data []byte) error { return nil },
		func(h *netconn.Handle) {},
		b, observability.NoopLogger())
}

func TestHandleActivateIdempotent(t *testing.T) {
	b := bus.New()
	activations := 0
	b.Listen("test", bus.EventHandleActivated, 0, func(args ...any) { activations++ })

	handler := newTestHandler(t, b)
	h := handler.NewHandle(nil)

	assert.False(t, h.Activated())
	h.Activate()
	h.Activate()
	h.Activate()
	assert.True(t, h.Activated())
	assert.Equal(t, 1, activations)
}

func TestHandleDestroyIdempotent(t *testing.T) {
	b := bus.New()
	destructions := 0
	b.Listen("test", bus.EventHandleDestroyed, 0, func(args ...any) { destructions++ })

	handler := newTestHandler(t, b)
	h := handler.NewHandle(nil)
	h.Activate()

	h.Destroy()
	h.Destroy()
	assert.True(t, h.Destroyed())
	assert.Equal(t, 1, destructions)
}

func TestHandleSharedParameterRoundtrip(t *testing.T) {
	b := bus.New()
	handler := newTestHandler(t, b)
	h := handler.NewHandle(nil)
	h.Activate()

	h.SetSharedParameter("rp", uint32(130))
	value, ok := h.GetSharedParameter("rp", typecheck.AnyExpr{}, false)
	assert.True(t, ok)
	assert.Equal(t, uint32(130), value)
}

func TestHandleGetSharedParameterDisconnectsOnInvariantBreak(t *testing.T) {
	b := bus.New()
	destructions := 0
	b.Listen("test", bus.EventHandleDestroyed, 0, func(args ...any) { destructions++ })

	handler := newTestHandler(t, b)
	h := handler.NewHandle(nil)
	h.Activate()

	_, ok := h.GetSharedParameter("missing", typecheck.StrExpr{}, true)
	assert.False(t, ok)
	assert.True(t, h.Destroyed())
	assert.Equal(t, 1, destructions)
}

func TestHandleGetSharedParameterWarnsWithoutDisconnect(t *testing.T) {
	b := bus.New()
	warnings := 0
	b.Listen("test", bus.EventWarning, 0, func(args ...any) { warnings++ })

	handler := newTestHandler(t, b)
	h := handler.NewHandle(nil)
	h.Activate()

	_, ok := h.GetSharedParameter("missing", typecheck.StrExpr{}, false)
	assert.False(t, ok)
	assert.False(t, h.Destroyed())
	assert.Equal(t, 1, warnings)
}
