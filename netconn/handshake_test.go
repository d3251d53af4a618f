package netconn_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Wizzerinus/magicnet/bus"
	"github.com/Wizzerinus/magicnet/netcfg"
	"github.com/Wizzerinus/magicnet/netconn"
	"github.com/Wizzerinus/magicnet/observability"
	"github.com/Wizzerinus/magicnet/protocol"
	"github.com/Wizzerinus/magicnet/typecheck"
)

func newTestManager(t *testing.T, cfg netcfg.Config) (*netconn.NetworkManager, *bus.Bus) {
	t.Helper()
	b := bus.New()
	nm, err := netconn.New(cfg, nil, b, observability.NoopLogger())
	require.NoError(t, err)
	return nm, b
}

func connectedHandle(t *testing.T, nm *netconn.NetworkManager) (*netconn.Handle, *netconn.TransportHandler) {
	t.Helper()
	handler := nm.OpenServer("peer", jsonEncoder{}, nil,
		func(h *netconn.Handle, data []byte) error { return nil },
		func(h *netconn.Handle) {})
	h := nm.AcceptClientLink(handler, nil)
	return h, handler
}

func TestHandshakeHelloActivatesAndAssignsRepository(t *testing.T) {
	nm, _ := newTestManager(t, netcfg.Config{NetworkHash: []byte("abc")})
	h, _ := connectedHandle(t, nm)

	ctx := &netconn.ProcessContext{
		Message: protocol.Message{Type: protocol.MsgHELLO, Params: []any{protocol.ProtocolVersion, []byte("abc")}},
		Sender:  h,
		Manager: nm,
	}
	nm.Dispatcher().ProcessMessage(ctx)

	assert.True(t, h.Activated())
	rp, ok := h.GetSharedParameter("rp", typecheck.AnyExpr{}, false)
	require.True(t, ok)
	assert.GreaterOrEqual(t, rp.(uint32), uint32(128))
}

func TestHandshakeHelloVersionMismatchDisconnects(t *testing.T) {
	nm, _ := newTestManager(t, netcfg.Config{NetworkHash: []byte("abc")})
	h, _ := connectedHandle(t, nm)

	ctx := &netconn.ProcessContext{
		Message: protocol.Message{Type: protocol.MsgHELLO, Params: []any{uint16(99), []byte("abc")}},
		Sender:  h,
		Manager: nm,
	}
	nm.Dispatcher().ProcessMessage(ctx)

	assert.True(t, h.Destroyed())
	assert.False(t, h.Activated())
}

func TestHandshakeHelloHashMismatchDisconnects(t *testing.T) {
	nm, _ := newTestManager(t, netcfg.Config{NetworkHash: []byte("abc")})
	h, _ := connectedHandle(t, nm)

	ctx := &netconn.ProcessContext{
		Message: protocol.Message{Type: protocol.MsgHELLO, Params: []any{protocol.ProtocolVersion, []byte("xyz")}},
		Sender:  h,
		Manager: nm,
	}
	nm.Dispatcher().ProcessMessage(ctx)

	assert.True(t, h.Destroyed())
	assert.False(t, h.Activated())
}

func TestHandshakeDuplicateHelloDisconnects(t *testing.T) {
	nm, _ := newTestManager(t, netcfg.Config{NetworkHash: []byte("abc")})
	h, _ := connectedHandle(t, nm)

	helloCtx := func() *netconn.ProcessContext {
		return &netconn.ProcessContext{
			Message: protocol.Message{Type: protocol.MsgHELLO, Params: []any{protocol.ProtocolVersion, []byte("abc")}},
			Sender:  h,
			Manager: nm,
		}
	}
	nm.Dispatcher().ProcessMessage(helloCtx())
	assert.True(t, h.Activated())

	// The second HELLO arrives on the same handle, which the first HELLO
	// already activated.
	ctx2 := helloCtx()
	nm.Dispatcher().ProcessMessage(ctx2)
	assert.True(t, h.Destroyed())
}

func TestHandshakeMotdSendsHelloReply(t *testing.T) {
	var captured []protocol.Message
	nm, b := newTestManager(t, netcfg.Config{})
	handler := nm.OpenClient("peer", jsonEncoder{}, nil,
		func(h *netconn.Handle, data []byte) error {
			messages, err := jsonEncoder{}.Unpack(data)
			require.NoError(t, err)
			captured = append(captured, messages...)
			return nil
		}, func(h *netconn.Handle) {})
	h := nm.AcceptClientLink(handler, nil)

	motdSet := 0
	b.Listen("test", bus.EventMotdSet, 0, func(args ...any) { motdSet++ })

	ctx := &netconn.ProcessContext{
		Message: protocol.Message{Type: protocol.MsgMOTD, Params: []any{"welcome"}},
		Sender:  h,
		Manager: nm,
	}
	nm.Dispatcher().ProcessMessage(ctx)

	assert.Equal(t, 1, motdSet)
	require.Len(t, captured, 1)
	assert.Equal(t, protocol.MsgHELLO, captured[0].Type)
}
