package netconn_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/Wizzerinus/magicnet/netconn"
	"github.com/Wizzerinus/magicnet/protocol"
)

func TestChainOrderingSendAscendingRecvDescending(t *testing.T) {
	var order []string
	chain := netconn.NewChain()
	chain.Register(netconn.Middleware{
		Name: "b", Priority: 10,
		OnMsgSend: func(msg protocol.Message, _ *netconn.Handle) (protocol.Message, bool) { order = append(order, "b"); return msg, true },
		OnMsgRecv: func(msg protocol.Message, _ *netconn.Handle) (protocol.Message, bool) { order = append(order, "b"); return msg, true },
	})
	chain.Register(netconn.Middleware{
		Name: "a", Priority: 1,
		OnMsgSend: func(msg protocol.Message, _ *netconn.Handle) (protocol.Message, bool) { order = append(order, "a"); return msg, true },
		OnMsgRecv: func(msg protocol.Message, _ *netconn.Handle) (protocol.Message, bool) { order = append(order, "a"); return msg, true },
	})

	order = nil
	chain.RunMsgSend([]protocol.Message{{Type: 1}}, nil)
	assert.Equal(t, []string{"a", "b"}, order)

	order = nil
	chain.RunMsgRecv([]protocol.Message{{Type: 1}}, nil)
	assert.Equal(t, []string{"b", "a"}, order)
}

func TestChainDropsMessage(t *testing.T) {
	chain := netconn.NewChain()
	chain.Register(netconn.Middleware{
		Name: "filter", Priority: 0,
		OnMsgSend: func(msg protocol.Message, _ *netconn.Handle) (protocol.Message, bool) {
			return msg, msg.Type != protocol.MsgSHUTDOWN
		},
	})
	out := chain.RunMsgSend([]protocol.Message{{Type: protocol.MsgHELLO}, {Type: protocol.MsgSHUTDOWN}}, nil)
	assert.Len(t, out, 1)
	assert.Equal(t, protocol.MsgHELLO, out[0].Type)
}

func TestChainDropsDatagram(t *testing.T) {
	chain := netconn.NewChain()
	chain.Register(netconn.Middleware{
		Name: "reject", Priority: 0,
		OnByteRecv: func(data []byte) ([]byte, bool) { return nil, false },
	})
	_, ok := chain.RunByteRecv([]byte("anything"))
	assert.False(t, ok)
}

func TestDefaultFilterResolvesAllConnections(t *testing.T) {
	filter := netconn.DefaultFilter{}
	ids := filter.Resolve(nil)
	assert.Empty(t, ids)

	a, c := uuid.New(), uuid.New()
	assert.ElementsMatch(t, []uuid.UUID{a, c}, filter.Resolve(map[uuid.UUID]*netconn.Handle{a: nil, c: nil}))
}
