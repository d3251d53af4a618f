package netconn_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Wizzerinus/magicnet/netcfg"
	"github.com/Wizzerinus/magicnet/netconn"
	"github.com/Wizzerinus/magicnet/observability"
	"github.com/Wizzerinus/magicnet/protocol"
	"github.com/Wizzerinus/magicnet/wireerr"
)

func TestNewRejectsExtraMessageTypeInReservedRange(t *testing.T) {
	_, err := netconn.New(netcfg.Config{ExtraMessageTypes: []uint16{10}}, nil, nil, nil)
	require.Error(t, err)
	var cfgErr *wireerr.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, wireerr.KindExtraCallbacksProvided, cfgErr.Kind)
}

func TestRegisterProcessorRejectsReservedRange(t *testing.T) {
	nm, err := netconn.New(netcfg.Config{}, nil, nil, observability.NoopLogger())
	require.NoError(t, err)

	err = nm.RegisterProcessor(protocol.MsgHELLO, netconn.NewProcessor(false, func(ctx *netconn.ProcessContext) error { return nil }))
	require.Error(t, err)
	var cfgErr *wireerr.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, wireerr.KindReservedMessageTypeOverride, cfgErr.Kind)
}

func TestRegisterProcessorAcceptsApplicationRange(t *testing.T) {
	nm, err := netconn.New(netcfg.Config{}, nil, nil, observability.NoopLogger())
	require.NoError(t, err)

	err = nm.RegisterProcessor(protocol.MessageType(netcfg.FirstApplicationMessageType),
		netconn.NewProcessor(false, func(ctx *netconn.ProcessContext) error { return nil }))
	assert.NoError(t, err)
}

func TestNewDefaultsNilBusAndLogger(t *testing.T) {
	nm, err := netconn.New(netcfg.Config{}, nil, nil, nil)
	require.NoError(t, err)
	assert.NotNil(t, nm.Bus())
}
