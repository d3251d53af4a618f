package batteries_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Wizzerinus/magicnet/batteries"
	"github.com/Wizzerinus/magicnet/protocol"
)

func TestEverywhereReturnsEveryKnownRole(t *testing.T) {
	roles := []string{"client-a", "client-b", "client-c"}
	got := batteries.Everywhere(protocol.Message{Type: protocol.MsgSHUTDOWN}, roles)
	assert.Equal(t, roles, got)
}

func TestEverywhereHandlesNoKnownRoles(t *testing.T) {
	got := batteries.Everywhere(protocol.Message{}, nil)
	assert.Empty(t, got)
}
