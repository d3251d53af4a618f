package netconn

import "github.com/google/uuid"

// HandleFilter resolves a message to a set of handle UUIDs local to a
// transport handler. It is only consulted when the message has no explicit
// Destination; TransportHandler.Deliver applies that override itself.
type HandleFilter interface {
	Resolve(connections map[uuid.UUID]*Handle) []uuid.UUID
}

// DefaultFilter routes to every connected handle.
type DefaultFilter struct{}

func (DefaultFilter) Resolve(connections map[uuid.UUID]*Handle) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(connections))
	for id := range connections {
		out = append(out, id)
	}
	return out
}
