// Package batteries provides concrete, ready-to-use implementations of the
// collaborators netconn and netobject only declare interfaces for: wire
// encoders, an in-process transport for tests and single-process setups, the
// default everywhere-fanout routing policy, and a pair of middlewares
// (zone-based visibility, message-shape validation) plus a bus-to-logger
// bridge.
package batteries

import (
	"encoding/json"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/Wizzerinus/magicnet/protocol"
)

// JSONEncoder packs a batch of messages as a JSON array. Human-readable and
// universally compatible, at the cost of wire size and of widening every
// integer to float64 on the way back in (typecheck.ToInt64 accounts for
// this).
type JSONEncoder struct{}

func (JSONEncoder) Pack(messages []protocol.Message) ([]byte, error) { return json.Marshal(messages) }

func (JSONEncoder) Unpack(data []byte) ([]protocol.Message, error) {
	var messages []protocol.Message
	if err := json.Unmarshal(data, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

func (JSONEncoder) KnownSymmetric() bool { return true }

// MsgpackEncoder packs a batch of messages with MessagePack. Denser on the
// wire than JSON and preserves integer width better, at the cost of
// readability; prefer it once both peers are known to speak this protocol.
type MsgpackEncoder struct{}

func (MsgpackEncoder) Pack(messages []protocol.Message) ([]byte, error) {
	return msgpack.Marshal(messages)
}

func (MsgpackEncoder) Unpack(data []byte) ([]protocol.Message, error) {
	var messages []protocol.Message
	if err := msgpack.Unmarshal(data, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

func (MsgpackEncoder) KnownSymmetric() bool { return true }
