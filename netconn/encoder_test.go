package netconn_test

import (
	"encoding/json"

	"github.com/Wizzerinus/magicnet/protocol"
)

// jsonEncoder is a minimal Encoder used only by this package's tests; it
// is symmetric (whatever it packs, it can unpack) but is not meant to be a
// production wire format.
type jsonEncoder struct{}

func (jsonEncoder) Pack(messages []protocol.Message) ([]byte, error) {
	return json.Marshal(messages)
}

func (jsonEncoder) Unpack(data []byte) ([]protocol.Message, error) {
	var messages []protocol.Message
	if err := json.Unmarshal(data, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

func (jsonEncoder) KnownSymmetric() bool { return true }
