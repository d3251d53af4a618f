package protocol

// Encoder packs a batch of messages into one datagram body and unpacks it
// again. An encoder that is KnownSymmetric must satisfy
// Unpack(Pack(ms)) == ms for any finite list of hashable-valued messages —
// battery implementations (JSON, msgpack) are tested against this invariant.
type Encoder interface {
	Pack(messages []Message) ([]byte, error)
	Unpack(data []byte) ([]Message, error)
	KnownSymmetric() bool
}
