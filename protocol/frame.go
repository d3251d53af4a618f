package protocol

import (
	"encoding/binary"
	"fmt"
	"io"
)

// MaxFrameSize bounds a single datagram body so a corrupt or hostile length
// prefix cannot trigger an unbounded allocation.
const MaxFrameSize = 1 << 20

// WriteFrame writes payload to w prefixed with its big-endian uint16 length.
// Framing is only used by streaming transports; datagram transports (UDP,
// in-process channels) carry payload as-is.
func WriteFrame(w io.Writer, payload []byte) error {
	if len(payload) > 0xFFFF {
		return fmt.Errorf("protocol: frame payload of %d bytes exceeds uint16 length prefix", len(payload))
	}
	var header [2]byte
	binary.BigEndian.PutUint16(header[:], uint16(len(payload)))
	if _, err := w.Write(header[:]); err != nil {
		return err
	}
	_, err := w.Write(payload)
	return err
}

// ReadFrame reads one length-prefixed frame from r.
func ReadFrame(r io.Reader) ([]byte, error) {
	var header [2]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint16(header[:])
	if int(n) > MaxFrameSize {
		return nil, fmt.Errorf("protocol: frame length %d exceeds maximum %d", n, MaxFrameSize)
	}
	payload := make([]byte, n)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, err
	}
	return payload, nil
}
