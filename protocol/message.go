// Package protocol defines the wire-level data model shared by every peer:
// message type codes, the disconnect reason vocabulary, the Message
// envelope, and the byte-level encoder contract. It has no knowledge of
// connections, transports, or object replication — those build on top of it.
package protocol

import "github.com/google/uuid"

// MessageType is the first element of the wire tuple (type_code, params).
// Codes below FirstApplicationMessageType (defined in package netcfg) are
// reserved for the core protocol; application processors register codes at
// or above it.
type MessageType uint16

// ProtocolVersion is the single uint16 exchanged in HELLO; a mismatch
// disconnects with ReasonHelloInvalidProtoVer.
const ProtocolVersion uint16 = 1

// Handshake message codes (1..5).
const (
	MsgMOTD            MessageType = 1
	MsgHELLO           MessageType = 2
	MsgDISCONNECT      MessageType = 3
	MsgSHUTDOWN        MessageType = 4
	MsgSHAREDPARAMETER MessageType = 5
)

// Network-object replication message codes (6..12).
const (
	MsgCREATEOBJECT          MessageType = 6
	MsgGENERATEOBJECT        MessageType = 7
	MsgSETOBJECTFIELD        MessageType = 8
	MsgOBJECTGENERATEDONE    MessageType = 9
	MsgREQUESTDELETEOBJECT   MessageType = 10
	MsgDESTROYOBJECT         MessageType = 11
	MsgREQUESTVISIBLEOBJECTS MessageType = 12
)

// DisconnectReason is the uint8 code sent in a DISCONNECT message and passed
// to Handle.SendDisconnect.
type DisconnectReason uint8

const (
	ReasonHelloMultiple        DisconnectReason = 1
	ReasonHelloInvalidProtoVer DisconnectReason = 2
	ReasonHelloHashMismatch    DisconnectReason = 3
	ReasonMessageBeforeHello   DisconnectReason = 4
	ReasonBrokenInvariant      DisconnectReason = 5
	ReasonInvalidObjectType    DisconnectReason = 6
)

// DisconnectReasonText renders a reason code as a human string for the
// DISCONNECT event's description, the way the handshake processor reports it
// to local listeners.
func DisconnectReasonText(reason DisconnectReason) string {
	switch reason {
	case ReasonHelloMultiple:
		return "duplicate HELLO"
	case ReasonHelloInvalidProtoVer:
		return "protocol version mismatch"
	case ReasonHelloHashMismatch:
		return "network hash mismatch"
	case ReasonMessageBeforeHello:
		return "message received before HELLO"
	case ReasonBrokenInvariant:
		return "broken invariant"
	case ReasonInvalidObjectType:
		return "invalid object type"
	default:
		return "unknown reason"
	}
}

// Message is the tagged tuple (type_code, parameters) plus routing metadata.
// Params holds hashable values only (ints, strings, bytes, and nested
// lists/tuples/dicts thereof) — the same universe typecheck.Hashable
// describes.
type Message struct {
	Type MessageType
	Params []any

	// Sender is populated by the transport handler on receive; it is the
	// zero UUID for locally originated messages.
	Sender uuid.UUID

	// Destination, if non-nil, forces delivery to exactly this handle and
	// bypasses the handle filter.
	Destination *uuid.UUID

	// RoutingData is an application-only opaque value. It never travels on
	// the wire.
	RoutingData any `json:"-" msgpack:"-"`
}

// WithDestination returns a copy of msg addressed at exactly handle id.
func (m Message) WithDestination(id uuid.UUID) Message {
	m.Destination = &id
	return m
}
