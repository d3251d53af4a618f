// Package netcfg defines the configuration surface of a network manager and
// validates it eagerly, before the rest of the system trusts it.
package netcfg

import (
	"github.com/Wizzerinus/magicnet/wireerr"
)

// Config is the recognized configuration surface of a NetworkManager.
type Config struct {
	// MOTD, if set, makes this node the "server" side for new links: it
	// sends MOTD first on every new connection.
	MOTD string `json:"motd"`

	// NetworkHash is compared byte-wise during HELLO; a mismatch
	// disconnects with HELLO_HASH_MISMATCH.
	NetworkHash []byte `json:"network_hash"`

	// ClientRepository, if non-nil, grants local authority to author
	// objects. Must be in 1..127.
	ClientRepository *uint32 `json:"client_repository"`

	// ShutdownOnDisconnect: if true, any HANDLE_DESTROYED triggers manager
	// shutdown.
	ShutdownOnDisconnect bool `json:"shutdown_on_disconnect"`

	// ExtraMessageTypes registers application-level message type codes.
	// Every key must be >= FirstApplicationMessageType (64).
	ExtraMessageTypes []uint16 `json:"extra_message_types"`

	// ObjectSignatureFilenames are signature files to load (loading mode).
	ObjectSignatureFilenames []string `json:"object_signature_filenames"`

	// MarshallingMode, if non-empty, dumps local signatures to that path
	// instead of loading (marshalling mode). Mutually exclusive with
	// ObjectSignatureFilenames.
	MarshallingMode string `json:"marshalling_mode"`
}

// FirstApplicationMessageType is the first message type code an application
// processor may register; codes below it are reserved for the core protocol.
const FirstApplicationMessageType = 64

// MinClientRepository and MaxClientRepository bound the "static client
// repository" range: repositories 1..127 are reserved for configured
// authorities; the allocator for peer-assigned repositories starts at 128.
const (
	MinClientRepository = 1
	MaxClientRepository = 127
)

// Validate performs every eager configuration check required before
// startup. It returns a *wireerr.ConfigError (or nil) rather than a generic
// error, so callers can inspect Kind without string matching.
func (c *Config) Validate() error {
	if c.ClientRepository != nil {
		rp := *c.ClientRepository
		if rp < MinClientRepository || rp > MaxClientRepository {
			return wireerr.NewConfigError(wireerr.KindInvalidClientRepository,
				"client_repository must be in %d..%d, got %d", MinClientRepository, MaxClientRepository, rp)
		}
	}

	for _, code := range c.ExtraMessageTypes {
		if code < FirstApplicationMessageType {
			return wireerr.NewConfigError(wireerr.KindExtraCallbacksProvided,
				"extra message type %d is in the reserved range (< %d)", code, FirstApplicationMessageType)
		}
	}

	if c.MarshallingMode != "" && len(c.ObjectSignatureFilenames) > 0 {
		return wireerr.NewConfigError(wireerr.KindComponentNotProvided,
			"marshalling_mode and object_signature_filenames are mutually exclusive")
	}

	return nil
}

// IsAuthority reports whether this configuration grants local authority to
// author objects.
func (c *Config) IsAuthority() bool {
	return c.ClientRepository != nil
}
