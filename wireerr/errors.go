// Package wireerr implements the error taxonomy of the networking protocol:
// configuration errors, validation errors, protocol violations, application
// runtime errors, and transport errors. Each is a struct with a constructor
// rather than a sentinel, so callers can carry structured fields (the
// offending type expression, the disconnect reason, the field name) instead
// of parsing error strings.
package wireerr

import "fmt"

// ConfigError reports a problem in how the caller set up a network manager,
// transport, or object registry. These are raised eagerly and terminate
// startup.
type ConfigError struct {
	Kind    string // e.g. "unknown-role", "extra-callbacks-provided"
	Message string
}

func (e *ConfigError) Error() string { return fmt.Sprintf("configuration error (%s): %s", e.Kind, e.Message) }

func NewConfigError(kind, format string, args ...any) *ConfigError {
	return &ConfigError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Well-known configuration error kinds.
const (
	KindUnknownRole                  = "unknown-role"
	KindComponentNotProvided         = "component-not-provided"
	KindExtraCallbacksProvided       = "extra-callbacks-provided"
	KindConnectionParametersMissing  = "connection-parameters-missing"
	KindInvalidClientRepository      = "invalid-client-repository"
	KindAsymmetricProtocolProvided   = "asymmetric-protocol-provided"
	KindDependencyMissing            = "dependency-missing"
	KindRegistryObjectAfterInit      = "registry-object-after-initialization"
	KindMultipleRegistryInit         = "multiple-registry-initializations"
	KindKeywordOnlyFieldArgument     = "keyword-only-field-argument"
	KindUnnamedField                 = "unnamed-field"
	KindFieldNotInitialized          = "field-not-initialized"
	KindNoNetworkName                = "no-network-name"
	KindNoObjectRole                 = "no-object-role"
	KindRepolessClientCreatesObject  = "repoless-client-creates-network-object"
	KindUnsupportedValidator         = "unsupported-validator"
	KindReservedMessageTypeOverride  = "reserved-message-type-override"
)

// ValidationError reports that an incoming (or, for outbound send-side
// checks, outgoing) value failed the type-check/convert pipeline. Logged as
// a warning and the offending message is dropped; never fatal for inbound
// data. Whenever TypeExpr is set, the message text includes that display
// name (e.g. "Lt(65536)") so log assertions can match on it regardless of
// which validator failed; errors built with an empty TypeExpr (such as
// too-many-arguments) carry none.
type ValidationError struct {
	Kind     string // e.g. "wrong-tuple-length", "union-exhausted", "predicate-failed"
	TypeExpr string // display name of the type expression that rejected the value, e.g. "Lt(65536)"
	Message  string
}

func (e *ValidationError) Error() string {
	if e.TypeExpr != "" {
		return fmt.Sprintf("validation error (%s): %s (%s)", e.Kind, e.Message, e.TypeExpr)
	}
	return fmt.Sprintf("validation error (%s): %s", e.Kind, e.Message)
}

func NewValidationError(kind, typeExpr, format string, args ...any) *ValidationError {
	return &ValidationError{Kind: kind, TypeExpr: typeExpr, Message: fmt.Sprintf(format, args...)}
}

const (
	KindWrongTupleLength      = "wrong-tuple-length"
	KindNoneRequired          = "none-required"
	KindUnionExhausted        = "union-validation-failed"
	KindPredicateFailed       = "predicate-validation-failed"
	KindTypeComparisonFailed  = "type-comparison-failed"
	KindRecursiveTypeProvided = "recursive-type-provided"
	KindTooManyArguments      = "too-many-arguments"
	KindNoValueProvided       = "no-value-provided"
	KindExcessDataclassValue  = "excess-dataclass-value"
	KindTupleOrListRequired   = "tuple-or-list-required"
	KindUnsupportedMarshalled = "unsupported-marshalled-type"
)

// ProtocolViolation reports that a peer sent something structurally wrong at
// the protocol level. It maps to a specific disconnect reason code and the
// handle is destroyed.
type ProtocolViolation struct {
	Reason  uint8
	Message string
}

func (e *ProtocolViolation) Error() string {
	return fmt.Sprintf("protocol violation (reason=%d): %s", e.Reason, e.Message)
}

func NewProtocolViolation(reason uint8, format string, args ...any) *ProtocolViolation {
	return &ProtocolViolation{Reason: reason, Message: fmt.Sprintf(format, args...)}
}

// ApplicationError reports a field call that targeted a nonexistent field,
// failed authorization, or failed argument validation. It is surfaced as a
// BAD_NETWORK_OBJECT_CALL event; it never disconnects the peer.
type ApplicationError struct {
	Reason  string // "no-field", "no-auth", or "bad-args"
	Message string
}

func (e *ApplicationError) Error() string {
	return fmt.Sprintf("application error (%s): %s", e.Reason, e.Message)
}

func NewApplicationError(reason, format string, args ...any) *ApplicationError {
	return &ApplicationError{Reason: reason, Message: fmt.Sprintf(format, args...)}
}

const (
	ReasonNoField  = "no-field"
	ReasonNoAuth   = "no-auth"
	ReasonBadArgs  = "bad-args"
)

// TransportError reports a link-level failure (closed connection,
// interrupted read). Logged at INFO and the handle is destroyed; never
// propagated as a hard failure of the network manager.
type TransportError struct {
	Message string
	Cause   error
}

func (e *TransportError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("transport error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("transport error: %s", e.Message)
}

func (e *TransportError) Unwrap() error { return e.Cause }

func NewTransportError(cause error, format string, args ...any) *TransportError {
	return &TransportError{Message: fmt.Sprintf(format, args...), Cause: cause}
}
