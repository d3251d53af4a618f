// Package netobject implements network-object replication on top of
// netconn: per-class field signatures, the object lifecycle state machine,
// the manager that drives create/generate/destroy message flows, and the
// registry that assigns stable object-type ids across every connected role.
package netobject

import (
	"github.com/Wizzerinus/magicnet/bus"
	"github.com/Wizzerinus/magicnet/netconn"
	"github.com/Wizzerinus/magicnet/typecheck"
)

// Callback runs a field call on obj with its validated, coerced arguments.
type Callback func(obj Object, args []any)

// Authorizer decides whether handle is allowed to invoke a field call.
// A nil Authorizer defers to the FIELD_CALL_ALLOWED math target, which
// defaults to "allowed" when nothing overrides it.
type Authorizer func(obj Object, handle *netconn.Handle) bool

// Field is one network-callable member of a Class: its wire signature, the
// local callback it dispatches to, and whether its last argument tuple
// should be cached on the object for replay to newly visible peers.
type Field struct {
	sig          *typecheck.FieldSignature
	persistInRAM bool
	callback     Callback
	authorize    Authorizer
}

// FieldOption configures a Field at construction time.
type FieldOption func(*Field)

// WithoutRAMPersistence disables caching this field's most recent arguments
// for replay on REQUEST_VISIBLE_OBJECTS. Fields persist by default.
func WithoutRAMPersistence() FieldOption {
	return func(f *Field) { f.persistInRAM = false }
}

// WithAuthorizer overrides the default "always allowed" authorization check
// for this field.
func WithAuthorizer(auth Authorizer) FieldOption {
	return func(f *Field) { f.authorize = auth }
}

// NewField builds a field named name, whose wire arguments are described by
// items, dispatching accepted calls to callback.
func NewField(name string, items []typecheck.SignatureItem, callback Callback, opts ...FieldOption) (*Field, error) {
	sig, err := typecheck.NewFieldSignature(name, items)
	if err != nil {
		return nil, err
	}
	f := &Field{sig: sig, persistInRAM: true, callback: callback}
	for _, opt := range opts {
		opt(f)
	}
	if f.persistInRAM {
		f.sig.Flags |= typecheck.PersistInRAM
	}
	return f, nil
}

// Name is the field's wire name, used for message-index lookups by
// application code that sends by name rather than by resolved index.
func (f *Field) Name() string { return f.sig.Name }

func (f *Field) validateHandle(b *bus.Bus, obj Object, handle *netconn.Handle) bool {
	if f.authorize != nil {
		return f.authorize(obj, handle)
	}
	result := b.Calculate(bus.MathFieldCallAllowed, true, obj, handle, f)
	allowed, _ := result.(bool)
	return allowed
}
