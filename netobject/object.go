package netobject

import (
	"github.com/Wizzerinus/magicnet/bus"
	"github.com/Wizzerinus/magicnet/netconn"
	"github.com/Wizzerinus/magicnet/observability"
	"github.com/Wizzerinus/magicnet/typecheck"
	"github.com/Wizzerinus/magicnet/wireerr"
)

// State is an object view's position in its replication lifecycle.
type State int

const (
	// StateInvalid means the object is not initialized yet or was destroyed.
	StateInvalid State = iota
	// StateCreateRequested means the generation datagram was sent from this
	// client and is awaiting the authority's assigned object id.
	StateCreateRequested
	// StateGenerating means the object's fields are being set during
	// generation, before NetCreate runs.
	StateGenerating
	// StateGenerated means NetCreate ran and the view is ready to use.
	StateGenerated
)

type loadedKey struct {
	role  int
	field int
}

// Base is embedded by every application object type. It carries the
// identity, ownership, and replication state netobject itself manages; the
// embedding type supplies NetCreate/NetDelete and its own fields.
type Base struct {
	class      *Class
	Controller *Manager

	OID   uint64
	Owner uint32
	Zone  uint32
	State State

	loadedParams map[loadedKey][]any
}

// NewBase constructs the embeddable base state for a fresh object view of
// class, owned by controller.
func NewBase(class *Class, controller *Manager) Base {
	return Base{class: class, Controller: controller, loadedParams: make(map[loadedKey][]any)}
}

// Class is the network object type this view belongs to.
func (b *Base) Class() *Class { return b.class }

// AuthorRepository is the repository number that minted this object's id
// (the high 32 bits of OID).
func (b *Base) AuthorRepository() uint32 { return uint32(b.OID >> 32) }

func (b *Base) setParameters(oid uint64, owner, zone uint32) {
	b.OID = oid
	b.Owner = owner
	b.Zone = zone
}

func (b *Base) getLoadedParams() []ParameterEntry {
	out := make([]ParameterEntry, 0, len(b.loadedParams))
	for k, v := range b.loadedParams {
		out = append(out, ParameterEntry{Role: k.role, Field: k.field, Args: v})
	}
	return out
}

// ParameterEntry is one (role, field, args) tuple, the wire shape of a
// network object's replicated parameter set.
type ParameterEntry struct {
	Role  int
	Field int
	Args  []any
}

// Object is implemented by every application-defined network object type,
// embedding Base for identity/state and supplying the class-specific
// create/delete hooks.
type Object interface {
	NetCreate()
	NetDelete()
	netBase() *Base
}

func (b *Base) netBase() *Base { return b }

// ObjectOID, ObjectOwner, and ObjectZone expose an object view's identity and
// placement to packages that only hold the Object interface (every concrete
// Object embeds Base, but the interface itself doesn't promote Base's
// exported fields across the package boundary).
func ObjectOID(obj Object) uint64   { return obj.netBase().OID }
func ObjectOwner(obj Object) uint32 { return obj.netBase().Owner }
func ObjectZone(obj Object) uint32  { return obj.netBase().Zone }

// Class describes one network object type: its wire name, the role this
// view plays, its own fields, and the fields it knows about for foreign
// roles (needed to resolve incoming field-call indices even when this role
// never calls them).
type Class struct {
	NetworkName string
	ObjectRole  int
	Fields      []*Field
	OType       uint16

	foreignFields map[int][]*Field
	messageIndex  map[string][2]int

	factory func(ctrl *Manager) Object
}

// NewClass builds a Class. factory constructs a fresh, zero-state instance
// of the application type on each incoming generate/create.
func NewClass(networkName string, objectRole int, fields []*Field, factory func(ctrl *Manager) Object) (*Class, error) {
	if networkName == "" {
		return nil, wireerr.NewConfigError(wireerr.KindNoNetworkName, "class has no network name")
	}
	if objectRole < 0 {
		return nil, wireerr.NewConfigError(wireerr.KindNoObjectRole, "class %q has no object role", networkName)
	}
	for _, f := range fields {
		if f.Name() == "" {
			return nil, wireerr.NewConfigError(wireerr.KindUnnamedField, networkName)
		}
	}
	return &Class{
		NetworkName:   networkName,
		ObjectRole:    objectRole,
		Fields:        fields,
		foreignFields: make(map[int][]*Field),
		factory:       factory,
	}, nil
}

// newPlaceholderClass builds a non-constructible class for a name the
// registry learned about only from a marshalled signature file, never
// registered locally or as an explicit foreign class. Its ObjectRole is -1,
// a sentinel no real registered role ever takes (NewClass rejects negative
// roles), so unmarshalForeignField's "skip our own role" check never matches
// and every file's entry for this name is recorded as foreign.
func newPlaceholderClass(name string) *Class {
	return &Class{
		NetworkName:   name,
		ObjectRole:    -1,
		foreignFields: make(map[int][]*Field),
	}
}

// addForeignClass records foreign's fields under its own role so this
// class's message index can resolve field calls addressed to that role.
func (c *Class) addForeignClass(foreign *Class) {
	c.foreignFields[foreign.ObjectRole] = foreign.Fields
}

// finalizeFields builds the name -> (role, field-index) message index once
// every local and foreign field is known. Called once
// by the registry after every class is assigned an OType.
func (c *Class) finalizeFields() {
	c.messageIndex = make(map[string][2]int)
	roleFields := make(map[int][]string)
	for _, f := range c.Fields {
		roleFields[c.ObjectRole] = append(roleFields[c.ObjectRole], f.Name())
	}
	for role, fields := range c.foreignFields {
		for _, f := range fields {
			roleFields[role] = append(roleFields[role], f.Name())
		}
	}
	for role, names := range roleFields {
		for idx, name := range names {
			c.messageIndex[name] = [2]int{role, idx}
		}
	}
}

// resolveField returns the local field at fieldID, or nil if out of range.
func (c *Class) resolveField(fieldID int) *Field {
	if fieldID < 0 || fieldID >= len(c.Fields) {
		return nil
	}
	return c.Fields[fieldID]
}

// resolveMessage looks up (role, field index) for a field name, for
// application code that addresses fields by name.
func (c *Class) resolveMessage(name string) (role, field int, ok bool) {
	rf, ok := c.messageIndex[name]
	if !ok {
		return 0, 0, false
	}
	return rf[0], rf[1], true
}

// marshalFields renders this class's own field signatures to the wire
// shape the registry persists in marshalling mode.
func (c *Class) marshalFields() map[string]any {
	sigs := make([]any, len(c.Fields))
	for i, f := range c.Fields {
		sigs[i] = typecheck.MarshalSignature(f.sig)
	}
	return map[string]any{"object_role": c.ObjectRole, "signatures": sigs}
}

// unmarshalForeignField records another role's field signatures (loaded
// from a signature file) against this class, skipping our own role's
// entry since we already know our own signatures locally.
func (c *Class) unmarshalForeignField(data map[string]any) error {
	role := intFromAny(data["object_role"])
	if role == c.ObjectRole {
		return nil
	}
	sigsRaw, _ := data["signatures"].([]any)
	fields := make([]*Field, 0, len(sigsRaw))
	for _, raw := range sigsRaw {
		tree, ok := raw.(map[string]any)
		if !ok {
			return wireerr.NewConfigError(wireerr.KindUnsupportedValidator, "malformed foreign field signature for %q", c.NetworkName)
		}
		sig, err := typecheck.UnmarshalSignature(tree)
		if err != nil {
			return err
		}
		fields = append(fields, &Field{sig: sig})
	}
	c.foreignFields[role] = fields
	return nil
}

// callField dispatches an incoming SET_OBJECT_FIELD to obj. A call
// addressed at a foreign role only caches its arguments (we have no
// callback to run, only enough signature info to keep the id mapping
// consistent); a call addressed at our own role validates and invokes it.
func callField(b *bus.Bus, obj Object, class *Class, handle *netconn.Handle, roleID, fieldID int, args []any) error {
	base := obj.netBase()
	if roleID != class.ObjectRole {
		base.loadedParams[loadedKey{roleID, fieldID}] = args
		return nil
	}

	field := class.resolveField(fieldID)
	if field == nil {
		observability.RecordFieldCall("no-field")
		b.Emit(bus.EventWarning, "attempt to call unknown field", fieldID, "on class", class.NetworkName)
		b.Emit(bus.EventBadNetworkCall, obj, handle, fieldID, wireerr.ReasonNoField)
		return nil
	}

	if !field.validateHandle(b, obj, handle) {
		observability.RecordFieldCall("no-auth")
		b.Emit(bus.EventWarning, "unauthorized attempt to call field", field.Name())
		b.Emit(bus.EventBadNetworkCall, obj, handle, fieldID, wireerr.ReasonNoAuth)
		return nil
	}

	coerced, err := field.sig.ValidateArguments(args)
	if err != nil {
		observability.RecordFieldCall("bad-args")
		b.Emit(bus.EventWarning, "arguments for field do not match", field.Name(), err)
		b.Emit(bus.EventBadNetworkCall, obj, handle, fieldID, wireerr.ReasonBadArgs, err)
		return nil
	}

	base.loadedParams[loadedKey{roleID, fieldID}] = coerced
	field.callback(obj, coerced)
	observability.RecordFieldCall("ok")
	return nil
}
