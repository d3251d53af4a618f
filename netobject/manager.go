package netobject

import (
	"context"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/Wizzerinus/magicnet/bus"
	"github.com/Wizzerinus/magicnet/netconn"
	"github.com/Wizzerinus/magicnet/observability"
	"github.com/Wizzerinus/magicnet/protocol"
	"github.com/Wizzerinus/magicnet/wireerr"
)

// Manager drives the object-replication message flows: create/generate,
// field calls, visibility queries, and destruction. It holds every object
// view this role currently knows about, keyed by object id.
type Manager struct {
	network  *netconn.NetworkManager
	registry *Registry

	netObjects     map[uint64]Object
	partialObjects map[uint64]Object
	oidAllocator   uint64

	clientRepository *uint32
}

// NewManager returns a manager wired to network's bus/dispatcher/config and
// backed by registry for type lookups. clientRepository, if non-nil, grants
// this role authority to author objects with a locally assigned id;
// without it, object creation always requires a round trip to the
// authority.
func NewManager(network *netconn.NetworkManager, registry *Registry, clientRepository *uint32) *Manager {
	return &Manager{
		network:          network,
		registry:         registry,
		netObjects:       make(map[uint64]Object),
		partialObjects:   make(map[uint64]Object),
		clientRepository: clientRepository,
	}
}

func (m *Manager) bus() *bus.Bus { return m.network.Bus() }

func (m *Manager) makeOID() uint64 {
	m.oidAllocator++
	return m.oidAllocator
}

// Object looks up an object view by id.
func (m *Manager) Object(oid uint64) (Object, bool) {
	obj, ok := m.netObjects[oid]
	return obj, ok
}

func (m *Manager) addNetworkObject(obj Object) {
	m.netObjects[obj.netBase().OID] = obj
}

// sendGenerate emits GENERATE_OBJECT followed by one SET_OBJECT_FIELD per
// loaded parameter and a trailing OBJECT_GENERATE_DONE, all addressed at
// handle if non-nil or broadcast otherwise.
func (m *Manager) sendGenerate(obj Object, params []ParameterEntry, handle *netconn.Handle) {
	base := obj.netBase()
	messages := make([]protocol.Message, 0, len(params)+2)
	messages = append(messages, protocol.Message{
		Type:   protocol.MsgGENERATEOBJECT,
		Params: []any{base.OID, base.class.OType, base.Owner, base.Zone},
	})
	for _, p := range params {
		messages = append(messages, protocol.Message{
			Type:   protocol.MsgSETOBJECTFIELD,
			Params: []any{base.OID, p.Role, p.Field, p.Args},
		})
	}
	messages = append(messages, protocol.Message{Type: protocol.MsgOBJECTGENERATEDONE, Params: []any{base.OID}})

	var dest *uuid.UUID
	if handle != nil {
		id := handle.UUID()
		dest = &id
	}
	for _, msg := range messages {
		if dest != nil {
			msg = msg.WithDestination(*dest)
		}
		m.network.Send(msg)
	}
}

// GetVisibleObjects folds the VISIBLE_OBJECTS math target over every known
// object, starting from every object this manager holds; listeners narrow
// that set down (e.g. by zone).
func (m *Manager) GetVisibleObjects(handle *netconn.Handle) []Object {
	all := make([]Object, 0, len(m.netObjects))
	for _, obj := range m.netObjects {
		all = append(all, obj)
	}
	result := m.bus().Calculate(bus.MathVisibleObjects, all, handle)
	visible, _ := result.([]Object)
	return visible
}

func (m *Manager) initializeObject(oid uint64) {
	obj, ok := m.netObjects[oid]
	if !ok {
		m.bus().Emit(bus.EventWarning, "unable to init object", oid)
		return
	}
	base := obj.netBase()
	if base.State != StateGenerating {
		m.bus().Emit(bus.EventWarning, "object already initialized", oid)
		return
	}
	_, span := observability.StartSpan(context.Background(), "netobject.generate",
		attribute.String("netobject.network_name", base.class.NetworkName),
		attribute.Int("netobject.oid", int(oid)),
	)
	defer span.End()

	obj.NetCreate()
	base.State = StateGenerated
	observability.RecordObjectCreated(base.class.NetworkName)
}

func (m *Manager) destroyNetworkObject(oid uint64) {
	obj, ok := m.netObjects[oid]
	if !ok {
		m.bus().Emit(bus.EventWarning, "unable to destroy object", oid)
		return
	}
	base := obj.netBase()
	_, span := observability.StartSpan(context.Background(), "netobject.destroy",
		attribute.String("netobject.network_name", base.class.NetworkName),
		attribute.Int("netobject.oid", int(oid)),
	)
	defer span.End()

	base.State = StateInvalid
	obj.NetDelete()
	delete(m.netObjects, oid)
	observability.RecordObjectDestroyed(base.class.NetworkName)
}

// RequestDeleteObject asks the authority to delete oid; used by a role
// without authority over the object.
func (m *Manager) RequestDeleteObject(oid uint64) {
	m.network.Send(protocol.Message{Type: protocol.MsgREQUESTDELETEOBJECT, Params: []any{oid}})
}

// PerformObjectDeletion is called both by the authority handling an
// incoming delete request and by an authoritative client deleting its own
// object directly: it broadcasts DESTROY_OBJECT and tears the view down
// locally. A repoNumber mismatch against the object's owner is a race
// (never fatal): it emits a warning and is otherwise ignored.
func (m *Manager) PerformObjectDeletion(oid uint64, repoNumber uint32) {
	obj, ok := m.netObjects[oid]
	if !ok {
		// The object is already gone locally; destroyNetworkObject will warn
		// when the DESTROY_OBJECT broadcast loops back, nothing to do here.
		return
	}
	if obj.netBase().Owner != repoNumber {
		m.bus().Emit(bus.EventWarning, "ignoring unauthorized delete for object", oid, "by", repoNumber)
		return
	}
	m.network.Send(protocol.Message{Type: protocol.MsgDESTROYOBJECT, Params: []any{oid}})
	m.destroyNetworkObject(oid)
}

// CreateObject authors a brand-new object locally. The caller must hold a
// client repository (authority); otherwise object ids could collide with
// another authority's allocator.
func (m *Manager) CreateObject(obj Object, owner uint32) error {
	if m.clientRepository == nil {
		return wireerr.NewConfigError(wireerr.KindRepolessClientCreatesObject, obj.netBase().class.NetworkName)
	}
	repo := *m.clientRepository
	base := obj.netBase()
	base.setParameters(m.makeOID()|(uint64(repo)<<32), owner, base.Zone)
	if base.Owner == 0 {
		base.Owner = repo
	}
	m.addNetworkObject(obj)
	m.sendGenerate(obj, base.getLoadedParams(), nil)
	base.State = StateGenerating
	m.initializeObject(base.OID)
	return nil
}

// CreateRemoteObject requests that the authority create obj on our behalf;
// the id it gets back may differ from any locally guessed value, so the
// object sits in partialObjects until GENERATE_OBJECT confirms it.
//
// Only one connected handle may ever be allowed to send CREATE_OBJECT for a
// given role; if more than one can, two concurrent creators could observe
// the same locally-allocated id and collide. Enforcing that is an
// application-side middleware concern, not this manager's.
func (m *Manager) CreateRemoteObject(obj Object, owner uint32) {
	base := obj.netBase()
	oid := m.makeOID()
	base.setParameters(oid, owner, base.Zone)
	base.State = StateCreateRequested
	m.partialObjects[oid] = obj
	m.network.Send(protocol.Message{
		Type:   protocol.MsgCREATEOBJECT,
		Params: []any{oid, base.class.OType, owner, base.Zone, paramsToWire(base.getLoadedParams())},
	})
}

// RequestCallField sends a SET_OBJECT_FIELD to receiver (or broadcast if
// nil), the entry point for application code calling a field on a remote
// view.
func (m *Manager) RequestCallField(obj Object, role, field int, args []any, receiver *netconn.Handle) {
	msg := protocol.Message{Type: protocol.MsgSETOBJECTFIELD, Params: []any{obj.netBase().OID, role, field, args}}
	if receiver != nil {
		msg = msg.WithDestination(receiver.UUID())
	}
	m.network.Send(msg)
}

// RequestVisibleObjects asks every connected peer to resend the set of
// objects visible to us.
func (m *Manager) RequestVisibleObjects() {
	m.network.Send(protocol.Message{Type: protocol.MsgREQUESTVISIBLEOBJECTS})
}

func paramsToWire(params []ParameterEntry) []any {
	out := make([]any, len(params))
	for i, p := range params {
		out[i] = []any{p.Role, p.Field, p.Args}
	}
	return out
}
