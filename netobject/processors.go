package netobject

import (
	"fmt"

	"github.com/Wizzerinus/magicnet/bus"
	"github.com/Wizzerinus/magicnet/netconn"
	"github.com/Wizzerinus/magicnet/protocol"
	"github.com/Wizzerinus/magicnet/typecheck"
)

// repositoryExpr matches the "rp" shared parameter every handshake assigns:
// a uint32 repository number.
var repositoryExpr = typecheck.UInt(32)

// RegisterProcessors wires the seven object-replication message processors
// onto nm's dispatcher. Every one of them requires an activated sender: an
// object message arriving before HELLO disconnects the sender rather than
// being processed.
func RegisterProcessors(nm *netconn.NetworkManager, m *Manager) {
	d := nm.Dispatcher()
	d.Register(protocol.MsgCREATEOBJECT, netconn.NewProcessor(true, m.processCreateObject))
	d.Register(protocol.MsgGENERATEOBJECT, netconn.NewProcessor(true, m.processGenerateObject))
	d.Register(protocol.MsgSETOBJECTFIELD, netconn.NewProcessor(true, m.processSetObjectField))
	d.Register(protocol.MsgOBJECTGENERATEDONE, netconn.NewProcessor(true, m.processObjectGenerateDone))
	d.Register(protocol.MsgREQUESTDELETEOBJECT, netconn.NewProcessor(true, m.processRequestDeleteObject))
	d.Register(protocol.MsgDESTROYOBJECT, netconn.NewProcessor(true, m.processDestroyObject))
	d.Register(protocol.MsgREQUESTVISIBLEOBJECTS, netconn.NewProcessor(true, m.processRequestVisibleObjects))
}

func wireParamsToEntries(raw []any) []ParameterEntry {
	out := make([]ParameterEntry, 0, len(raw))
	for _, item := range raw {
		tuple, ok := item.([]any)
		if !ok || len(tuple) != 3 {
			continue
		}
		out = append(out, ParameterEntry{
			Role:  intFromAny(tuple[0]),
			Field: intFromAny(tuple[1]),
			Args:  toSlice(tuple[2]),
		})
	}
	return out
}

func toSlice(raw any) []any {
	if s, ok := raw.([]any); ok {
		return s
	}
	return nil
}

func (m *Manager) processCreateObject(ctx *netconn.ProcessContext) error {
	if len(ctx.Message.Params) != 5 {
		return fmt.Errorf("netobject: CREATE_OBJECT expects 5 parameters, got %d", len(ctx.Message.Params))
	}
	objectID := uint64(intFromAny(ctx.Message.Params[0]))
	objectType := uint16(intFromAny(ctx.Message.Params[1]))
	ownerID := uint32(intFromAny(ctx.Message.Params[2]))
	zoneID := uint32(intFromAny(ctx.Message.Params[3]))
	rawParams := toSlice(ctx.Message.Params[4])

	factory := m.registry.GetConstructor(objectType)
	if factory == nil {
		ctx.Sender.SendDisconnect(protocol.ReasonInvalidObjectType, fmt.Sprintf("unknown object: %d", objectID))
		return nil
	}

	repoAny, ok := ctx.Sender.GetSharedParameter("rp", repositoryExpr, true)
	if !ok {
		return nil
	}
	repoNumber := repoAny.(uint32)

	if ownerID == 0 {
		ownerID = repoNumber
	}

	obj := factory(m)
	base := obj.netBase()
	base.State = StateGenerating
	objectID += uint64(repoNumber) << 32
	base.setParameters(objectID, ownerID, zoneID)
	m.loadParams(ctx.Sender, obj, wireParamsToEntries(rawParams))

	newParams := base.getLoadedParams()
	m.addNetworkObject(obj)
	m.sendGenerate(obj, newParams, nil)
	m.initializeObject(base.OID)
	return nil
}

func (m *Manager) processGenerateObject(ctx *netconn.ProcessContext) error {
	if len(ctx.Message.Params) != 4 {
		return fmt.Errorf("netobject: GENERATE_OBJECT expects 4 parameters, got %d", len(ctx.Message.Params))
	}
	objectID := uint64(intFromAny(ctx.Message.Params[0]))
	objectType := uint16(intFromAny(ctx.Message.Params[1]))
	ownerID := uint32(intFromAny(ctx.Message.Params[2]))
	zoneID := uint32(intFromAny(ctx.Message.Params[3]))

	if repoAny, ok := ctx.Sender.GetSharedParameter("rp", repositoryExpr, false); ok {
		repoNumber := repoAny.(uint32)
		if uint64(repoNumber) == objectID>>32 {
			// This GENERATE_OBJECT is the authority's response to a
			// CREATE_OBJECT we sent on this same handle: it resolves one of
			// our partial objects rather than introducing a brand new one.
			objectIDBase := objectID % (1 << 32)
			obj, found := m.partialObjects[objectIDBase]
			delete(m.partialObjects, objectIDBase)
			if !found || obj.netBase().State != StateCreateRequested {
				m.bus().Emit(bus.EventWarning, "ignoring bad partial generation for object", objectID)
				return nil
			}
			// A mismatched object type upgrades the partial object anyway,
			// with only a warning: the id slot is already committed and
			// rejecting it here would leave both sides permanently out of
			// sync on that id.
			if _, hasType := m.registry.classes[objectType]; hasType && objectType != obj.netBase().class.OType {
				m.bus().Emit(bus.EventWarning, "generated object type mismatch", objectID)
			}
			obj.netBase().State = StateGenerating
			obj.netBase().setParameters(objectID, ownerID, zoneID)
			m.addNetworkObject(obj)
			return nil
		}
	}

	factory := m.registry.GetConstructor(objectType)
	if factory == nil {
		ctx.Sender.SendDisconnect(protocol.ReasonInvalidObjectType, fmt.Sprintf("unknown object: %d", objectID))
		return nil
	}
	obj := factory(m)
	obj.netBase().State = StateGenerating
	obj.netBase().setParameters(objectID, ownerID, zoneID)
	m.addNetworkObject(obj)
	return nil
}

func (m *Manager) processSetObjectField(ctx *netconn.ProcessContext) error {
	if len(ctx.Message.Params) != 4 {
		return fmt.Errorf("netobject: SET_OBJECT_FIELD expects 4 parameters, got %d", len(ctx.Message.Params))
	}
	objectID := uint64(intFromAny(ctx.Message.Params[0]))
	role := intFromAny(ctx.Message.Params[1])
	field := intFromAny(ctx.Message.Params[2])
	args := toSlice(ctx.Message.Params[3])

	obj, ok := m.netObjects[objectID]
	if !ok {
		m.bus().Emit(bus.EventWarning, "ignoring invalid set_object_field for object", objectID)
		return nil
	}
	return callField(m.bus(), obj, obj.netBase().class, ctx.Sender, role, field, args)
}

func (m *Manager) processObjectGenerateDone(ctx *netconn.ProcessContext) error {
	if len(ctx.Message.Params) != 1 {
		return fmt.Errorf("netobject: OBJECT_GENERATE_DONE expects 1 parameter, got %d", len(ctx.Message.Params))
	}
	m.initializeObject(uint64(intFromAny(ctx.Message.Params[0])))
	return nil
}

func (m *Manager) processRequestDeleteObject(ctx *netconn.ProcessContext) error {
	if len(ctx.Message.Params) != 1 {
		return fmt.Errorf("netobject: REQUEST_DELETE_OBJECT expects 1 parameter, got %d", len(ctx.Message.Params))
	}
	objectID := uint64(intFromAny(ctx.Message.Params[0]))
	repoAny, ok := ctx.Sender.GetSharedParameter("rp", repositoryExpr, true)
	if !ok {
		return nil
	}
	m.PerformObjectDeletion(objectID, repoAny.(uint32))
	return nil
}

func (m *Manager) processDestroyObject(ctx *netconn.ProcessContext) error {
	if len(ctx.Message.Params) != 1 {
		return fmt.Errorf("netobject: DESTROY_OBJECT expects 1 parameter, got %d", len(ctx.Message.Params))
	}
	m.destroyNetworkObject(uint64(intFromAny(ctx.Message.Params[0])))
	return nil
}

func (m *Manager) processRequestVisibleObjects(ctx *netconn.ProcessContext) error {
	for _, obj := range m.GetVisibleObjects(ctx.Sender) {
		m.sendGenerate(obj, obj.netBase().getLoadedParams(), ctx.Sender)
	}
	return nil
}

// loadParams applies an incoming CREATE_OBJECT's initial parameter list to
// obj, one field call per entry, the same path as a runtime SET_OBJECT_FIELD.
func (m *Manager) loadParams(handle *netconn.Handle, obj Object, params []ParameterEntry) {
	for _, p := range params {
		_ = callField(m.bus(), obj, obj.netBase().class, handle, p.Role, p.Field, p.Args)
	}
}
