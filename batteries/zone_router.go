package batteries

import (
	"github.com/Wizzerinus/magicnet/bus"
	"github.com/Wizzerinus/magicnet/netconn"
	"github.com/Wizzerinus/magicnet/netobject"
	"github.com/Wizzerinus/magicnet/protocol"
	"github.com/Wizzerinus/magicnet/typecheck"
)

// visibleZonesExpr matches the "vz" shared parameter every handle that
// wants zone-scoped visibility must set: a list of signed 32-bit zone ids.
var visibleZonesExpr = typecheck.ListExpr{Elem: typecheck.I32}

// zoneRoutedTypes is the set of object-replication message codes whose
// first parameter is an object id that ZoneRouter can check against a
// recipient's visible zones. CREATE_OBJECT and REQUEST_DELETE_OBJECT are
// deliberately excluded: they're addressed at the authority, not fanned out
// to observers, so zone scoping doesn't apply.
var zoneRoutedTypes = map[protocol.MessageType]bool{
	protocol.MsgSETOBJECTFIELD:     true,
	protocol.MsgGENERATEOBJECT:     true,
	protocol.MsgOBJECTGENERATEDONE: true,
	protocol.MsgDESTROYOBJECT:      true,
}

// ZoneRouter narrows both outgoing object-replication traffic and
// GetVisibleObjects queries to each handle's own declared visible-zone set,
// so a client only ever learns about objects whose zone it has opted into.
// Objects query manager.Object(oid) to find the zone.
type ZoneRouter struct {
	manager *netobject.Manager
}

// NewZoneRouter returns a router backed by manager for object/zone lookups.
func NewZoneRouter(manager *netobject.Manager) *ZoneRouter {
	return &ZoneRouter{manager: manager}
}

// Middleware builds the netconn.Middleware this router installs on a
// transport handler's chain.
func (z *ZoneRouter) Middleware(priority int) netconn.Middleware {
	return netconn.Middleware{
		Name:      "zone-router",
		Priority:  priority,
		OnMsgSend: z.filterSend,
	}
}

// InstallVisibility registers the VISIBLE_OBJECTS math target on b that
// narrows every GetVisibleObjects query to the requesting handle's zones.
func (z *ZoneRouter) InstallVisibility(b *bus.Bus, owner bus.Owner, priority int) {
	b.AddMathTarget(owner, bus.MathVisibleObjects, priority, z.onlyVisible)
}

func (z *ZoneRouter) filterSend(msg protocol.Message, handle *netconn.Handle) (protocol.Message, bool) {
	if handle == nil || !zoneRoutedTypes[msg.Type] || len(msg.Params) == 0 {
		return msg, true
	}
	oid, ok := typecheck.ToInt64(msg.Params[0])
	if !ok {
		return msg, true
	}
	obj, ok := z.manager.Object(uint64(oid))
	if !ok {
		return msg, true
	}
	if !z.zoneVisible(handle, netobject.ObjectZone(obj)) {
		return msg, false
	}
	return msg, true
}

func (z *ZoneRouter) onlyVisible(value any, args ...any) any {
	objects, ok := value.([]netobject.Object)
	if !ok || len(args) == 0 {
		return value
	}
	handle, ok := args[0].(*netconn.Handle)
	if !ok {
		return value
	}
	out := make([]netobject.Object, 0, len(objects))
	for _, obj := range objects {
		if z.zoneVisible(handle, netobject.ObjectZone(obj)) {
			out = append(out, obj)
		}
	}
	return out
}

func (z *ZoneRouter) zoneVisible(handle *netconn.Handle, zone uint32) bool {
	raw, ok := handle.GetSharedParameter("vz", visibleZonesExpr, false)
	if !ok {
		return false
	}
	zones, _ := raw.([]any)
	for _, v := range zones {
		if zv, ok := typecheck.ToInt64(v); ok && uint32(zv) == zone {
			return true
		}
	}
	return false
}
