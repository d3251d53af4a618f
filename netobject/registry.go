package netobject

import (
	"encoding/json"
	"os"
	"sort"

	"github.com/Wizzerinus/magicnet/typecheck"
	"github.com/Wizzerinus/magicnet/wireerr"
)

// Registry owns the mapping from object type id to Class, and the
// marshalling/loading of foreign class signatures that lets every role
// agree on that mapping without the roles sharing a source tree.
//
// A registry runs in exactly one of two modes, set by the owning manager's
// configuration: marshalling mode (dump every registered class's own
// signatures to a file) or loading mode (read one or more previously
// dumped files and use them to learn the signatures of classes this role
// doesn't implement). The two are mutually exclusive; netcfg.Config.Validate
// already rejects configuring both.
type Registry struct {
	addedClasses   []*Class
	foreignClasses []*Class

	classes        map[uint16]*Class
	nameToID       map[string]uint16
	initialized    bool

	signatureFilenames []string
	marshallingPath    string
}

// NewRegistry returns an empty, uninitialized registry. signatureFilenames
// (loading mode) and marshallingPath (marshalling mode) are mutually
// exclusive; pass "" / nil for whichever mode is not in use.
func NewRegistry(signatureFilenames []string, marshallingPath string) *Registry {
	return &Registry{
		classes:            make(map[uint16]*Class),
		nameToID:           make(map[string]uint16),
		signatureFilenames: signatureFilenames,
		marshallingPath:    marshallingPath,
	}
}

// RegisterClass adds class to the registry as a locally implemented type.
// Must be called before Activate.
func (r *Registry) RegisterClass(class *Class) error {
	if r.initialized {
		return wireerr.NewConfigError(wireerr.KindRegistryObjectAfterInit, class.NetworkName)
	}
	r.addedClasses = append(r.addedClasses, class)
	return nil
}

// RegisterForeignClass adds class as a foreign placeholder: a type this
// role never constructs, but whose id slot must line up with every other
// role's view of the object-type table.
func (r *Registry) RegisterForeignClass(class *Class) error {
	if r.initialized {
		return wireerr.NewConfigError(wireerr.KindRegistryObjectAfterInit, class.NetworkName)
	}
	r.foreignClasses = append(r.foreignClasses, class)
	return nil
}

// Activate runs the configured mode: marshal every locally registered
// class's signatures to marshallingPath, or load and initialize from
// signatureFilenames. A registry with neither configured stays
// uninitialized until Initialize is called directly (e.g. in tests, or
// when an application wants to skip the file round trip for a
// single-process setup).
func (r *Registry) Activate() error {
	switch {
	case r.marshallingPath != "":
		return r.marshalAllFiles()
	case len(r.signatureFilenames) > 0:
		return r.loadFromFilenames()
	}
	return nil
}

// marshalClasses renders every class's own field signatures keyed by
// network name, in whichever set (added, pre-initialize; or classes,
// post-initialize) reflects the current state.
func (r *Registry) marshalClasses() map[string]any {
	var items []*Class
	if r.initialized {
		for _, c := range r.classes {
			items = append(items, c)
		}
	} else {
		items = r.addedClasses
	}
	out := make(map[string]any, len(items))
	for _, c := range items {
		out[c.NetworkName] = c.marshalFields()
	}
	return out
}

func (r *Registry) marshalAllFiles() error {
	data, err := json.Marshal(r.marshalClasses())
	if err != nil {
		return err
	}
	return os.WriteFile(r.marshallingPath, data, 0o644)
}

func (r *Registry) loadFromFilenames() error {
	items := make([]map[string]any, 0, len(r.signatureFilenames))
	for _, name := range r.signatureFilenames {
		raw, err := os.ReadFile(name)
		if err != nil {
			return err
		}
		var item map[string]any
		if err := json.Unmarshal(raw, &item); err != nil {
			return err
		}
		items = append(items, item)
	}
	return r.Initialize(items)
}

// GetConstructor returns the factory for otype, or nil if otype is unknown
// or belongs to a foreign (non-constructible) class.
func (r *Registry) GetConstructor(otype uint16) func(ctrl *Manager) Object {
	class, ok := r.classes[otype]
	if !ok || class.factory == nil {
		return nil
	}
	return class.factory
}

// ClassByName returns the finalized class registered under name, if any.
func (r *Registry) ClassByName(name string) (*Class, bool) {
	id, ok := r.nameToID[name]
	if !ok {
		return nil, false
	}
	c, ok := r.classes[id]
	return c, ok
}

// Initialize assigns a stable otype to every class name known across this
// role's own registrations, its foreign placeholders, and every marshalled
// file handed in, then finalizes each class's field index. It is an error
// to call this twice.
func (r *Registry) Initialize(marshalledContents []map[string]any) error {
	if r.initialized {
		return wireerr.NewConfigError(wireerr.KindMultipleRegistryInit, "")
	}
	r.initialized = true

	added := r.addedClasses
	foreign := r.foreignClasses

	existingNames := make(map[string]bool, len(added))
	for _, c := range added {
		existingNames[c.NetworkName] = true
	}

	allNames := make(map[string]bool)
	for _, item := range marshalledContents {
		for name := range item {
			allNames[name] = true
		}
	}
	for _, c := range foreign {
		allNames[c.NetworkName] = true
	}

	var missingNames []string
	for name := range allNames {
		if !existingNames[name] {
			missingNames = append(missingNames, name)
		}
	}
	sort.Strings(missingNames)
	for _, name := range missingNames {
		added = append(added, newPlaceholderClass(name))
	}

	sort.Slice(added, func(i, j int) bool { return added[i].NetworkName < added[j].NetworkName })
	for idx, class := range added {
		id := uint16(idx)
		r.classes[id] = class
		r.nameToID[class.NetworkName] = id
		class.OType = id
	}
	r.addedClasses = nil

	for _, item := range marshalledContents {
		if err := r.unmarshalForeignClasses(item); err != nil {
			return err
		}
	}
	for _, fc := range foreign {
		if local, ok := r.classes[r.nameToID[fc.NetworkName]]; ok {
			local.addForeignClass(fc)
		}
	}
	r.foreignClasses = nil

	for _, c := range r.classes {
		c.finalizeFields()
	}
	return nil
}

func (r *Registry) unmarshalForeignClasses(items map[string]any) error {
	for name, raw := range items {
		id, ok := r.nameToID[name]
		if !ok {
			continue
		}
		tree, ok := raw.(map[string]any)
		if !ok {
			return wireerr.NewConfigError(wireerr.KindUnsupportedValidator, "malformed marshalled class %q", name)
		}
		if err := r.classes[id].unmarshalForeignField(tree); err != nil {
			return err
		}
	}
	return nil
}

// intFromAny widens raw to an int, accepting every Go integer/float kind so
// it works uniformly whether a value came from a lossy JSON round trip
// (float64) or was packed straight into a message in-process (uint16,
// uint32, uint64, int, ...).
func intFromAny(raw any) int {
	v, _ := typecheck.ToInt64(raw)
	return int(v)
}
