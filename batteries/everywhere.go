package batteries

import "github.com/Wizzerinus/magicnet/protocol"

// Everywhere resolves every message to every known remote role: the default
// fan-out policy, appropriate for a single-server or fully-meshed topology
// where there is no "choke point" to route around. Passing nil as
// netconn.NewTransportManager's resolve argument already gets this behavior;
// Everywhere exists so applications that assemble a policy explicitly (e.g.
// to compose it with another one conditionally) have a named value to reach
// for instead of reasoning about what nil means.
func Everywhere(_ protocol.Message, knownRoles []string) []string { return knownRoles }
