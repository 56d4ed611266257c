// Package primitives defines the serializable description of a transition
// table: the form tables take in YAML files, snapshots and exports.
//
// A MachineConfig names its states (the list index is the state id), its
// custom events and its transitions by name. Validate reports every problem
// at once; Build turns a valid config into a pollfsm.Machine.
package primitives
