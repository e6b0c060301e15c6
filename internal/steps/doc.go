// Package steps defines the contract between the execution engine and its
// step variants, the registry resolving step type tags to factories, and
// the built-in step set. Flow steps stream records through a one-slot
// output pulled by their downstream; connectors perform one discrete unit
// of work per activation.
package steps
