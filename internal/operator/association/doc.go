// Package association maps change notifications about secondary resources
// back to the primaries that own them.
//
// Each secondary kind is registered once with a Strategy. OwnerReference
// follows the controller owner reference; Mapped inverts a pure
// primary-to-secondary naming function by evaluating it for every primary in
// the secondary's namespace.
package association
