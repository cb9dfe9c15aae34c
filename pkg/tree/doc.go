/*
Package tree is the structural mutation engine of Canopy.

Every function operates on an ordered node list (a scope) and returns a new
list; the input is never modified in place, so callers can keep earlier
snapshots for undo or diffing. The same functions serve the live page and a
template under master edit, the caller decides which list is active.

Missing ids are not errors: lookups return false, mutations return the input.
*/
package tree
