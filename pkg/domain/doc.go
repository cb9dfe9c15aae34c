/*
Package domain contains the core models of the Canopy page tree.

It defines the node tree, templates and the persisted document shape. This
package is kept pure and free of external dependencies like I/O or persistence,
following Hexagonal Architecture principles.

# Key Entities

  - Node: One element of the tree (container, leaf or global stub).
  - Template: A named subtree reused through global stubs.
  - Document: The persisted state ({rootNodes, templates}).
  - DocumentDiff: The delta between two document snapshots, streamed to renderers.
*/
package domain
