// Package scanner computes which nodes are popup or mega-menu content.
//
// Renderers use the result to keep those nodes out of the normal page flow
// unless they are being rendered as the popup or menu itself. The scan always
// covers the whole page, regardless of any template being edited.
package scanner
