// Package dropzone turns pointer geometry over a drop target into an insert position.
package dropzone

import "github.com/aretw0/canopy/pkg/domain"

// Resolve maps a zone over a target of the given kind to an insert position.
// Middle on a container means inside; top means before and bottom means after.
// Anything that would land inside a kind that cannot own children is demoted to after.
func Resolve(zone domain.Zone, kind domain.Kind) domain.Position {
	pos := domain.PositionAfter
	switch zone {
	case domain.ZoneTop:
		pos = domain.PositionBefore
	case domain.ZoneBottom:
		pos = domain.PositionAfter
	case domain.ZoneMiddle:
		pos = domain.PositionInside
	}
	if pos == domain.PositionInside && !kind.IsContainer() {
		return domain.PositionAfter
	}
	return pos
}

// Band sizes as fractions of the target height.
const (
	edgeBand      = 0.25
	leafEdgeSplit = 0.5
)

// ZoneFromOffset classifies a pointer offset (from the top of the target) into a zone.
// Containers get a quarter band at each edge and a middle band between them;
// leaves are split in half since they have no inside.
// A non-positive height yields ZoneBottom.
func ZoneFromOffset(offsetY, height float64, kind domain.Kind) domain.Zone {
	if height <= 0 {
		return domain.ZoneBottom
	}
	ratio := offsetY / height
	if !kind.IsContainer() {
		if ratio < leafEdgeSplit {
			return domain.ZoneTop
		}
		return domain.ZoneBottom
	}
	switch {
	case ratio < edgeBand:
		return domain.ZoneTop
	case ratio > 1-edgeBand:
		return domain.ZoneBottom
	default:
		return domain.ZoneMiddle
	}
}
