package tree

import (
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/aretw0/canopy/pkg/domain"
	"github.com/google/uuid"
)

// IDGenerator produces candidate node and template ids.
// Candidates may collide; callers retry against the scope they care about.
type IDGenerator interface {
	NewID(kind domain.Kind) string
}

// UUIDGenerator produces kind-prefixed ids such as "button-3f2a9c1e".
type UUIDGenerator struct{}

// NewID implements IDGenerator.
func (UUIDGenerator) NewID(kind domain.Kind) string {
	prefix := string(kind)
	if prefix == "" {
		prefix = "node"
	}
	short := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return prefix + "-" + short
}

// SequenceGenerator produces deterministic ids ("<prefix>1", "<prefix>2", ...).
// Useful in tests and fixtures.
type SequenceGenerator struct {
	Prefix string
	n      atomic.Int64
}

// NewSequence creates a SequenceGenerator with the given prefix.
func NewSequence(prefix string) *SequenceGenerator {
	return &SequenceGenerator{Prefix: prefix}
}

// NewID implements IDGenerator.
func (g *SequenceGenerator) NewID(domain.Kind) string {
	return fmt.Sprintf("%s%d", g.Prefix, g.n.Add(1))
}

// FreshID asks gen for ids until one is absent from taken, records it there and returns it.
func FreshID(gen IDGenerator, kind domain.Kind, taken map[string]struct{}) string {
	for {
		id := gen.NewID(kind)
		if id == "" || id == domain.RootTarget {
			continue
		}
		if _, used := taken[id]; used {
			continue
		}
		taken[id] = struct{}{}
		return id
	}
}
