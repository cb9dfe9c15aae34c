package tree

import "github.com/aretw0/canopy/pkg/domain"

// Walk visits every node depth-first. Returning false from fn skips the node's children.
func Walk(nodes []domain.Node, fn func(n domain.Node, depth int) bool) {
	walk(nodes, 0, fn)
}

func walk(nodes []domain.Node, depth int, fn func(domain.Node, int) bool) {
	for _, n := range nodes {
		if fn(n, depth) {
			walk(n.Children, depth+1, fn)
		}
	}
}

// CollectIDs returns the set of ids present in the scope.
func CollectIDs(nodes []domain.Node) map[string]struct{} {
	ids := make(map[string]struct{})
	Walk(nodes, func(n domain.Node, _ int) bool {
		ids[n.ID] = struct{}{}
		return true
	})
	return ids
}

// CheckCollision reports whether id is already used inside scope.
// Uniqueness is scope-local: pass the active scope explicitly.
func CheckCollision(id string, scope []domain.Node) bool {
	_, found := Locate(scope, id)
	return found
}

// Contains reports whether id is node itself or one of its descendants.
func Contains(node domain.Node, id string) bool {
	if node.ID == id {
		return true
	}
	_, found := Locate(node.Children, id)
	return found
}

// Count returns the number of nodes in the scope.
func Count(nodes []domain.Node) int {
	total := 0
	Walk(nodes, func(domain.Node, int) bool {
		total++
		return true
	})
	return total
}

// Duplicates returns ids that appear more than once in the scope, in first-seen order.
func Duplicates(nodes []domain.Node) []string {
	seen := make(map[string]int)
	var dups []string
	Walk(nodes, func(n domain.Node, _ int) bool {
		seen[n.ID]++
		if seen[n.ID] == 2 {
			dups = append(dups, n.ID)
		}
		return true
	})
	return dups
}
