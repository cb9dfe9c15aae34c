package middleware

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/ports"
	"github.com/aretw0/canopy/pkg/tree"
)

// Mask replaces redacted attribute values.
const Mask = "***"

type redactionMiddleware struct {
	next     ports.DocumentStore
	patterns []*regexp.Regexp
}

// CompilePatterns compiles attribute-key patterns for redaction.
// Matching is case-insensitive: "token" masks "submitToken" and "TOKEN".
func CompilePatterns(patternStrings []string) ([]*regexp.Regexp, error) {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		if !strings.HasPrefix(p, "(?i)") {
			p = "(?i)" + p
		}
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("redaction pattern %q: %w", patternStrings[i], err)
		}
		patterns[i] = re
	}
	return patterns, nil
}

// NewRedactionMiddleware creates a middleware that masks values of attribute keys
// matching the patterns, in page nodes and template masters alike.
// Nested maps and lists (such as navigation links) are searched too.
// Patterns follow CompilePatterns.
func NewRedactionMiddleware(patternStrings []string) (Middleware, error) {
	patterns, err := CompilePatterns(patternStrings)
	if err != nil {
		return nil, err
	}
	return func(next ports.DocumentStore) ports.DocumentStore {
		return &redactionMiddleware{next: next, patterns: patterns}
	}, nil
}

func (m *redactionMiddleware) Save(ctx context.Context, docID string, doc *domain.Document) error {
	// Work on a copy; the caller's document stays untouched.
	cloned := tree.CopyDocument(doc)

	maskNodes(cloned.RootNodes, m.patterns)
	for i := range cloned.Templates {
		maskNode(&cloned.Templates[i].RootNode, m.patterns)
	}

	return m.next.Save(ctx, docID, cloned)
}

func (m *redactionMiddleware) Load(ctx context.Context, docID string) (*domain.Document, error) {
	return m.next.Load(ctx, docID)
}

func (m *redactionMiddleware) Delete(ctx context.Context, docID string) error {
	return m.next.Delete(ctx, docID)
}

func (m *redactionMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

// Helpers

func maskNodes(nodes []domain.Node, patterns []*regexp.Regexp) {
	for i := range nodes {
		maskNode(&nodes[i], patterns)
	}
}

func maskNode(n *domain.Node, patterns []*regexp.Regexp) {
	maskMap(n.Attributes, patterns)
	maskNodes(n.Children, patterns)
}

func maskMap(m map[string]any, patterns []*regexp.Regexp) {
	for k, v := range m {
		if matches(k, patterns) {
			m[k] = Mask
			continue
		}
		maskValue(v, patterns)
	}
}

func maskValue(v any, patterns []*regexp.Regexp) {
	switch val := v.(type) {
	case map[string]any:
		maskMap(val, patterns)
	case []any:
		for _, item := range val {
			maskValue(item, patterns)
		}
	case []map[string]any:
		for _, item := range val {
			maskMap(item, patterns)
		}
	}
}

func matches(key string, patterns []*regexp.Regexp) bool {
	for _, p := range patterns {
		if p.MatchString(key) {
			return true
		}
	}
	return false
}
