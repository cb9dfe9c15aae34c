/*
Package canopy is an editing engine for page-builder documents: a tree of typed
nodes (sections, containers, buttons, navbars...) plus a registry of reusable
templates.

# Concept

A document has two parts: the live page and its templates. A template can be
global, in which case the page holds only a stub that points at it and every
stub renders the same master. Editing that master ("master edit") swaps the
editor's working scope from the page to the template tree, so the same commands
(insert, move, delete, restyle) apply to either.

The engine keeps one editor per open document, serializes edits to the same
document (optionally across replicas through a distributed lock) and persists
every change through a pluggable store: memory, atomic JSON files or Redis.

# Usage

	eng := canopy.New(canopy.WithStore(file.New(".canopy/documents")))

	ctx := context.Background()
	res, err := eng.Apply(ctx, "landing", command.Command{
		Op:   command.OpInsert,
		Node: &domain.Node{Kind: domain.KindSection, Label: "Hero"},
	})
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(res.ID, res.Diff.Added)

The same command set is exposed over HTTP (pkg/adapters/http), as MCP tools
(pkg/adapters/mcp) and by the canopy CLI (cmd/canopy).
*/
package canopy
