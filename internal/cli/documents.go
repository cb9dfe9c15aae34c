package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/aretw0/canopy/internal/presentation/graph"
	"github.com/aretw0/canopy/internal/validator"
	loamAdapter "github.com/aretw0/canopy/pkg/adapters/loam"
	"github.com/aretw0/canopy/pkg/command"
	"github.com/aretw0/canopy/pkg/domain"
)

// Tree output formats.
const (
	FormatOutline = "outline"
	FormatMermaid = "mermaid"
	FormatJSON    = "json"
)

// ListDocuments prints one document id per line.
func ListDocuments(ctx context.Context, app *App, w io.Writer) error {
	ids, err := app.Engine.Documents(ctx)
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}
	for _, id := range ids {
		fmt.Fprintln(w, id)
	}
	return nil
}

// InspectDocument prints the stored document as indented JSON.
func InspectDocument(ctx context.Context, app *App, docID string, w io.Writer) error {
	return PrintTree(ctx, app, docID, FormatJSON, nil, w)
}

// RemoveDocument deletes a document.
func RemoveDocument(ctx context.Context, app *App, docID string, w io.Writer) error {
	if err := app.Engine.Delete(ctx, docID); err != nil {
		return err
	}
	printSystemMessage(w, "Removed '%s'.", docID)
	return nil
}

// ApplyScript runs a command script against a document, creating it if needed.
// A path of "-" reads YAML from r.
func ApplyScript(ctx context.Context, app *App, docID, path string, r io.Reader, w io.Writer) error {
	var cmds []command.Command
	var err error
	if path == "-" {
		cmds, err = command.ReadScript(r, "yaml")
	} else {
		cmds, err = command.LoadScript(path)
	}
	if err != nil {
		return err
	}

	results, err := app.Engine.ApplyAll(ctx, docID, cmds)
	for _, res := range results {
		line := string(res.Op)
		if res.ID != "" {
			line += " " + res.ID
		}
		if !res.Changed() {
			line += " (no change)"
		}
		fmt.Fprintln(w, line)
	}
	if err != nil {
		return fmt.Errorf("applied %d of %d commands: %w", len(results), len(cmds), err)
	}
	printSystemMessage(w, "Applied %d commands to '%s'.", len(results), docID)
	return nil
}

// ValidateDocument prints every issue and fails when any is an error.
func ValidateDocument(ctx context.Context, app *App, docID string, w io.Writer) error {
	var report validator.Report
	err := app.Engine.View(ctx, docID, func(doc *domain.Document) error {
		report = validator.ValidateDocument(doc)
		return nil
	})
	if err != nil {
		return err
	}
	for _, issue := range report.Issues {
		fmt.Fprintf(w, "%s %s\n", issue.Severity, issue)
	}
	if err := report.Err(); err != nil {
		return err
	}
	fmt.Fprintf(w, "Document '%s' is valid (%d warnings).\n", docID, len(report.Warnings()))
	return nil
}

// PrintTree writes the document in the given format. render, when set,
// post-processes the Markdown outline (terminal styling).
func PrintTree(ctx context.Context, app *App, docID, format string, render func(string) (string, error), w io.Writer) error {
	return app.Engine.View(ctx, docID, func(doc *domain.Document) error {
		switch format {
		case FormatMermaid:
			_, err := io.WriteString(w, graph.GenerateMermaid(doc, nil))
			return err
		case FormatJSON:
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			return enc.Encode(doc)
		case FormatOutline, "":
			out := graph.GenerateOutline(doc)
			if render != nil {
				rendered, err := render(out)
				if err != nil {
					return err
				}
				out = rendered
			}
			_, err := io.WriteString(w, out)
			return err
		default:
			return fmt.Errorf("unknown format %q (supported: %s, %s, %s)", format, FormatOutline, FormatMermaid, FormatJSON)
		}
	})
}

// ExportTemplates writes the document's templates into a Loam directory.
func ExportTemplates(ctx context.Context, app *App, docID, dir string, w io.Writer) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}
	lib, err := loamAdapter.Open(dir)
	if err != nil {
		return err
	}
	n, err := app.Engine.ExportTemplates(ctx, docID, lib)
	if err != nil {
		return err
	}
	printSystemMessage(w, "Exported %d templates to %s.", n, dir)
	return nil
}

// ImportTemplates merges the templates of a Loam directory into the document.
func ImportTemplates(ctx context.Context, app *App, docID, dir string, w io.Writer) error {
	lib, err := loamAdapter.Open(dir)
	if err != nil {
		return err
	}
	n, err := app.Engine.ImportTemplates(ctx, docID, lib)
	if err != nil {
		return err
	}
	printSystemMessage(w, "Imported %d templates into '%s'.", n, docID)
	return nil
}
