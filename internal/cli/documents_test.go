package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aretw0/canopy/internal/config"
	"github.com/aretw0/canopy/pkg/command"
	"github.com/aretw0/canopy/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const landingScript = `
commands:
  - op: insert
    node:
      type: section
      label: Hero
      children:
        - type: button
          attributes:
            action: popup
            targetId: signup
  - op: insert
    node:
      type: form
      label: Signup
`

func writeScript(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "script.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDocumentCommands(t *testing.T) {
	app := newTestApp(t, testConfig(config.BackendMemory))
	ctx := context.Background()
	var out bytes.Buffer

	require.NoError(t, ApplyScript(ctx, app, "landing", writeScript(t, landingScript), nil, &out))
	assert.Contains(t, out.String(), ">>> Applied 2 commands to 'landing'.")

	out.Reset()
	require.NoError(t, ListDocuments(ctx, app, &out))
	assert.Equal(t, "landing\n", out.String())

	out.Reset()
	require.NoError(t, InspectDocument(ctx, app, "landing", &out))
	assert.Contains(t, out.String(), `"label": "Hero"`)

	out.Reset()
	require.NoError(t, ValidateDocument(ctx, app, "landing", &out))
	assert.Contains(t, out.String(), "warning", "the popup target is missing")
	assert.Contains(t, out.String(), "is valid (1 warnings)")

	out.Reset()
	require.NoError(t, PrintTree(ctx, app, "landing", FormatMermaid, nil, &out))
	assert.True(t, strings.HasPrefix(out.String(), "graph TD\n"))

	out.Reset()
	upper := func(s string) (string, error) { return strings.ToUpper(s), nil }
	require.NoError(t, PrintTree(ctx, app, "landing", FormatOutline, upper, &out))
	assert.Contains(t, out.String(), "# PAGE")

	assert.Error(t, PrintTree(ctx, app, "landing", "svg", nil, &out))

	out.Reset()
	require.NoError(t, RemoveDocument(ctx, app, "landing", &out))
	err := InspectDocument(ctx, app, "landing", &out)
	assert.ErrorIs(t, err, domain.ErrDocumentNotFound)
}

func TestApplyScript_Stdin(t *testing.T) {
	app := newTestApp(t, testConfig(config.BackendMemory))
	var out bytes.Buffer

	err := ApplyScript(context.Background(), app, "home", "-", strings.NewReader("- op: insert\n  node:\n    type: text\n- op: delete\n  id: ghost\n"), &out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "delete (no change)")
}

func TestApplyScript_Failure(t *testing.T) {
	app := newTestApp(t, testConfig(config.BackendMemory))
	ctx := context.Background()
	var out bytes.Buffer

	script := "- op: insert\n  node:\n    type: text\n- op: explode\n"
	err := ApplyScript(ctx, app, "home", "-", strings.NewReader(script), &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "applied 1 of 2 commands")

	// The first command stays applied.
	require.NoError(t, app.Engine.View(ctx, "home", func(doc *domain.Document) error {
		assert.Len(t, doc.RootNodes, 1)
		return nil
	}))

	assert.Error(t, ApplyScript(ctx, app, "home", filepath.Join(t.TempDir(), "missing.yaml"), nil, &out))
}

func TestValidateDocument_Errors(t *testing.T) {
	app := newTestApp(t, testConfig(config.BackendMemory))
	ctx := context.Background()

	doc := domain.NewDocument()
	doc.RootNodes = []domain.Node{
		{ID: "a", Kind: domain.KindText},
		{ID: "a", Kind: domain.KindText},
	}
	require.NoError(t, app.Engine.Store().Save(ctx, "broken", doc))

	var out bytes.Buffer
	err := ValidateDocument(ctx, app, "broken", &out)
	require.Error(t, err)
	assert.Contains(t, out.String(), "error [page] a:")
}

func TestTemplatesExportImport(t *testing.T) {
	app := newTestApp(t, testConfig(config.BackendMemory))
	ctx := context.Background()
	var out bytes.Buffer

	results, err := app.Engine.ApplyAll(ctx, "landing", []command.Command{
		{Op: command.OpInsert, Node: &domain.Node{Kind: domain.KindSection, Label: "Hero"}},
	})
	require.NoError(t, err)
	_, err = app.Engine.Apply(ctx, "landing", command.Command{Op: command.OpSaveAsTemplate, ID: results[0].ID, Name: "Hero", Global: true})
	require.NoError(t, err)

	dir := filepath.Join(t.TempDir(), "library")
	require.NoError(t, ExportTemplates(ctx, app, "landing", dir, &out))
	assert.Contains(t, out.String(), "Exported 1 templates")

	out.Reset()
	require.NoError(t, ImportTemplates(ctx, app, "blank", dir, &out))
	assert.Contains(t, out.String(), "Imported 1 templates into 'blank'.")

	require.NoError(t, app.Engine.View(ctx, "blank", func(doc *domain.Document) error {
		require.Len(t, doc.Templates, 1)
		assert.Equal(t, "Hero", doc.Templates[0].Name)
		assert.True(t, doc.Templates[0].IsGlobal)
		assert.Empty(t, doc.RootNodes)
		return nil
	}))
}
