/*
Package dsl provides a fluent Go builder for page documents.

It is the programmatic alternative to command scripts: useful for seeding
documents, writing tests and generating pages from code with compile-time
checking.

Example usage:

	doc, err := dsl.New().
		Page(
			dsl.Section("hero").Label("Hero").Children(
				dsl.Heading("title").Attr("text", "Welcome"),
				dsl.Button("cta").Popup("signup"),
			),
			dsl.Form("signup").Label("Signup"),
			dsl.Stub("footer", "tpl-footer"),
		).
		Template("tpl-footer", "Footer", true,
			dsl.Section("footer-root").Children(dsl.Text("copy")),
		).
		Build()
*/
package dsl
