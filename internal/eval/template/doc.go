// Package template provides a Handlebars template engine for rendering
// evaluation summaries.
//
// Example usage:
//
//	engine := template.NewEngine(0)
//
//	data := map[string]interface{}{
//	    "expression": "14 4 6 8 + * /",
//	    "result":     0.25,
//	    "target":     "small_values",
//	}
//
//	summary, err := engine.Render("{{expression}} = {{round result 2}} -> {{target}}", data)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	// Output: 14 4 6 8 + * / = 0.25 -> small_values
//
// Built-in helpers:
//   - uppercase - Convert string to uppercase
//   - lowercase - Convert string to lowercase
//   - default - Return default value if first arg is empty
//   - eq - Equality comparison
//   - round - Format a number with a fixed number of decimals
//   - number - Format a number in its shortest exact form
//
// As in Handlebars, {{value}} is HTML-escaped; use {{{value}}} for raw text
// such as error messages.
//
// Helpers are registered on each compiled template, so several engines can
// live in the same process.
package template
