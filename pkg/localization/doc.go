// Package localization extracts the translatable text of a policy model.
//
// Export walks a compiled model and produces a Bundle of entries: the text
// of every question (with its terms, as markdown), section titles, reject
// reasons and todo notes keyed by node id; every distinct answer text; and
// the notes of every slot and value of the policy space. Nodes whose ids
// were generated by the compiler are skipped, since their ids are not
// stable across edits of the model.
//
// # Formats
//
// A bundle can be written as a flat entry list in JSON, YAML or CSV, or as a
// localization directory:
//
//	<dir>/
//	    readme.md
//	    answers.yaml
//	    space.md
//	    nodes/<node id>.md
//
//	bundle := localization.Export(m)
//	err := localization.NewJSONExporter(true).Export(ctx, bundle, os.Stdout)
package localization
