// Package errors holds the diagnostics produced while loading and compiling
// a policy model.
//
// Each Error carries its ErrorType, a source location, an optional excerpt
// of the model file and, for misspelled slot or value names, a suggestion
// found by edit distance. Diagnostics with SeverityWarning, such as
// unreachable nodes, are reported without failing the load.
//
// A compiler collects every diagnostic into an ErrorList:
//
//	errList := errors.NewErrorList()
//	errList.AddError(errors.ErrorTypeSemantic, "duplicate id 'q1'", location)
//	errList.AddWarning(errors.ErrorTypeValidation, "node is unreachable", location, "q7")
//	if err := errList.ToError(); err != nil {
//		return err
//	}
//
// which renders as
//
//	models/example.yaml:15:9: bad-set error: slot "Top/Colour" not found
//	    14 |       set:
//	 -> 15 |         Colour: Red
//	       |         ^
//	  hint: Did you mean 'Color'?
package errors
