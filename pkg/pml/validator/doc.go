// Package validator checks compiled decision graphs.
//
// The checks complement the compiler's own diagnostics:
//
//   - Answers: a question must not offer the same answer twice.
//   - Calls: a cycle made of calls and pass-through nodes, with no question
//     or consider on it, would run forever and is an error.
//   - Reachability: nodes that cannot be reached from the start node are
//     reported as warnings.
//
// Each check returns an *errors.ErrorList so results can be merged:
//
//	errs := validator.New(locations).Validate(graph)
//	if err := errs.ToError(); err != nil {
//	    return err
//	}
//	for _, w := range errs.Warnings() {
//	    log.Println(w)
//	}
package validator
