// Package runtime evaluates a compiled policy model one run at a time.
//
// An Evaluator walks the decision graph from its start node, composing Set
// payloads into the run's value and running value inference after each
// one. It suspends at every question until Answer is called, and stops at
// the first Reject, or at an End reached with an empty call stack.
//
//	ev, err := runtime.New(m, runtime.WithListener(runtime.NewLoggingListener(logger)))
//	if err := ev.Start(ctx); err != nil { ... }
//	for ev.Status() == runtime.StatusAwaitingAnswer {
//	    q, _ := ev.Question()
//	    if err := ev.Answer(ctx, ask(q)); err != nil { ... }
//	}
//	outcome, _ := ev.Outcome()
//
// A suspended run can be saved with Snapshot and continued later with
// Restore against the same model version.
package runtime
