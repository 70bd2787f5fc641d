// Package decisiongraph defines the compiled form of a policy model's
// interview: an immutable graph of nodes addressed by id.
//
// Nodes are stored in an arena owned by the Graph and refer to their
// successors by id, so recursive structures (parts calling themselves through
// a question, sections nested in parts) need no pointer cycles. Callers
// dispatch on the concrete node type:
//
//	switch n := node.(type) {
//	case *decisiongraph.AskNode:
//	    ...
//	case *decisiongraph.SetNode:
//	    ...
//	}
//
// User-supplied ids never start with '$'. Ids synthesized by the compiler do,
// and the shared end node of a graph always has the id EndID.
package decisiongraph
