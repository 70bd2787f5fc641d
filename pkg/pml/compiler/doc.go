// Package compiler builds decision graphs, policy spaces and value inferrers
// from parser output.
//
// Graph compilation runs in passes:
//
//  1. Every reference receives an id. References without one get a generated
//     id of the form "$N"; duplicate author ids are fatal.
//  2. The top-level list is split into strands, each ending after an End
//     reference. Parts form strands of their own.
//  3. Each strand is compiled back to front. Every instruction's successor is
//     the node compiled just before it, or the strand's default successor,
//     which is the graph's shared end node. Set and Consider assignments are
//     resolved against the policy space here; every failure is collected.
//  4. Calls are checked against the node ids of the whole graph.
//  5. The graph is validated (see package validator).
//
// A question that declares only "yes" or only "no" receives the other answer
// implicitly, continuing with the question's successor.
package compiler
