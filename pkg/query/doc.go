// Package query enumerates every run of a policy model.
//
// The engine explores the decision graph depth first without suspending:
// every answer of every question is followed, and every consider option
// the accumulated value matches is taken. Each path that reaches the end of
// the interview is reported as a match or a non-match against a target
// value; paths that hit a reject are reported separately.
//
//	res, err := query.New(m).Collect(ctx, target)
//	for _, tr := range res.Matches {
//	    fmt.Println(tr.Answers)
//	}
package query
