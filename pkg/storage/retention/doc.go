// Package retention prunes stored run snapshots.
//
// A Pruner removes snapshots by age and by count. By default only
// snapshots of finished runs are pruned; suspended runs are kept until they
// are resumed or explicitly deleted. A Scheduler runs the pruner on a cron
// schedule:
//
//	pruner := retention.NewPruner(store, &retention.Config{
//	    MaxAge:   30 * 24 * time.Hour,
//	    Schedule: "0 3 * * *",
//	})
//	if err := pruner.Scheduler().Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
package retention
