// Package refresh keeps a pricing.Store current in long-running processes.
//
// A Scheduler refreshes the store from its configured source on a cron
// schedule, and a FileWatcher reloads a local pricing CSV whenever it changes:
//
//	scheduler := refresh.NewScheduler(store, "0 */6 * * *", logger)
//	if err := scheduler.Start(ctx); err != nil {
//	    return err
//	}
//	defer scheduler.Stop()
//
//	watcher, err := refresh.NewFileWatcher("pricing.csv", 0, logger)
//	if err != nil {
//	    return err
//	}
//	go watcher.WatchStore(ctx, store)
//
// Failed refreshes are logged and leave the current table in place.
package refresh
