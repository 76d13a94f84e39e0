// Package watch notifies callers when a single file changes on disk.
//
// The watcher observes the file's parent directory rather than the file
// itself so that editors and deploy tools that replace files by rename are
// still seen. Bursts of events are debounced into one callback.
//
//	fw, err := watch.New(watch.Config{Path: "allowlist.yaml"})
//	if err != nil {
//	    return err
//	}
//	defer fw.Close()
//
//	go fw.Watch(ctx, func() error {
//	    return holder.Reload("allowlist.yaml")
//	})
package watch
