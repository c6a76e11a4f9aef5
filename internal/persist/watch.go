package persist

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// IndexEvent signals that the domain's index was rewritten, typically
// because another process saved a revision or promoted one. The payload
// is the freshly loaded index.
type IndexEvent struct {
	Index Index
}

// Watch emits an event each time index.json is rewritten, so long-lived
// consumers notice other-process promotions without polling. Atomic
// index writes land as a rename, so rename/create events count as
// changes too. The channel closes when ctx is cancelled or the watcher
// fails; slow consumers may miss intermediate events but always see the
// latest index on the next receive.
func (d *Domain) Watch(ctx context.Context) (<-chan IndexEvent, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, domainErrorf(ErrCodeWriteFailed, d.name, d.Dir(), "create watcher: %v", err)
	}
	if err := watcher.Add(d.Dir()); err != nil {
		watcher.Close()
		return nil, domainErrorf(ErrCodeNotFound, d.name, d.Dir(), "watch domain dir: %v", err)
	}

	events := make(chan IndexEvent, 1)
	go func() {
		defer watcher.Close()
		defer close(events)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Base(ev.Name) != indexFileName {
					continue
				}
				if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
					continue
				}
				idx, err := d.ReadIndex()
				if err != nil {
					d.log.Warn("watch: index reload failed", "domain", d.name, "error", err)
					continue
				}
				// Coalesce: drop the stale queued event, keep the newest.
				select {
				case events <- IndexEvent{Index: idx}:
				default:
					select {
					case <-events:
					default:
					}
					select {
					case events <- IndexEvent{Index: idx}:
					default:
					}
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				d.log.Warn("watch: watcher error", "domain", d.name, "error", err)
			}
		}
	}()

	return events, nil
}
