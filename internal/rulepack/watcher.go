package rulepack

import (
	"context"
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"
)

const reloadDebounce = 200 * time.Millisecond

// Watch reloads the catalogue whenever a pack file in its directory changes.
// It blocks until ctx is done. Reload failures are logged and the previous
// packs are kept.
func (c *Catalogue) Watch(ctx context.Context) error {
	return c.watch(ctx, nil)
}

func (c *Catalogue) watch(ctx context.Context, reloaded chan<- error) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create rule watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(c.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", c.dir, err)
	}
	c.logger.Infof("Watching rule packs in %s", c.dir)

	// armed once a relevant event arrives, fires after the burst settles
	timer := time.NewTimer(reloadDebounce)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !Supported(event.Name) {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				timer.Reset(reloadDebounce)
			}

		case <-timer.C:
			err := c.Reload()
			if err != nil {
				c.logger.Errorf("Rule pack reload failed: %v", err)
			}
			if reloaded != nil {
				select {
				case reloaded <- err:
				default:
				}
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			c.logger.Warnf("Rule watcher error: %v", err)
		}
	}
}
