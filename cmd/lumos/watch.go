package main

import (
	"context"
	"path/filepath"
	"time"

	"github.com/boynton/lumos/errors"
	"github.com/boynton/lumos/logger"
	"github.com/boynton/lumos/util"
	"github.com/fsnotify/fsnotify"
	"github.com/pterm/pterm"
)

const debouncePeriod = 200 * time.Millisecond

// watch regenerates on every change to path until ctx is cancelled. Compile errors are
// reported and the loop keeps going.
func watch(ctx context.Context, path string, dir string, conf *util.Data) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "failed to create fsnotify watcher")
	}
	defer watcher.Close()
	// Editors often replace the file instead of writing it, so watch the directory.
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return errors.Wrapf(err, "failed to watch %s", filepath.Dir(abs))
	}

	regenerate := func() {
		written, err := generate(path, dir, conf)
		if err != nil {
			pterm.Error.Println(err.Error())
			return
		}
		pterm.Success.Printfln("Regenerated %d file(s) from %s", len(written), filepath.Base(path))
	}
	regenerate()
	pterm.Info.Printfln("Watching %s (Ctrl+C to stop)", path)

	var timer *time.Timer
	fire := make(chan struct{}, 1)
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			logger.Logger.Debugw("schema changed", "file", event.Name, "op", event.Op.String())
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debouncePeriod, func() {
				select {
				case fire <- struct{}{}:
				default:
				}
			})
		case <-fire:
			regenerate()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Logger.Warnw("watch error", "error", err)
		}
	}
}
