package dataset

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/invdash/internal/debounce"
)

// Watch calls reload after the file at path changes. Bursts of events are
// coalesced into one call once delay passes without further changes. The
// parent directory is watched so editors that replace the file on save are
// still seen. Watch blocks until ctx is done.
func Watch(ctx context.Context, path string, delay time.Duration, reload func()) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve dataset path: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	d := debounce.New(delay, reload)
	defer d.Stop()

	log.Info().Str("path", abs).Dur("debounce", delay).Msg("watching dataset")

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				log.Debug().Str("op", event.Op.String()).Msg("dataset changed")
				d.Trigger()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn().Err(err).Msg("dataset watcher error")
		}
	}
}
