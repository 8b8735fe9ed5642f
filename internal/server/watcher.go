package server

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// reloadDebounce is how long a collection file must stay quiet after a
// change before its store reloads.
const reloadDebounce = 500 * time.Millisecond

// startFileWatcher initializes fsnotify monitoring of the data directory so
// externally edited collection files are picked up without a restart.
func (ms *MediaServer) startFileWatcher() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	ms.watcher = watcher

	// Start monitoring in a goroutine
	go ms.watchFiles(watcher)

	if err := ms.watcher.Add(ms.config.Storage.DataDir); err != nil {
		return err
	}

	ms.logger.WithField("data_dir", ms.config.Storage.DataDir).Info("File watcher started")
	return nil
}

// watchFiles selects on watcher channels and dispatches events. The watcher
// is passed in rather than read from the server so shutdown never races the
// deferred close.
func (ms *MediaServer) watchFiles(watcher *fsnotify.Watcher) {
	defer watcher.Close()

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			ms.handleFileEvent(event)

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			ms.logger.WithError(err).Error("File watcher error")
		}
	}
}

// handleFileEvent schedules a reload of the store whose collection file
// changed. Events for our own atomic writes resolve to a reload of
// identical content, so no self-write suppression is needed.
func (ms *MediaServer) handleFileEvent(event fsnotify.Event) {
	// Ignore temporary files and hidden files
	fileName := filepath.Base(event.Name)
	if strings.HasPrefix(fileName, ".") || strings.HasSuffix(fileName, ".tmp") {
		return
	}

	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}

	switch fileName {
	case ms.config.Storage.TracksFile:
		ms.scheduleReload(&ms.trackReloadTimer, ms.tracks.Reload)

	case ms.config.Storage.VideosFile:
		ms.scheduleReload(&ms.videoReloadTimer, ms.videos.Reload)
	}
}

// scheduleReload resets the per-store debounce timer, so a burst of events
// for one file produces a single reload once the file settles.
func (ms *MediaServer) scheduleReload(timer **time.Timer, reload func()) {
	ms.reloadMu.Lock()
	defer ms.reloadMu.Unlock()

	if *timer != nil {
		(*timer).Stop()
	}
	*timer = time.AfterFunc(reloadDebounce, reload)
}

// stopFileWatcher stops the file watcher and cancels any pending reloads.
// fsnotify close is idempotent, so the watch goroutine's own deferred close
// is safe to run afterwards.
func (ms *MediaServer) stopFileWatcher() {
	if ms.watcher != nil {
		ms.watcher.Close()
	}

	ms.reloadMu.Lock()
	defer ms.reloadMu.Unlock()
	if ms.trackReloadTimer != nil {
		ms.trackReloadTimer.Stop()
	}
	if ms.videoReloadTimer != nil {
		ms.videoReloadTimer.Stop()
	}
}
