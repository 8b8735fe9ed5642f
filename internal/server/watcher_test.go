package server

import (
	"net/http"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"medley/pkg/models"

	"github.com/fsnotify/fsnotify"
)

func TestFileWatcherStartStopCycles(t *testing.T) {
	ms, _ := newTestServer(t)

	// Repeated start/stop must never race the watch goroutine's deferred
	// close or panic during shutdown.
	for i := 0; i < 50; i++ {
		if err := ms.startFileWatcher(); err != nil {
			t.Fatalf("startFileWatcher() cycle %d: %v", i, err)
		}
		ms.stopFileWatcher()
	}
}

func TestStopFileWatcherWithoutStart(t *testing.T) {
	ms, _ := newTestServer(t)
	ms.stopFileWatcher() // must be a no-op, not a panic
}

func TestHandleFileEventReloadsChangedStore(t *testing.T) {
	ms, handler := newTestServer(t)
	doRequest(handler, http.MethodPost, "/tracks", `{"url":"a.mp3","title":"Song A"}`)

	external := `[{"id":"1-ext","url":"x.mp3","title":"External"}]`
	if err := os.WriteFile(ms.config.TracksPath(), []byte(external), 0o644); err != nil {
		t.Fatal(err)
	}

	ms.handleFileEvent(fsnotify.Event{Name: ms.config.TracksPath(), Op: fsnotify.Write})

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		all := ms.tracks.All()
		if len(all) == 1 && all[0].Title == "External" {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatalf("store did not reload external edit, have %+v", ms.tracks.All())
}

func TestScheduleReloadCoalescesEventBursts(t *testing.T) {
	ms, _ := newTestServer(t)

	var calls atomic.Int32
	var timer *time.Timer
	for i := 0; i < 10; i++ {
		ms.scheduleReload(&timer, func() { calls.Add(1) })
	}

	time.Sleep(reloadDebounce + 300*time.Millisecond)
	if got := calls.Load(); got != 1 {
		t.Errorf("burst of 10 events triggered %d reloads, want 1", got)
	}
}

func TestStopFileWatcherCancelsPendingReload(t *testing.T) {
	ms, _ := newTestServer(t)
	ms.tracks.Create(models.Track{URL: "a.mp3", Title: "Song A"})

	if err := os.WriteFile(ms.config.TracksPath(), []byte("[]"), 0o644); err != nil {
		t.Fatal(err)
	}
	ms.handleFileEvent(fsnotify.Event{Name: ms.config.TracksPath(), Op: fsnotify.Write})
	ms.stopFileWatcher()

	time.Sleep(reloadDebounce + 300*time.Millisecond)
	if ms.tracks.Len() != 1 {
		t.Error("pending reload fired after stopFileWatcher")
	}
}
