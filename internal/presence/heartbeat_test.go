package presence

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/dreyes/charla/internal/api"
	"github.com/dreyes/charla/internal/bus"
)

type statusRecorder struct {
	mu      sync.Mutex
	updates int
	logouts int
}

func (r *statusRecorder) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		r.mu.Lock()
		switch req.URL.Path {
		case "/update_status":
			r.updates++
		case "/logout":
			r.logouts++
		}
		r.mu.Unlock()
		_, _ = w.Write([]byte(`{"status": "ok"}`))
	})
}

func (r *statusRecorder) updateCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.updates
}

func (r *statusRecorder) logoutCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.logouts
}

func newHeartbeat(t *testing.T, interval time.Duration) (*Heartbeat, *statusRecorder, *bus.Bus) {
	t.Helper()
	rec := &statusRecorder{}
	srv := httptest.NewServer(rec.handler())
	t.Cleanup(srv.Close)

	client, err := api.New(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	b := bus.New()
	return NewHeartbeat(client, b, zap.NewNop(), interval), rec, b
}

func waitCount(t *testing.T, want int, count func() int, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if count() >= want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("%s: got %d, want >= %d", msg, count(), want)
}

func TestHeartbeatTicks(t *testing.T) {
	h, rec, b := newHeartbeat(t, 30*time.Millisecond)
	ch, unsub := b.Subscribe("presence.", 10)
	defer unsub()

	h.Start(context.Background())
	defer h.Stop()

	// Initial beat plus at least two ticks.
	waitCount(t, 3, rec.updateCount, "heartbeat ticks")

	select {
	case evt := <-ch:
		if evt.Kind != "presence.updated" {
			t.Errorf("event kind = %q", evt.Kind)
		}
	case <-time.After(time.Second):
		t.Fatal("no presence.updated event")
	}
}

func TestActivityDebounced(t *testing.T) {
	h, rec, _ := newHeartbeat(t, time.Hour)
	h.debounce = 50 * time.Millisecond

	h.Start(context.Background())
	defer h.Stop()
	waitCount(t, 1, rec.updateCount, "initial beat")

	// A burst of activity within one debounce window coalesces into at
	// most one extra update.
	for i := 0; i < 20; i++ {
		h.Activity()
		time.Sleep(time.Millisecond)
	}
	time.Sleep(100 * time.Millisecond)
	if got := rec.updateCount(); got > 2 {
		t.Errorf("burst produced %d updates, want at most 2", got)
	}

	// After the window passes, activity beats again.
	time.Sleep(h.debounce)
	h.Activity()
	waitCount(t, 2, rec.updateCount, "post-window activity beat")
}

func TestWakeBypassesDebounce(t *testing.T) {
	h, rec, _ := newHeartbeat(t, time.Hour)
	h.debounce = time.Hour

	h.Start(context.Background())
	defer h.Stop()
	waitCount(t, 1, rec.updateCount, "initial beat")

	h.Wake()
	waitCount(t, 2, rec.updateCount, "wake beat despite debounce window")
}

func TestWakeNotSwallowedByPendingActivity(t *testing.T) {
	h, rec, _ := newHeartbeat(t, time.Hour)
	h.debounce = time.Hour

	// Queue an activity kick before the loop runs, then wake. The wake
	// must beat even though the debounced kick is already pending.
	h.Activity()
	h.Wake()

	h.Start(context.Background())
	defer h.Stop()

	// Initial beat plus the wake beat; the queued activity is debounced.
	waitCount(t, 2, rec.updateCount, "wake beat with activity pending")
}

func TestStopFiresLogout(t *testing.T) {
	h, rec, _ := newHeartbeat(t, time.Hour)
	h.Start(context.Background())
	waitCount(t, 1, rec.updateCount, "initial beat")

	h.Stop()
	waitCount(t, 1, rec.logoutCount, "final logout")

	// The loop is stopped; no further updates.
	before := rec.updateCount()
	h.Wake()
	time.Sleep(50 * time.Millisecond)
	if got := rec.updateCount(); got != before {
		t.Errorf("updates after Stop: %d -> %d", before, got)
	}
}
