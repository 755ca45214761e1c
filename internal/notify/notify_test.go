package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/dreyes/charla/internal/bus"
)

type capture struct {
	mu   sync.Mutex
	sent []string
	fail bool
}

func (c *capture) send(title, message string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return errors.New("notify-send not found")
	}
	c.sent = append(c.sent, title+": "+message)
	return nil
}

func (c *capture) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sent)
}

func (c *capture) last() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.sent) == 0 {
		return ""
	}
	return c.sent[len(c.sent)-1]
}

func newSink(t *testing.T, enabled bool) (*Sink, *bus.Bus, *capture) {
	t.Helper()
	b := bus.New()
	cap := &capture{}
	s := New(b, zap.NewNop(), enabled)
	s.send = cap.send
	s.Start(context.Background())
	t.Cleanup(s.Stop)
	return s, b, cap
}

func waitSent(t *testing.T, c *capture, want int) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if c.count() >= want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("sent %d notifications, want %d", c.count(), want)
}

func TestNotifiesOnMessageEvent(t *testing.T) {
	_, b, cap := newSink(t, true)

	b.Publish(bus.Event{Kind: "notify.message", Payload: bus.Notification{
		ChatName: "Maria",
		Preview:  "hola!",
	}})
	waitSent(t, cap, 1)
	if got := cap.last(); got != "Maria: hola!" {
		t.Errorf("notification = %q", got)
	}
}

func TestImagePreviewSubstituted(t *testing.T) {
	_, b, cap := newSink(t, true)

	b.Publish(bus.Event{Kind: "notify.message", Payload: bus.Notification{
		ChatName: "Equipo",
		Preview:  "/static/uploads/abc.png",
		IsImage:  true,
	}})
	waitSent(t, cap, 1)
	if got := cap.last(); got != "Equipo: Nueva imagen" {
		t.Errorf("notification = %q", got)
	}
}

func TestDisabledSinkStaysSilent(t *testing.T) {
	_, b, cap := newSink(t, false)

	b.Publish(bus.Event{Kind: "notify.message", Payload: bus.Notification{
		ChatName: "Maria",
		Preview:  "hola!",
	}})
	time.Sleep(50 * time.Millisecond)
	if got := cap.count(); got != 0 {
		t.Errorf("disabled sink sent %d notifications", got)
	}
}

func TestSendFailureDoesNotPanic(t *testing.T) {
	_, b, cap := newSink(t, true)
	cap.mu.Lock()
	cap.fail = true
	cap.mu.Unlock()

	b.Publish(bus.Event{Kind: "notify.message", Payload: bus.Notification{
		ChatName: "Maria",
		Preview:  "hola!",
	}})
	time.Sleep(50 * time.Millisecond)
	// Nothing recorded, nothing crashed.
	if got := cap.count(); got != 0 {
		t.Errorf("failing sender recorded %d sends", got)
	}
}
