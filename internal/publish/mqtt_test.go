package publish

import (
	"errors"
	"sync"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/relabs-tech/gps_bridge/internal/metrics"
)

type fakeToken struct {
	err  error
	done chan struct{}
}

func newFakeToken(err error) *fakeToken {
	t := &fakeToken{err: err, done: make(chan struct{})}
	close(t.done)
	return t
}

func (t *fakeToken) Wait() bool                     { return true }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t *fakeToken) Done() <-chan struct{}          { return t.done }
func (t *fakeToken) Error() error                   { return t.err }

type published struct {
	topic    string
	payload  string
	qos      byte
	retained bool
}

// fakeClient records publishes; every other mqtt.Client method panics.
type fakeClient struct {
	mqtt.Client

	mu      sync.Mutex
	msgs    []published
	fail    error
	release chan struct{} // when set, Publish blocks until it is closed
}

func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	if c.release != nil {
		<-c.release
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgs = append(c.msgs, published{topic, payload.(string), qos, retained})
	return newFakeToken(c.fail)
}

func (c *fakeClient) sent() []published {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]published(nil), c.msgs...)
}

func TestMQTTPublisher_DeliversInOrder(t *testing.T) {
	client := &fakeClient{}
	m := metrics.New()
	p := NewMQTTPublisher(client, Options{Retained: true, QueueSize: 8}, m)

	for _, v := range []string{"1", "2", "3"} {
		if err := p.Publish("/GPS/ALT", v, 1); err != nil {
			t.Fatalf("unexpected err: %v", err)
		}
	}
	p.Close()

	got := client.sent()
	if len(got) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(got))
	}
	for i, want := range []string{"1", "2", "3"} {
		if got[i].payload != want || got[i].qos != 1 || !got[i].retained {
			t.Fatalf("message %d: unexpected %+v", i, got[i])
		}
	}
	if v := testutil.ToFloat64(m.Published); v != 3 {
		t.Fatalf("expected 3 published, got %v", v)
	}
}

func TestMQTTPublisher_OnlyChanges(t *testing.T) {
	client := &fakeClient{}
	m := metrics.New()
	p := NewMQTTPublisher(client, Options{OnlyChanges: true, QueueSize: 8}, m)

	p.Publish("/GPS/TME", "12:00:00", 0)
	p.Publish("/GPS/TME", "12:00:00", 0)
	p.Publish("/GPS/DTE", "12:00:00", 0)
	p.Publish("/GPS/TME", "12:00:01", 0)
	p.Close()

	if n := len(client.sent()); n != 3 {
		t.Fatalf("expected 3 messages, got %d", n)
	}
	if v := testutil.ToFloat64(m.PublishSkipped); v != 1 {
		t.Fatalf("expected 1 skipped, got %v", v)
	}
	if latest := p.Latest(); latest["/GPS/TME"] != "12:00:01" || latest["/GPS/DTE"] != "12:00:00" {
		t.Fatalf("unexpected latest values %v", latest)
	}
}

func TestMQTTPublisher_FailureForgetsValue(t *testing.T) {
	client := &fakeClient{fail: errors.New("broker gone")}
	m := metrics.New()
	p := NewMQTTPublisher(client, Options{OnlyChanges: true, QueueSize: 8}, m)

	p.Publish("/GPS/ALT", "100", 0)
	// Wait for the worker to process the failure.
	deadline := time.Now().Add(2 * time.Second)
	for testutil.ToFloat64(m.PublishFailures) < 1 {
		if time.Now().After(deadline) {
			t.Fatalf("publish failure not recorded")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if err := p.Publish("/GPS/ALT", "100", 0); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	p.Close()

	if n := len(client.sent()); n != 2 {
		t.Fatalf("expected the failed value to be retried, got %d sends", n)
	}
}

func TestMQTTPublisher_QueueFullDrops(t *testing.T) {
	client := &fakeClient{release: make(chan struct{})}
	m := metrics.New()
	p := NewMQTTPublisher(client, Options{QueueSize: 1}, m)

	// The worker takes the first message and blocks; the second fills the
	// queue, so at least one of the remaining publishes must be dropped.
	var dropped int
	for i := 0; i < 5; i++ {
		if err := p.Publish("/GPS/SPD", string(rune('a'+i)), 0); errors.Is(err, ErrQueueFull) {
			dropped++
		}
	}
	close(client.release)
	p.Close()

	if dropped == 0 {
		t.Fatalf("expected drops with a full queue")
	}
	if v := testutil.ToFloat64(m.PublishDropped); int(v) != dropped {
		t.Fatalf("expected %d dropped in metrics, got %v", dropped, v)
	}
	if n := len(client.sent()); n+dropped != 5 {
		t.Fatalf("expected sent+dropped == 5, got %d+%d", n, dropped)
	}
}

func TestMQTTPublisher_RejectsBadMessages(t *testing.T) {
	p := NewMQTTPublisher(&fakeClient{}, Options{}, metrics.New())
	defer p.Close()

	if err := p.Publish("", "x", 0); err == nil {
		t.Fatalf("expected empty topic error")
	}
	if err := p.Publish("/GPS/X", "", 0); err == nil {
		t.Fatalf("expected empty payload error")
	}
	if err := p.Publish("/GPS/X", "x", 3); err == nil {
		t.Fatalf("expected qos error")
	}
}

func TestMQTTPublisher_ClosedRejects(t *testing.T) {
	p := NewMQTTPublisher(&fakeClient{}, Options{}, metrics.New())
	p.Close()
	p.Close()
	if err := p.Publish("/GPS/X", "x", 0); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

type recordingSink struct {
	msgs []Pair
	err  error
}

func (r *recordingSink) Publish(topic, payload string, _ byte) error {
	r.msgs = append(r.msgs, Pair{topic, payload})
	return r.err
}

func TestFanout(t *testing.T) {
	a := &recordingSink{}
	b := &recordingSink{err: errors.New("b down")}
	err := Fanout{a, b}.Publish("/GPS/ALT", "1", 0)
	if err == nil || len(a.msgs) != 1 || len(b.msgs) != 1 {
		t.Fatalf("expected both sinks to receive and the error to surface: %v", err)
	}
}
