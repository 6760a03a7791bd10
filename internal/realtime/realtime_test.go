package realtime

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quiet() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

type recordingForwarder struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (f *recordingForwarder) Forward(ctx context.Context, ev Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
	return f.err
}

func TestHubDeliversToOwnerOnly(t *testing.T) {
	hub := NewHub(quiet())
	mine, cancelMine := hub.Subscribe("a")
	defer cancelMine()
	theirs, cancelTheirs := hub.Subscribe("b")
	defer cancelTheirs()

	hub.Publish(context.Background(), Event{Table: TableCustomers, Kind: KindRefresh, OwnerID: "a"})

	select {
	case ev := <-mine:
		assert.Equal(t, TableCustomers, ev.Table)
		assert.Equal(t, KindRefresh, ev.Kind)
		assert.False(t, ev.At.IsZero())
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}
	select {
	case ev := <-theirs:
		t.Fatalf("unexpected event for other owner: %+v", ev)
	default:
	}
}

func TestHubBroadcastReachesEveryOwner(t *testing.T) {
	hub := NewHub(quiet())
	a, cancelA := hub.Subscribe("a")
	defer cancelA()
	b, cancelB := hub.Subscribe("b")
	defer cancelB()

	hub.Publish(context.Background(), Event{Table: TableFruits, Kind: KindUpdate, OwnerID: Broadcast, RecordID: "f1"})

	for _, ch := range []<-chan Event{a, b} {
		select {
		case ev := <-ch:
			assert.Equal(t, TableFruits, ev.Table)
			assert.Equal(t, "f1", ev.RecordID)
		case <-time.After(time.Second):
			t.Fatal("broadcast not delivered")
		}
	}
}

func TestHubCancel(t *testing.T) {
	hub := NewHub(quiet())
	ch, cancel := hub.Subscribe("a")
	_, cancel2 := hub.Subscribe("a")
	assert.Equal(t, 2, hub.Subscribers("a"))

	cancel()
	cancel()
	_, open := <-ch
	assert.False(t, open)
	assert.Equal(t, 1, hub.Subscribers("a"))

	cancel2()
	assert.Equal(t, 0, hub.Subscribers("a"))

	hub.Publish(context.Background(), Event{OwnerID: "a"})
}

func TestHubDropsWhenSubscriberIsFull(t *testing.T) {
	log, hook := test.NewNullLogger()
	hub := NewHub(log)
	ch, cancel := hub.Subscribe("a")
	defer cancel()

	for i := 0; i < subscriberBuffer+3; i++ {
		hub.Deliver(Event{OwnerID: "a", Kind: KindUpdate})
	}
	assert.Len(t, ch, subscriberBuffer)
	assert.Len(t, hook.AllEntries(), 3)
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
}

func TestHubForwards(t *testing.T) {
	log, hook := test.NewNullLogger()
	hub := NewHub(log)
	fwd := &recordingForwarder{}
	hub.SetForwarder(fwd)

	hub.Publish(context.Background(), Event{OwnerID: "a", Table: TableSales, Kind: KindInsert, RecordID: "s1"})
	require.Len(t, fwd.events, 1)
	assert.Equal(t, "s1", fwd.events[0].RecordID)
	assert.Empty(t, hook.AllEntries())

	fwd.err = errors.New("redis down")
	hub.Publish(context.Background(), Event{OwnerID: "a", Table: TableSales, Kind: KindUpdate})
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, "could not forward change event", hook.LastEntry().Message)
}

func TestWriteEvent(t *testing.T) {
	var buf bytes.Buffer
	ev := Event{
		Table:    TableTrays,
		Kind:     KindInsert,
		OwnerID:  "a",
		RecordID: "t1",
		At:       time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC),
	}
	require.NoError(t, writeEvent(&buf, ev))

	out := buf.String()
	require.True(t, strings.HasPrefix(out, "event: tray_transactions\ndata: "), out)
	require.True(t, strings.HasSuffix(out, "\n\n"))

	data := strings.TrimSuffix(strings.TrimPrefix(out, "event: tray_transactions\ndata: "), "\n\n")
	var got Event
	require.NoError(t, json.Unmarshal([]byte(data), &got))
	assert.Equal(t, ev, got)
}

func TestRedisBridgeHandle(t *testing.T) {
	hub := NewHub(quiet())
	bridge := &RedisBridge{channel: "test", instance: "self", hub: hub, log: quiet()}
	ch, cancel := hub.Subscribe("a")
	defer cancel()

	encode := func(instance string, ev Event) string {
		b, err := json.Marshal(envelope{Instance: instance, Event: ev})
		require.NoError(t, err)
		return string(b)
	}

	bridge.handle(encode("self", Event{OwnerID: "a", RecordID: "own"}))
	bridge.handle("{not json")
	bridge.handle(encode("other", Event{OwnerID: "a", RecordID: "remote"}))

	require.Len(t, ch, 1)
	ev := <-ch
	assert.Equal(t, "remote", ev.RecordID)
}
