package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitepipe/internal/config"
)

func TestEventWireFormat(t *testing.T) {
	ev := Event{RunID: "r1", Trigger: "cli", State: "published", Time: time.Unix(0, 0).UTC(), Digest: "abc"}
	data, err := ev.Marshal()
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	assert.Equal(t, "r1", m["run_id"])
	assert.Equal(t, "published", m["state"])
	assert.Equal(t, "abc", m["digest"])
	_, hasErr := m["error"]
	assert.False(t, hasErr, "empty error is omitted")
}

func TestMemoryRecordsInOrder(t *testing.T) {
	m := &Memory{}
	for _, s := range []string{"building", "build_failed"} {
		require.NoError(t, m.Notify(context.Background(), Event{State: s}))
	}
	assert.Equal(t, []string{"building", "build_failed"}, m.States())
	assert.Len(t, m.Events(), 2)
}

func TestNewWithoutServerIsNoop(t *testing.T) {
	n, err := New(config.EventsConfig{})
	require.NoError(t, err)
	assert.IsType(t, Noop{}, n)
	assert.NoError(t, n.Notify(context.Background(), Event{State: "building"}))
	assert.NoError(t, n.Close())
}

func TestNATSConnectFailure(t *testing.T) {
	_, err := NewNATSNotifier(config.EventsConfig{NATSURL: "nats://127.0.0.1:1"})
	if err == nil {
		t.Fatalf("expected connection error")
	}
}
