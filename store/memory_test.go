package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryGetMissingNode(t *testing.T) {
	s := NewMemory()
	var node map[string]any
	require.NoError(t, s.Get(context.Background(), "alice-x-com", &node))
	assert.Nil(t, node)
}

func TestMemorySetThenGet(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	require.NoError(t, s.Set(ctx, "alice-x-com", map[string]any{
		"first_name": "Alice",
		"last_name":  "Liddell",
	}))

	var node map[string]any
	require.NoError(t, s.Get(ctx, "alice-x-com", &node))
	assert.Equal(t, "Alice", node["first_name"])
}

func TestMemoryNestedPaths(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	require.NoError(t, s.Set(ctx, "alice-x-com", map[string]any{"first_name": "Alice"}))
	require.NoError(t, s.Set(ctx, "alice-x-com/conversations", []map[string]any{{"id": "c1"}}))

	// the sibling subtree must survive a nested write
	var node map[string]any
	require.NoError(t, s.Get(ctx, "alice-x-com", &node))
	assert.Equal(t, "Alice", node["first_name"])

	var list []map[string]any
	require.NoError(t, s.Get(ctx, "alice-x-com/conversations", &list))
	require.Len(t, list, 1)
	assert.Equal(t, "c1", list[0]["id"])
}

func TestMemoryTypedDecode(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	type entry struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	require.NoError(t, s.Set(ctx, "users", []entry{{Name: "Alice Liddell", Email: "alice-x-com"}}))

	var got []entry
	require.NoError(t, s.Get(ctx, "users", &got))
	require.Len(t, got, 1)
	assert.Equal(t, "alice-x-com", got[0].Email)
}

func TestMemoryObserve(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s := NewMemory()

	snapshots := make(chan json.RawMessage, 8)
	done := make(chan error, 1)
	go func() {
		done <- s.Observe(ctx, "alice-x-com/conversations", func(data json.RawMessage) {
			snapshots <- data
		})
	}()

	// initial snapshot of the missing node is null
	assert.JSONEq(t, "null", string(receive(t, snapshots)))

	require.NoError(t, s.Set(ctx, "alice-x-com/conversations", []map[string]any{{"id": "c1"}}))

	var list []map[string]any
	require.NoError(t, json.Unmarshal(receive(t, snapshots), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "c1", list[0]["id"])

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Observe did not return after cancellation")
	}
}

func receive(t *testing.T, ch chan json.RawMessage) json.RawMessage {
	t.Helper()
	select {
	case data := <-ch:
		return data
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for snapshot")
		return nil
	}
}
