package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
)

// MemoryStore keeps the document tree in memory with the same path semantics
// as the realtime database. It backs tests and local development.
type MemoryStore struct {
	mu     sync.Mutex
	root   any
	obs    map[int]*observer
	nextID int
}

type observer struct {
	path string
	ch   chan json.RawMessage
}

func NewMemory() *MemoryStore {
	return &MemoryStore{obs: make(map[int]*observer)}
}

func (s *MemoryStore) Get(_ context.Context, path string, v any) error {
	s.mu.Lock()
	data, err := s.snapshot(path)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

func (s *MemoryStore) Set(_ context.Context, path string, v any) error {
	value, err := normalize(v)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.root = setNode(s.root, splitPath(path), value)
	type delivery struct {
		ch   chan json.RawMessage
		data json.RawMessage
	}
	var deliveries []delivery
	for _, ob := range s.obs {
		data, err := s.snapshot(ob.path)
		if err != nil {
			continue
		}
		deliveries = append(deliveries, delivery{ch: ob.ch, data: data})
	}
	s.mu.Unlock()

	// coalesce: an observer that has not drained yet only sees the latest
	for _, d := range deliveries {
		select {
		case d.ch <- d.data:
		default:
			select {
			case <-d.ch:
			default:
			}
			d.ch <- d.data
		}
	}
	return nil
}

func (s *MemoryStore) Observe(ctx context.Context, path string, onChange func(data json.RawMessage)) error {
	ob := &observer{path: path, ch: make(chan json.RawMessage, 1)}

	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.obs[id] = ob
	initial, err := s.snapshot(path)
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.obs, id)
		s.mu.Unlock()
	}()

	if err != nil {
		return err
	}
	onChange(initial)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case data := <-ob.ch:
			onChange(data)
		}
	}
}

// snapshot marshals the subtree at path; callers must hold mu.
func (s *MemoryStore) snapshot(path string) (json.RawMessage, error) {
	node := s.root
	for _, seg := range splitPath(path) {
		m, ok := node.(map[string]any)
		if !ok {
			node = nil
			break
		}
		node = m[seg]
	}
	data, err := json.Marshal(node)
	if err != nil {
		return nil, fmt.Errorf("marshaling node at %q: %w", path, err)
	}
	return data, nil
}

func setNode(node any, segs []string, value any) any {
	if len(segs) == 0 {
		return value
	}
	m, ok := node.(map[string]any)
	if !ok {
		m = make(map[string]any)
	}
	m[segs[0]] = setNode(m[segs[0]], segs[1:], value)
	return m
}

func splitPath(path string) []string {
	var segs []string
	for _, seg := range strings.Split(path, "/") {
		if seg != "" {
			segs = append(segs, seg)
		}
	}
	return segs
}

// normalize round-trips v through JSON so the stored tree holds only generic
// maps, slices and primitives, matching what the real database returns.
func normalize(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}
