package store

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/db"
)

const defaultPollInterval = 2 * time.Second

// FirebaseStore adapts the Firebase Realtime Database to the Store port.
type FirebaseStore struct {
	client       *db.Client
	pollInterval time.Duration
}

func NewFirebase(ctx context.Context, app *firebase.App) (*FirebaseStore, error) {
	client, err := app.Database(ctx)
	if err != nil {
		return nil, err
	}
	return &FirebaseStore{client: client, pollInterval: defaultPollInterval}, nil
}

func (s *FirebaseStore) Get(ctx context.Context, path string, v any) error {
	return s.client.NewRef(path).Get(ctx, v)
}

func (s *FirebaseStore) Set(ctx context.Context, path string, v any) error {
	return s.client.NewRef(path).Set(ctx, v)
}

// Observe polls the path and delivers a snapshot whenever its JSON encoding
// changes. The Admin SDK exposes no realtime listeners, so polling stands in
// for them; the interval bounds staleness, not correctness. The first
// snapshot is delivered before Observe starts waiting.
func (s *FirebaseStore) Observe(ctx context.Context, path string, onChange func(data json.RawMessage)) error {
	ref := s.client.NewRef(path)
	var last []byte

	deliver := func() error {
		var v any
		if err := ref.Get(ctx, &v); err != nil {
			return err
		}
		data, err := json.Marshal(v)
		if err != nil {
			return err
		}
		if bytes.Equal(data, last) {
			return nil
		}
		last = data
		onChange(data)
		return nil
	}

	if err := deliver(); err != nil {
		return err
	}

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := deliver(); err != nil {
				return err
			}
		}
	}
}
