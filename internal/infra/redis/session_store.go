package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"mcq-studio/internal/app"
	"mcq-studio/internal/domain"
)

// SessionStore keeps session snapshots in Redis so any instance behind a load
// balancer can serve a session. Keys expire after ttl of inactivity; nothing
// outlives the session.
//
//	SET quiz:session:{id} {state json} EX ttl
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{client: client, ttl: ttl}
}

func (s *SessionStore) Save(ctx context.Context, state app.State) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.client.Set(ctx, s.key(state.ID), payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *SessionStore) Get(ctx context.Context, id string) (app.State, error) {
	raw, err := s.client.Get(ctx, s.key(id)).Bytes()
	if isMiss(err) {
		return app.State{}, domain.ErrSessionNotFound
	}
	if err != nil {
		return app.State{}, fmt.Errorf("load session: %w", err)
	}
	var state app.State
	if err := json.Unmarshal(raw, &state); err != nil {
		return app.State{}, fmt.Errorf("decode session: %w", err)
	}
	if state.Selections == nil {
		state.Selections = app.Selections{}
	}
	return state, nil
}

func (s *SessionStore) Delete(ctx context.Context, id string) error {
	return s.client.Del(ctx, s.key(id)).Err()
}

func (s *SessionStore) key(id string) string {
	return "quiz:session:" + id
}
