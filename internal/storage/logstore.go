package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/haneul-dev/bertbot/internal/config"
	"github.com/haneul-dev/bertbot/internal/domain"
)

// ChatLogStore persists conversation logs as JSON blobs, one per
// session key, mirroring the in-memory log 1:1 on every change.
type ChatLogStore struct {
	kv KeyValueStore
}

func NewChatLogStore(kv KeyValueStore) *ChatLogStore {
	return &ChatLogStore{kv: kv}
}

func logKey(sessionKey string) string {
	return fmt.Sprintf("%s:%s", config.ChatLogKeyPrefix, sessionKey)
}

func stateKey(sessionKey string) string {
	return fmt.Sprintf("%s:%s", config.SessionStateKeyPrefix, sessionKey)
}

// Load reads the stored log for the session. A missing entry yields an
// empty log; so does a corrupt one — a log that cannot be parsed is
// discarded rather than crashing the session.
func (s *ChatLogStore) Load(ctx context.Context, sessionKey string) (domain.Log, error) {
	data, err := s.kv.Get(ctx, logKey(sessionKey))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("load chat log: %w", err)
	}

	var log domain.Log
	if err := json.Unmarshal(data, &log); err != nil {
		slog.Warn("discarding corrupt chat log", "session", sessionKey, "error", err)
		return nil, nil
	}
	return log, nil
}

// Save rewrites the full log under the session key. Full rewrite, not
// a delta: last-writer-wins is correct by construction.
func (s *ChatLogStore) Save(ctx context.Context, sessionKey string, log domain.Log) error {
	data, err := json.Marshal(log)
	if err != nil {
		return fmt.Errorf("marshal chat log: %w", err)
	}
	if err := s.kv.Set(ctx, logKey(sessionKey), data); err != nil {
		return fmt.Errorf("save chat log: %w", err)
	}
	return nil
}

// Clear removes the stored log entirely.
func (s *ChatLogStore) Clear(ctx context.Context, sessionKey string) error {
	if err := s.kv.Delete(ctx, logKey(sessionKey)); err != nil {
		return fmt.Errorf("clear chat log: %w", err)
	}
	return nil
}

// LoadState returns the persisted lifecycle state, if any. Only
// consulted when state persistence is enabled.
func (s *ChatLogStore) LoadState(ctx context.Context, sessionKey string) (domain.State, bool, error) {
	data, err := s.kv.Get(ctx, stateKey(sessionKey))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("load session state: %w", err)
	}
	st := domain.State(data)
	if !st.Valid() {
		slog.Warn("discarding corrupt session state", "session", sessionKey, "value", string(data))
		return "", false, nil
	}
	return st, true, nil
}

// SaveState persists the lifecycle state under the session's state key.
func (s *ChatLogStore) SaveState(ctx context.Context, sessionKey string, st domain.State) error {
	if err := s.kv.Set(ctx, stateKey(sessionKey), []byte(st)); err != nil {
		return fmt.Errorf("save session state: %w", err)
	}
	return nil
}

// SaveFeedback stores free-form feedback text under the legacy
// feedback key, outside the survey flow.
func (s *ChatLogStore) SaveFeedback(ctx context.Context, sessionKey, text string) error {
	key := fmt.Sprintf("%s:%s", config.FeedbackKey, sessionKey)
	if err := s.kv.Set(ctx, key, []byte(text)); err != nil {
		return fmt.Errorf("save feedback: %w", err)
	}
	return nil
}
