package state

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/user/storyforge/internal/types"
)

// SessionStore maps durable session keys (for example "telegram:42:99" or
// "cli:local") to sessions. The index lives in sessions/sessions.json;
// each session additionally owns a directory sessions/<sessionID>/ that
// holds its event log and stories. The index is cached in memory after the
// first read and written through on every change.
type SessionStore struct {
	root  string
	mu    sync.RWMutex
	byKey map[types.SessionKey]*types.SessionIndex
}

// NewSessionStore creates a session store rooted at the given data directory.
func NewSessionStore(root string) *SessionStore {
	return &SessionStore{root: root}
}

func (s *SessionStore) indexPath() string {
	return filepath.Join(s.root, "sessions", "sessions.json")
}

func (s *SessionStore) sessionDir(id types.SessionID) string {
	return filepath.Join(s.root, "sessions", string(id))
}

// ensureLoaded populates the cache from disk once. Caller must hold the
// write lock.
func (s *SessionStore) ensureLoaded() error {
	if s.byKey != nil {
		return nil
	}
	s.byKey = make(map[types.SessionKey]*types.SessionIndex)

	data, err := os.ReadFile(s.indexPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read session index: %w", err)
	}
	var sessions []*types.SessionIndex
	if err := json.Unmarshal(data, &sessions); err != nil {
		return fmt.Errorf("unmarshal session index: %w", err)
	}
	for _, sess := range sessions {
		s.byKey[sess.SessionKey] = sess
	}
	return nil
}

// flush writes the cache to sessions.json via a temp file and rename.
// Caller must hold the write lock.
func (s *SessionStore) flush() error {
	sessions := make([]*types.SessionIndex, 0, len(s.byKey))
	for _, sess := range s.byKey {
		sessions = append(sessions, sess)
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].CreatedAt.Before(sessions[j].CreatedAt)
	})

	data, err := json.MarshalIndent(sessions, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal session index: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.indexPath()), 0o755); err != nil {
		return fmt.Errorf("create sessions dir: %w", err)
	}

	tmp := s.indexPath() + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp index: %w", err)
	}
	if err := os.Rename(tmp, s.indexPath()); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename temp index: %w", err)
	}
	return nil
}

// ResolveOrCreate returns the session for the given key, creating one bound
// to the named capability catalog when the key is new.
func (s *SessionStore) ResolveOrCreate(_ context.Context, key types.SessionKey, catalog string) (types.SessionID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(); err != nil {
		return "", err
	}
	if existing, ok := s.byKey[key]; ok {
		return existing.SessionID, nil
	}

	now := time.Now()
	sess := &types.SessionIndex{
		SessionID:  types.NewSessionID(),
		SessionKey: key,
		Catalog:    catalog,
		Status:     "active",
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	s.byKey[key] = sess

	if err := s.flush(); err != nil {
		delete(s.byKey, key)
		return "", err
	}
	if err := os.MkdirAll(s.sessionDir(sess.SessionID), 0o755); err != nil {
		return "", fmt.Errorf("create session dir: %w", err)
	}
	return sess.SessionID, nil
}

// Get returns the session with the given ID.
func (s *SessionStore) Get(_ context.Context, id types.SessionID) (*types.SessionIndex, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(); err != nil {
		return nil, err
	}
	for _, sess := range s.byKey {
		if sess.SessionID == id {
			return sess, nil
		}
	}
	return nil, fmt.Errorf("session not found: %s", id)
}

// List returns all known sessions in no particular order.
func (s *SessionStore) List(_ context.Context) ([]*types.SessionIndex, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(); err != nil {
		return nil, err
	}
	sessions := make([]*types.SessionIndex, 0, len(s.byKey))
	for _, sess := range s.byKey {
		sessions = append(sessions, sess)
	}
	return sessions, nil
}

// Delete removes a session from the index along with its directory, which
// holds the event log and stories.
func (s *SessionStore) Delete(_ context.Context, id types.SessionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(); err != nil {
		return err
	}
	for key, sess := range s.byKey {
		if sess.SessionID != id {
			continue
		}
		delete(s.byKey, key)
		if err := s.flush(); err != nil {
			return err
		}
		if err := os.RemoveAll(s.sessionDir(id)); err != nil {
			return fmt.Errorf("remove session dir: %w", err)
		}
		return nil
	}
	return fmt.Errorf("session not found: %s", id)
}

// DeleteAll removes every session and the sessions directory.
func (s *SessionStore) DeleteAll(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.byKey = make(map[types.SessionKey]*types.SessionIndex)
	if err := os.RemoveAll(filepath.Join(s.root, "sessions")); err != nil {
		return fmt.Errorf("remove sessions directory: %w", err)
	}
	return nil
}

// Update persists changes to the given session and bumps UpdatedAt.
func (s *SessionStore) Update(_ context.Context, session *types.SessionIndex) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(); err != nil {
		return err
	}
	if _, ok := s.byKey[session.SessionKey]; !ok {
		return fmt.Errorf("session not found: %s", session.SessionKey)
	}

	session.UpdatedAt = time.Now()
	s.byKey[session.SessionKey] = session
	return s.flush()
}
