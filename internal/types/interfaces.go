// internal/types/interfaces.go
package types

import (
	"context"
)

type SessionStore interface {
	ResolveOrCreate(ctx context.Context, key SessionKey, catalog string) (SessionID, error)
	Get(ctx context.Context, id SessionID) (*SessionIndex, error)
	List(ctx context.Context) ([]*SessionIndex, error)
	Update(ctx context.Context, session *SessionIndex) error
}

type EventStore interface {
	Append(ctx context.Context, event *Event) error
	Tail(ctx context.Context, sessionID SessionID, limit int) ([]*Event, error)
	Count(ctx context.Context, sessionID SessionID) (int64, error)
}

// StoryStore persists and names final story artifacts.
type StoryStore interface {
	Save(ctx context.Context, sessionID SessionID, runID RunID, title, doc string) (*StoryMeta, error)
	Get(ctx context.Context, id StoryID) (string, error)
	GetMeta(ctx context.Context, id StoryID) (*StoryMeta, error)
	List(ctx context.Context, sessionID SessionID) ([]*StoryMeta, error)
}
