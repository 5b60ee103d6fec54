package state

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/user/storyforge/internal/types"
)

// EventStore keeps each session's timeline as an append-only JSONL file at
// sessions/<sessionID>/events.jsonl. A generation run appends its inbound
// request and every progress event it emits, so a session can be replayed
// event by event.
type EventStore struct {
	root string
	mu   sync.Mutex
	logs map[types.SessionID]*eventLog
}

// eventLog serializes writers of one session file and caches the last
// sequence number so appends do not rescan the file.
type eventLog struct {
	mu     sync.Mutex
	seq    int64
	loaded bool
}

// NewEventStore creates an event store rooted at the given data directory.
func NewEventStore(root string) *EventStore {
	return &EventStore{
		root: root,
		logs: make(map[types.SessionID]*eventLog),
	}
}

func (e *EventStore) log(sessionID types.SessionID) *eventLog {
	e.mu.Lock()
	defer e.mu.Unlock()
	l, ok := e.logs[sessionID]
	if !ok {
		l = &eventLog{}
		e.logs[sessionID] = l
	}
	return l
}

func (e *EventStore) path(sessionID types.SessionID) string {
	return filepath.Join(e.root, "sessions", string(sessionID), "events.jsonl")
}

// ensureSeq seeds the cached sequence from the file's line count.
// Caller must hold the log lock.
func (e *EventStore) ensureSeq(sessionID types.SessionID, l *eventLog) error {
	if l.loaded {
		return nil
	}
	f, err := os.Open(e.path(sessionID))
	if err != nil {
		if os.IsNotExist(err) {
			l.seq = 0
			l.loaded = true
			return nil
		}
		return fmt.Errorf("open events file: %w", err)
	}
	defer f.Close()

	var n int64
	scanner := newEventScanner(f)
	for scanner.Scan() {
		n++
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scan events file: %w", err)
	}
	l.seq = n
	l.loaded = true
	return nil
}

// newEventScanner sizes the scanner buffer for events whose payload carries
// a whole story document.
func newEventScanner(f *os.File) *bufio.Scanner {
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	return scanner
}

// Append writes one event to the session's log, stamping the next sequence
// number on it.
func (e *EventStore) Append(_ context.Context, event *types.Event) error {
	l := e.log(event.SessionID)
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(e.path(event.SessionID)), 0o755); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	if err := e.ensureSeq(event.SessionID, l); err != nil {
		return err
	}

	event.Seq = l.seq + 1
	line, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	f, err := os.OpenFile(e.path(event.SessionID), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open events file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("write event: %w", err)
	}
	l.seq = event.Seq
	return nil
}

// Tail returns the session's most recent events, oldest first, at most limit.
func (e *EventStore) Tail(_ context.Context, sessionID types.SessionID, limit int) ([]*types.Event, error) {
	l := e.log(sessionID)
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.Open(e.path(sessionID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open events file: %w", err)
	}
	defer f.Close()

	var events []*types.Event
	scanner := newEventScanner(f)
	for scanner.Scan() {
		var event types.Event
		if err := json.Unmarshal(scanner.Bytes(), &event); err != nil {
			return nil, fmt.Errorf("unmarshal event: %w", err)
		}
		events = append(events, &event)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan events file: %w", err)
	}

	if len(events) > limit {
		events = events[len(events)-limit:]
	}
	return events, nil
}

// Count returns how many events the session's log holds.
func (e *EventStore) Count(_ context.Context, sessionID types.SessionID) (int64, error) {
	l := e.log(sessionID)
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := e.ensureSeq(sessionID, l); err != nil {
		return 0, err
	}
	return l.seq, nil
}
