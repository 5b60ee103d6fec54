package state

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/user/storyforge/internal/types"
)

// storyWrapper is the on-disk format for story files.
// Each story is stored as {"meta": ..., "story": ...}.
type storyWrapper struct {
	Meta  *types.StoryMeta `json:"meta"`
	Story json.RawMessage  `json:"story"`
}

// StoryStore stores finished story documents as individual JSON files.
// Files are located at sessions/<sessionID>/stories/<storyID>.json; the
// meta FileName is the human-facing name derived from the title.
type StoryStore struct {
	root string
}

// NewStoryStore creates a new file-backed StoryStore rooted at the given directory.
func NewStoryStore(root string) *StoryStore {
	return &StoryStore{root: root}
}

func (s *StoryStore) storiesDir(sessionID types.SessionID) string {
	return filepath.Join(s.root, "sessions", string(sessionID), "stories")
}

func (s *StoryStore) storyPath(sessionID types.SessionID, id types.StoryID) string {
	return filepath.Join(s.storiesDir(sessionID), string(id)+".json")
}

// findStory locates a story file by ID using filepath.Glob across all sessions.
func (s *StoryStore) findStory(id types.StoryID) (string, error) {
	pattern := filepath.Join(s.root, "sessions", "*", "stories", string(id)+".json")
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return "", fmt.Errorf("glob story: %w", err)
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("story not found: %s", id)
	}
	return matches[0], nil
}

func (s *StoryStore) readWrapper(path string) (*storyWrapper, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read story file: %w", err)
	}

	var wrapper storyWrapper
	if err := json.Unmarshal(data, &wrapper); err != nil {
		return nil, fmt.Errorf("unmarshal story: %w", err)
	}
	return &wrapper, nil
}

// Save persists a story document and names it from its title. The document
// must already be valid JSON; the store never rewrites its content.
func (s *StoryStore) Save(_ context.Context, sessionID types.SessionID, runID types.RunID, title, doc string) (*types.StoryMeta, error) {
	id := types.NewStoryID()

	meta := &types.StoryMeta{
		ID:        id,
		SessionID: sessionID,
		RunID:     runID,
		Title:     title,
		FileName:  FileName(title, id),
		CreatedAt: time.Now(),
	}

	if !json.Valid([]byte(doc)) {
		return nil, fmt.Errorf("story document is not valid JSON")
	}

	wrapper := &storyWrapper{
		Meta:  meta,
		Story: json.RawMessage(doc),
	}

	content, err := json.MarshalIndent(wrapper, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal story wrapper: %w", err)
	}

	dir := s.storiesDir(sessionID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create stories dir: %w", err)
	}

	// Atomic write via temp file + rename
	target := s.storyPath(sessionID, id)
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, content, 0o644); err != nil {
		return nil, fmt.Errorf("write temp story: %w", err)
	}
	if err := os.Rename(tmp, target); err != nil {
		os.Remove(tmp)
		return nil, fmt.Errorf("rename temp story: %w", err)
	}

	return meta, nil
}

// Get returns the raw document for the given story.
func (s *StoryStore) Get(_ context.Context, id types.StoryID) (string, error) {
	path, err := s.findStory(id)
	if err != nil {
		return "", err
	}

	wrapper, err := s.readWrapper(path)
	if err != nil {
		return "", err
	}

	return string(wrapper.Story), nil
}

// GetMeta returns the metadata for the given story.
func (s *StoryStore) GetMeta(_ context.Context, id types.StoryID) (*types.StoryMeta, error) {
	path, err := s.findStory(id)
	if err != nil {
		return nil, err
	}

	wrapper, err := s.readWrapper(path)
	if err != nil {
		return nil, err
	}

	return wrapper.Meta, nil
}

// List returns the stories of one session, oldest first.
func (s *StoryStore) List(_ context.Context, sessionID types.SessionID) ([]*types.StoryMeta, error) {
	pattern := filepath.Join(s.storiesDir(sessionID), "*.json")
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("glob stories: %w", err)
	}

	metas := make([]*types.StoryMeta, 0, len(matches))
	for _, path := range matches {
		wrapper, err := s.readWrapper(path)
		if err != nil {
			return nil, err
		}
		metas = append(metas, wrapper.Meta)
	}
	for i := 0; i < len(metas); i++ {
		for j := i + 1; j < len(metas); j++ {
			if metas[j].CreatedAt.Before(metas[i].CreatedAt) {
				metas[i], metas[j] = metas[j], metas[i]
			}
		}
	}
	return metas, nil
}

// FileName derives the human-facing file name for a story: a slug of the
// title plus a short fragment of the ID to keep names unique.
func FileName(title string, id types.StoryID) string {
	slug := slugify(title)
	if slug == "" {
		slug = "story"
	}
	frag := string(id)
	if len(frag) > 8 {
		frag = frag[:8]
	}
	return slug + "-" + frag + ".json"
}

func slugify(s string) string {
	var sb strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			sb.WriteRune(r)
			lastDash = false
		case !lastDash:
			sb.WriteRune('-')
			lastDash = true
		}
	}
	return strings.Trim(sb.String(), "-")
}
