package generate

import (
	"time"

	"github.com/user/storyforge/internal/types"
	"github.com/user/storyforge/pkg/llm"
)

// Session is the per-request working state of one generation run. It
// exclusively owns the transcript and the attempt archive; it is created
// fresh for each request and discarded at completion.
type Session struct {
	Request    types.GenerateRequest
	Index      *types.SessionIndex
	Transcript []llm.Message
	Archive    Archive
	LLMCalls   int
	StartedAt  time.Time
}

// NewSession starts a run session from the opening conversation.
func NewSession(req types.GenerateRequest, index *types.SessionIndex, opening []llm.Message) *Session {
	return &Session{
		Request:    req,
		Index:      index,
		Transcript: opening,
		StartedAt:  time.Now(),
	}
}

// Ask appends a follow-up user turn to the transcript.
func (s *Session) Ask(content string) {
	s.Transcript = append(s.Transcript, llm.Message{Role: llm.RoleUser, Content: content})
}

// Reply appends the model's answer to the transcript.
func (s *Session) Reply(content string) {
	s.Transcript = append(s.Transcript, llm.Message{Role: llm.RoleAssistant, Content: content})
}

// Metrics returns the run accounting so far.
func (s *Session) Metrics() (totalTimeMs int64, llmCalls int) {
	return time.Since(s.StartedAt).Milliseconds(), s.LLMCalls
}
