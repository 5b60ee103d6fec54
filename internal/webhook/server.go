// Package webhook exposes the HTTP surface: streaming generation, preset
// triggers, and the debug API.
package webhook

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/user/storyforge/internal/gateway"
	"github.com/user/storyforge/internal/progress"
	"github.com/user/storyforge/internal/state"
	"github.com/user/storyforge/internal/types"
)

// Server is the HTTP handler for the generation and debug endpoints.
type Server struct {
	gw       *gateway.Gateway
	presets  *state.PresetStore
	sessions types.SessionStore
	events   types.EventStore
	stories  types.StoryStore
	mux      *http.ServeMux
}

// NewServer creates the HTTP surface over the gateway and stores.
func NewServer(gw *gateway.Gateway, presets *state.PresetStore, sessions types.SessionStore, events types.EventStore, stories types.StoryStore) *Server {
	s := &Server{
		gw:       gw,
		presets:  presets,
		sessions: sessions,
		events:   events,
		stories:  stories,
		mux:      http.NewServeMux(),
	}
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("POST /generate", s.handleGenerate)
	s.mux.HandleFunc("POST /webhook/", s.handleNamedPreset)
	s.mux.HandleFunc("GET /api/sessions", s.handleAPISessions)
	s.mux.HandleFunc("GET /api/sessions/", s.handleAPISessionEvents)
	s.mux.HandleFunc("GET /api/stories/", s.handleAPIStory)
	return s
}

// ServeHTTP delegates to the internal mux, implementing http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// generateRequest is the JSON body for POST /generate.
type generateRequest struct {
	Prompt     string   `json:"prompt"`
	SessionKey string   `json:"session_key"`
	Catalog    string   `json:"catalog,omitempty"`
	ImageURLs  []string `json:"image_urls,omitempty"`
}

// handleGenerate enqueues a generation run and streams its progress events
// to the client as NDJSON, one event per line, ending with the terminal
// completion or error event. Closing the connection abandons the run.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid JSON"}`, http.StatusBadRequest)
		return
	}
	if req.Prompt == "" {
		http.Error(w, `{"error":"prompt is required"}`, http.StatusBadRequest)
		return
	}
	if req.SessionKey == "" {
		req.SessionKey = "webhook:adhoc"
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, `{"error":"streaming unsupported"}`, http.StatusInternalServerError)
		return
	}

	// Buffered so a slow client cannot stall the generation goroutine;
	// overflow beyond the buffer is dropped except terminal events.
	eventCh := make(chan progress.Event, 64)
	_, err := s.gw.HandleInbound(r.Context(), &types.GenerateRequest{
		Source:     "webhook",
		SessionKey: types.SessionKey(req.SessionKey),
		Prompt:     req.Prompt,
		Catalog:    req.Catalog,
		ImageURLs:  req.ImageURLs,
	},
		gateway.WithContext(r.Context()),
		gateway.WithOnEvent(func(ev progress.Event) {
			if ev.Terminal() {
				// Evict stale events rather than block the queue worker
				// when the client has stopped reading.
				for {
					select {
					case eventCh <- ev:
						return
					default:
						select {
						case <-eventCh:
						default:
						}
					}
				}
			}
			select {
			case eventCh <- ev:
			default:
			}
		}),
	)
	if err != nil {
		slog.Error("enqueue generation failed", "error", err)
		http.Error(w, `{"error":"could not queue generation"}`, http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	enc := json.NewEncoder(w)
	for {
		select {
		case ev := <-eventCh:
			if err := enc.Encode(ev); err != nil {
				return
			}
			flusher.Flush()
			if ev.Terminal() {
				return
			}
		case <-r.Context().Done():
			return
		}
	}
}

// namedPresetRequest is the optional JSON body for POST /webhook/{name}.
type namedPresetRequest struct {
	Prompt string `json:"prompt"`
}

// handleNamedPreset triggers a stored preset and replies with the run's
// outcome summary once it finishes.
func (s *Server) handleNamedPreset(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(r.URL.Path, "/webhook/")
	if name == "" {
		http.Error(w, `{"error":"preset name required"}`, http.StatusBadRequest)
		return
	}

	preset, err := s.presets.Get(name)
	if err != nil {
		http.Error(w, `{"error":"preset not found"}`, http.StatusNotFound)
		return
	}
	if !preset.Enabled {
		http.Error(w, `{"error":"preset is disabled"}`, http.StatusForbidden)
		return
	}

	prompt := preset.Prompt
	var body namedPresetRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err == nil && body.Prompt != "" {
		prompt = body.Prompt
	}

	done := make(chan string, 1)
	_, err = s.gw.HandleInbound(r.Context(), &types.GenerateRequest{
		Source:     "webhook",
		SessionKey: types.SessionKey(preset.SessionKey),
		Prompt:     prompt,
		Catalog:    preset.Catalog,
	},
		gateway.WithContext(r.Context()),
		gateway.WithOnComplete(func(summary string) { done <- summary }),
	)
	if err != nil {
		slog.Error("trigger preset failed", "preset", name, "error", err)
		http.Error(w, `{"error":"could not queue generation"}`, http.StatusServiceUnavailable)
		return
	}

	select {
	case summary := <-done:
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"response": summary})
	case <-r.Context().Done():
	}
}

type sessionResponse struct {
	SessionID  string `json:"session_id"`
	SessionKey string `json:"session_key"`
	Catalog    string `json:"catalog"`
	Status     string `json:"status"`
	CreatedAt  string `json:"created_at"`
	UpdatedAt  string `json:"updated_at"`
	EventCount int64  `json:"event_count"`
}

func (s *Server) handleAPISessions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessions, err := s.sessions.List(ctx)
	if err != nil {
		slog.Error("list sessions failed", "error", err)
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		return
	}

	result := make([]sessionResponse, 0, len(sessions))
	for _, sess := range sessions {
		count, err := s.events.Count(ctx, sess.SessionID)
		if err != nil {
			slog.Warn("count events failed", "session_id", sess.SessionID, "error", err)
		}
		result = append(result, sessionResponse{
			SessionID:  string(sess.SessionID),
			SessionKey: string(sess.SessionKey),
			Catalog:    sess.Catalog,
			Status:     sess.Status,
			CreatedAt:  sess.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
			UpdatedAt:  sess.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
			EventCount: count,
		})
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].UpdatedAt > result[j].UpdatedAt
	})

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

func (s *Server) handleAPISessionEvents(w http.ResponseWriter, r *http.Request) {
	// Path: /api/sessions/{id}/events
	path := strings.TrimPrefix(r.URL.Path, "/api/sessions/")
	parts := strings.SplitN(path, "/", 2)
	if len(parts) < 2 || parts[1] != "events" {
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
		return
	}
	sessionID := types.SessionID(parts[0])

	limit := 200
	if q := r.URL.Query().Get("limit"); q != "" {
		if n, err := strconv.Atoi(q); err == nil && n > 0 {
			limit = n
		}
	}

	events, err := s.events.Tail(r.Context(), sessionID, limit)
	if err != nil {
		slog.Error("tail events failed", "session_id", sessionID, "error", err)
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		return
	}
	if events == nil {
		events = []*types.Event{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(events)
}

// handleAPIStory returns the raw document for GET /api/stories/{id}, or its
// metadata for GET /api/stories/{id}/meta.
func (s *Server) handleAPIStory(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/stories/")
	if path == "" {
		http.Error(w, `{"error":"story id required"}`, http.StatusBadRequest)
		return
	}

	if id, ok := strings.CutSuffix(path, "/meta"); ok {
		meta, err := s.stories.GetMeta(r.Context(), types.StoryID(id))
		if err != nil {
			http.Error(w, `{"error":"story not found"}`, http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(meta)
		return
	}

	doc, err := s.stories.Get(r.Context(), types.StoryID(path))
	if err != nil {
		http.Error(w, `{"error":"story not found"}`, http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(doc))
}
