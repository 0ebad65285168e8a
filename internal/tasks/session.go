package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/muse/internal/models"
	"github.com/desertthunder/muse/internal/services"
	"github.com/desertthunder/muse/internal/shared"
)

// EventSource yields generation events until the stream ends or fails.
type EventSource interface {
	Next() (services.Event, error)
	Close() error
}

// StreamOpener opens one playlist generation stream attempt.
// This abstraction allows for easier testing and decoupling from concrete implementation.
type StreamOpener interface {
	OpenGenerateStream(ctx context.Context, req services.GenerateRequest) (EventSource, error)
}

// MuseOpener adapts MuseService to the StreamOpener interface.
type MuseOpener struct {
	Service *services.MuseService
}

func (o MuseOpener) OpenGenerateStream(ctx context.Context, req services.GenerateRequest) (EventSource, error) {
	stream, err := o.Service.OpenGenerateStream(ctx, req)
	if err != nil {
		return nil, err
	}
	return stream, nil
}

// SessionState enumerates the lifecycle of a streaming generation session.
type SessionState int

const (
	StateIdle SessionState = iota
	StateSubmitting
	StateStreaming
	StateCompleted
	StateFailed
)

func (s SessionState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSubmitting:
		return "submitting"
	case StateStreaming:
		return "streaming"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return ""
	}
}

// Terminal reports whether the state accepts no further stream events.
func (s SessionState) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}

// StreamSession runs playlist generation attempts against the backend's
// event stream and exposes their incremental state.
//
// Every attempt is tagged with a generation counter. Submitting while a
// previous attempt is in flight cancels it and bumps the counter, so
// late events from the old attempt can never mutate session state.
type StreamSession struct {
	mu         sync.Mutex
	opener     StreamOpener
	logger     *log.Logger
	progress   chan ProgressUpdate
	state      SessionState
	generation uint64
	narrative  strings.Builder
	status     string
	playlist   *models.PlaylistResponse
	failure    error
	cancel     context.CancelFunc
	settled    chan struct{}
}

// NewStreamSession creates a session in the Idle state.
func NewStreamSession(opener StreamOpener, logger *log.Logger) *StreamSession {
	if logger == nil {
		logger = shared.NewLogger(io.Discard)
	}
	return &StreamSession{
		opener:   opener,
		logger:   logger,
		progress: make(chan ProgressUpdate, 64),
		state:    StateIdle,
	}
}

// Updates returns the channel carrying progress events for display.
// Sends are non-blocking, so a slow reader drops updates rather than
// stalling stream consumption.
func (s *StreamSession) Updates() <-chan ProgressUpdate {
	return s.progress
}

// State returns the current session state.
func (s *StreamSession) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Narrative returns the accumulated narrative text for the current attempt.
func (s *StreamSession) Narrative() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.narrative.String()
}

// Status returns the most recent backend status message, or "" when the
// attempt reached a terminal state.
func (s *StreamSession) Status() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Playlist returns the most recently completed playlist. A later failed
// attempt does not clear it.
func (s *StreamSession) Playlist() *models.PlaylistResponse {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playlist
}

// Err returns the failure of the current attempt, nil unless Failed.
func (s *StreamSession) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failure
}

// Generation returns the counter value of the current attempt.
func (s *StreamSession) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// Submit starts a new generation attempt for the given request.
// An attempt already in flight is cancelled and superseded.
func (s *StreamSession) Submit(ctx context.Context, req services.GenerateRequest) error {
	if strings.TrimSpace(req.Prompt) == "" {
		return fmt.Errorf("%w: prompt must not be empty", shared.ErrInvalidInput)
	}

	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.generation++
	gen := s.generation
	s.state = StateSubmitting
	s.narrative.Reset()
	s.status = ""
	s.failure = nil

	attemptCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	settled := make(chan struct{})
	s.settled = settled
	s.mu.Unlock()

	s.sendProgress(submittedUpdate(gen, req.Prompt))
	s.logger.Debug("submitting generation", "generation", gen, "prompt", req.Prompt)

	go s.consume(attemptCtx, gen, req, settled)
	return nil
}

// Cancel aborts any in-flight attempt and returns the session to Idle.
// The transition is synchronous: by the time Cancel returns, no event
// from the aborted attempt can change observable state. Cancelling an
// idle or terminal session is a no-op.
func (s *StreamSession) Cancel() {
	s.mu.Lock()
	if s.state != StateSubmitting && s.state != StateStreaming {
		s.mu.Unlock()
		return
	}
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	gen := s.generation
	s.generation++
	s.state = StateIdle
	s.narrative.Reset()
	s.status = ""
	s.failure = nil
	s.mu.Unlock()

	s.sendProgress(cancelledUpdate(gen))
	s.logger.Debug("cancelled generation", "generation", gen)
}

// consume drains one attempt's event stream. Every mutation is guarded
// against the generation counter, so a superseded attempt goes inert.
func (s *StreamSession) consume(ctx context.Context, gen uint64, req services.GenerateRequest, settled chan struct{}) {
	defer close(settled)

	stream, err := s.opener.OpenGenerateStream(ctx, req)
	if err != nil {
		s.fail(gen, err)
		return
	}
	defer stream.Close()

	if !s.markStreaming(gen) {
		return
	}

	for {
		ev, err := stream.Next()
		if err != nil {
			if err == io.EOF {
				err = fmt.Errorf("%w: stream ended before a result", shared.ErrStream)
			}
			s.fail(gen, err)
			return
		}

		switch ev.Kind {
		case services.NarrativeEvent:
			s.appendNarrative(gen, ev.Payload)
		case services.StatusEvent:
			s.setStatus(gen, ev.Payload)
		case services.ResultEvent:
			s.finish(gen, ev.Payload)
			return
		case services.ErrorEvent:
			s.fail(gen, fmt.Errorf("%w: %s", shared.ErrBackendSignaled, ev.Payload))
			return
		}
	}
}

func (s *StreamSession) markStreaming(gen uint64) bool {
	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		return false
	}
	s.state = StateStreaming
	s.mu.Unlock()

	s.sendProgress(streamOpenedUpdate(gen))
	return true
}

func (s *StreamSession) appendNarrative(gen uint64, chunk string) {
	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		return
	}
	s.narrative.WriteString(chunk)
	full := s.narrative.String()
	s.mu.Unlock()

	s.sendProgress(narrativeUpdate(gen, full))
}

func (s *StreamSession) setStatus(gen uint64, status string) {
	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		return
	}
	s.status = status
	s.mu.Unlock()

	s.sendProgress(statusUpdate(gen, status))
}

func (s *StreamSession) finish(gen uint64, payload string) {
	var pl models.PlaylistResponse
	if err := json.Unmarshal([]byte(payload), &pl); err != nil {
		s.fail(gen, fmt.Errorf("%w: %v", shared.ErrMalformedResult, err))
		return
	}

	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		return
	}
	s.state = StateCompleted
	s.playlist = &pl
	s.status = ""
	s.failure = nil
	s.cancel = nil
	s.mu.Unlock()

	s.sendProgress(doneUpdate(gen, &pl))
	s.logger.Info("generation completed", "generation", gen, "tracks", len(pl.Tracks))
}

func (s *StreamSession) fail(gen uint64, err error) {
	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		return
	}
	s.state = StateFailed
	s.failure = err
	s.status = ""
	s.cancel = nil
	s.mu.Unlock()

	s.sendProgress(erroredUpdate(gen, err))
	s.logger.Error("generation failed", "generation", gen, "error", err)
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (s *StreamSession) sendProgress(update ProgressUpdate) {
	select {
	case s.progress <- update:
		// Sent successfully
	default:
		// Channel full, skip this update
	}
}
