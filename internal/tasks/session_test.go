package tasks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/muse/internal/models"
	"github.com/desertthunder/muse/internal/services"
	"github.com/desertthunder/muse/internal/shared"
)

type streamItem struct {
	ev  services.Event
	err error
}

// fakeStream is a hand-driven EventSource. Tests push items through ch;
// closing ch ends the stream with io.EOF.
type fakeStream struct {
	ch     chan streamItem
	closed chan struct{}
	once   sync.Once
}

func newFakeStream() *fakeStream {
	return &fakeStream{ch: make(chan streamItem, 16), closed: make(chan struct{})}
}

func (f *fakeStream) Next() (services.Event, error) {
	select {
	case item, ok := <-f.ch:
		if !ok {
			return services.Event{}, io.EOF
		}
		return item.ev, item.err
	case <-f.closed:
		return services.Event{}, io.EOF
	}
}

func (f *fakeStream) Close() error {
	f.once.Do(func() { close(f.closed) })
	return nil
}

func (f *fakeStream) push(kind services.EventKind, payload string) {
	f.ch <- streamItem{ev: services.Event{Kind: kind, Payload: payload}}
}

type openedStream struct {
	stream *fakeStream
	ctx    context.Context
}

// fakeOpener hands out one fakeStream per attempt and records the
// attempt context so tests can observe cancellation.
type fakeOpener struct {
	opened chan openedStream
}

func newFakeOpener() *fakeOpener {
	return &fakeOpener{opened: make(chan openedStream, 8)}
}

func (o *fakeOpener) OpenGenerateStream(ctx context.Context, req services.GenerateRequest) (EventSource, error) {
	f := newFakeStream()
	o.opened <- openedStream{stream: f, ctx: ctx}
	return f, nil
}

func (o *fakeOpener) next(t *testing.T) openedStream {
	t.Helper()
	select {
	case os := <-o.opened:
		return os
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for a stream to open")
		return openedStream{}
	}
}

func waitSettled(t *testing.T, ch chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for the attempt to settle")
	}
}

func settledChan(s *StreamSession) chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settled
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

const resultPayload = `{
	"prompt": "chill study beats",
	"mood": {"primary_mood": "calm", "playlist_title": "Deep Focus"},
	"tracks": [
		{"title": "Midnight", "artist": "Lo", "video_id": "abc"},
		{"title": "Daybreak", "artist": "Fi", "video_id": "def"}
	]
}`

func TestStreamSessionLifecycle(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/playlists/generate/stream" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "event: narrative\ndata: Setting the mood\n\n")
		fmt.Fprint(w, "event: status\ndata: Finding tracks\n\n")
		fmt.Fprintf(w, "event: result\ndata: %s\n\n", strings.ReplaceAll(resultPayload, "\n", ""))
	}))
	defer server.Close()

	svc := services.NewMuseService(services.NewClient(services.ClientOpts{BaseURL: server.URL}))
	session := NewStreamSession(MuseOpener{Service: svc}, nil)

	if session.State() != StateIdle {
		t.Fatalf("initial state = %s, want idle", session.State())
	}

	err := session.Submit(context.Background(), services.GenerateRequest{Prompt: "chill study beats"})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	waitSettled(t, settledChan(session))

	if session.State() != StateCompleted {
		t.Fatalf("state = %s, want completed (err: %v)", session.State(), session.Err())
	}
	if got := session.Narrative(); got != "Setting the mood" {
		t.Errorf("narrative = %q", got)
	}
	if got := session.Status(); got != "" {
		t.Errorf("status = %q, want cleared on completion", got)
	}
	pl := session.Playlist()
	if pl == nil {
		t.Fatal("Playlist() = nil")
	}
	if pl.Tracks[0].VideoID != "abc" {
		t.Errorf("first track video id = %q, want abc", pl.Tracks[0].VideoID)
	}
	if pl.Title() != "Deep Focus" {
		t.Errorf("title = %q", pl.Title())
	}

	var sawSubmitted, sawDone bool
	for {
		select {
		case u := <-session.Updates():
			switch u.Phase {
			case Submitted:
				sawSubmitted = true
			case Done:
				sawDone = true
				if u.Playlist == nil {
					t.Error("Done update carries no playlist")
				}
			}
			continue
		default:
		}
		break
	}
	if !sawSubmitted || !sawDone {
		t.Errorf("updates: submitted=%v done=%v, want both", sawSubmitted, sawDone)
	}
}

func TestStreamSessionSupersession(t *testing.T) {
	opener := newFakeOpener()
	session := NewStreamSession(opener, nil)

	if err := session.Submit(context.Background(), services.GenerateRequest{Prompt: "sad songs"}); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	first := opener.next(t)
	first.stream.push(services.NarrativeEvent, "gloomy")
	waitFor(t, "first narrative", func() bool { return session.Narrative() == "gloomy" })

	if err := session.Submit(context.Background(), services.GenerateRequest{Prompt: "happy songs"}); err != nil {
		t.Fatalf("second Submit() error = %v", err)
	}
	settled := settledChan(session)
	second := opener.next(t)

	if first.ctx.Err() == nil {
		t.Error("superseded attempt context not cancelled")
	}

	// Late events from the superseded stream must be inert.
	first.stream.push(services.NarrativeEvent, " and gloomier")
	first.stream.push(services.StatusEvent, "stale status")

	second.stream.push(services.NarrativeEvent, "sunny")
	second.stream.push(services.ResultEvent, resultPayload)
	waitSettled(t, settled)

	if session.State() != StateCompleted {
		t.Fatalf("state = %s, want completed", session.State())
	}
	if got := session.Narrative(); got != "sunny" {
		t.Errorf("narrative = %q, must only reflect the newest prompt", got)
	}
	close(first.stream.ch)
}

func TestStreamSessionCancel(t *testing.T) {
	opener := newFakeOpener()
	session := NewStreamSession(opener, nil)

	if err := session.Submit(context.Background(), services.GenerateRequest{Prompt: "rainy day"}); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	attempt := opener.next(t)
	attempt.stream.push(services.NarrativeEvent, "grey skies")
	waitFor(t, "narrative", func() bool { return session.Narrative() != "" })

	session.Cancel()

	if session.State() != StateIdle {
		t.Fatalf("state after cancel = %s, want idle", session.State())
	}
	if attempt.ctx.Err() == nil {
		t.Error("cancel did not abort the attempt context")
	}
	if session.Narrative() != "" || session.Status() != "" {
		t.Error("cancel did not clear attempt state")
	}
	if session.Err() != nil {
		t.Errorf("Err() = %v, cancellation is not a failure", session.Err())
	}

	// Even a result arriving after cancel changes nothing.
	attempt.stream.push(services.ResultEvent, resultPayload)
	time.Sleep(20 * time.Millisecond)
	if session.State() != StateIdle {
		t.Errorf("state = %s after stale result, want idle", session.State())
	}
	if session.Playlist() != nil {
		t.Error("stale result populated the playlist")
	}

	// Cancelling again is a no-op.
	session.Cancel()
	if session.State() != StateIdle {
		t.Errorf("state = %s after second cancel", session.State())
	}
}

func TestStreamSessionBackendError(t *testing.T) {
	opener := newFakeOpener()
	session := NewStreamSession(opener, nil)

	if err := session.Submit(context.Background(), services.GenerateRequest{Prompt: "workout"}); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	settled := settledChan(session)
	attempt := opener.next(t)
	attempt.stream.push(services.ErrorEvent, "model overloaded")
	waitSettled(t, settled)

	if session.State() != StateFailed {
		t.Fatalf("state = %s, want failed", session.State())
	}
	if !errors.Is(session.Err(), shared.ErrBackendSignaled) {
		t.Errorf("Err() = %v, want ErrBackendSignaled", session.Err())
	}
	if !strings.Contains(session.Err().Error(), "model overloaded") {
		t.Errorf("Err() = %v, want backend message preserved", session.Err())
	}
}

func TestStreamSessionMalformedResult(t *testing.T) {
	opener := newFakeOpener()
	session := NewStreamSession(opener, nil)

	// A successful run first, so a later failure must not clobber it.
	if err := session.Submit(context.Background(), services.GenerateRequest{Prompt: "chill"}); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	settled := settledChan(session)
	opener.next(t).stream.push(services.ResultEvent, resultPayload)
	waitSettled(t, settled)
	if session.State() != StateCompleted {
		t.Fatalf("state = %s, want completed", session.State())
	}

	if err := session.Submit(context.Background(), services.GenerateRequest{Prompt: "moody"}); err != nil {
		t.Fatalf("second Submit() error = %v", err)
	}
	settled = settledChan(session)
	opener.next(t).stream.push(services.ResultEvent, "{not json")
	waitSettled(t, settled)

	if session.State() != StateFailed {
		t.Fatalf("state = %s, want failed", session.State())
	}
	if !errors.Is(session.Err(), shared.ErrMalformedResult) {
		t.Errorf("Err() = %v, want ErrMalformedResult", session.Err())
	}
	if pl := session.Playlist(); pl == nil || pl.Title() != "Deep Focus" {
		t.Error("failed attempt clobbered the previously completed playlist")
	}
}

func TestStreamSessionResultParseIsDeterministic(t *testing.T) {
	playlists := make([]*models.PlaylistResponse, 2)
	for i := range playlists {
		opener := newFakeOpener()
		session := NewStreamSession(opener, nil)

		if err := session.Submit(context.Background(), services.GenerateRequest{Prompt: "chill study beats"}); err != nil {
			t.Fatalf("Submit() error = %v", err)
		}
		settled := settledChan(session)
		opener.next(t).stream.push(services.ResultEvent, resultPayload)
		waitSettled(t, settled)

		if session.State() != StateCompleted {
			t.Fatalf("state = %s, want completed", session.State())
		}
		playlists[i] = session.Playlist()
	}

	if !reflect.DeepEqual(playlists[0], playlists[1]) {
		t.Errorf("same payload parsed differently:\n%+v\n%+v", playlists[0], playlists[1])
	}
}

func TestStreamSessionStreamEndsEarly(t *testing.T) {
	opener := newFakeOpener()
	session := NewStreamSession(opener, nil)

	if err := session.Submit(context.Background(), services.GenerateRequest{Prompt: "drive"}); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	settled := settledChan(session)
	attempt := opener.next(t)
	attempt.stream.push(services.NarrativeEvent, "open roads")
	close(attempt.stream.ch)
	waitSettled(t, settled)

	if session.State() != StateFailed {
		t.Fatalf("state = %s, want failed", session.State())
	}
	if !errors.Is(session.Err(), shared.ErrStream) {
		t.Errorf("Err() = %v, want ErrStream", session.Err())
	}
}

func TestStreamSessionRejectsEmptyPrompt(t *testing.T) {
	session := NewStreamSession(newFakeOpener(), nil)

	err := session.Submit(context.Background(), services.GenerateRequest{Prompt: "   "})
	if !errors.Is(err, shared.ErrInvalidInput) {
		t.Errorf("Submit() error = %v, want ErrInvalidInput", err)
	}
	if session.State() != StateIdle {
		t.Errorf("state = %s, want idle", session.State())
	}
}

func TestSessionStateString(t *testing.T) {
	cases := map[SessionState]string{
		StateIdle:       "idle",
		StateSubmitting: "submitting",
		StateStreaming:  "streaming",
		StateCompleted:  "completed",
		StateFailed:     "failed",
	}
	for state, want := range cases {
		if state.String() != want {
			t.Errorf("%d.String() = %q, want %q", state, state.String(), want)
		}
	}
	if !StateCompleted.Terminal() || !StateFailed.Terminal() || StateStreaming.Terminal() {
		t.Error("Terminal() misclassifies states")
	}
}
