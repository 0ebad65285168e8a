package services

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/desertthunder/muse/internal/shared"
)

// EventKind enumerates the frame kinds the backend emits.
type EventKind int

const (
	NarrativeEvent EventKind = iota
	StatusEvent
	ResultEvent
	ErrorEvent
)

func (k EventKind) String() string {
	switch k {
	case NarrativeEvent:
		return "narrative"
	case StatusEvent:
		return "status"
	case ResultEvent:
		return "result"
	case ErrorEvent:
		return "error"
	default:
		return ""
	}
}

// Event is one parsed frame from a generation stream. Payload is plain
// text for narrative/status/error frames and a JSON document for result
// frames.
type Event struct {
	Kind    EventKind
	Payload string
}

// EventStream is a lazy, non-restartable sequence of [Event] values read
// from a chunked response body. Next returns io.EOF when the transport
// closed cleanly and [shared.ErrStream] when it failed mid-stream.
type EventStream struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
	closed  bool
}

// NewEventStream wraps a response body in a frame parser. The stream owns
// the body and closes it on Close or terminal error.
func NewEventStream(body io.ReadCloser) *EventStream {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	scanner.Split(scanFrames)

	return &EventStream{body: body, scanner: scanner}
}

// Next returns the next well-formed event. Frames missing a recognized
// event kind or data line are dropped and reading continues; this keeps a
// single corrupt frame from poisoning the rest of the stream.
func (s *EventStream) Next() (Event, error) {
	if s.closed {
		return Event{}, io.EOF
	}

	for s.scanner.Scan() {
		if ev, ok := parseFrame(s.scanner.Text()); ok {
			return ev, nil
		}
	}

	s.Close()

	if err := s.scanner.Err(); err != nil {
		return Event{}, fmt.Errorf("%w: %v", shared.ErrStream, err)
	}
	return Event{}, io.EOF
}

// Close releases the underlying transport. Safe to call more than once.
func (s *EventStream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.body.Close()
}

// scanFrames is a [bufio.SplitFunc] that tokenizes the stream into frames
// separated by a blank line. Both \n\n and \r\n\r\n delimiters are
// accepted.
func scanFrames(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}

	if i := bytes.Index(data, []byte("\n\n")); i >= 0 {
		return i + 2, data[:i], nil
	}
	if i := bytes.Index(data, []byte("\r\n\r\n")); i >= 0 {
		return i + 4, data[:i], nil
	}

	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

// parseFrame extracts the kind and payload from one frame. A frame is only
// emitted as an event when it contains both a recognized "event:" line and
// a "data:" line.
func parseFrame(frame string) (Event, bool) {
	var kindLine, dataLine string
	var hasKind, hasData bool

	for _, line := range strings.Split(frame, "\n") {
		line = strings.TrimRight(line, "\r")
		switch {
		case strings.HasPrefix(line, "event:"):
			kindLine = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
			hasKind = true
		case strings.HasPrefix(line, "data:"):
			dataLine = strings.TrimPrefix(line, "data:")
			dataLine = strings.TrimPrefix(dataLine, " ")
			hasData = true
		}
	}

	if !hasKind || !hasData {
		return Event{}, false
	}

	var kind EventKind
	switch kindLine {
	case "narrative":
		kind = NarrativeEvent
	case "status":
		kind = StatusEvent
	case "result":
		kind = ResultEvent
	case "error":
		kind = ErrorEvent
	default:
		return Event{}, false
	}

	return Event{Kind: kind, Payload: dataLine}, true
}
