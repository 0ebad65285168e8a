package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/muse/internal/models"
	"github.com/desertthunder/muse/internal/services"
	"github.com/desertthunder/muse/internal/shared"
	tu "github.com/desertthunder/muse/internal/testing"
)

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			client := services.NewClient(services.ClientOpts{BaseURL: "http://localhost:8000"})
			muse := services.NewMuseService(client)

			runner := NewRunner(RunnerOpts{
				Config: config,
				Logger: logger,
				Output: output,
				Client: client,
				Muse:   muse,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.client != client {
				t.Error("expected client to be set")
			}
			if runner.muse != muse {
				t.Error("expected muse to be set")
			}
		})

		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{
				Config: nil,
			})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
		})

		t.Run("with nil logger uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{
				Logger: nil,
			})

			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{
				Output: nil,
			})

			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})

		t.Run("with nil history log uses backend-only default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.historyLog == nil {
				t.Error("expected default history log to be set")
			}
		})

		t.Run("with nil client builds one from config", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{
				Client: nil,
			})

			if runner.client == nil {
				t.Error("expected default client to be set")
			}
			if runner.muse == nil {
				t.Error("expected default muse service to be set")
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			data := map[string]string{"key": "value"}
			err := runner.writeJSON(data, true)

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			data := map[string]string{"key": "value"}
			err := runner.writeJSON(data, false)

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			expected := `{"key":"value"}` + "\n"
			if result != expected {
				t.Errorf("expected %q, got %q", expected, result)
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			// channels cannot be marshaled to JSON
			data := make(chan int)
			err := runner.writeJSON(data, false)

			if err == nil {
				t.Fatal("expected error for non-serializable data")
			}
			if !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			failing := &tu.FWriter{}
			runner := NewRunner(RunnerOpts{Output: failing})

			data := map[string]string{"key": "value"}
			err := runner.writeJSON(data, false)

			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			data := map[string]string{"key": "value"}
			limitedWriter := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &limitedWriter})

			err := runner.writeJSON(data, false)

			if err == nil {
				t.Fatal("expected error writing newline")
			}
			if !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			err := runner.writePlain("hello %s", "world")

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if result != "hello world" {
				t.Errorf("expected 'hello world', got %q", result)
			}
		})

		t.Run("writes plain text without formatting", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			err := runner.writePlain("simple text")

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if result != "simple text" {
				t.Errorf("expected 'simple text', got %q", result)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			failing := &tu.FWriter{}
			runner := NewRunner(RunnerOpts{Output: failing})

			err := runner.writePlain("test")

			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("writeTrackList", func(t *testing.T) {
		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Output: output})

		runner.writeTrackList([]models.Track{
			{Title: "Midnight City", Artist: "M83", VideoID: "abc", Duration: "4:03"},
			{Title: "Ghost Track", Artist: "Nobody"},
		})

		result := output.String()
		if !strings.Contains(result, "1. M83 - Midnight City [4:03]") {
			t.Errorf("expected numbered playable entry, got %q", result)
		}
		if !strings.Contains(result, "2. Nobody - Ghost Track (unavailable)") {
			t.Errorf("expected unavailable marker, got %q", result)
		}
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		if len(commands) == 0 {
			t.Error("expected at least one command to be registered")
		}

		for i, cmd := range commands {
			if cmd == nil {
				t.Errorf("command at index %d is nil", i)
			}
		}
	})

	t.Run("deviceID", func(t *testing.T) {
		t.Run("returns empty without storage", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if id := runner.deviceID(); id != "" {
				t.Errorf("expected empty device id, got %q", id)
			}
		})

		t.Run("generates once and reuses", func(t *testing.T) {
			kv := tu.NewMemoryKV()
			runner := NewRunner(RunnerOpts{KV: kv})

			first := runner.deviceID()
			if first == "" {
				t.Fatal("expected a generated device id")
			}

			second := runner.deviceID()
			if second != first {
				t.Errorf("expected stable device id, got %q then %q", first, second)
			}
		})
	})

	t.Run("restoreSession", func(t *testing.T) {
		t.Run("returns nil without store", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if sess := runner.restoreSession(context.Background()); sess != nil {
				t.Errorf("expected nil session, got %+v", sess)
			}
		})
	})

	t.Run("newStreamSession", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})

		session := runner.newStreamSession()
		if session == nil {
			t.Fatal("expected a stream session")
		}
	})
}

// A missing or broken local database leaves the runner without a store or
// archive; history commands must still reach the backend instead of
// crashing.
func TestHistoryListWithoutLocalDatabase(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/playlists/history/") {
			t.Errorf("path = %s, want device-scoped history", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, "[]")
	}))
	defer server.Close()

	output := &bytes.Buffer{}
	client := services.NewClient(services.ClientOpts{BaseURL: server.URL})
	runner := NewRunner(RunnerOpts{
		Client: client,
		Muse:   services.NewMuseService(client),
		Output: output,
	})

	app := &cli.Command{Name: "muse", Commands: runner.register()}
	if err := app.Run(context.Background(), []string{"muse", "history", "list"}); err != nil {
		t.Fatalf("history list error = %v", err)
	}

	if !strings.Contains(output.String(), "No playlists yet") {
		t.Errorf("output = %q, want empty-history message", output.String())
	}
}
