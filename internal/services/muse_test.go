package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/desertthunder/muse/internal/shared"
)

func newTestMuse(t *testing.T, handler http.HandlerFunc) (*MuseService, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewMuseService(NewClient(ClientOpts{BaseURL: server.URL})), server
}

func TestMuseService(t *testing.T) {
	t.Run("ExchangeGoogleToken", func(t *testing.T) {
		svc, _ := newTestMuse(t, func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost || r.URL.Path != "/auth/google" {
				t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			}
			var body map[string]string
			json.NewDecoder(r.Body).Decode(&body)
			if body["id_token"] != "tok123" {
				t.Errorf("expected id_token tok123, got %q", body["id_token"])
			}
			json.NewEncoder(w).Encode(map[string]any{
				"user_id": "u1", "email": "a@b.c", "name": "A", "has_youtube_auth": false,
			})
		})

		session, err := svc.ExchangeGoogleToken(context.Background(), "tok123")
		if err != nil {
			t.Fatalf("unexpected error %v", err)
		}
		if session.UserID != "u1" || session.HasYouTubeAuth {
			t.Errorf("unexpected session %+v", session)
		}
	})

	t.Run("LinkYouTube", func(t *testing.T) {
		svc, _ := newTestMuse(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/auth/youtube" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			var body map[string]string
			json.NewDecoder(r.Body).Decode(&body)
			if body["user_id"] != "u1" || body["code"] != "authcode" {
				t.Errorf("unexpected body %v", body)
			}
			json.NewEncoder(w).Encode(map[string]any{"user_id": "u1", "has_youtube_auth": true})
		})

		session, err := svc.LinkYouTube(context.Background(), "u1", "authcode")
		if err != nil {
			t.Fatalf("unexpected error %v", err)
		}
		if !session.HasYouTubeAuth {
			t.Error("expected linked session")
		}
	})

	t.Run("FetchSession Unknown User", func(t *testing.T) {
		svc, _ := newTestMuse(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "Session missing", http.StatusNotFound)
		})

		if _, err := svc.FetchSession(context.Background(), "ghost"); !errors.Is(err, shared.ErrBackend) {
			t.Fatalf("expected ErrBackend, got %v", err)
		}
	})

	t.Run("Generate", func(t *testing.T) {
		svc, _ := newTestMuse(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/playlists/generate" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			var req GenerateRequest
			json.NewDecoder(r.Body).Decode(&req)
			if req.Prompt != "chill study beats" || req.DeviceID != "dev1" {
				t.Errorf("unexpected request %+v", req)
			}
			json.NewEncoder(w).Encode(map[string]any{
				"prompt": req.Prompt,
				"mood":   map[string]any{"primary_mood": "calm", "keywords": []string{"lofi"}, "narrative": "n", "recommended_genres": []string{}},
				"tracks": []map[string]string{{"title": "Track A", "artist": "X", "video_id": "abc"}},
			})
		})

		playlist, err := svc.Generate(context.Background(), GenerateRequest{Prompt: "chill study beats", DeviceID: "dev1"})
		if err != nil {
			t.Fatalf("unexpected error %v", err)
		}
		if playlist.Mood.PrimaryMood != "calm" {
			t.Errorf("expected calm mood, got %s", playlist.Mood.PrimaryMood)
		}
		if len(playlist.Tracks) != 1 || playlist.Tracks[0].VideoID != "abc" {
			t.Errorf("unexpected tracks %+v", playlist.Tracks)
		}
	})

	t.Run("UserHistory", func(t *testing.T) {
		svc, _ := newTestMuse(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/playlists/user/history" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			if r.URL.Query().Get("user_id") != "u1" {
				t.Errorf("expected user_id query, got %s", r.URL.RawQuery)
			}
			json.NewEncoder(w).Encode([]map[string]any{
				{"prompt": "newest"},
				{"prompt": "older"},
			})
		})

		entries, err := svc.UserHistory(context.Background(), "u1")
		if err != nil {
			t.Fatalf("unexpected error %v", err)
		}
		if len(entries) != 2 || entries[0].Prompt != "newest" {
			t.Errorf("unexpected entries %+v", entries)
		}
	})

	t.Run("DeleteHistoryItem", func(t *testing.T) {
		svc, _ := newTestMuse(t, func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodDelete {
				t.Errorf("expected DELETE, got %s", r.Method)
			}
			if r.URL.Path != "/playlists/user/history/2" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			json.NewEncoder(w).Encode(map[string]any{"status": "deleted", "index": 2})
		})

		if err := svc.DeleteHistoryItem(context.Background(), "u1", 2); err != nil {
			t.Fatalf("unexpected error %v", err)
		}
	})

	t.Run("ClearHistory", func(t *testing.T) {
		svc, _ := newTestMuse(t, func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodDelete || r.URL.Path != "/playlists/user/history" {
				t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			}
			json.NewEncoder(w).Encode(map[string]string{"status": "cleared"})
		})

		if err := svc.ClearHistory(context.Background(), "u1"); err != nil {
			t.Fatalf("unexpected error %v", err)
		}
	})

	t.Run("CreatePlaylist", func(t *testing.T) {
		svc, _ := newTestMuse(t, func(w http.ResponseWriter, r *http.Request) {
			var body map[string]any
			json.NewDecoder(r.Body).Decode(&body)
			if body["title"] != "Midnight Tape" {
				t.Errorf("unexpected title %v", body["title"])
			}
			ids, ok := body["video_ids"].([]any)
			if !ok || len(ids) != 2 {
				t.Errorf("unexpected video_ids %v", body["video_ids"])
			}
			json.NewEncoder(w).Encode(map[string]string{"playlist_id": "PL123"})
		})

		id, err := svc.CreatePlaylist(context.Background(), "u1", "Midnight Tape", []string{"a", "b"})
		if err != nil {
			t.Fatalf("unexpected error %v", err)
		}
		if id != "PL123" {
			t.Errorf("expected playlist id PL123, got %s", id)
		}
	})
}
