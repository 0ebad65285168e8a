package repositories

import (
	"database/sql"
	"testing"

	"github.com/desertthunder/muse/internal/models"
	"github.com/desertthunder/muse/internal/shared"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}
	return db
}

func TestStateRepository(t *testing.T) {
	repo := NewStateRepository(newTestDB(t))

	t.Run("Get Missing Key Returns Empty", func(t *testing.T) {
		value, err := repo.Get("muse-user-id")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if value != "" {
			t.Errorf("expected empty value, got %q", value)
		}
	})

	t.Run("Set Then Get", func(t *testing.T) {
		if err := repo.Set("muse-user-id", "u1"); err != nil {
			t.Fatalf("failed to set: %v", err)
		}

		value, err := repo.Get("muse-user-id")
		if err != nil {
			t.Fatalf("failed to get: %v", err)
		}
		if value != "u1" {
			t.Errorf("expected u1, got %q", value)
		}
	})

	t.Run("Set Overwrites", func(t *testing.T) {
		if err := repo.Set("muse-user-id", "u2"); err != nil {
			t.Fatalf("failed to overwrite: %v", err)
		}

		value, _ := repo.Get("muse-user-id")
		if value != "u2" {
			t.Errorf("expected u2 after overwrite, got %q", value)
		}
	})

	t.Run("Remove", func(t *testing.T) {
		if err := repo.Remove("muse-user-id"); err != nil {
			t.Fatalf("failed to remove: %v", err)
		}

		value, _ := repo.Get("muse-user-id")
		if value != "" {
			t.Errorf("expected empty after remove, got %q", value)
		}

		if err := repo.Remove("muse-user-id"); err != nil {
			t.Errorf("removing absent key should not fail: %v", err)
		}
	})
}

func TestArchiveRepository(t *testing.T) {
	repo := NewArchiveRepository(newTestDB(t))

	entry := func(prompt, mood string) *models.PlaylistResponse {
		return &models.PlaylistResponse{
			Prompt: prompt,
			Mood:   models.MoodProfile{PrimaryMood: mood, Keywords: []string{mood}},
			Tracks: []models.Track{{Title: "T", Artist: "A", VideoID: "v-" + prompt}},
		}
	}

	t.Run("Save And List Newest First", func(t *testing.T) {
		if err := repo.Save("dev1", entry("first", "calm")); err != nil {
			t.Fatalf("failed to save: %v", err)
		}
		if err := repo.Save("dev1", entry("second", "hype")); err != nil {
			t.Fatalf("failed to save: %v", err)
		}

		playlists, err := repo.List("dev1")
		if err != nil {
			t.Fatalf("failed to list: %v", err)
		}
		if len(playlists) != 2 {
			t.Fatalf("expected 2 playlists, got %d", len(playlists))
		}
		if playlists[0].Prompt != "second" {
			t.Errorf("expected newest first, got %q", playlists[0].Prompt)
		}
		if playlists[1].Tracks[0].VideoID != "v-first" {
			t.Errorf("payload round trip lost track data: %+v", playlists[1].Tracks)
		}
	})

	t.Run("Scoped By Device", func(t *testing.T) {
		playlists, err := repo.List("other-device")
		if err != nil {
			t.Fatalf("failed to list: %v", err)
		}
		if len(playlists) != 0 {
			t.Errorf("expected no playlists for other device, got %d", len(playlists))
		}
	})

	t.Run("Count And Clear", func(t *testing.T) {
		count, err := repo.Count("dev1")
		if err != nil {
			t.Fatalf("failed to count: %v", err)
		}
		if count != 2 {
			t.Errorf("expected count 2, got %d", count)
		}

		if err := repo.Clear("dev1"); err != nil {
			t.Fatalf("failed to clear: %v", err)
		}

		count, _ = repo.Count("dev1")
		if count != 0 {
			t.Errorf("expected empty archive after clear, got %d", count)
		}
	})
}
