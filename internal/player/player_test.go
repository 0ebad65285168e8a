package player

import (
	"testing"

	"github.com/desertthunder/muse/internal/models"
)

func tracks(ids ...string) []models.Track {
	out := make([]models.Track, len(ids))
	for i, id := range ids {
		out[i] = models.Track{Title: "Track " + id, VideoID: id}
	}
	return out
}

func TestCoordinatorSelectAndStep(t *testing.T) {
	c := NewCoordinator(nil)
	c.SetPlaylist(tracks("a", "b", "c"), nil)

	if c.Current() != nil {
		t.Fatal("Current() != nil with no selection")
	}
	if c.Next() {
		t.Error("Next() = true with no current track")
	}

	c.Select(models.Track{Title: "Track b", VideoID: "b"})
	if c.Position() != 1 {
		t.Fatalf("Position() = %d, want 1", c.Position())
	}

	if !c.Next() {
		t.Fatal("Next() = false from the middle")
	}
	if got := c.Current().VideoID; got != "c" {
		t.Errorf("Current() = %s, want c", got)
	}

	if !c.Previous() || !c.Previous() {
		t.Fatal("Previous() failed stepping back to the start")
	}
	if got := c.Current().VideoID; got != "a" {
		t.Errorf("Current() = %s, want a", got)
	}
}

func TestCoordinatorBoundaries(t *testing.T) {
	c := NewCoordinator(nil)
	c.SetPlaylist(tracks("a", "b", "c"), &models.Track{VideoID: "a"})

	if c.Previous() {
		t.Error("Previous() at position 0 must be a no-op")
	}
	if got := c.Current().VideoID; got != "a" {
		t.Errorf("Current() = %s after boundary no-op, want a", got)
	}

	c.Select(models.Track{VideoID: "c"})
	if c.Next() {
		t.Error("Next() at the last position must be a no-op")
	}
	if got := c.Current().VideoID; got != "c" {
		t.Errorf("Current() = %s after boundary no-op, want c", got)
	}

	t.Run("current not in playlist", func(t *testing.T) {
		c.Select(models.Track{Title: "From history", VideoID: "zzz"})
		if c.Next() || c.Previous() {
			t.Error("stepping must be a no-op when current is not in the playlist")
		}
		if got := c.Current().VideoID; got != "zzz" {
			t.Errorf("Current() = %s, selection must survive no-op steps", got)
		}
	})

	t.Run("unplayable current has no position", func(t *testing.T) {
		c := NewCoordinator(nil)
		playlist := tracks("a", "b", "c")
		playlist[1] = models.Track{Title: "Unreleased"}
		c.SetPlaylist(playlist, nil)

		c.Select(models.Track{Title: "Also unreleased"})
		if c.Position() != -1 {
			t.Errorf("Position() = %d, an empty media id must not match another unplayable track", c.Position())
		}
		if c.Next() || c.Previous() {
			t.Error("stepping must be a no-op when current has no media id")
		}
		if got := c.Current().Title; got != "Also unreleased" {
			t.Errorf("Current() = %q, selection must survive no-op steps", got)
		}
	})
}

func TestCoordinatorShuffle(t *testing.T) {
	c := NewCoordinator(nil)
	original := tracks("a", "b", "c", "d", "e", "f", "g", "h", "i", "j")
	c.SetPlaylist(original, &models.Track{Title: "Track d", VideoID: "d"})

	changed := false
	for range 20 {
		c.Shuffle()
		if got := c.Current().VideoID; got != "d" {
			t.Fatalf("Current() = %s after shuffle, want d unchanged", got)
		}
		shuffled := c.Playlist()
		if len(shuffled) != len(original) {
			t.Fatalf("playlist length = %d after shuffle, want %d", len(shuffled), len(original))
		}
		seen := make(map[string]bool, len(shuffled))
		for _, track := range shuffled {
			seen[track.VideoID] = true
		}
		for _, track := range original {
			if !seen[track.VideoID] {
				t.Fatalf("shuffle lost track %s", track.VideoID)
			}
		}
		for i, track := range shuffled {
			if track.VideoID != original[i].VideoID {
				changed = true
				break
			}
		}
		if changed {
			break
		}
	}
	if !changed {
		t.Error("shuffle never produced a different order")
	}

	// Stepping after a shuffle follows the new order.
	if c.Position() < 0 {
		t.Fatal("current track lost its position after shuffle")
	}
	if c.Position() < len(c.Playlist())-1 {
		want := c.Playlist()[c.Position()+1].VideoID
		if !c.Next() {
			t.Fatal("Next() = false mid-playlist after shuffle")
		}
		if got := c.Current().VideoID; got != want {
			t.Errorf("Next() moved to %s, want %s per the shuffled order", got, want)
		}
	}
}

func TestCoordinatorAtomicSwap(t *testing.T) {
	var snaps []Snapshot
	c := NewCoordinator(func(s Snapshot) { snaps = append(snaps, s) })

	c.SetPlaylist(tracks("a", "b"), &models.Track{VideoID: "a"})
	c.SetPlaylist(tracks("x", "y"), &models.Track{VideoID: "x"})

	for _, snap := range snaps {
		if snap.Current == nil {
			t.Fatal("snapshot with nil current")
		}
		if snap.Position < 0 {
			t.Errorf("snapshot pairs current %s with a playlist that lacks it", snap.Current.VideoID)
		}
	}
	if len(snaps) != 2 {
		t.Fatalf("observer saw %d snapshots, want 2", len(snaps))
	}
}
