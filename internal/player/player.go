// Package player owns playback state: the active playlist and the
// current track. It has no opinion on where the playlist came from, so
// fresh generations and history replays drive it identically.
package player

import (
	"math/rand"
	"sync"
	"time"

	"github.com/desertthunder/muse/internal/models"
)

// Snapshot is a consistent view of playback state handed to observers.
type Snapshot struct {
	Current  *models.Track
	Playlist []models.Track
	Position int // index of Current in Playlist, -1 when absent
}

// Coordinator serializes all playback mutations behind one mutex so
// observers never see a playlist and current track that disagree.
type Coordinator struct {
	mu       sync.Mutex
	playlist []models.Track
	current  *models.Track
	onChange func(Snapshot)
	rng      *rand.Rand
}

// NewCoordinator creates an empty coordinator. onChange, when non-nil,
// is invoked after every observable mutation with a consistent snapshot.
func NewCoordinator(onChange func(Snapshot)) *Coordinator {
	return &Coordinator{
		onChange: onChange,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// SetPlaylist swaps the active playlist and the current track in one
// step. Observers never see the old track paired with the new list.
func (c *Coordinator) SetPlaylist(tracks []models.Track, current *models.Track) {
	c.mu.Lock()
	c.playlist = make([]models.Track, len(tracks))
	copy(c.playlist, tracks)
	c.current = copyTrack(current)
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.notify(snap)
}

// Select sets the current track unconditionally. The track does not
// need to belong to the active playlist, so history entries and other
// arbitrary contexts can drive playback directly.
func (c *Coordinator) Select(track models.Track) {
	c.mu.Lock()
	c.current = &track
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.notify(snap)
}

// Next advances to the following track in the active playlist. It
// reports false without changing anything when the current track is
// absent from the playlist or already last; there is no wraparound.
func (c *Coordinator) Next() bool {
	return c.step(1)
}

// Previous moves to the preceding track. Same boundary contract as Next.
func (c *Coordinator) Previous() bool {
	return c.step(-1)
}

func (c *Coordinator) step(delta int) bool {
	c.mu.Lock()
	idx := c.positionLocked()
	target := idx + delta
	if idx < 0 || target < 0 || target >= len(c.playlist) {
		c.mu.Unlock()
		return false
	}
	track := c.playlist[target]
	c.current = &track
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.notify(snap)
	return true
}

// Shuffle reorders the active playlist randomly. The current track
// value is untouched; it simply sits at a new position, and Next and
// Previous operate on the new order.
func (c *Coordinator) Shuffle() {
	c.mu.Lock()
	c.rng.Shuffle(len(c.playlist), func(i, j int) {
		c.playlist[i], c.playlist[j] = c.playlist[j], c.playlist[i]
	})
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.notify(snap)
}

// Current returns a copy of the current track, nil when nothing is selected.
func (c *Coordinator) Current() *models.Track {
	c.mu.Lock()
	defer c.mu.Unlock()
	return copyTrack(c.current)
}

// Playlist returns a copy of the active playlist.
func (c *Coordinator) Playlist() []models.Track {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.Track, len(c.playlist))
	copy(out, c.playlist)
	return out
}

// Position returns the current track's index in the active playlist,
// -1 when there is no current track or it is not in the playlist.
func (c *Coordinator) Position() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.positionLocked()
}

// positionLocked locates the current track by its media identifier. A
// track without one has no position: matching empty ids would alias
// every unplayable track in the playlist.
func (c *Coordinator) positionLocked() int {
	if c.current == nil || c.current.VideoID == "" {
		return -1
	}
	for i, track := range c.playlist {
		if track.VideoID == c.current.VideoID {
			return i
		}
	}
	return -1
}

func (c *Coordinator) snapshotLocked() Snapshot {
	playlist := make([]models.Track, len(c.playlist))
	copy(playlist, c.playlist)
	return Snapshot{
		Current:  copyTrack(c.current),
		Playlist: playlist,
		Position: c.positionLocked(),
	}
}

func (c *Coordinator) notify(snap Snapshot) {
	if c.onChange != nil {
		c.onChange(snap)
	}
}

func copyTrack(t *models.Track) *models.Track {
	if t == nil {
		return nil
	}
	clone := *t
	return &clone
}
