package models

// Session identifies the authenticated user. UserID is the stable
// partition key for all server-side data.
type Session struct {
	UserID         string `json:"user_id"`
	Email          string `json:"email"`
	Name           string `json:"name"`
	Picture        string `json:"picture,omitempty"`
	JoinedDate     string `json:"joined_date"`
	CreatedOn      string `json:"created_on"`
	UpdatedOn      string `json:"updated_on"`
	HasYouTubeAuth bool   `json:"has_youtube_auth"`
}

// MoodProfile is the backend's structured interpretation of a prompt.
type MoodProfile struct {
	PrimaryMood       string   `json:"primary_mood"`
	SecondaryMood     string   `json:"secondary_mood,omitempty"`
	PlaylistTitle     string   `json:"playlist_title,omitempty"`
	Keywords          []string `json:"keywords"`
	Narrative         string   `json:"narrative"`
	RecommendedGenres []string `json:"recommended_genres"`
}

// PlaylistSegment describes one narrative segment of a generated playlist.
type PlaylistSegment struct {
	Intro      string `json:"intro"`
	Focus      string `json:"focus"`
	Transition string `json:"transition"`
}

// Track represents a single playable unit. A track without a VideoID is
// not playable but still displayable.
type Track struct {
	Title        string `json:"title"`
	Artist       string `json:"artist"`
	VideoID      string `json:"video_id,omitempty"`
	Duration     string `json:"duration,omitempty"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
	Energy       string `json:"energy,omitempty"`
}

// Playable reports whether the track carries a media identifier.
func (t Track) Playable() bool {
	return t.VideoID != ""
}

// PlaylistResponse is the terminal result of one generation request.
// Track order is playback order.
type PlaylistResponse struct {
	Prompt      string            `json:"prompt"`
	Mood        MoodProfile       `json:"mood"`
	Transitions []string          `json:"transitions"`
	Segments    []PlaylistSegment `json:"segments"`
	Tracks      []Track           `json:"tracks"`
	History     []MoodProfile     `json:"history"`
}

// VideoIDs returns the media identifiers of all playable tracks, in
// playback order.
func (p *PlaylistResponse) VideoIDs() []string {
	ids := make([]string, 0, len(p.Tracks))
	for _, t := range p.Tracks {
		if t.Playable() {
			ids = append(ids, t.VideoID)
		}
	}
	return ids
}

// Title returns the display title for the playlist, falling back to the
// originating prompt when the backend did not name it.
func (p *PlaylistResponse) Title() string {
	if p.Mood.PlaylistTitle != "" {
		return p.Mood.PlaylistTitle
	}
	return p.Prompt
}
