package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/desertthunder/muse/internal/models"
)

// MuseService exposes the muse backend's REST contract as typed calls.
type MuseService struct {
	client *Client
}

// NewMuseService wraps a [Client] with the backend's endpoints.
func NewMuseService(client *Client) *MuseService {
	return &MuseService{client: client}
}

// GenerateRequest is the body for both generation endpoints.
type GenerateRequest struct {
	Prompt               string `json:"prompt"`
	DeviceID             string `json:"device_id"`
	PreferredEnergyCurve string `json:"preferred_energy_curve,omitempty"`
	UserID               string `json:"user_id,omitempty"`
}

// ExchangeGoogleToken exchanges a Google identity token for a session.
func (m *MuseService) ExchangeGoogleToken(ctx context.Context, idToken string) (*models.Session, error) {
	body := map[string]string{"id_token": idToken}
	return m.sessionCall(ctx, http.MethodPost, "/auth/google", body)
}

// LinkYouTube exchanges a delegated-authorization code for an updated
// session with the music account attached.
func (m *MuseService) LinkYouTube(ctx context.Context, userID, code string) (*models.Session, error) {
	body := map[string]string{"user_id": userID, "code": code}
	return m.sessionCall(ctx, http.MethodPost, "/auth/youtube", body)
}

// FetchSession restores the session for a persisted user identifier.
func (m *MuseService) FetchSession(ctx context.Context, userID string) (*models.Session, error) {
	return m.sessionCall(ctx, http.MethodGet, "/auth/session/"+url.PathEscape(userID), nil)
}

func (m *MuseService) sessionCall(ctx context.Context, method, path string, body any) (*models.Session, error) {
	resp, err := m.client.Call(ctx, method, path, body)
	if err != nil {
		return nil, err
	}

	var session models.Session
	if err := json.Unmarshal(resp.Body, &session); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	return &session, nil
}

// Generate performs a blocking playlist generation.
func (m *MuseService) Generate(ctx context.Context, req GenerateRequest) (*models.PlaylistResponse, error) {
	resp, err := m.client.Post(ctx, "/playlists/generate", req)
	if err != nil {
		return nil, err
	}

	var playlist models.PlaylistResponse
	if err := json.Unmarshal(resp.Body, &playlist); err != nil {
		return nil, fmt.Errorf("failed to decode playlist: %w", err)
	}
	return &playlist, nil
}

// OpenGenerateStream opens the incremental generation stream for a prompt.
func (m *MuseService) OpenGenerateStream(ctx context.Context, req GenerateRequest) (*EventStream, error) {
	return m.client.OpenEventStream(ctx, "/playlists/generate/stream", req)
}

// UserHistory fetches the server-side history for a signed-in user,
// newest first.
func (m *MuseService) UserHistory(ctx context.Context, userID string) ([]models.PlaylistResponse, error) {
	return m.historyCall(ctx, "/playlists/user/history?user_id="+url.QueryEscape(userID))
}

// DeviceHistory fetches the anonymous device-scoped history.
func (m *MuseService) DeviceHistory(ctx context.Context, deviceID string) ([]models.PlaylistResponse, error) {
	return m.historyCall(ctx, "/playlists/history/"+url.PathEscape(deviceID))
}

func (m *MuseService) historyCall(ctx context.Context, path string) ([]models.PlaylistResponse, error) {
	resp, err := m.client.Get(ctx, path)
	if err != nil {
		return nil, err
	}

	var entries []models.PlaylistResponse
	if err := json.Unmarshal(resp.Body, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode history: %w", err)
	}
	return entries, nil
}

// DeleteHistoryItem removes the history entry at index for the user.
// Deletion is positional: the server and client must agree on ordering.
func (m *MuseService) DeleteHistoryItem(ctx context.Context, userID string, index int) error {
	path := fmt.Sprintf("/playlists/user/history/%d?user_id=%s", index, url.QueryEscape(userID))
	_, err := m.client.Call(ctx, http.MethodDelete, path, nil)
	return err
}

// ClearHistory erases the user's entire server-side history.
func (m *MuseService) ClearHistory(ctx context.Context, userID string) error {
	path := "/playlists/user/history?user_id=" + url.QueryEscape(userID)
	_, err := m.client.Call(ctx, http.MethodDelete, path, nil)
	return err
}

// CreatePlaylist materializes a generated playlist on the linked music
// service and returns the external playlist identifier.
func (m *MuseService) CreatePlaylist(ctx context.Context, userID, title string, videoIDs []string) (string, error) {
	body := map[string]any{
		"user_id":   userID,
		"title":     title,
		"video_ids": videoIDs,
	}

	resp, err := m.client.Post(ctx, "/playlists/create", body)
	if err != nil {
		return "", err
	}

	var result struct {
		PlaylistID string `json:"playlist_id"`
	}
	if err := json.Unmarshal(resp.Body, &result); err != nil {
		return "", fmt.Errorf("failed to decode create response: %w", err)
	}
	return result.PlaylistID, nil
}
