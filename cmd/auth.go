package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/desertthunder/muse/internal/server"
	"github.com/desertthunder/muse/internal/shared"
)

// googleOAuthConfig builds the OAuth client for the sign-in flow.
func (r *Runner) googleOAuthConfig(scopes []string) (*oauth2.Config, error) {
	if r.config.Google.ClientID == "" || r.config.Google.ClientSecret == "" {
		return nil, fmt.Errorf("%w: google client credentials not configured", shared.ErrMissingCredentials)
	}

	redirect := r.config.Google.RedirectURI
	if redirect == "" {
		redirect = fmt.Sprintf("http://%s:%d/callback", r.config.Server.Host, r.config.Server.Port)
	}

	return &oauth2.Config{
		ClientID:     r.config.Google.ClientID,
		ClientSecret: r.config.Google.ClientSecret,
		RedirectURL:  redirect,
		Scopes:       scopes,
		Endpoint:     google.Endpoint,
	}, nil
}

// doOAuthCode executes the authorization code flow with a local HTTP
// server and returns the captured code. The code is not exchanged here.
func (r *Runner) doOAuthCode(authURL, state string) (string, error) {
	callbackHandler := server.NewCallbackHandler(state)
	router := server.NewBasicRouter()
	router.Use(server.RequestLogger(r.logger))
	router.Handler(callbackHandler)

	serverAddr := fmt.Sprintf("%s:%d", r.config.Server.Host, r.config.Server.Port)
	httpServer := &http.Server{
		Addr:    serverAddr,
		Handler: router,
	}

	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Infof("starting callback server at %v", serverAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	time.Sleep(100 * time.Millisecond)

	r.writePlain("→ Opening browser for Google authorization...\n")
	if err := shared.OpenBrowser(authURL); err != nil {
		r.logger.Warnf("failed to open browser automatically %v", err)
		r.writePlainln("⚠ Could not open browser automatically.")
		r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
	}

	r.writePlain("→ Waiting for authorization (2 minute timeout)...\n")

	timeout := time.NewTimer(2 * time.Minute)
	defer timeout.Stop()

	var result server.CodeResult

	select {
	case result = <-callbackHandler.Result():
		// Got result from callback
	case err := <-serverErrors:
		return "", fmt.Errorf("server error: %w", err)
	case <-timeout.C:
		return "", fmt.Errorf("%w: authorization timed out after 2 minutes", shared.ErrTimeout)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		r.logger.Warn("error shutting down server", "error", err)
	}

	if result.Error() != nil {
		return "", fmt.Errorf("authorization failed: %w", result.Error())
	}

	if result.Code == "" {
		return "", fmt.Errorf("no authorization code received")
	}

	return result.Code, nil
}

// AuthLogin signs in with Google and establishes a backend session.
//
// The browser flow exchanges the authorization code locally to obtain a
// Google identity token, which the backend verifies. A pre-obtained
// token can be passed with --token to skip the browser.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	if r.store == nil {
		return fmt.Errorf("%w: local state unavailable, run 'muse setup database'", shared.ErrMissingConfig)
	}

	idToken := cmd.String("token")
	if idToken == "" {
		config, err := r.googleOAuthConfig([]string{"openid", "email", "profile"})
		if err != nil {
			return err
		}

		state, err := shared.GenerateState()
		if err != nil {
			return fmt.Errorf("failed to generate state token: %w", err)
		}

		code, err := r.doOAuthCode(config.AuthCodeURL(state), state)
		if err != nil {
			return err
		}

		token, err := config.Exchange(ctx, code)
		if err != nil {
			return fmt.Errorf("token exchange failed: %w", err)
		}

		extracted, ok := token.Extra("id_token").(string)
		if !ok || extracted == "" {
			return fmt.Errorf("%w: no identity token in Google response", shared.ErrAuth)
		}
		idToken = extracted
	}

	sess, err := r.store.Establish(ctx, idToken)
	if err != nil {
		return err
	}

	r.logger.Info("signed in", "user_id", sess.UserID)
	r.writePlain("✓ Signed in as %s (%s)\n", sess.Name, sess.Email)
	if !sess.HasYouTubeAuth {
		r.writePlain("Run 'muse auth link' to connect YouTube Music.\n")
	}
	return nil
}

// AuthLink connects the signed-in user's YouTube Music account.
//
// The captured authorization code is sent to the backend, which holds
// the client secret for that exchange and stores the resulting grant.
func (r *Runner) AuthLink(ctx context.Context, cmd *cli.Command) error {
	if r.store == nil {
		return fmt.Errorf("%w: local state unavailable, run 'muse setup database'", shared.ErrMissingConfig)
	}

	if sess := r.restoreSession(ctx); sess == nil {
		return fmt.Errorf("%w: sign in with 'muse auth login' first", shared.ErrNoSession)
	}

	config, err := r.googleOAuthConfig([]string{"https://www.googleapis.com/auth/youtube"})
	if err != nil {
		return err
	}

	state, err := shared.GenerateState()
	if err != nil {
		return fmt.Errorf("failed to generate state token: %w", err)
	}

	authURL := config.AuthCodeURL(state, oauth2.AccessTypeOffline)
	code, err := r.doOAuthCode(authURL, state)
	if err != nil {
		return err
	}

	sess, err := r.store.LinkMusicAccount(ctx, code)
	if err != nil {
		return err
	}

	if !sess.HasYouTubeAuth {
		return fmt.Errorf("%w: backend did not confirm the link", shared.ErrNotLinked)
	}

	r.logger.Info("youtube account linked", "user_id", sess.UserID)
	return r.writePlain("✓ YouTube Music linked\n")
}

// AuthStatus shows the restored session, if any.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	if r.store == nil {
		return fmt.Errorf("%w: local state unavailable, run 'muse setup database'", shared.ErrMissingConfig)
	}

	sess := r.restoreSession(ctx)
	if sess == nil {
		r.writePlain("✗ Not signed in\n")
		return nil
	}

	r.writePlain("✓ Signed in as %s (%s)\n", sess.Name, sess.Email)
	if sess.HasYouTubeAuth {
		r.writePlain("YouTube Music: ✓ linked\n")
	} else {
		r.writePlain("YouTube Music: ✗ not linked\n")
	}
	return nil
}

// AuthLogout clears the persisted session identifier.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	if r.store == nil {
		return fmt.Errorf("%w: local state unavailable, run 'muse setup database'", shared.ErrMissingConfig)
	}

	r.store.Clear()
	r.logger.Info("signed out")
	return r.writePlain("✓ Signed out\n")
}
