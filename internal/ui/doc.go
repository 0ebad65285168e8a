// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI provides a multi-view workflow for mood-driven playlist generation:
//  1. [PromptView] : Type a free-text mood prompt
//  2. [GenerateView] : Watch the narrative stream in as the backend works
//  3. [PlayerView] : Browse the finished playlist with play/next/previous/shuffle
//  4. [HistoryView] : Replay or delete past generations
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern.
// Progress updates flow through a channel from the StreamSession, providing non-blocking status reporting during generation.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, n/p/s, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
