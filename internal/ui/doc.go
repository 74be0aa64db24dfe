// Package ui implements the watch TUI using bubbletea's Elm architecture.
//
// The (view) [Model] subscribes to the task store's list and progress streams and re-renders on every publication,
// so saves made anywhere in the process show up immediately.
//
// Batch refreshes report per-task progress through [tasks.FetchUpdate] events shown next to a spinner.
// Verdicts are recorded with [tasks.Store.SaveTaskAsync] so the interface never blocks on the backend.
//
// Keyboard navigation uses vim-style bindings (j/k, r, c/x, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
