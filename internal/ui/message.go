package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/studyx/internal/models"
	"github.com/desertthunder/studyx/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgTasksPublished MsgKind = iota
	MsgProgressPublished
	MsgFetchUpdate
	MsgRefreshDone
	MsgSaved
	MsgStreamClosed
)

// fetchUpdate pairs an update with the channel it came from so the next read stays on the same refresh.
type fetchUpdate struct {
	update  tasks.FetchUpdate
	updates <-chan tasks.FetchUpdate
}

type savedResult struct {
	taskID int
	err    error
}

// tasksPublishedMsg is the constructor for [MsgTasksPublished]
func tasksPublishedMsg(list []models.Task) Msg {
	return Msg{kind: MsgTasksPublished, data: list}
}

// progressPublishedMsg is the constructor for [MsgProgressPublished]
func progressPublishedMsg(progress models.ProgressMap) Msg {
	return Msg{kind: MsgProgressPublished, data: progress}
}

// fetchUpdateMsg is the constructor for [MsgFetchUpdate]
func fetchUpdateMsg(update tasks.FetchUpdate, updates <-chan tasks.FetchUpdate) Msg {
	return Msg{kind: MsgFetchUpdate, data: fetchUpdate{update: update, updates: updates}}
}

// refreshDoneMsg is the constructor for [MsgRefreshDone]
func refreshDoneMsg(err error) Msg {
	return Msg{kind: MsgRefreshDone, data: err}
}

// savedMsg is the constructor for [MsgSaved]
func savedMsg(taskID int, err error) Msg {
	return Msg{kind: MsgSaved, data: savedResult{taskID: taskID, err: err}}
}

func streamClosedMsg() Msg {
	return Msg{kind: MsgStreamClosed}
}
