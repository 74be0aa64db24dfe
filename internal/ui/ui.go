package ui

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/studyx/internal/models"
	"github.com/desertthunder/studyx/internal/tasks"
)

// Model represents the TUI application state.
type Model struct {
	ctx      context.Context
	store    *tasks.Store
	watch    []models.Task
	tasks    []models.Task
	progress models.ProgressMap
	taskCh   <-chan []models.Task
	progCh   <-chan models.ProgressMap
	stop     func()
	list     list.Model
	spinner  spinner.Model
	loading  bool
	status   string
	err      error
	width    int
	height   int
	help     help.Model
	keys     keyMap
}

// NewModel creates a TUI model over store that refreshes the tasks with the given ids.
//
// The model subscribes to the store immediately; the subscriptions end when the program quits.
func NewModel(ctx context.Context, store *tasks.Store, ids []int) *Model {
	watch := make([]models.Task, len(ids))
	for i, id := range ids {
		watch[i] = models.Task{TaskID: id}
	}

	taskCh, stopTasks := store.SubscribeTasks()
	progCh, stopProgress := store.SubscribeProgress()

	l := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	l.Title = "Tasks"
	l.SetShowHelp(false)

	s := spinner.New()
	s.Spinner = spinner.Dot

	return &Model{
		ctx:     ctx,
		store:   store,
		watch:   watch,
		taskCh:  taskCh,
		progCh:  progCh,
		stop:    func() { stopTasks(); stopProgress() },
		list:    l,
		spinner: s,
		help:    help.New(),
		keys:    newKeyMap(),
	}
}

// Init starts listening on both streams and kicks off the first refresh.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.waitForTasks(), m.waitForProgress(), m.refresh())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(msg.Width-4, msg.Height-8)
		return m, nil

	case tea.KeyMsg:
		return m.handleKeys(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case Msg:
		return m.handleMsg(msg)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgTasksPublished:
		m.tasks = msg.data.([]models.Task)
		m.syncList()
		return m, m.waitForTasks()

	case MsgProgressPublished:
		m.progress = msg.data.(models.ProgressMap)
		m.syncList()
		return m, m.waitForProgress()

	case MsgFetchUpdate:
		res := msg.data.(fetchUpdate)
		m.status = res.update.Message
		if res.update.Phase == tasks.FetchDone {
			return m, nil
		}
		return m, waitForUpdate(m.ctx, res.updates)

	case MsgRefreshDone:
		m.loading = false
		m.err, _ = msg.data.(error)
		if m.err == nil {
			m.status = fmt.Sprintf("Refreshed %d tasks", len(m.watch))
		}
		return m, nil

	case MsgSaved:
		res := msg.data.(savedResult)
		m.err = res.err
		if res.err == nil {
			m.status = fmt.Sprintf("Saved task %d", res.taskID)
		}
		return m, nil

	case MsgStreamClosed:
		return m, tea.Quit
	}
	return m, nil
}

func (m *Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		m.stop()
		return m, tea.Quit
	case key.Matches(msg, m.keys.refresh):
		if m.loading {
			return m, nil
		}
		return m, m.refresh()
	case key.Matches(msg, m.keys.correct):
		return m, m.mark(true)
	case key.Matches(msg, m.keys.incorrect):
		return m, m.mark(false)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// syncList rebuilds the list items while keeping the cursor in place.
func (m *Model) syncList() {
	idx := m.list.Index()
	m.list.SetItems(taskItems(m.tasks, m.progress))
	if idx < len(m.tasks) {
		m.list.Select(idx)
	}
}

// Selected returns the task under the cursor.
func (m *Model) Selected() (models.Task, bool) {
	item, ok := m.list.SelectedItem().(taskItem)
	if !ok {
		return models.Task{}, false
	}
	return item.task, true
}

func (m *Model) mark(correct bool) tea.Cmd {
	task, ok := m.Selected()
	if !ok {
		return nil
	}

	m.status = fmt.Sprintf("Saving task %d...", task.TaskID)
	done := m.store.SaveTaskAsync(m.ctx, task.TaskID, task.Code, models.Bool(correct))
	return func() tea.Msg {
		return savedMsg(task.TaskID, <-done)
	}
}

func (m *Model) refresh() tea.Cmd {
	m.loading = true
	m.err = nil

	if len(m.watch) == 0 {
		return func() tea.Msg {
			return refreshDoneMsg(m.store.LoadProgress(m.ctx))
		}
	}

	// Sized for the started, per-task and done updates so none are dropped.
	updates := make(chan tasks.FetchUpdate, len(m.watch)+2)
	run := func() tea.Msg {
		var errs []error
		_, err := m.store.FetchTasks(m.ctx, m.watch, tasks.WithUpdates(updates))
		close(updates)
		if err != nil {
			errs = append(errs, err)
		}
		if err := m.store.LoadProgress(m.ctx); err != nil {
			errs = append(errs, err)
		}
		return refreshDoneMsg(errors.Join(errs...))
	}
	return tea.Batch(run, waitForUpdate(m.ctx, updates))
}

func (m *Model) waitForTasks() tea.Cmd {
	return func() tea.Msg {
		list, ok := <-m.taskCh
		if !ok {
			return streamClosedMsg()
		}
		return tasksPublishedMsg(list)
	}
}

func (m *Model) waitForProgress() tea.Cmd {
	return func() tea.Msg {
		progress, ok := <-m.progCh
		if !ok {
			return streamClosedMsg()
		}
		return progressPublishedMsg(progress)
	}
}

// waitForUpdate reads one update from a refresh's channel. It yields no message once the channel is closed,
// which ends the chain of waiters for that refresh.
func waitForUpdate(ctx context.Context, updates <-chan tasks.FetchUpdate) tea.Cmd {
	return func() tea.Msg {
		select {
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			return fetchUpdateMsg(update, updates)
		case <-ctx.Done():
			return nil
		}
	}
}

// View renders the task list with a status line and help.
func (m *Model) View() string {
	status := m.status
	if m.loading {
		status = fmt.Sprintf("%s %s", m.spinner.View(), status)
	}
	if m.err != nil {
		status = styles.err.Render(fmt.Sprintf("Error: %v", m.err))
	}

	summary := styles.help.Render(m.summary())
	helpView := m.help.ShortHelpView(m.keys.ShortHelp())
	return fmt.Sprintf("%s\n%s\n%s\n\n%s", m.list.View(), summary, status, helpView)
}

func (m *Model) summary() string {
	var correct, incorrect int
	for _, ok := range m.progress {
		if ok {
			correct++
		} else {
			incorrect++
		}
	}
	return fmt.Sprintf("%d tasks • %d correct • %d incorrect", len(m.tasks), correct, incorrect)
}
