// package models defines the data model for the studyx task store
package models

import (
	"maps"
	"slices"
)

// Task is a single coding exercise with user-submitted code and its correctness verdict.
//
// Correct is nil until the task has been evaluated.
type Task struct {
	TaskID  int    `json:"taskId"`
	Code    string `json:"code"`
	Correct *bool  `json:"correct"`
}

// Verdict returns the task's correctness as a [Verdict].
func (t Task) Verdict() Verdict {
	return VerdictOf(t.Correct)
}

// Clone returns a deep copy of the task.
func (t Task) Clone() Task {
	t.Correct = CloneBool(t.Correct)
	return t
}

// SaveRequest is the body sent to the task endpoint when saving code.
//
// Correct is optional: a save may persist in-progress code without a verdict.
type SaveRequest struct {
	TaskID  int    `json:"taskId" validate:"required,gt=0"`
	Code    string `json:"code"`
	Correct *bool  `json:"correct,omitempty"`
}

// TaskResult is the body returned by GET task.
type TaskResult struct {
	Correct *bool  `json:"correct"`
	Code    string `json:"code"`
}

// Task tags the result with the id it was requested for.
func (r TaskResult) Task(id int) Task {
	return Task{TaskID: id, Code: r.Code, Correct: CloneBool(r.Correct)}
}

// ProgressResult is the body returned by GET progress: the ids of correct and incorrect tasks.
type ProgressResult struct {
	Correct   []int `json:"correct"`
	Incorrect []int `json:"incorrect"`
}

// ProgressMap maps task ids to their correctness verdict.
type ProgressMap map[int]bool

// NewProgressMap builds a map with true for every correct id and false for every incorrect id.
//
// Incorrect ids are applied last, so an id present in both lists ends up false.
func NewProgressMap(r ProgressResult) ProgressMap {
	m := make(ProgressMap, len(r.Correct)+len(r.Incorrect))
	for _, id := range r.Correct {
		m[id] = true
	}
	for _, id := range r.Incorrect {
		m[id] = false
	}
	return m
}

// Verdict returns the verdict recorded for id, or [Undetermined] when there is none.
func (m ProgressMap) Verdict(id int) Verdict {
	v, ok := m[id]
	if !ok {
		return Undetermined
	}
	return VerdictFromBool(v)
}

// Merge returns a copy of m with patch applied on top. Later writes win.
func (m ProgressMap) Merge(patch ProgressMap) ProgressMap {
	out := m.Clone()
	maps.Copy(out, patch)
	return out
}

// Clone returns a copy of the map. A nil map clones to an empty one.
func (m ProgressMap) Clone() ProgressMap {
	out := make(ProgressMap, len(m))
	maps.Copy(out, m)
	return out
}

// Result splits the map back into sorted correct and incorrect id lists.
func (m ProgressMap) Result() ProgressResult {
	r := ProgressResult{Correct: []int{}, Incorrect: []int{}}
	for _, id := range slices.Sorted(maps.Keys(m)) {
		if m[id] {
			r.Correct = append(r.Correct, id)
		} else {
			r.Incorrect = append(r.Incorrect, id)
		}
	}
	return r
}

// CloneTasks returns a deep copy of tasks.
func CloneTasks(tasks []Task) []Task {
	out := make([]Task, len(tasks))
	for i, t := range tasks {
		out[i] = t.Clone()
	}
	return out
}

// IndexOf returns the position of the first task with id, or -1.
func IndexOf(tasks []Task, id int) int {
	return slices.IndexFunc(tasks, func(t Task) bool { return t.TaskID == id })
}

// Bool returns a pointer to a copy of b.
func Bool(b bool) *bool {
	return &b
}

// CloneBool copies the value behind b so the result shares no memory with it.
func CloneBool(b *bool) *bool {
	if b == nil {
		return nil
	}
	return Bool(*b)
}
