// Package repositories implements SQLite persistence for the development backend.
//
// Key Implementations:
//   - [TaskRepository] : Current code and verdict per task, the source of the task and progress endpoints
//
// Every accepted save is also appended to the task_saves history table with a generated id.
// Saves without a verdict keep the stored one, mirroring how the progress endpoint treats them.
package repositories
