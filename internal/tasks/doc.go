// Package tasks holds the client-side task state store with real-time change streams.
//
// # Core Operations
//
// [Store] wraps a [services.Backend] and exposes:
//
//  1. [Store.SaveTask] : Persist code and an optional verdict
//     - Applies nothing until the backend acknowledges
//     - Merges a defined verdict into the progress map
//     - Updates the listed task with the same id; unknown ids are never inserted
//
//  2. [Store.FetchTasks] : Refresh a list of tasks
//     - One GET per distinct id on a bounded worker pool
//     - Replaces and publishes the list once, in input order, after every request finished
//     - Publishes nothing when any request fails
//
//  3. [Store.LoadProgress] : Replace the progress map from the backend
//
//  4. [Store.IsTaskCorrect] and [Store.FetchTask] : Live per-task views
//
// # Streams
//
// State is republished through [Subject], a replay-of-one stream.
// Subscribers receive copies, so they never share memory with the store or with each other.
// Slow subscribers see the newest snapshot rather than a backlog.
//
// # Progress Reporting
//
// [Store.FetchTasks] accepts [WithUpdates] for per-task [FetchUpdate] events.
// Updates use select with default to prevent blocking.
package tasks
