// Package store defines interfaces for data persistence operations.
// These interfaces keep the task and user storage abstract so business
// rules remain independent of the backing database technology.
package store
