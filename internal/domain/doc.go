// Package domain contains the core business entities of the task tracker:
// users, tasks, and the identity value object, together with their
// validation and the collaborator and completion semantics. It has no
// dependency on storage, transport, or delivery concerns.
package domain
