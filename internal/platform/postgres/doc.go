// Package postgres provides PostgreSQL implementations of the store
// interfaces defined in the store package.
//
// All implementations accept a store.DBTX, so they work identically against
// a *sql.DB or a *sql.Tx. Collaborator and completion lists are persisted as
// JSONB arrays; visibility filters use the JSONB containment operator so a
// collaborator lookup stays index-friendly.
package postgres
