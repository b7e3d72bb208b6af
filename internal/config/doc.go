// Package config handles configuration loading and validation from
// environment variables and optional config files. It gives components
// type-safe access to server, database, and auth settings while keeping
// configuration concerns out of business logic.
package config
