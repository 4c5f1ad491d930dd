// Package database provides connection management, versioned migrations,
// the model registry, query hooks, SQL error classification, health checks
// and the logger adapter used by the store, all built on top of Bun.
package database
