// Package repository provides a generic, collection-addressed entity
// repository built on Bun: criteria lookups, substring search, versioned
// updates, dialect-aware upserts and transaction binding.
package repository
