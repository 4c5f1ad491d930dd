// Package field maps the closed set of field identifiers to typed accessors
// on each entity type, replacing reflective field lookup.
package field
