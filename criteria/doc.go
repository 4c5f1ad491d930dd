// Package criteria turns field/value criteria into store filters.
//
// A string value holding commas is a list: the field matches when it equals
// any of the pieces, while separate fields are still AND-ed. Substring
// queries take a Side naming where extra characters may appear around the
// value: SideBoth (anywhere, "contains"), SideRight (after it, "starts
// with") and SideLeft (before it, "ends with").
package criteria
