// Package argv converts dynamically typed argument values into a process
// argument vector.
//
// Conversion is all-or-nothing: either every value is string-like and a
// List of the same length is returned, or Build fails at the first
// offending value and nothing built so far is reachable by the caller.
package argv
