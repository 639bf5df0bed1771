// Package program resolves argv[0] to an executable path.
//
// Names containing a path separator are used as given. Bare names are
// searched in PATH first and then in any configured extra directories, and
// a failed lookup reports every location that was tried.
package program
