// Package subprocess runs one child process at a time and reads its
// standard output line by line.
//
// A Session spawns a child, feeds its stdout through a line assembler and,
// once the stream ends, reaps the child and reports its exit code exactly
// once before returning to idle. It handles process lifecycle, cancellation
// of blocked reads and termination on Close.
package subprocess
