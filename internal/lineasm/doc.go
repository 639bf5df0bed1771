// Package lineasm splits a byte stream into lines incrementally.
//
// An Assembler owns a growable buffer bound to one stream. Each Pull call
// reads from the stream only as much as it needs to complete one line, so
// callers can interleave Pull with other work, cancel a blocked read and
// resume later without losing bytes that were already buffered.
package lineasm
