// Package unzip extracts zip archives into a destination directory.
//
// Entries that would resolve outside the destination, absolute entry
// names and symbolic links are rejected before anything is written for
// them. File permission bits recorded in the archive are preserved.
package unzip
