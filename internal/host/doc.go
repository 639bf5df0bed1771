// Package host manages process instances for tool-call clients.
//
// A Host owns any number of independent subprocess sessions, each
// addressed by a ULID handed out by New, together with a shared download
// client and archive extractor. Every operation is also exposed as an MCP
// tool through Tools.
package host
