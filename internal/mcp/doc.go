// Package mcp hosts procshim tools over the Model Context Protocol.
//
// ToolServer keeps a thread-safe registry of tools. The same handlers are
// reachable in-process through CallTool and over a transport (stdio in
// production, in-memory in tests) through Serve.
package mcp
