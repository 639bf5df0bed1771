// Package fetch downloads URLs over HTTP into memory or to files.
//
// A Client carries a settable user agent, follows redirects, treats any
// non-2xx response as a failure and optionally caps in-memory downloads.
// Status classifies failures into the coarse codes reported to hosts.
package fetch
