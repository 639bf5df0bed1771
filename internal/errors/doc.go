// Package errors defines error types for procshim.
//
// This package provides the closed error taxonomy shared by argument
// marshalling, process sessions and the download/extract collaborators.
// Every typed error supports unwrapping and matches its sentinel through
// errors.Is, so callers can check either the category or the details.
package errors
