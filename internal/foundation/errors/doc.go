// Package errors classifies the failures of the mdls language services.
//
// Rename refusals, invalid edit ranges, unreadable workspace files and bad
// configuration each get a category so the CLI and the LSP server can report
// them without matching on message text.
//
//	err := errors.RenameError("cannot rename a link to a missing file").
//		WithContext("uri", uri).
//		Build()
package errors
