// Package workspace abstracts the set of documents and files the language
// features operate on.
//
// InMemory serves tests and one-shot CLI runs over fixed content. FileSystem
// walks workspace folders on disk, overlays documents opened in the editor and
// optionally watches the folders so cached disk snapshots stay current.
package workspace
