// Package ui holds the state of the interactive flows that sit in front of
// the cached social operations: the delete-post confirmation and the comment
// form. Rendering is left to callers, which drive these types from their
// event handlers and read back their state.
package ui
