// Package page holds the content of a single page and decides which events
// its subscribers see.
//
// A page is live or static. Live pages carry a title and a body; every
// change is pushed to subscribers as a named event (title, clear-title,
// body, clear-body). Static pages carry raw bytes and a content type and
// have no subscribers. Freezing a live page sends refresh to its viewers so
// they reload and fetch the bytes.
package page
