// Package registry maps request paths to pages.
//
// Every operation on a page runs under that page's exclusive guard, which
// keeps the event order seen by subscribers equal to the order writers were
// admitted. A periodic heartbeat keeps idle streams open and drops pages
// that have no title, no body and no subscribers.
package registry
