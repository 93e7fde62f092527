package page

import "github.com/kbukum/livepage/sse"

// Field names a live page field.
type Field string

const (
	FieldTitle Field = "title"
	FieldBody  Field = "body"
)

// EventRefresh tells viewers to drop the stream and reload the page.
const EventRefresh = "refresh"

// placeholder is the payload of events whose data is ignored. Event stream
// framing drops events with no data field, so it must not be empty.
const placeholder = "."

// FieldEvent returns the event announcing value for field: "<field>" with
// the value when set, "clear-<field>" with a placeholder when empty.
func FieldEvent(field Field, value string) sse.Event {
	if value == "" {
		return sse.Event{Type: "clear-" + string(field), Data: placeholder}
	}
	return sse.Event{Type: string(field), Data: value}
}

// RefreshEvent returns the reload event.
func RefreshEvent() sse.Event {
	return sse.Event{Type: EventRefresh, Data: placeholder}
}
