package sse

import (
	"bufio"
	"bytes"
	"strings"
	"testing"
)

// parseFrame reads one event-stream record, joining data fields with LF.
func parseFrame(t *testing.T, frame []byte) (eventType, data string) {
	t.Helper()
	var lines []string
	sc := bufio.NewScanner(bytes.NewReader(frame))
	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			break
		}
		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")
		switch field {
		case "event":
			eventType = value
		case "data":
			lines = append(lines, value)
		}
	}
	return eventType, strings.Join(lines, "\n")
}

func TestEventEncode(t *testing.T) {
	tests := []struct {
		name     string
		event    Event
		wantData string
	}{
		{"single line", Event{Type: "title", Data: "Hello"}, "Hello"},
		{"multi line", Event{Type: "body", Data: "<p>a</p>\n<p>b</p>"}, "<p>a</p>\n<p>b</p>"},
		{"crlf", Event{Type: "body", Data: "a\r\nb\rc"}, "a\nb\nc"},
		{"placeholder", Event{Type: "clear-title", Data: "."}, "."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame := tt.event.Encode()
			if !bytes.HasSuffix(frame, []byte("\n\n")) {
				t.Fatalf("frame not terminated by a blank line: %q", frame)
			}
			typ, data := parseFrame(t, frame)
			if typ != tt.event.Type {
				t.Errorf("expected event %q, got %q", tt.event.Type, typ)
			}
			if data != tt.wantData {
				t.Errorf("expected data %q, got %q", tt.wantData, data)
			}
		})
	}
}

func TestHeartbeatFrameIsComment(t *testing.T) {
	if !bytes.HasPrefix(heartbeatFrame, []byte(":")) {
		t.Errorf("heartbeat must be a comment, got %q", heartbeatFrame)
	}
	typ, data := parseFrame(t, heartbeatFrame)
	if typ != "" || data != "" {
		t.Errorf("heartbeat must not carry an event, got %q/%q", typ, data)
	}
}
