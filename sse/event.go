package sse

import (
	"bytes"
	"strings"

	ginsse "github.com/gin-contrib/sse"
)

// heartbeatFrame is an SSE comment. Browsers ignore it; proxies see traffic.
var heartbeatFrame = []byte(":\n\n")

// Event is a named event record.
type Event struct {
	Type string
	Data string
}

var lineBreaks = strings.NewReplacer("\r\n", "\n", "\r", "\n")

// Encode renders the event in text/event-stream framing. Multi-line data is
// split across data fields; CR and CRLF line breaks are sent as LF.
func (e Event) Encode() []byte {
	var buf bytes.Buffer
	_ = ginsse.Encode(&buf, ginsse.Event{
		Event: e.Type,
		Data:  lineBreaks.Replace(e.Data),
	})
	return buf.Bytes()
}
