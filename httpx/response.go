package httpx

import (
	"bytes"
	"net/http"
)

// ResponseBuffer captures a handler's response so it can be inspected
// before being replayed to the real writer. The token refresh flow uses
// it to call the bearer server internally.
type ResponseBuffer struct {
	status int
	header http.Header
	body   bytes.Buffer
}

func NewResponseBuffer() *ResponseBuffer {
	return &ResponseBuffer{}
}

func (b *ResponseBuffer) Status() int {
	return b.status
}

func (b *ResponseBuffer) Header() http.Header {
	if b.header == nil {
		b.header = http.Header{}
	}
	return b.header
}

func (b *ResponseBuffer) Body() []byte {
	return b.body.Bytes()
}

func (b *ResponseBuffer) Write(body []byte) (int, error) {
	return b.body.Write(body)
}

func (b *ResponseBuffer) WriteHeader(statusCode int) {
	b.status = statusCode
}

// Flush replays the captured headers, status and body onto w.
func (b *ResponseBuffer) Flush(w http.ResponseWriter) error {
	header := w.Header()
	for key, value := range b.header {
		header[key] = value
	}
	if b.status != 0 {
		w.WriteHeader(b.status)
	}
	_, err := w.Write(b.body.Bytes())
	return err
}
