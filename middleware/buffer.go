// Package middleware holds the handlers wrapped around the routing table: the
// diagnostic page, send-file substitution, response linting and Content-Length.
package middleware

import (
	"bytes"
	"net/http"
)

// Buffer is a ResponseWriter holding the whole response until FlushTo.
type Buffer struct {
	header      http.Header
	status      int
	body        bytes.Buffer
	wroteHeader bool
}

func NewBuffer() *Buffer {
	return &Buffer{header: http.Header{}}
}

func (b *Buffer) Header() http.Header {
	return b.header
}

func (b *Buffer) WriteHeader(status int) {
	if b.wroteHeader {
		return
	}
	b.status = status
	b.wroteHeader = true
}

func (b *Buffer) Write(p []byte) (int, error) {
	if !b.wroteHeader {
		b.WriteHeader(http.StatusOK)
	}
	return b.body.Write(p)
}

// Status returns the status written, 200 when the handler wrote none.
func (b *Buffer) Status() int {
	if !b.wroteHeader {
		return http.StatusOK
	}
	return b.status
}

func (b *Buffer) Body() []byte {
	return b.body.Bytes()
}

// SetBody replaces whatever the handler wrote.
func (b *Buffer) SetBody(p []byte) {
	b.body.Reset()
	b.body.Write(p)
}

// FlushTo writes the buffered response to w.
func (b *Buffer) FlushTo(w http.ResponseWriter) error {
	dst := w.Header()
	for k, v := range b.header {
		dst[k] = v
	}
	w.WriteHeader(b.Status())
	if b.body.Len() == 0 {
		return nil
	}
	_, err := w.Write(b.body.Bytes())
	return err
}

// buffered runs next into a fresh Buffer.
func buffered(next http.Handler, r *http.Request) *Buffer {
	b := NewBuffer()
	next.ServeHTTP(b, r)
	return b
}

// bodyAllowed reports whether a response with this status may carry a body.
func bodyAllowed(status int) bool {
	return status >= 200 && status != http.StatusNoContent && status != http.StatusNotModified
}
