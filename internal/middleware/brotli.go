package middleware

import (
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/gin-gonic/gin"
)

// Responses smaller than this are sent uncompressed; tiny envelopes gain
// nothing from brotli and the frame overhead can make them larger.
const brotliMinLength = 1024

// Brotli compresses response bodies for clients that advertise the br
// encoding. Bodies are buffered until brotliMinLength so short responses
// pass through untouched.
func Brotli() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !acceptsBr(c.GetHeader("Accept-Encoding")) {
			c.Next()
			return
		}

		c.Header("Vary", "Accept-Encoding")
		w := &brotliResponseWriter{
			ResponseWriter: c.Writer,
			br:             brotli.NewWriterLevel(c.Writer, brotli.DefaultCompression),
		}
		c.Writer = w
		defer func() {
			if err := w.finish(); err != nil {
				_ = c.Error(err)
			}
		}()

		c.Next()
	}
}

type brotliResponseWriter struct {
	gin.ResponseWriter
	br      *brotli.Writer
	pending []byte
	started bool
}

func (w *brotliResponseWriter) Write(p []byte) (int, error) {
	if w.started {
		return w.br.Write(p)
	}

	w.pending = append(w.pending, p...)
	if len(w.pending) < brotliMinLength {
		return len(p), nil
	}

	w.started = true
	w.Header().Set("Content-Encoding", "br")
	w.Header().Del("Content-Length")
	if _, err := w.br.Write(w.pending); err != nil {
		return 0, err
	}
	w.pending = nil
	return len(p), nil
}

func (w *brotliResponseWriter) WriteString(s string) (int, error) {
	return w.Write([]byte(s))
}

// Flush keeps streaming handlers working: whatever is buffered goes out on
// the spot, uncompressed when the threshold was never reached.
func (w *brotliResponseWriter) Flush() {
	if w.started {
		_ = w.br.Flush()
	} else if len(w.pending) > 0 {
		_, _ = w.ResponseWriter.Write(w.pending)
		w.pending = nil
	}
	w.ResponseWriter.Flush()
}

// finish drains the buffer at end of request: through the encoder when
// compression started, raw otherwise.
func (w *brotliResponseWriter) finish() error {
	if w.started {
		if len(w.pending) > 0 {
			if _, err := w.br.Write(w.pending); err != nil {
				return err
			}
			w.pending = nil
		}
		return w.br.Close()
	}
	if len(w.pending) > 0 {
		_, err := w.ResponseWriter.Write(w.pending)
		w.pending = nil
		return err
	}
	return nil
}

func acceptsBr(acceptEncoding string) bool {
	for _, part := range strings.Split(acceptEncoding, ",") {
		enc, _, _ := strings.Cut(strings.TrimSpace(part), ";")
		if strings.EqualFold(enc, "br") {
			return true
		}
	}
	return false
}
