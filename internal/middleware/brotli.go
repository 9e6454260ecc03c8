package middleware

import (
	"bytes"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/gin-gonic/gin"
)

// BrotliConfig tunes response compression.
type BrotliConfig struct {
	Quality   int
	MinLength int
}

var DefaultBrotliConfig = BrotliConfig{
	Quality:   brotli.DefaultCompression,
	MinLength: 1024,
}

// bufferedWriter holds the whole body so the encoding can be chosen once its size is known.
type bufferedWriter struct {
	gin.ResponseWriter
	buf bytes.Buffer
}

func (w *bufferedWriter) Write(data []byte) (int, error) {
	return w.buf.Write(data)
}

func (w *bufferedWriter) WriteString(s string) (int, error) {
	return w.buf.WriteString(s)
}

// Brotli compresses JSON responses for clients that accept "br".
func Brotli() gin.HandlerFunc {
	return BrotliWithConfig(DefaultBrotliConfig)
}

func BrotliWithConfig(cfg BrotliConfig) gin.HandlerFunc {
	if cfg.Quality < brotli.BestSpeed || cfg.Quality > brotli.BestCompression {
		cfg.Quality = brotli.DefaultCompression
	}
	if cfg.MinLength <= 0 {
		cfg.MinLength = DefaultBrotliConfig.MinLength
	}

	return func(c *gin.Context) {
		// WebSocket handshakes must reach the raw writer.
		if strings.EqualFold(c.GetHeader("Upgrade"), "websocket") || !acceptsBrotli(c.GetHeader("Accept-Encoding")) {
			c.Next()
			return
		}

		original := c.Writer
		bw := &bufferedWriter{ResponseWriter: original}
		c.Writer = bw
		c.Next()
		c.Writer = original

		original.Header().Add("Vary", "Accept-Encoding")
		if bw.buf.Len() < cfg.MinLength {
			if _, err := original.Write(bw.buf.Bytes()); err != nil {
				_ = c.Error(err)
			}
			return
		}

		original.Header().Set("Content-Encoding", "br")
		original.Header().Del("Content-Length")
		enc := brotli.NewWriterLevel(original, cfg.Quality)
		if _, err := enc.Write(bw.buf.Bytes()); err != nil {
			_ = c.Error(err)
		}
		if err := enc.Close(); err != nil {
			_ = c.Error(err)
		}
	}
}

func acceptsBrotli(acceptEncoding string) bool {
	for _, enc := range strings.Split(acceptEncoding, ",") {
		name := strings.TrimSpace(strings.SplitN(enc, ";", 2)[0])
		if strings.EqualFold(name, "br") {
			return true
		}
	}
	return false
}
