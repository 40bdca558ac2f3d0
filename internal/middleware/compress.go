package middleware

import (
	"compress/gzip"
	"strings"

	"github.com/gin-gonic/gin"
)

type CompressConfig struct {
	Level int
	// Types lists compressible content types. The decision is made on the first write.
	Types     []string
	SkipPaths []string
}

func DefaultCompressConfig() CompressConfig {
	return CompressConfig{
		Level: gzip.DefaultCompression,
		Types: []string{
			"application/json",
			"text/plain",
		},
		SkipPaths: []string{
			"/health",
			"/metrics",
		},
	}
}

// gzipWriter compresses the body once the handler commits to a compressible content type.
type gzipWriter struct {
	gin.ResponseWriter
	level   int
	types   []string
	decided bool
	gz      *gzip.Writer
}

func (g *gzipWriter) decide() {
	if g.decided {
		return
	}
	g.decided = true

	header := g.Header()
	if header.Get("Content-Encoding") != "" {
		return
	}
	contentType := header.Get("Content-Type")
	for _, t := range g.types {
		if strings.HasPrefix(contentType, t) {
			gz, err := gzip.NewWriterLevel(g.ResponseWriter, g.level)
			if err != nil {
				return
			}
			g.gz = gz
			header.Set("Content-Encoding", "gzip")
			header.Add("Vary", "Accept-Encoding")
			header.Del("Content-Length")
			return
		}
	}
}

func (g *gzipWriter) Write(data []byte) (int, error) {
	g.decide()
	if g.gz == nil {
		return g.ResponseWriter.Write(data)
	}
	return g.gz.Write(data)
}

func (g *gzipWriter) WriteString(s string) (int, error) {
	return g.Write([]byte(s))
}

func (g *gzipWriter) close() {
	if g.gz != nil {
		_ = g.gz.Close()
	}
}

// Compress gzips JSON and text responses for clients that accept it.
func Compress(config CompressConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, path := range config.SkipPaths {
			if strings.HasPrefix(c.Request.URL.Path, path) {
				c.Next()
				return
			}
		}
		if !strings.Contains(c.GetHeader("Accept-Encoding"), "gzip") {
			c.Next()
			return
		}

		gw := &gzipWriter{ResponseWriter: c.Writer, level: config.Level, types: config.Types}
		c.Writer = gw
		defer gw.close()

		c.Next()
	}
}
