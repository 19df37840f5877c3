// Package storage fetches published dashboard objects from an HTTP object
// store or a local directory. Objects may be gzip-compressed at rest.
package storage

import (
	"bytes"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
)

// ErrNotFound is returned when an object does not exist.
var ErrNotFound = errors.New("object not found")

var gzipMagic = []byte{0x1f, 0x8b}

// decompress returns body unchanged unless it starts with the gzip magic
// bytes. Objects are uploaded gzipped and some servers omit the
// Content-Encoding header.
func decompress(body []byte) ([]byte, error) {
	if !bytes.HasPrefix(body, gzipMagic) {
		return body, nil
	}
	zr, err := gzip.NewReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("open gzip body: %w", err)
	}
	defer zr.Close()
	out, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("read gzip body: %w", err)
	}
	return out, nil
}
