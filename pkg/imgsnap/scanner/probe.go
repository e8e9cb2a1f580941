package scanner

import (
	"errors"
	"io"
	"net/http"
	"os"
	"strings"
)

// sniffLen is the number of header bytes content detection considers.
const sniffLen = 512

// Sniff returns the detected content type of the file at path.
func Sniff(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	buf := make([]byte, sniffLen)
	n, err := io.ReadFull(f, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", err
	}
	return http.DetectContentType(buf[:n]), nil
}

// IsImageType reports whether a detected content type is an image type.
func IsImageType(mime string) bool {
	return strings.HasPrefix(mime, "image/")
}
