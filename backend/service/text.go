package service

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/AnTengye/clausewise/backend/model"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// DecodePlainText decodes an uploaded .txt file as UTF-8, falling back to
// Latin-1 when the bytes are not valid UTF-8.
func DecodePlainText(data []byte) (string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(data) {
		return string(data), nil
	}
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("failed to decode text: %w", err)
	}
	return string(decoded), nil
}

// DetectFormat maps a file name to a supported format.
func DetectFormat(filename string) (string, bool) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return model.FormatPDF, true
	case ".docx":
		return model.FormatDOCX, true
	case ".txt":
		return model.FormatTXT, true
	}
	return "", false
}

// ContentType returns the MIME type stored with an uploaded original.
func ContentType(format string) string {
	switch format {
	case model.FormatPDF:
		return "application/pdf"
	case model.FormatDOCX:
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	default:
		return "text/plain; charset=utf-8"
	}
}
