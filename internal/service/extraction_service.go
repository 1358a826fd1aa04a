package service

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"

	"certmap/pkg/objectstore"
)

const (
	mimePDF  = "application/pdf"
	mimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// TruncationMarker is appended when Truncate cuts text.
const TruncationMarker = "... [truncated]"

// ExtractionService pulls document bytes from object storage and converts
// them to plain text. It performs no caching; callers needing the same text
// twice must cache it themselves.
type ExtractionService struct {
	store  objectstore.ObjectStore
	logger *zap.Logger
}

func NewExtractionService(store objectstore.ObjectStore, logger *zap.Logger) *ExtractionService {
	return &ExtractionService{
		store:  store,
		logger: logger,
	}
}

// ExtractText reads the object at key and dispatches on MIME type to a
// format-specific extractor. Unknown MIME types fail with
// ErrUnsupportedFormat; parser and storage failures are wrapped in
// ErrExtraction.
func (s *ExtractionService) ExtractText(ctx context.Context, key, mimeType string) (string, error) {
	mt := strings.ToLower(strings.TrimSpace(mimeType))

	var extract func([]byte) (string, error)
	switch {
	case mt == mimePDF:
		extract = extractPDF
	case mt == mimeDOCX:
		extract = extractDOCX
	case mt == "text/plain" || strings.HasPrefix(mt, "text/"):
		extract = extractPlainText
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, mimeType)
	}

	data, err := s.store.Read(ctx, key)
	if err != nil {
		return "", fmt.Errorf("%w: read %s: %v", ErrExtraction, key, err)
	}

	text, err := extract(data)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrExtraction, key, err)
	}

	text = sanitizeUTF8(strings.TrimSpace(text))

	s.logger.Info("Text extraction completed",
		zap.String("key", key),
		zap.String("mime_type", mt),
		zap.Int("text_length", len(text)),
	)

	return text, nil
}

// Truncate hard-cuts text at maxChars and appends a marker when it does.
func Truncate(text string, maxChars int) string {
	if maxChars <= 0 || len(text) <= maxChars {
		return text
	}
	return text[:maxChars] + TruncationMarker
}

// Preview cuts text at a word boundary for human-facing display. Text at or
// under the word limit is returned unchanged.
func Preview(text string, wordCount int) string {
	words := strings.Fields(text)
	if len(words) <= wordCount {
		return text
	}
	return strings.Join(words[:wordCount], " ") + "..."
}

func extractPDF(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("pdf reader: %w", err)
	}

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("pdf plaintext: %w", err)
	}

	b, err := io.ReadAll(plain)
	if err != nil {
		return "", fmt.Errorf("pdf read: %w", err)
	}

	return collapseWhitespace(string(b)), nil
}

// extractDOCX reads word/document.xml from the zip container and gathers the
// text runs (<w:t> elements).
func extractDOCX(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("docx is not a valid zip container: %w", err)
	}

	var docXML *zip.File
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			docXML = f
			break
		}
	}
	if docXML == nil {
		return "", fmt.Errorf("docx missing word/document.xml")
	}

	rc, err := docXML.Open()
	if err != nil {
		return "", fmt.Errorf("docx open document.xml: %w", err)
	}
	defer rc.Close()

	xmlBytes, err := io.ReadAll(rc)
	if err != nil {
		return "", fmt.Errorf("docx read document.xml: %w", err)
	}

	var out strings.Builder
	dec := xml.NewDecoder(bytes.NewReader(xmlBytes))
	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "t" {
			continue
		}
		var v string
		_ = dec.DecodeElement(&v, &se)
		if v != "" {
			out.WriteString(v)
			out.WriteString(" ")
		}
	}

	return collapseWhitespace(out.String()), nil
}

func extractPlainText(data []byte) (string, error) {
	return collapseWhitespace(string(data)), nil
}

func collapseWhitespace(s string) string {
	s = strings.ReplaceAll(s, " ", " ")
	fields := strings.Fields(s)
	return strings.Join(fields, " ")
}
