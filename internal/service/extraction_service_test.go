package service

import (
	"archive/zip"
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func buildDOCX(t *testing.T, paragraphs []string) []byte {
	t.Helper()

	var runs strings.Builder
	for _, p := range paragraphs {
		runs.WriteString("<w:p><w:r><w:t>")
		runs.WriteString(p)
		runs.WriteString("</w:t></w:r></w:p>")
	}
	document := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">` +
		`<w:body>` + runs.String() + `</w:body></w:document>`

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	f, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = f.Write([]byte(document))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	return buf.Bytes()
}

func TestExtractText_PlainText(t *testing.T) {
	store := &fakeObjectStore{objects: map[string][]byte{
		"notes.txt": []byte("  Firewalls filter\n\n   network traffic.  "),
	}}
	svc := NewExtractionService(store, zap.NewNop())

	text, err := svc.ExtractText(context.Background(), "notes.txt", "text/plain")
	require.NoError(t, err)
	assert.Equal(t, "Firewalls filter network traffic.", text)
}

func TestExtractText_TextSubtype(t *testing.T) {
	store := &fakeObjectStore{objects: map[string][]byte{
		"readme.md": []byte("# Hashing"),
	}}
	svc := NewExtractionService(store, zap.NewNop())

	text, err := svc.ExtractText(context.Background(), "readme.md", "text/markdown")
	require.NoError(t, err)
	assert.Equal(t, "# Hashing", text)
}

func TestExtractText_DOCX(t *testing.T) {
	store := &fakeObjectStore{objects: map[string][]byte{
		"guide.docx": buildDOCX(t, []string{"Password hashing basics.", "Salting and peppering."}),
	}}
	svc := NewExtractionService(store, zap.NewNop())

	text, err := svc.ExtractText(context.Background(), "guide.docx", mimeDOCX)
	require.NoError(t, err)
	assert.Equal(t, "Password hashing basics. Salting and peppering.", text)
}

func TestExtractText_DOCXMissingDocumentXML(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	f, err := zw.Create("word/styles.xml")
	require.NoError(t, err)
	_, err = f.Write([]byte("<styles/>"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	store := &fakeObjectStore{objects: map[string][]byte{"broken.docx": buf.Bytes()}}
	svc := NewExtractionService(store, zap.NewNop())

	_, err = svc.ExtractText(context.Background(), "broken.docx", mimeDOCX)
	assert.ErrorIs(t, err, ErrExtraction)
}

func TestExtractText_CorruptPDF(t *testing.T) {
	store := &fakeObjectStore{objects: map[string][]byte{
		"bad.pdf": []byte("this is not a pdf"),
	}}
	svc := NewExtractionService(store, zap.NewNop())

	_, err := svc.ExtractText(context.Background(), "bad.pdf", mimePDF)
	assert.ErrorIs(t, err, ErrExtraction)
}

func TestExtractText_UnsupportedMIME(t *testing.T) {
	store := &fakeObjectStore{objects: map[string][]byte{"clip.mp4": {0}}}
	svc := NewExtractionService(store, zap.NewNop())

	_, err := svc.ExtractText(context.Background(), "clip.mp4", "video/mp4")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestExtractText_MissingObject(t *testing.T) {
	svc := NewExtractionService(&fakeObjectStore{}, zap.NewNop())

	_, err := svc.ExtractText(context.Background(), "gone.txt", "text/plain")
	assert.ErrorIs(t, err, ErrExtraction)
}

func TestTruncate(t *testing.T) {
	t.Run("short text unchanged", func(t *testing.T) {
		assert.Equal(t, "short", Truncate("short", 100))
	})

	t.Run("exact length unchanged", func(t *testing.T) {
		assert.Equal(t, "abcde", Truncate("abcde", 5))
	})

	t.Run("long text gets marker", func(t *testing.T) {
		got := Truncate(strings.Repeat("x", 20), 10)
		assert.Equal(t, strings.Repeat("x", 10)+TruncationMarker, got)
	})

	t.Run("non-positive limit disables truncation", func(t *testing.T) {
		assert.Equal(t, "anything", Truncate("anything", 0))
	})
}

func TestPreview(t *testing.T) {
	t.Run("under limit unchanged", func(t *testing.T) {
		assert.Equal(t, "one two", Preview("one two", 5))
	})

	t.Run("cuts at word boundary", func(t *testing.T) {
		assert.Equal(t, "one two three...", Preview("one two three four five", 3))
	})
}
