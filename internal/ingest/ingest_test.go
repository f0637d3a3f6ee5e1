package ingest

import (
	"archive/zip"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func writeDOCX(t *testing.T, paragraphs ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "interview.docx")
	f, err := os.Create(path)
	require.NoError(t, err)

	zw := zip.NewWriter(f)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)

	var b strings.Builder
	b.WriteString(`<?xml version="1.0"?><w:document xmlns:w="w"><w:body>`)
	for _, p := range paragraphs {
		b.WriteString(`<w:p><w:r><w:t>` + p + `</w:t></w:r></w:p>`)
	}
	b.WriteString(`</w:body></w:document>`)
	_, err = w.Write([]byte(b.String()))
	require.NoError(t, err)

	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
	return path
}

func TestReadFile(t *testing.T) {
	tests := []struct {
		name      string
		path      func(t *testing.T) string
		wantTitle string
		wantText  string
		wantErr   string
	}{
		{
			name:      "plain text",
			path:      func(t *testing.T) string { return writeFile(t, "session-1.txt", "  Well,   I went\n\n\tto the store.  \n") },
			wantTitle: "session-1",
			wantText:  "Well, I went\nto the store.",
		},
		{
			name:      "markdown",
			path:      func(t *testing.T) string { return writeFile(t, "notes.md", "Um the the cat.") },
			wantTitle: "notes",
			wantText:  "Um the the cat.",
		},
		{
			name:      "docx",
			path:      func(t *testing.T) string { return writeDOCX(t, "First paragraph.", "Second  paragraph.") },
			wantTitle: "interview",
			wantText:  "First paragraph.\nSecond paragraph.",
		},
		{
			name:    "unsupported",
			path:    func(t *testing.T) string { return writeFile(t, "audio.wav", "RIFF") },
			wantErr: "unsupported file type",
		},
		{
			name:    "missing",
			path:    func(t *testing.T) string { return filepath.Join(t.TempDir(), "absent.txt") },
			wantErr: "read file",
		},
		{
			name:    "corrupt pdf",
			path:    func(t *testing.T) string { return writeFile(t, "broken.pdf", "not a pdf") },
			wantErr: "open pdf",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, err := ReadFile(tt.path(t))
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantTitle, tr.Title)
			assert.Equal(t, tt.wantText, tr.Text)
		})
	}
}

func TestRead(t *testing.T) {
	tr, err := Read(strings.NewReader("hello   there\n"))
	require.NoError(t, err)
	assert.Equal(t, "stdin", tr.Title)
	assert.Equal(t, "hello there", tr.Text)

	_, err = Read(strings.NewReader(strings.Repeat("a", MaxTranscriptBytes+1)))
	assert.Error(t, err)
}

func TestReadMetadata(t *testing.T) {
	path := writeFile(t, "timing.json", `{"duration": 12.5, "words": [{"word": "hello", "start": 0.1, "end": 0.4}]}`)

	meta, err := ReadMetadata(path)
	require.NoError(t, err)
	assert.InDelta(t, 12.5, meta.Duration, 1e-9)
	require.Len(t, meta.Words, 1)
	assert.Equal(t, "hello", meta.Words[0].Word)

	_, err = ReadMetadata(writeFile(t, "bad.json", "{"))
	assert.Error(t, err)
}
