package source

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}
}

func TestMarkdownToText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string // words in order
	}{
		{
			name:  "heading and paragraph",
			input: "# Title\n\nSome *emphasized* and **strong** text.",
			want:  []string{"Title", "Some", "emphasized", "and", "strong", "text."},
		},
		{
			name:  "code blocks skipped",
			input: "Before.\n\n```go\nfunc main() {}\n```\n\n    indented code\n\nAfter.",
			want:  []string{"Before.", "After."},
		},
		{
			name:  "links keep their text",
			input: "Read [the docs](https://example.com) or <https://charm.sh>.",
			want:  []string{"Read", "the", "docs", "or", "https://charm.sh."},
		},
		{
			name:  "lists",
			input: "- one\n- two\n\n1. three",
			want:  []string{"one", "two", "three"},
		},
		{
			name:  "soft line breaks separate words",
			input: "first\nsecond",
			want:  []string{"first", "second"},
		},
		{
			name:  "inline code kept",
			input: "Run `make` now.",
			want:  []string{"Run", "make", "now."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := strings.Fields(MarkdownToText([]byte(tt.input)))
			if strings.Join(got, " ") != strings.Join(tt.want, " ") {
				t.Errorf("MarkdownToText() words = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLoadPlainAndMarkdown(t *testing.T) {
	dir := t.TempDir()

	txt := filepath.Join(dir, "story.txt")
	writeFile(t, txt, []byte("# not a heading\n    not code"))
	src, err := Load(txt)
	if err != nil {
		t.Fatalf("Load(txt) = %v", err)
	}
	if src.Markdown {
		t.Error("txt file treated as markdown")
	}
	if src.Text != "# not a heading\n    not code" {
		t.Errorf("plain text altered: %q", src.Text)
	}
	if !src.IsFile() || src.Path != txt {
		t.Errorf("Path = %q, IsFile = %v", src.Path, src.IsFile())
	}

	mdFile := filepath.Join(dir, "notes.md")
	writeFile(t, mdFile, []byte("---\ntitle: x\n---\n# Heading\n\nBody."))
	src, err = Load(mdFile)
	if err != nil {
		t.Fatalf("Load(md) = %v", err)
	}
	if !src.Markdown {
		t.Error("md file not treated as markdown")
	}
	if got := strings.Join(strings.Fields(src.Text), " "); got != "Heading Body." {
		t.Errorf("markdown text = %q", got)
	}
}

func TestLoadCompressed(t *testing.T) {
	dir := t.TempDir()
	payload := []byte("# Compressed\n\nWords inside.")

	var gz bytes.Buffer
	gw := gzip.NewWriter(&gz)
	if _, err := gw.Write(payload); err != nil {
		t.Fatal(err)
	}
	if err := gw.Close(); err != nil {
		t.Fatal(err)
	}

	var zs bytes.Buffer
	zw, err := zstd.NewWriter(&zs)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := zw.Write(payload); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}

	files := map[string][]byte{
		"doc.md.gz":  gz.Bytes(),
		"doc.md.zst": zs.Bytes(),
	}
	for name, data := range files {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			writeFile(t, path, data)

			src, err := Load(path)
			if err != nil {
				t.Fatalf("Load() = %v", err)
			}
			if !src.Markdown {
				t.Error("compressed markdown not detected")
			}
			if got := strings.Join(strings.Fields(src.Text), " "); got != "Compressed Words inside." {
				t.Errorf("text = %q", got)
			}
		})
	}
}

func TestFromArgDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a-guide.md"), []byte("Guide text."))
	writeFile(t, filepath.Join(dir, "README.md"), []byte("Readme text."))

	src, err := FromArg(context.Background(), dir)
	if err != nil {
		t.Fatalf("FromArg(dir) = %v", err)
	}
	if filepath.Base(src.Path) != "README.md" {
		t.Errorf("picked %s, want README.md", src.Path)
	}
	if src.Text != "Readme text." {
		t.Errorf("text = %q", src.Text)
	}
}

func TestFindMarkdownWithoutReadme(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "b.md"), []byte("b"))
	writeFile(t, filepath.Join(dir, "a.md"), []byte("a"))

	got, err := FindMarkdown(dir)
	if err != nil {
		t.Fatalf("FindMarkdown() = %v", err)
	}
	if filepath.Base(got) != "a.md" {
		t.Errorf("FindMarkdown() = %s, want a.md", got)
	}
}

func TestFindMarkdownEmpty(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "notes.txt"), []byte("plain"))

	if _, err := FindMarkdown(dir); !errors.Is(err, ErrNoSource) {
		t.Errorf("FindMarkdown() = %v, want ErrNoSource", err)
	}
}

func TestFromArgURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/doc.md":
			_, _ = w.Write([]byte("# Remote\n\nFetched words."))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	src, err := FromArg(context.Background(), srv.URL+"/doc.md")
	if err != nil {
		t.Fatalf("FromArg(url) = %v", err)
	}
	if src.IsFile() {
		t.Error("URL source reported as file")
	}
	if got := strings.Join(strings.Fields(src.Text), " "); got != "Remote Fetched words." {
		t.Errorf("text = %q", got)
	}

	if _, err := FromArg(context.Background(), srv.URL+"/missing.md"); err == nil {
		t.Error("expected error for 404")
	}
	if _, err := FromArg(context.Background(), "ftp://example.com/doc.md"); err == nil {
		t.Error("expected error for unsupported protocol")
	}
}

func TestFromReaderNormalizes(t *testing.T) {
	src, err := FromReader(strings.NewReader("cafe\u0301"), "note.txt")
	if err != nil {
		t.Fatalf("FromReader() = %v", err)
	}
	if src.Text != "caf\u00e9" {
		t.Errorf("text = %q, want NFC form", src.Text)
	}
}

func TestLoadMissing(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.txt")); err == nil {
		t.Error("expected error for missing file")
	}
}
