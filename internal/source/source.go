// Package source resolves command line arguments into readable text.
package source

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/log"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/muesli/gitcha"
	"golang.org/x/text/unicode/norm"

	"github.com/dgnsrekt/rsvp/utils"
)

// ErrNoSource is returned when a directory holds no markdown file.
var ErrNoSource = errors.New("missing markdown source")

var (
	readmeNames = []string{"README.md", "README", "Readme.md", "Readme", "readme.md", "readme"}

	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
	gzipMagic = []byte{0x1f, 0x8b}
)

// Source is text ready for preprocessing.
type Source struct {
	Text     string
	Path     string // Absolute file path or URL; empty for stdin and clipboard
	Markdown bool   // Text was flattened from markdown
}

// IsFile reports whether the source was read from a local file.
func (s *Source) IsFile() bool {
	return s.Path != "" && !isURL(s.Path)
}

// FromArg parses an argument and reads the text it points to: "-" for
// stdin, an http(s) URL, a directory or a file. An empty argument is the
// current directory.
func FromArg(ctx context.Context, arg string) (*Source, error) {
	// from stdin
	if arg == "-" {
		return FromReader(os.Stdin, "")
	}

	// HTTP(S) URLs:
	if u, err := url.ParseRequestURI(arg); err == nil && strings.Contains(arg, "://") {
		if u.Scheme != "http" && u.Scheme != "https" {
			return nil, fmt.Errorf("%s is not a supported protocol", u.Scheme)
		}
		return fetch(ctx, u)
	}

	if arg == "" {
		arg = "."
	}
	path := utils.ExpandPath(arg)

	// a directory:
	if st, err := os.Stat(path); err == nil && st.IsDir() {
		found, err := FindMarkdown(path)
		if err != nil {
			return nil, err
		}
		return Load(found)
	}

	return Load(path)
}

// Load reads a local file.
func Load(path string) (*Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("unable to open file: %w", err)
	}
	defer f.Close() //nolint:errcheck

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("unable to get absolute path: %w", err)
	}

	src, err := FromReader(f, abs)
	if err != nil {
		return nil, err
	}
	src.Path = abs
	return src, nil
}

// FromReader reads text from r. Compressed input is detected from its
// header. name decides whether the text is markdown; an empty name is
// treated as markdown.
func FromReader(r io.Reader, name string) (*Source, error) {
	rc, err := decompress(r)
	if err != nil {
		return nil, err
	}
	defer rc.Close() //nolint:errcheck

	b, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("unable to read from reader: %w", err)
	}

	src := &Source{Markdown: utils.IsMarkdownFile(utils.TrimCompressionExt(name))}
	if src.Markdown {
		src.Text = MarkdownToText(utils.RemoveFrontmatter(b))
	} else {
		src.Text = string(b)
	}
	src.Text = norm.NFC.String(src.Text)

	log.Debug("Read source", "name", name, "bytes", len(b), "markdown", src.Markdown)
	return src, nil
}

// FromClipboard reads plain text from the system clipboard.
func FromClipboard() (*Source, error) {
	text, err := clipboard.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("unable to read clipboard: %w", err)
	}
	return &Source{Text: norm.NFC.String(text)}, nil
}

// FindMarkdown returns the markdown file to read from dir. README files
// win; otherwise the first markdown file by path. Files ignored by git are
// skipped.
func FindMarkdown(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("unable to get absolute path: %w", err)
	}

	ch, err := gitcha.FindFilesExcept(abs, utils.MarkdownExtensions(), nil)
	if err != nil {
		return "", fmt.Errorf("unable to search %s: %w", abs, err)
	}

	var found []string
	for res := range ch {
		found = append(found, res.Path)
	}
	if len(found) == 0 {
		// gitcha only matches extensions; README without one is still valid.
		for _, name := range readmeNames {
			p := filepath.Join(abs, name)
			if st, err := os.Stat(p); err == nil && !st.IsDir() {
				return p, nil
			}
		}
		return "", ErrNoSource
	}

	sort.Slice(found, func(i, j int) bool {
		di, dj := strings.Count(found[i], string(filepath.Separator)), strings.Count(found[j], string(filepath.Separator))
		if di != dj {
			return di < dj
		}
		return found[i] < found[j]
	})
	for _, p := range found {
		for _, name := range readmeNames {
			if strings.EqualFold(filepath.Base(p), name) {
				return p, nil
			}
		}
	}
	return found[0], nil
}

func fetch(ctx context.Context, u *url.URL) (*Source, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("unable to create request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("unable to get url: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP status %d", resp.StatusCode)
	}

	name := u.Path
	if ct := resp.Header.Get("Content-Type"); strings.HasPrefix(ct, "text/plain") && filepath.Ext(name) == "" {
		name = "page.txt"
	}

	src, err := FromReader(resp.Body, name)
	if err != nil {
		return nil, err
	}
	src.Path = u.String()
	return src, nil
}

// decompress wraps r in a decoder when it starts with a gzip or zstd
// header.
func decompress(r io.Reader) (io.ReadCloser, error) {
	br := bufio.NewReader(r)
	head, _ := br.Peek(len(zstdMagic))

	switch {
	case bytes.HasPrefix(head, zstdMagic):
		dec, err := zstd.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("unable to read zstd stream: %w", err)
		}
		return dec.IOReadCloser(), nil
	case bytes.HasPrefix(head, gzipMagic):
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("unable to read gzip stream: %w", err)
		}
		return gz, nil
	default:
		return io.NopCloser(br), nil
	}
}

func isURL(path string) bool {
	u, err := url.ParseRequestURI(path)
	return err == nil && u.Scheme != "" && strings.Contains(path, "://")
}
