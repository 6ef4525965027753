// Package utils provides utility functions.
package utils

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/mitchellh/go-homedir"
)

var frontmatterBoundaries = regexp.MustCompile(`(?m)^---\r?\n`)

// RemoveFrontmatter removes the front matter header of a markdown file.
func RemoveFrontmatter(content []byte) []byte {
	if bounds := detectFrontmatter(content); bounds[0] == 0 {
		return content[bounds[1]:]
	}
	return content
}

// Returns the start and end indices of the front matter block, or -1, -1
// when there is none.
func detectFrontmatter(c []byte) []int {
	if matches := frontmatterBoundaries.FindAllIndex(c, 2); len(matches) > 1 {
		return []int{matches[0][0], matches[1][1]}
	}
	return []int{-1, -1}
}

// ExpandPath expands tilde and all environment variables from the given path.
func ExpandPath(path string) string {
	s, err := homedir.Expand(path)
	if err == nil {
		return os.ExpandEnv(s)
	}
	return os.ExpandEnv(path)
}

var markdownExtensions = []string{
	".md", ".mdown", ".mkdn", ".mkd", ".markdown",
}

// MarkdownExtensions returns glob patterns for markdown files.
func MarkdownExtensions() []string {
	patterns := make([]string, 0, len(markdownExtensions))
	for _, ext := range markdownExtensions {
		patterns = append(patterns, "*"+ext)
	}
	return patterns
}

// IsMarkdownFile returns whether the filename has a markdown extension.
// Files without an extension are treated as markdown.
func IsMarkdownFile(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		return true
	}
	for _, v := range markdownExtensions {
		if ext == v {
			return true
		}
	}
	return false
}

// TrimCompressionExt strips a trailing .gz or .zst extension.
func TrimCompressionExt(filename string) string {
	for _, ext := range []string{".gz", ".zst"} {
		if strings.HasSuffix(strings.ToLower(filename), ext) {
			return filename[:len(filename)-len(ext)]
		}
	}
	return filename
}
