package notes

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

var datePrefix = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}-?`)

type noteFrontmatter struct {
	Title string `yaml:"title"`
}

// ParseMarkdownFile reads a markdown file as create Fields. The title comes
// from frontmatter `title` or is derived from the filename; the content is
// the body after the frontmatter block.
func ParseMarkdownFile(path string) (Fields, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Fields{}, err
	}
	title, body := ParseMarkdown(raw)
	if title == "" {
		title = titleFromFilename(filepath.Base(path))
	}
	return Fields{Title: String(title), Content: String(body)}, nil
}

// ParseMarkdown splits raw markdown into its frontmatter title and body
func ParseMarkdown(raw []byte) (string, string) {
	lines := bytes.Split(raw, []byte("\n"))

	if len(lines) == 0 || !bytes.Equal(bytes.TrimSpace(lines[0]), []byte("---")) {
		return "", string(raw)
	}

	var fmEnd int
	for i := 1; i < len(lines); i++ {
		if bytes.Equal(bytes.TrimSpace(lines[i]), []byte("---")) {
			fmEnd = i
			break
		}
	}

	if fmEnd == 0 {
		return "", string(raw)
	}

	body := string(bytes.Join(lines[fmEnd+1:], []byte("\n")))
	body = strings.TrimLeft(body, "\n")

	var fm noteFrontmatter
	if err := yaml.Unmarshal(bytes.Join(lines[1:fmEnd], []byte("\n")), &fm); err != nil {
		return "", body
	}
	return strings.TrimSpace(fm.Title), body
}

func titleFromFilename(filename string) string {
	name := strings.TrimSuffix(filename, filepath.Ext(filename))

	// Strip a leading date ("2026-02-14-")
	if stripped := datePrefix.ReplaceAllString(name, ""); stripped != "" {
		name = stripped
	}

	name = strings.ReplaceAll(name, "-", " ")
	name = strings.ReplaceAll(name, "_", " ")
	name = strings.TrimSpace(name)

	if name == "" {
		return DefaultTitle
	}
	return name
}
