// Package legacy reads the Markdown posts the site served before posts moved
// into the document store. Each post is a <slug>.md file whose YAML front
// matter holds the metadata and whose remainder is the body.
package legacy

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultDir is the directory the legacy posts were served from.
	DefaultDir = "_posts"

	markdownExt    = ".md"
	frontMatterTag = "---"
)

// Entry maps requested field names to their values.
type Entry map[string]any

// Loader reads legacy posts from a directory.
type Loader struct {
	fsys fs.FS
}

// NewLoader constructs a Loader over fsys, whose root holds the Markdown files.
func NewLoader(fsys fs.FS) (*Loader, error) {
	if fsys == nil {
		return nil, eris.New("posts filesystem is required")
	}
	return &Loader{fsys: fsys}, nil
}

// NewDirLoader constructs a Loader reading from dir on disk.
func NewDirLoader(dir string) (*Loader, error) {
	if strings.TrimSpace(dir) == "" {
		dir = DefaultDir
	}
	return NewLoader(os.DirFS(dir))
}

// ListSlugs returns the file names in the posts directory.
func (l *Loader) ListSlugs() ([]string, error) {
	entries, err := fs.ReadDir(l.fsys, ".")
	if err != nil {
		return nil, eris.Wrap(err, "reading posts directory")
	}

	slugs := make([]string, 0, len(entries))
	for _, entry := range entries {
		slugs = append(slugs, entry.Name())
	}
	return slugs, nil
}

// LoadBySlug reads <slug>.md and returns only the requested fields. "slug" and
// "content" are synthesized; every other field comes from the front matter and
// is present only when defined there.
func (l *Loader) LoadBySlug(slug string, fields []string) (Entry, error) {
	realSlug := strings.TrimSuffix(slug, markdownExt)

	raw, err := fs.ReadFile(l.fsys, realSlug+markdownExt)
	if err != nil {
		return nil, eris.Wrapf(err, "reading post %s", realSlug)
	}

	data, body, err := splitFrontMatter(raw)
	if err != nil {
		return nil, eris.Wrapf(err, "parsing front matter of %s", realSlug)
	}

	entry := Entry{}
	for _, field := range fields {
		switch field {
		case "slug":
			entry[field] = realSlug
		case "content":
			entry[field] = body
		}

		if value, ok := data[field]; ok {
			entry[field] = value
		}
	}

	return entry, nil
}

// LoadAll loads every post with the requested fields, newest date first.
// Dates compare as strings (unquoted YAML timestamps are formatted first), so ties and malformed dates keep their directory order.
func (l *Loader) LoadAll(fields []string) ([]Entry, error) {
	slugs, err := l.ListSlugs()
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(slugs))
	for _, slug := range slugs {
		entry, err := l.LoadBySlug(slug, fields)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].date() > entries[j].date()
	})

	return entries, nil
}

func (e Entry) date() string {
	value, ok := e["date"]
	if !ok || value == nil {
		return ""
	}
	if ts, ok := value.(time.Time); ok {
		return formatDate(ts)
	}
	return fmt.Sprint(value)
}

// formatDate renders YAML timestamps the way quoted dates are written:
// a bare day when the time is midnight UTC, RFC3339 otherwise.
func formatDate(ts time.Time) string {
	ts = ts.UTC()
	if ts.Equal(ts.Truncate(24 * time.Hour)) {
		return ts.Format(time.DateOnly)
	}
	return ts.Format(time.RFC3339Nano)
}

// splitFrontMatter separates a leading "---" delimited YAML block from the body.
// Files without front matter yield empty data and the whole file as body.
func splitFrontMatter(raw []byte) (map[string]any, string, error) {
	data := map[string]any{}

	text := string(bytes.TrimPrefix(raw, []byte("\ufeff")))
	firstLine, rest, found := cutLine(text)
	if strings.TrimRight(firstLine, " \t") != frontMatterTag || !found {
		return data, text, nil
	}

	var matter strings.Builder
	for {
		line, remainder, more := cutLine(rest)
		if strings.TrimRight(line, " \t") == frontMatterTag {
			if err := yaml.Unmarshal([]byte(matter.String()), &data); err != nil {
				return nil, "", eris.Wrap(err, "decoding yaml")
			}
			if data == nil {
				data = map[string]any{}
			}
			return data, remainder, nil
		}
		if !more {
			return nil, "", eris.New("front matter is not terminated")
		}

		matter.WriteString(line)
		matter.WriteByte('\n')
		rest = remainder
	}
}

// cutLine splits text at the first newline, dropping the newline and a preceding carriage return.
func cutLine(text string) (string, string, bool) {
	line, rest, found := strings.Cut(text, "\n")
	return strings.TrimSuffix(line, "\r"), rest, found
}
