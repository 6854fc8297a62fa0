// Package markdown renders post bodies to HTML and derives plain-text excerpts from them.
package markdown

import (
	"bytes"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"golang.org/x/net/html"
)

// DefaultExcerptLength is the rune budget used for generated excerpts.
const DefaultExcerptLength = 200

var md = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,
		extension.Typographer,
		highlighting.NewHighlighting(
			highlighting.WithStyle("monokai"),
		),
	),
	goldmark.WithParserOptions(
		parser.WithAutoHeadingID(),
	),
)

// ToHTML converts Markdown into HTML. Raw HTML in the source is omitted from the output.
func ToHTML(source string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(source), &buf); err != nil {
		return "", eris.Wrap(err, "rendering markdown")
	}
	return buf.String(), nil
}

// PlainText renders source and returns its visible text with whitespace collapsed.
func PlainText(source string) (string, error) {
	rendered, err := ToHTML(source)
	if err != nil {
		return "", err
	}

	tokenizer := html.NewTokenizer(strings.NewReader(rendered))
	var builder strings.Builder
	skipDepth := 0

	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			if err := tokenizer.Err(); err != nil && err != io.EOF {
				return "", eris.Wrap(err, "tokenizing rendered markdown")
			}
			return strings.Join(strings.Fields(builder.String()), " "), nil
		case html.StartTagToken:
			name, _ := tokenizer.TagName()
			if isHidden(string(name)) {
				skipDepth++
			}
		case html.EndTagToken:
			name, _ := tokenizer.TagName()
			if isHidden(string(name)) && skipDepth > 0 {
				skipDepth--
			}
			if !inlineTags[string(name)] {
				builder.WriteByte(' ')
			}
		case html.TextToken:
			if skipDepth == 0 {
				builder.Write(tokenizer.Text())
			}
		}
	}
}

// Excerpt returns at most limit runes of the plain text of source, cut at a word
// boundary and suffixed with an ellipsis when shortened.
func Excerpt(source string, limit int) (string, error) {
	text, err := PlainText(source)
	if err != nil {
		return "", err
	}
	if limit <= 0 {
		limit = DefaultExcerptLength
	}
	if utf8.RuneCountInString(text) <= limit {
		return text, nil
	}

	runes := []rune(text)
	cut := string(runes[:limit])
	if idx := strings.LastIndexByte(cut, ' '); idx > 0 {
		cut = cut[:idx]
	}
	return strings.TrimRight(cut, " .,;:") + "…", nil
}

var inlineTags = map[string]bool{
	"a": true, "b": true, "code": true, "del": true, "em": true,
	"i": true, "span": true, "strong": true,
}

func isHidden(tag string) bool {
	return tag == "script" || tag == "style"
}
