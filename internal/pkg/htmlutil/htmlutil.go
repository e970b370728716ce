// Package htmlutil flattens HTML fragments, such as calendar event
// descriptions, into plain text.
package htmlutil

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

var (
	spaceRunRE  = regexp.MustCompile(`[ \t\x{00A0}]+`)
	blankLineRE = regexp.MustCompile(`\n{3,}`)
)

// blockTags start a new line when opened or closed.
var blockTags = map[string]bool{
	"p": true, "div": true, "li": true, "tr": true, "blockquote": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"ul": true, "ol": true, "table": true,
}

// ToPlainText converts HTML to readable plain text. Entities are decoded,
// script and style bodies are dropped, and whitespace is collapsed.
// Plain input without markup passes through with only whitespace cleanup.
func ToPlainText(s string) string {
	if s == "" {
		return ""
	}

	var b strings.Builder
	skip := 0
	z := html.NewTokenizer(strings.NewReader(s))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return tidy(b.String())
		case html.TextToken:
			if skip == 0 {
				b.Write(z.Text())
			}
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			tag := string(name)
			switch {
			case tag == "script" || tag == "style":
				skip++
			case tag == "br" || blockTags[tag]:
				b.WriteByte('\n')
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			tag := string(name)
			switch {
			case tag == "script" || tag == "style":
				if skip > 0 {
					skip--
				}
			case blockTags[tag]:
				b.WriteByte('\n')
			}
		}
	}
}

func tidy(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(spaceRunRE.ReplaceAllString(line, " "))
	}
	text = strings.Join(lines, "\n")
	text = blankLineRE.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
