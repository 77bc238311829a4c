// Package report builds the human-readable reason.md summary and lays
// out a crash/accident directory exactly as spec.md 6.3 describes.
package report

import (
	"strings"
)

// Markdown incrementally builds a Markdown document using Setext-style
// (underlined) headings, mirroring the original reporter's builder API.
type Markdown struct {
	content strings.Builder
}

// NewMarkdown starts a document with title as its top-level ("=")
// heading.
func NewMarkdown(title string) *Markdown {
	m := &Markdown{}
	m.writeUnderlined(title, '=')
	return m
}

// Heading appends a second-level ("-") heading.
func (m *Markdown) Heading(text string) *Markdown {
	m.writeUnderlined(text, '-')
	return m
}

func (m *Markdown) writeUnderlined(text string, rule byte) {
	text = strings.ReplaceAll(text, "\n", " ")
	m.content.WriteString(text)
	m.content.WriteByte('\n')
	m.content.WriteString(strings.Repeat(string(rule), len(text)))
	m.content.WriteString("\n\n")
}

// Paragraph appends a trimmed paragraph, treating single newlines as
// paragraph breaks.
func (m *Markdown) Paragraph(text string) *Markdown {
	text = strings.ReplaceAll(strings.TrimSpace(text), "\n", "\n\n")
	m.content.WriteString(text)
	m.content.WriteString("\n\n")
	return m
}

// Language names a fenced code block's syntax-highlighting hint,
// sanitized so it can never itself contain a fence.
type Language string

// Lang builds a Language from a raw string, escaping any backtick so it
// cannot break out of the fence it is embedded in.
func Lang(raw string) Language {
	return Language(strings.ReplaceAll(raw, "`", "?"))
}

// Codeblock appends a fenced code block; any literal triple-backtick
// inside code is escaped so it cannot prematurely close the fence.
func (m *Markdown) Codeblock(lang Language, code string) *Markdown {
	code = strings.ReplaceAll(code, "```", "???")
	m.content.WriteString("```")
	m.content.WriteString(string(lang))
	m.content.WriteByte('\n')
	m.content.WriteString(code)
	m.content.WriteString("\n```\n\n")
	return m
}

func (m *Markdown) String() string {
	return m.content.String()
}
