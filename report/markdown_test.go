package report_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/diffuzzer/diffuzzer/report"
)

func TestHeading(t *testing.T) {
	md := report.NewMarkdown("some\ntitle")
	md.Heading("some\nheading")
	expected := "some title\n==========\n\nsome heading\n------------\n\n"
	assert.Equal(t, expected, md.String())
}

func TestParagraph(t *testing.T) {
	md := report.NewMarkdown("foobar")
	md.Paragraph("\nfirst para\nsecond para\n")
	expected := "foobar\n======\n\nfirst para\n\nsecond para\n\n"
	assert.Equal(t, expected, md.String())
}

func TestCodeblock(t *testing.T) {
	md := report.NewMarkdown("foobar")
	md.Codeblock(report.Lang("python````"), "fizz()\n````\nbuzz()\n\n")
	expected := "foobar\n======\n\n```python????\nfizz()\n???`\nbuzz()\n\n\n```\n\n"
	assert.Equal(t, expected, md.String())
}
