package telegram

import (
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

// Split breaks text into chunks of at most max runes.
// Paragraphs ending in a blank line stay in one chunk; a paragraph longer
// than max is packed by lines, and a line longer than max is cut by runes.
func Split(text string, max int) []string {
	if max <= 0 {
		max = DefaultMaxChunk
	}
	if utf8.RuneCountInString(text) <= max {
		return []string{text}
	}

	p := &packer{max: max}
	for _, para := range strings.SplitAfter(text, "\n\n") {
		n := utf8.RuneCountInString(para)
		if n == 0 {
			continue
		}
		if p.fits(n) {
			p.write(para, n)
			continue
		}

		p.flush()
		if n <= max {
			p.write(para, n)
			continue
		}
		for _, line := range strings.SplitAfter(para, "\n") {
			p.writeLine(line)
		}
	}
	p.flush()

	return p.chunks
}

type packer struct {
	max    int
	chunks []string
	cur    strings.Builder
	curLen int
}

func (p *packer) fits(n int) bool {
	return p.curLen+n <= p.max
}

func (p *packer) write(s string, n int) {
	p.cur.WriteString(s)
	p.curLen += n
}

func (p *packer) flush() {
	if p.curLen > 0 {
		p.chunks = append(p.chunks, p.cur.String())
		p.cur.Reset()
		p.curLen = 0
	}
}

func (p *packer) writeLine(line string) {
	n := utf8.RuneCountInString(line)
	if n == 0 {
		return
	}
	if p.fits(n) {
		p.write(line, n)
		return
	}

	p.flush()
	for n > p.max {
		runes := []rune(line)
		p.chunks = append(p.chunks, string(runes[:p.max]))
		line = string(runes[p.max:])
		n -= p.max
	}
	p.write(line, n)
}

// PlainText strips HTML tags and decodes entities
func PlainText(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return html
	}
	return doc.Text()
}
