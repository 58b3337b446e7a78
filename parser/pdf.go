package parser

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"
)

// PDFParser turns a PDF into a flat tree: a <title> derived from the file
// stem and one <p> per text block, grouped under a <div class="page"> per page.
// PDFs carry no markup, so only path and free-text strategies find anything.
type PDFParser struct{}

func (p *PDFParser) SupportedFormats() []string { return []string{"pdf"} }

func (p *PDFParser) Parse(ctx context.Context, path string) (*Node, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening PDF: %w", err)
	}
	defer f.Close()

	body := &Node{Tag: "body"}
	totalPages := reader.NumPage()
	for i := 1; i <= totalPages; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			// Skip pages that fail to extract
			continue
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}

		pageNode := &Node{Tag: "div", Attrs: map[string]string{
			"class":     "page",
			"data-page": fmt.Sprintf("%d", i),
		}}
		for _, block := range splitBlocks(text) {
			tag := "p"
			if isLikelyHeading(block) {
				tag = "h2"
			}
			pageNode.Children = append(pageNode.Children, textElement(tag, block))
		}
		body.Children = append(body.Children, pageNode)
	}

	head := &Node{Tag: "head", Children: []*Node{textElement("title", titleFromStem(path))}}
	return &Node{Children: []*Node{{Tag: "html", Children: []*Node{head, body}}}}, nil
}

// titleFromStem turns "communist-manifesto.pdf" into "Communist Manifesto".
func titleFromStem(path string) string {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	words := strings.Fields(strings.NewReplacer("-", " ", "_", " ").Replace(stem))
	for i, w := range words {
		r := []rune(strings.ToLower(w))
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

// splitBlocks groups page lines into paragraphs separated by blank lines.
// Short heading-like lines always stand alone.
func splitBlocks(text string) []string {
	var blocks []string
	var cur []string
	flush := func() {
		if len(cur) > 0 {
			blocks = append(blocks, strings.Join(cur, " "))
			cur = nil
		}
	}
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			flush()
			continue
		}
		if isLikelyHeading(trimmed) {
			flush()
			blocks = append(blocks, trimmed)
			continue
		}
		cur = append(cur, trimmed)
	}
	flush()
	return blocks
}

func isLikelyHeading(line string) bool {
	// All caps and short
	if len(line) < 100 && line == strings.ToUpper(line) && strings.ToUpper(line) != strings.ToLower(line) && len(line) > 2 {
		return true
	}
	if len(line) < 120 {
		lower := strings.ToLower(line)
		if strings.HasPrefix(lower, "chapter ") || strings.HasPrefix(lower, "part ") ||
			strings.HasPrefix(lower, "section ") || strings.HasPrefix(lower, "preface") {
			return true
		}
	}
	return false
}

func textElement(tag, text string) *Node {
	return &Node{Tag: tag, Children: []*Node{{Tag: TextTag, Text: text}}}
}
