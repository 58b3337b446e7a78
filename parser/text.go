package parser

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// TextParser handles plain text (.txt) files. Blank-line separated
// blocks become paragraphs; the title comes from the file stem.
type TextParser struct{}

func (p *TextParser) SupportedFormats() []string { return []string{"txt"} }

func (p *TextParser) Parse(ctx context.Context, path string) (*Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading text file: %w", err)
	}

	body := &Node{Tag: "body"}
	for _, para := range strings.Split(string(data), "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		body.Children = append(body.Children, textElement("p", para))
	}

	head := &Node{Tag: "head", Children: []*Node{textElement("title", titleFromStem(path))}}
	return &Node{Children: []*Node{{Tag: "html", Children: []*Node{head, body}}}}, nil
}
