package extract

import (
	"math"
	"strings"

	"github.com/brunobiangulo/goprovenance/parser"
)

// Field is a metadata field resolved by the pipeline.
type Field string

const (
	FieldAuthor   Field = "author"
	FieldDate     Field = "date"
	FieldKeywords Field = "keywords"
)

// Fields lists the extracted fields in report order.
var Fields = []Field{FieldAuthor, FieldDate, FieldKeywords}

// Result is one strategy's scored answer for a field. Scalar fields carry
// Value; list fields carry Values. A result with neither is a miss and always
// has zero confidence.
type Result struct {
	Value       string   `json:"value,omitempty"`
	Values      []string `json:"values,omitempty"`
	SourceTag   string   `json:"source_tag,omitempty"`
	Confidence  float64  `json:"confidence"`
	ExtractorID string   `json:"extractor_id,omitempty"`
}

// Found reports whether the result carries a value.
func (r Result) Found() bool {
	return r.Value != "" || len(r.Values) > 0
}

// Scalar builds a single-valued result. Confidence is clamped to [0,1] and
// forced to 0 when value is blank.
func Scalar(extractorID, sourceTag, value string, confidence float64) Result {
	r := Result{
		Value:       strings.TrimSpace(value),
		SourceTag:   sourceTag,
		ExtractorID: extractorID,
	}
	r.Confidence = settle(r, confidence)
	return r
}

// List builds a list-valued result with blank entries removed and
// case-insensitive duplicates collapsed, keeping first occurrences.
func List(extractorID, sourceTag string, values []string, confidence float64) Result {
	r := Result{
		Values:      dedupeFold(values),
		SourceTag:   sourceTag,
		ExtractorID: extractorID,
	}
	r.Confidence = settle(r, confidence)
	return r
}

// Miss is the null result.
func Miss(extractorID, sourceTag string) Result {
	return Result{SourceTag: sourceTag, ExtractorID: extractorID}
}

func settle(r Result, confidence float64) float64 {
	if !r.Found() {
		return 0
	}
	switch {
	case confidence < 0 || math.IsNaN(confidence):
		return 0
	case confidence > 1:
		return 1
	}
	return confidence
}

func dedupeFold(values []string) []string {
	seen := make(map[string]bool, len(values))
	var out []string
	for _, v := range values {
		v = strings.Join(strings.Fields(v), " ")
		if v == "" {
			continue
		}
		key := strings.ToLower(v)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, v)
	}
	return out
}

// Document is the read-only context handed to every strategy.
type Document struct {
	Identifier string       `json:"identifier"`
	Section    SectionType  `json:"section_type"`
	Tree       *parser.Node `json:"-"`

	lines []string
}

// NewDocument classifies identifier and precomputes the body text lines
// shared by the free-text strategies.
func NewDocument(identifier string, tree *parser.Node) Document {
	return Document{
		Identifier: identifier,
		Section:    Classify(identifier),
		Tree:       tree,
		lines:      tree.Body().Lines(),
	}
}

// Lines returns the body text lines of the document.
func (d Document) Lines() []string {
	if d.lines != nil {
		return d.lines
	}
	return d.Tree.Body().Lines()
}

// Extractor is one independent extraction strategy for a single field.
// Implementations are stateless and never panic on malformed trees; a
// missing structure yields a Miss.
type Extractor interface {
	ID() string
	Field() Field
	SourceTag() string
	Extract(doc Document) Result
}

// info carries the fixed identity of a strategy and builds its results.
type info struct {
	id         string
	field      Field
	tag        string
	confidence float64
}

func (s info) ID() string        { return s.id }
func (s info) Field() Field      { return s.field }
func (s info) SourceTag() string { return s.tag }

func (s info) hit(value string) Result { return Scalar(s.id, s.tag, value, s.confidence) }
func (s info) hits(values []string) Result {
	return List(s.id, s.tag, values, s.confidence)
}
func (s info) miss() Result { return Miss(s.id, s.tag) }
