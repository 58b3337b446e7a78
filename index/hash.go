package index

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"sort"

	"github.com/brunobiangulo/goprovenance/parser"
)

// ContentHash fingerprints a reference collection: SHA-256 over every
// identifier and its canonical tree serialization, in identifier order.
// Input order does not affect the result.
func ContentHash(refs []parser.Document) string {
	sorted := make([]parser.Document, len(refs))
	copy(sorted, refs)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Identifier < sorted[j].Identifier })

	h := sha256.New()
	for _, d := range sorted {
		io.WriteString(h, d.Identifier)
		h.Write([]byte{0})
		d.Root.WriteCanonical(h)
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
