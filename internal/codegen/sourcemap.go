package codegen

import (
	"encoding/json"
	"strings"

	"github.com/hyperpolymath/betlang/internal/ast"
)

// entry is one (generated position) -> (source span) mapping. Per §9's
// resolved Open Question, this is deliberately the "minimal JSON array"
// extension rather than full VLQ-encoded Source Map v3 — source-map
// fidelity is out of scope, but the spans are already on every AST
// node, so recording them costs nothing extra at emit time.
type entry struct {
	GeneratedLine   int `json:"generatedLine"`
	GeneratedColumn int `json:"generatedColumn"`
	SourceStart     int `json:"sourceStart"`
	SourceEnd       int `json:"sourceEnd"`
}

// sourceMapBuilder accumulates entries as the generator writes JS text,
// tracking line/column by counting newlines already emitted.
type sourceMapBuilder struct {
	entries []entry
}

// mark records that the text about to be appended at the current
// generated position corresponds to span.
func (b *sourceMapBuilder) mark(buf *strings.Builder, span ast.Span) {
	line, col := lineCol(buf.String())
	b.entries = append(b.entries, entry{
		GeneratedLine:   line,
		GeneratedColumn: col,
		SourceStart:     span.Start,
		SourceEnd:       span.End,
	})
}

func lineCol(s string) (line, col int) {
	line = strings.Count(s, "\n")
	if idx := strings.LastIndexByte(s, '\n'); idx >= 0 {
		col = len(s) - idx - 1
	} else {
		col = len(s)
	}
	return line, col
}

func (b *sourceMapBuilder) json() (string, error) {
	out, err := json.Marshal(b.entries)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
