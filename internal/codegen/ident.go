package codegen

import "strings"

// jsReserved is §4.5's reserved-word list; any identifier matching one
// of these gets an underscore prefix rather than colliding with JS
// syntax.
var jsReserved = map[string]bool{
	"break": true, "case": true, "catch": true, "class": true, "const": true,
	"continue": true, "debugger": true, "default": true, "delete": true,
	"do": true, "else": true, "export": true, "extends": true, "finally": true,
	"for": true, "function": true, "if": true, "import": true, "in": true,
	"instanceof": true, "let": true, "new": true, "return": true, "super": true,
	"switch": true, "this": true, "throw": true, "try": true, "typeof": true,
	"var": true, "void": true, "while": true, "with": true, "yield": true,
}

// sanitizeIdent implements §4.5's identifier sanitization: hyphens
// become underscores, primes become `$prime`, and reserved words gain
// a leading underscore.
func sanitizeIdent(name string) string {
	s := strings.ReplaceAll(name, "-", "_")
	s = strings.ReplaceAll(s, "'", "$prime")
	if jsReserved[s] {
		return "_" + s
	}
	return s
}
