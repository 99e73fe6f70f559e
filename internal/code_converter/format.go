package code_converter

import (
	"strings"
)

const indentUnit = "    "

// mainWrappedLanguages get a synthesized main() when the model omits one.
var mainWrappedLanguages = map[string]bool{
	"c":    true,
	"cpp":  true,
	"c++":  true,
	"java": true,
}

func needsMain(targetLang string) bool {
	return mainWrappedLanguages[strings.ToLower(strings.TrimSpace(targetLang))]
}

// FormatOutput applies the post-processing pass to raw model output.
func FormatOutput(raw, targetLang string) string {
	if needsMain(targetLang) && !strings.Contains(strings.ToLower(raw), "int main") {
		return WrapInMain(raw)
	}
	return Reindent(raw)
}

// Reindent re-indents text by counting braces line by line. It does not parse
// the code: braces inside string literals count, several statements on one
// line are treated as one, and languages without braces come out flat.
func Reindent(text string) string {
	var b strings.Builder
	depth := 0

	for _, line := range strings.Split(text, "\n") {
		stripped := strings.TrimSpace(line)
		if stripped == "" {
			continue
		}

		if strings.HasPrefix(stripped, "}") {
			depth = max(0, depth-1)
		}

		b.WriteString(strings.Repeat(indentUnit, depth))
		b.WriteString(stripped)
		b.WriteByte('\n')

		if strings.Contains(stripped, "{") {
			depth++
		} else if strings.HasPrefix(stripped, "int main") {
			// brace expected on the next line
			depth++
		}
	}

	return strings.TrimSpace(b.String())
}

// WrapInMain splits text into statements on semicolons and places them inside
// a C-style main function.
func WrapInMain(text string) string {
	var b strings.Builder
	b.WriteString("#include <stdio.h>\n")
	b.WriteString("int main() {\n")

	for _, stmt := range strings.Split(strings.ReplaceAll(text, ";", ";\n"), "\n") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		b.WriteString(indentUnit)
		b.WriteString(stmt)
		b.WriteByte('\n')
	}

	b.WriteString(indentUnit + "return 0;\n")
	b.WriteString("}")
	return b.String()
}
