package output

import "strings"

// SetIndentUnit sets the text written per indentation level.
func (s *Stack) SetIndentUnit(unit string) {
	s.indentUnit = unit
}

func (s *Stack) Indent() {
	s.indent++
}

func (s *Stack) Outdent() {
	if s.indent > 0 {
		s.indent--
	}
}

func (s *Stack) Level() int {
	return s.indent
}

// IndentString re-indents every line after the first of text to the current
// level. Captured sub-expressions are rendered at level zero and get shifted
// here before being spliced into the enclosing output.
func (s *Stack) IndentString(text string) string {
	if s.indent == 0 || !strings.Contains(text, "\n") {
		return text
	}

	prefix := strings.Repeat(s.indentUnit, s.indent)
	lines := strings.Split(text, "\n")
	for i := 1; i < len(lines); i++ {
		if lines[i] == "" {
			continue
		}
		lines[i] = prefix + lines[i]
	}
	return strings.Join(lines, "\n")
}
