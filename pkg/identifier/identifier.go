// Package identifier keeps synthetic names from colliding with JavaScript
// reserved words and runtime globals.
package identifier

// Prefix is prepended to a reserved name to make it usable.
const Prefix = "$"

var reserved = map[string]struct{}{}

func init() {
	for _, w := range []string{
		// keywords
		"break", "case", "catch", "class", "const", "continue", "debugger", "default", "delete",
		"do", "else", "enum", "export", "extends", "false", "finally", "for", "function", "if",
		"implements", "import", "in", "instanceof", "interface", "let", "new", "null", "package",
		"private", "protected", "public", "return", "static", "super", "switch", "this", "throw",
		"true", "try", "typeof", "var", "void", "while", "with", "yield", "await",
		// future reserved in older editions
		"abstract", "boolean", "byte", "char", "double", "final", "float", "goto", "int", "long",
		"native", "short", "synchronized", "throws", "transient", "volatile",
		// globals an emitted parameter must not shadow
		"arguments", "eval", "undefined", "NaN", "Infinity", "Object", "Array", "Function",
		"String", "Number", "Boolean", "Math", "Date", "RegExp", "Error", "JSON", "window",
		"document", "Bridge",
	} {
		reserved[w] = struct{}{}
	}
}

func IsReserved(name string) bool {
	_, ok := reserved[name]
	return ok
}

// Rename returns name with Prefix prepended.
func Rename(name string) string {
	return Prefix + name
}

// Safe returns name unchanged unless it is reserved, in which case it is
// renamed. The result is stable for the same input.
func Safe(name string) string {
	if IsReserved(name) {
		return Rename(name)
	}
	return name
}
