package inline

import (
	"regexp"
	"strings"
)

var (
	// inlineMethod finds a call shaped region, name(args).
	inlineMethod = regexp.MustCompile(`([$\w.]+)\(\s*(.*)\)`)
	// trailingPlaceholder matches a placeholder that ends right where a
	// member access such as .push( begins.
	trailingPlaceholder = regexp.MustCompile(`\{\*?\w+(?::\w+)?\}$`)
)

// rewriteVariadic turns name(fixed, {*params}) into an apply call when the
// params argument is one array value passed in normal form, so its elements
// arrive at the call boundary as separate arguments:
//
//	name.apply(target, [fixed].concat(params))
//	name.apply(target, params)
//
// target is the part of name left of its last dot, or null.
func (x *expansion) rewriteVariadic(tmpl *Template) (string, bool) {
	if x.params == nil || x.args.Form != FormNormal {
		return "", false
	}

	var ref *Placeholder
	for _, ph := range tmpl.Placeholders() {
		if n, ok := ph.Key.(Named); ok && n.Name == x.params.Name {
			ref = ph
			break
		}
	}
	// a modifier asks for the argument as written
	if ref == nil || ref.Modifier != ModifierNone || !x.ignoreArray(ref) {
		return "", false
	}

	bound := x.lookup(ref.Key)
	if len(bound) != 1 || bound[0].Expr == nil || bound[0].Type == nil || !bound[0].Type.IsArray() {
		return "", false
	}

	source := tmpl.Source
	loc := inlineMethod.FindStringSubmatchIndex(source)
	if loc == nil {
		return "", false
	}

	start, end := loc[0], loc[1]
	name := source[loc[2]:loc[3]]
	args := source[loc[4]:loc[5]]

	// {this}.push({*items}): the receiver placeholder belongs to the name
	if strings.HasPrefix(name, ".") {
		if m := trailingPlaceholder.FindStringIndex(source[:start]); m != nil {
			name = source[m[0]:start] + name
			start = m[0]
		}
	}

	target := "null"
	if i := strings.LastIndex(name, "."); i > 0 {
		target = name[:i]
	}

	var sb strings.Builder
	sb.WriteString(name)
	sb.WriteString(".apply(")
	sb.WriteString(target)
	if i := strings.LastIndex(args, ","); i >= 0 {
		sb.WriteString(", [")
		sb.WriteString(strings.TrimSpace(args[:i]))
		sb.WriteString("].concat(")
		sb.WriteString(strings.TrimSpace(args[i+1:]))
		sb.WriteString(")")
	} else {
		sb.WriteString(", ")
		sb.WriteString(args)
	}
	sb.WriteString(")")

	return source[:start] + sb.String() + source[end:], true
}
