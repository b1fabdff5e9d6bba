package inline

import (
	"context"
	"fmt"
	"strings"

	"github.com/walteh/jsemit/pkg/output"
)

// Substitute expands template against a plain expression list, the form used
// for inline code attached to native declarations without a resolved member.
// A numeric key selects args by position, any other key selects the argument
// whose String() equals the key. Keys that match nothing expand to nothing.
func Substitute(ctx context.Context, w *output.Stack, template string, args []Expression) (string, error) {
	tmpl, err := Parse(template)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, seg := range tmpl.Segments {
		if seg.Placeholder == nil {
			sb.WriteString(seg.Text)
			continue
		}

		ph := seg.Placeholder
		expr := selectExpression(ph.Key, args)
		if expr == nil {
			continue
		}

		text, err := w.Capture(func() error {
			return renderInto(ctx, w, expr, ph.Modifier == ModifierRaw)
		})
		if err != nil {
			return "", err
		}
		sb.WriteString(text)
	}

	return sb.String(), nil
}

func selectExpression(key Key, args []Expression) Expression {
	switch k := key.(type) {
	case Positional:
		if k.Index < len(args) {
			return args[k.Index]
		}
	case Named, ThisRef:
		for _, a := range args {
			if s, ok := a.(fmt.Stringer); ok && s.String() == k.String() {
				return a
			}
		}
	}
	return nil
}
