package inline

import (
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
	"github.com/walteh/jsemit/pkg/position"
	"gitlab.com/tozd/go/errors"
)

var (
	// Rule order matters: the first rule that matches wins.
	templateLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Placeholder", Pattern: `\{\*?\w+(?::\w+)?\}`},
		{Name: "Unterminated", Pattern: `\{\*?\w+(?::\w*)?$`},
		{Name: "BadSplice", Pattern: `\{\*[^}]*\}?`},
		{Name: "Text", Pattern: `[^{]+`},
		{Name: "Brace", Pattern: `\{`},
	})

	tokenPlaceholder  = templateLexer.Symbols()["Placeholder"]
	tokenUnterminated = templateLexer.Symbols()["Unterminated"]
	tokenBadSplice    = templateLexer.Symbols()["BadSplice"]
)

// Key is what a placeholder refers to. It is one of Positional, Named or
// ThisRef.
type Key interface {
	String() string
	isKey()
}

type Positional struct{ Index int }

type Named struct{ Name string }

type ThisRef struct{}

func (k Positional) String() string { return strconv.Itoa(k.Index) }
func (k Named) String() string      { return k.Name }
func (ThisRef) String() string      { return "this" }

func (Positional) isKey() {}
func (Named) isKey()      {}
func (ThisRef) isKey()    {}

type Modifier int

const (
	ModifierNone Modifier = iota
	// ModifierRaw strips the quotes of a string literal argument.
	ModifierRaw
	// ModifierType renders the type of the referenced value.
	ModifierType
	// ModifierArray forces a params reference to be wrapped as an array.
	ModifierArray
)

var modifiers = map[string]Modifier{
	"raw":   ModifierRaw,
	"type":  ModifierType,
	"array": ModifierArray,
}

func (m Modifier) String() string {
	switch m {
	case ModifierRaw:
		return "raw"
	case ModifierType:
		return "type"
	case ModifierArray:
		return "array"
	default:
		return ""
	}
}

type Placeholder struct {
	Key Key
	// Splice is set by the * prefix: a params reference is spliced bare
	// instead of being wrapped as an array.
	Splice   bool
	Modifier Modifier
	// Source is the token as written, braces included.
	Source string
	Pos    lexer.Position
}

// Segment is either literal text or a placeholder.
type Segment struct {
	Text        string
	Placeholder *Placeholder
}

type Template struct {
	Source   string
	Segments []Segment
}

// Placeholders returns the placeholders in template order.
func (t *Template) Placeholders() []*Placeholder {
	var out []*Placeholder
	for _, seg := range t.Segments {
		if seg.Placeholder != nil {
			out = append(out, seg.Placeholder)
		}
	}
	return out
}

// Parse splits a template into literal text and placeholders. A brace that
// does not open a placeholder is kept as text, so templates can carry
// JavaScript blocks and object literals.
func Parse(source string) (*Template, error) {
	lex, err := templateLexer.LexString("", source)
	if err != nil {
		return nil, errors.Errorf("lexing template %q: %w", source, err)
	}

	tokens, err := lexer.ConsumeAll(lex)
	if err != nil {
		return nil, errors.Errorf("lexing template %q: %w", source, err)
	}

	tmpl := &Template{Source: source}
	for _, tok := range tokens {
		if tok.EOF() {
			break
		}

		switch tok.Type {
		case tokenPlaceholder:
			ph, ok, err := parsePlaceholder(source, tok)
			if err != nil {
				return nil, err
			}
			if !ok {
				tmpl.appendText(tok.Value)
				continue
			}
			tmpl.Segments = append(tmpl.Segments, Segment{Placeholder: ph})
		case tokenUnterminated:
			return nil, syntaxError(source, tok, "placeholder is not closed")
		case tokenBadSplice:
			return nil, syntaxError(source, tok, "malformed splice placeholder")
		default:
			tmpl.appendText(tok.Value)
		}
	}

	return tmpl, nil
}

func (t *Template) appendText(text string) {
	if n := len(t.Segments); n > 0 && t.Segments[n-1].Placeholder == nil {
		t.Segments[n-1].Text += text
		return
	}
	t.Segments = append(t.Segments, Segment{Text: text})
}

// parsePlaceholder decodes a token matched by the Placeholder rule. A token
// with an unknown modifier and no splice prefix is not a placeholder.
func parsePlaceholder(source string, tok lexer.Token) (*Placeholder, bool, error) {
	body := tok.Value[1 : len(tok.Value)-1]

	ph := &Placeholder{Source: tok.Value, Pos: tok.Pos}
	if strings.HasPrefix(body, "*") {
		ph.Splice = true
		body = body[1:]
	}

	key, mod, hasMod := strings.Cut(body, ":")
	if hasMod {
		m, ok := modifiers[mod]
		if !ok {
			if ph.Splice {
				return nil, false, syntaxError(source, tok, "unknown modifier "+strconv.Quote(mod))
			}
			return nil, false, nil
		}
		ph.Modifier = m
	}

	switch {
	case key == "this":
		ph.Key = ThisRef{}
	case isDigits(key):
		idx, err := strconv.Atoi(key)
		if err != nil {
			return nil, false, syntaxError(source, tok, "argument index out of range")
		}
		ph.Key = Positional{Index: idx}
	default:
		ph.Key = Named{Name: key}
	}

	return ph, true, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func syntaxError(source string, tok lexer.Token, reason string) error {
	return errors.WithStack(&TemplateError{
		Err:      ErrTemplateSyntax,
		Template: source,
		Reason:   reason,
		Token:    position.NewBasicPosition(tok.Value, tok.Pos.Offset),
		Line:     tok.Pos.Line,
		Column:   tok.Pos.Column,
	})
}
