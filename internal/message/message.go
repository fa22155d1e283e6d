// Package message splits the text of one entry into literal text runs and
// resource references.
//
// Grammar, with the default syntax:
//
//	hello [images/cat.png] world     Text, Resource, Text
//	100\% sure \[not a path\]         Text("100% sure [not a path]")
//
// The escape character may only precede itself, a bracket or the record
// delimiter.
package message

import (
	"strings"

	"motd/internal/format"
)

// Kind tags a Token.
type Kind int

const (
	Text Kind = iota
	Resource
)

func (k Kind) String() string {
	switch k {
	case Resource:
		return "resource"
	default:
		return "text"
	}
}

// Token is a literal run of text or the path inside a resource reference.
type Token struct {
	Kind  Kind
	Value string
}

// TextToken returns a Text token holding s.
func TextToken(s string) Token { return Token{Kind: Text, Value: s} }

// ResourceToken returns a Resource token holding path.
func ResourceToken(path string) Token { return Token{Kind: Resource, Value: path} }

// Parser tokenizes messages. The zero value is not usable; use NewParser.
type Parser struct {
	syntax format.Syntax
}

// NewParser returns a Parser for syntax.
func NewParser(syntax format.Syntax) *Parser {
	return &Parser{syntax: syntax}
}

// Parse tokenizes msg with the default syntax.
func Parse(msg string) ([]Token, error) {
	return NewParser(format.Default).Parse(msg)
}

// Parse tokenizes msg. Tokens come out in source order; an empty text run
// never produces a token, an empty reference does.
func (p *Parser) Parse(msg string) ([]Token, error) {
	var tokens []Token
	var st state = &scanning{}

	for pos, r := range msg {
		next, tok, err := st.step(p.syntax, pos, r)
		if err != nil {
			return nil, err
		}
		if tok != nil {
			tokens = append(tokens, *tok)
		}
		st = next
	}

	s, ok := st.(*scanning)
	if !ok {
		return nil, ErrUnexpectedEnd
	}
	if s.buf.Len() > 0 {
		tokens = append(tokens, TextToken(s.buf.String()))
	}
	return tokens, nil
}

// ---------- parser states ----------

type state interface {
	step(syn format.Syntax, pos int, r rune) (state, *Token, error)
}

// accumulator is a state that collects characters and can be suspended by
// an escape.
type accumulator interface {
	state
	push(r rune)
}

type scanning struct{ buf strings.Builder }

type inReference struct{ buf strings.Builder }

// escaped holds the state it interrupted.
type escaped struct{ resume accumulator }

func (s *scanning) push(r rune)    { s.buf.WriteRune(r) }
func (s *inReference) push(r rune) { s.buf.WriteRune(r) }

func (s *scanning) step(syn format.Syntax, pos int, r rune) (state, *Token, error) {
	switch r {
	case rune(syn.RefOpen):
		var tok *Token
		if s.buf.Len() > 0 {
			t := TextToken(s.buf.String())
			tok = &t
		}
		return &inReference{}, tok, nil
	case rune(syn.Escape):
		return &escaped{resume: s}, nil, nil
	case rune(syn.RefClose):
		return nil, nil, &ErrUnescapedChar{Char: r, Pos: pos}
	}
	s.push(r)
	return s, nil, nil
}

func (s *inReference) step(syn format.Syntax, pos int, r rune) (state, *Token, error) {
	switch r {
	case rune(syn.RefClose):
		t := ResourceToken(s.buf.String())
		return &scanning{}, &t, nil
	case rune(syn.Escape):
		return &escaped{resume: s}, nil, nil
	case rune(syn.RefOpen):
		return nil, nil, &ErrUnescapedChar{Char: r, Pos: pos}
	}
	s.push(r)
	return s, nil, nil
}

func (s *escaped) step(syn format.Syntax, pos int, r rune) (state, *Token, error) {
	if !syn.Escapable(r) {
		return nil, nil, &ErrInvalidEscape{Char: r, Pos: pos}
	}
	s.resume.push(r)
	return s.resume, nil, nil
}
