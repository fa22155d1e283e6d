package message

import (
	"errors"
	"fmt"
)

// ErrUnexpectedEnd is returned when a message ends inside a resource
// reference or right after an escape character.
var ErrUnexpectedEnd = errors.New("unexpected end of message, ensure references are closed")

// ErrInvalidEscape reports an escape character followed by something that
// cannot be escaped.
type ErrInvalidEscape struct {
	Char rune
	Pos  int // byte offset of Char
}

func (e *ErrInvalidEscape) Error() string {
	return fmt.Sprintf("invalid escape sequence '\\%c' at offset %d", e.Char, e.Pos)
}

// ErrUnescapedChar reports a bracket that is not valid where it appears.
type ErrUnescapedChar struct {
	Char rune
	Pos  int
}

func (e *ErrUnescapedChar) Error() string {
	return fmt.Sprintf("unescaped '%c' character at offset %d", e.Char, e.Pos)
}
