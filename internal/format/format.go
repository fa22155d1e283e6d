// Package format holds the special characters of the message file format.
//
// The seeker uses the delimiter and the escape byte; the tokenizer uses all
// four. Both are configured from the same Syntax value.
package format

// Syntax is the set of special characters understood by the message file
// format. All of them are single ASCII bytes.
type Syntax struct {
	Delimiter byte // ends a record
	Escape    byte // makes the next special character literal
	RefOpen   byte // opens a resource reference
	RefClose  byte // closes a resource reference
}

// Default is the syntax used by motd files: records end with '%', and
// resource references are written as [path/to/image.png].
var Default = Syntax{
	Delimiter: '%',
	Escape:    '\\',
	RefOpen:   '[',
	RefClose:  ']',
}

// WithDelimiter returns a copy of s using d as the record delimiter.
func (s Syntax) WithDelimiter(d byte) Syntax {
	s.Delimiter = d
	return s
}

// Escapable reports whether r may follow the escape character.
func (s Syntax) Escapable(r rune) bool {
	switch r {
	case rune(s.Escape), rune(s.RefOpen), rune(s.RefClose), rune(s.Delimiter):
		return true
	}
	return false
}
