// Package entry indexes delimiter-terminated records in a message file and
// reads them back by index.
package entry

import (
	"fmt"
	"io"
	"iter"
	"strings"
	"unicode/utf8"

	"motd/internal/format"
)

const defaultBufSize = 1024

// Descriptor locates one record in the source. Length includes the
// delimiter byte. Line is the 1-based line of the record's first
// non-whitespace byte.
type Descriptor struct {
	Offset int64
	Length int64
	Line   int
}

// Record is a materialized entry: delimiter stripped, surrounding
// whitespace trimmed. Escapes are left in place for the tokenizer.
type Record struct {
	Text  string
	Line  int
	Index int
}

// Option configures a Seeker.
type Option func(*options)

type options struct {
	syntax  format.Syntax
	bufSize int
	cache   bool
}

// WithSyntax sets the special characters used to find record boundaries.
func WithSyntax(s format.Syntax) Option {
	return func(o *options) { o.syntax = s }
}

// WithBufferSize sets the chunk size of the indexing scan.
func WithBufferSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.bufSize = n
		}
	}
}

// WithCache keeps decoded records in memory after their first Get.
func WithCache() Option {
	return func(o *options) { o.cache = true }
}

// Seeker owns a seekable source and the record index built from it.
// A Seeker is not safe for concurrent use.
type Seeker struct {
	r     io.ReadSeeker
	index []Descriptor
	cache map[int]Record
}

// New scans r once from its current position and indexes every record
// terminated by an unescaped delimiter. Content after the last delimiter
// is not a record and is dropped.
func New(r io.ReadSeeker, opts ...Option) (*Seeker, error) {
	o := options{syntax: format.Default, bufSize: defaultBufSize}
	for _, opt := range opts {
		opt(&o)
	}

	base, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, fmt.Errorf("locate scan start: %w", err)
	}

	sc := newScanner(o.syntax, base)
	buf := make([]byte, o.bufSize)
	for {
		n, err := r.Read(buf)
		sc.feed(buf[:n])
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("index entries: %w", err)
		}
	}

	s := &Seeker{r: r, index: sc.index}
	if o.cache {
		s.cache = make(map[int]Record)
	}
	return s, nil
}

// Count returns the number of indexed records.
func (s *Seeker) Count() int { return len(s.index) }

// Descriptors returns the record index. The slice must not be modified.
func (s *Seeker) Descriptors() []Descriptor { return s.index }

// Get reads record i. With no records indexed it returns an empty Record
// for any i. Otherwise i must be in [0, Count()); anything else panics.
func (s *Seeker) Get(i int) (Record, error) {
	if len(s.index) == 0 {
		return Record{}, nil
	}
	if i < 0 || i >= len(s.index) {
		panic(fmt.Sprintf("entry: index %d out of range [0, %d)", i, len(s.index)))
	}
	if rec, ok := s.cache[i]; ok {
		return rec, nil
	}

	d := s.index[i]
	if _, err := s.r.Seek(d.Offset, io.SeekStart); err != nil {
		return Record{}, fmt.Errorf("seek entry %d: %w", i, err)
	}
	buf := make([]byte, d.Length)
	if _, err := io.ReadFull(s.r, buf); err != nil {
		return Record{}, fmt.Errorf("read entry %d: %w", i, err)
	}
	if !utf8.Valid(buf) {
		return Record{}, &ErrInvalidUTF8{Index: i, Line: d.Line}
	}

	text := string(buf)
	if len(text) > 0 {
		text = text[:len(text)-1]
	}
	rec := Record{Text: strings.TrimSpace(text), Line: d.Line, Index: i}
	if s.cache != nil {
		s.cache[i] = rec
	}
	return rec, nil
}

// All yields every record in index order. The sequence can be ranged over
// more than once; it stops at the first read error after yielding it.
func (s *Seeker) All() iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		for i := range s.index {
			rec, err := s.Get(i)
			if !yield(rec, err) || err != nil {
				return
			}
		}
	}
}

// IndexForLine returns the first record starting on or after line,
// saturating on the last record.
func (s *Seeker) IndexForLine(line int) int {
	idx := 0
	for i, d := range s.index {
		idx = i
		if d.Line >= line {
			break
		}
	}
	return idx
}

// Close releases the source if it is an io.Closer.
func (s *Seeker) Close() error {
	if c, ok := s.r.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// ---------- indexing scan ----------

type scanner struct {
	syntax format.Syntax
	index  []Descriptor

	offset int64 // start of the record in progress
	length int64
	line   int
	first  int // line of first non-whitespace byte, 0 when unset
	escape bool
}

func newScanner(syntax format.Syntax, base int64) *scanner {
	return &scanner{syntax: syntax, offset: base, line: 1}
}

func (sc *scanner) feed(p []byte) {
	for _, b := range p {
		sc.length++
		if sc.first == 0 && !isASCIISpace(b) {
			sc.first = sc.line
		}

		switch {
		case b == sc.syntax.Escape:
			sc.escape = true
		case b == '\n':
			sc.line++
			sc.escape = false
		case b == sc.syntax.Delimiter:
			if !sc.escape {
				sc.close()
			}
			sc.escape = false
		default:
			sc.escape = false
		}
	}
}

func (sc *scanner) close() {
	line := sc.first
	if line == 0 {
		line = sc.line
	}
	sc.index = append(sc.index, Descriptor{Offset: sc.offset, Length: sc.length, Line: line})
	sc.offset += sc.length
	sc.length = 0
	sc.first = 0
}

func isASCIISpace(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\f', '\r':
		return true
	}
	return false
}
