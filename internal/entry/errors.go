package entry

import (
	"errors"
	"fmt"
)

// ErrCorrupt is wrapped by errors that mean the message file itself is
// damaged. Callers should abort instead of retrying.
var ErrCorrupt = errors.New("message file is corrupt")

// ErrInvalidUTF8 reports a record whose bytes are not valid UTF-8.
type ErrInvalidUTF8 struct {
	Index int
	Line  int
}

func (e *ErrInvalidUTF8) Error() string {
	return fmt.Sprintf("entry %d on line %d is not a valid utf8 string", e.Index, e.Line)
}

func (e *ErrInvalidUTF8) Unwrap() error { return ErrCorrupt }
