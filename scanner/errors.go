package scanner

import "fmt"

// InvalidUTF8Error reports malformed UTF-8 inside an identifier or string.
type InvalidUTF8Error struct {
	Filename string
	Line     int
	Column   int
}

func (e *InvalidUTF8Error) Error() string {
	location := fmt.Sprintf("%s:%d:%d", e.Filename, e.Line, e.Column)
	if e.Filename == "" {
		location = fmt.Sprintf("line %d, column %d", e.Line, e.Column)
	}
	return fmt.Sprintf("%s: invalid UTF-8 encoding", location)
}
