package web

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/robinvdvleuten/hstr/scanner"
)

// ErrorJSON represents a load error in JSON format.
type ErrorJSON struct {
	Type     string         `json:"type"`
	Message  string         `json:"message"`
	Position *PositionJSON  `json:"position,omitempty"`
	Details  map[string]any `json:"details,omitempty"`
}

// PositionJSON represents a file position in JSON format.
type PositionJSON struct {
	Filename string `json:"filename"`
	Line     int    `json:"line"`
	Column   int    `json:"column"`
}

// toErrorJSON converts an error to ErrorJSON. Wrapped errors are searched
// for a position or a failing path.
func toErrorJSON(err error) *ErrorJSON {
	if err == nil {
		return nil
	}

	errJSON := &ErrorJSON{
		Type:    fmt.Sprintf("%T", err),
		Message: err.Error(),
	}

	var utf8Err *scanner.InvalidUTF8Error
	var pathErr *fs.PathError
	switch {
	case errors.As(err, &utf8Err):
		errJSON.Type = fmt.Sprintf("%T", utf8Err)
		errJSON.Position = &PositionJSON{
			Filename: utf8Err.Filename,
			Line:     utf8Err.Line,
			Column:   utf8Err.Column,
		}
	case errors.As(err, &pathErr):
		errJSON.Type = fmt.Sprintf("%T", pathErr)
		errJSON.Details = map[string]any{
			"op":   pathErr.Op,
			"path": pathErr.Path,
		}
	}

	return errJSON
}
