package idx

import "fmt"

import "github.com/pkg/errors"

// FormatError reports a malformed or mismatched IDX dataset.
type FormatError struct {
	Path string
	Msg  string
}

func (e *FormatError) Error() string {
	if e.Path == "" {
		return "idx: " + e.Msg
	}
	return "idx: " + e.Path + ": " + e.Msg
}

// IOError reports an IDX file that could not be opened or read.
type IOError struct {
	Path string
	Err  error
}

func (e *IOError) Error() string {
	if e.Path == "" {
		return "idx: " + e.Err.Error()
	}
	return "idx: " + e.Path + ": " + e.Err.Error()
}

func (e *IOError) Unwrap() error {
	return e.Err
}

func formatErrorf(format string, args ...interface{}) error {
	return &FormatError{Msg: fmt.Sprintf(format, args...)}
}

// withPath attaches the file path to errors produced by the stream readers.
func withPath(err error, path string) error {
	var fe *FormatError
	if errors.As(err, &fe) && fe.Path == "" {
		fe.Path = path
		return fe
	}
	var ie *IOError
	if errors.As(err, &ie) && ie.Path == "" {
		ie.Path = path
		return ie
	}
	return err
}
