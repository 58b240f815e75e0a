package gif89

import (
	"errors"
	"fmt"
)

// ErrOutOfMemory exists for API parity with the fallible-allocation model
// this package is ported from, where a palette or extension buffer
// reservation can fail independently of the input's validity. Go's make
// has no fallible counterpart, so nothing in this package constructs or
// wraps ErrOutOfMemory; it is never returned.
var ErrOutOfMemory = errors.New("gif89: out of memory")

var errUninitializedLZWReader = errors.New("lzw reader not initialized")

var errAppendSinkUnsupported = errors.New("an append sink cannot be used while decompressing LZW data")

var errMissingEndCode = errors.New("no end code in lzw stream")

// FormatError reports a structural violation of the GIF grammar: bad magic
// bytes, an unsupported version, a malformed extension, an out-of-bounds
// frame, and so on. Once returned from Update, the decoder's state is not
// advanced and subsequent calls return the same or a follow-on FormatError.
type FormatError struct {
	Msg string
	Err error // optional underlying cause, may be nil
}

func (e *FormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("gif89: %s: %v", e.Msg, e.Err)
	}
	return fmt.Sprintf("gif89: %s", e.Msg)
}

func (e *FormatError) Unwrap() error { return e.Err }

func formatErrorf(format string, args ...any) error {
	return &FormatError{Msg: fmt.Sprintf(format, args...)}
}

// IOError wraps a transport failure: a short read from an underlying
// reader, a write error from an underlying writer, or a missing LZW
// end-of-information code when DecoderOptions.CheckForEndCode is set.
type IOError struct {
	Err error
}

func (e *IOError) Error() string { return fmt.Sprintf("gif89: %v", e.Err) }

func (e *IOError) Unwrap() error { return e.Err }

func ioError(err error) error {
	if err == nil {
		return nil
	}
	return &IOError{Err: err}
}
