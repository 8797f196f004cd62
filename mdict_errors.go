package mdict

import (
	"errors"
	"fmt"
)

var (
	// ErrIntegrity is matched by every *IntegrityError.
	ErrIntegrity = errors.New("mdict: integrity check failed")
	// ErrUnsupportedCompression is matched by every *UnsupportedCompressionError.
	ErrUnsupportedCompression = errors.New("mdict: unsupported compression")
	// ErrMalformedLayout is matched by every *MalformedLayoutError.
	ErrMalformedLayout = errors.New("mdict: malformed layout")
	// ErrKeywordNotFound is returned when a keyword is not in the index.
	ErrKeywordNotFound = errors.New("mdict: keyword not found")
)

// Section names used in error values.
const (
	SectionHeaderName    = "header"
	SectionKeywordName   = "keyword section"
	SectionIndexMateName = "keyword index mate block"
	SectionIndexName     = "keyword index block"
)

// noBlock marks errors that are not tied to a numbered index block.
const noBlock = -1

func location(section string, block int, offset int64) string {
	if block == noBlock {
		return fmt.Sprintf("%s at offset %d", section, offset)
	}
	return fmt.Sprintf("%s %d at offset %d", section, block, offset)
}

// IntegrityError reports a checksum, length or inflate failure.
type IntegrityError struct {
	Section string
	Block   int
	Offset  int64
	// Check is "adler32", "length" or "inflate".
	Check    string
	Expected uint64
	Actual   uint64
	Err      error
}

func (e *IntegrityError) Error() string {
	loc := location(e.Section, e.Block, e.Offset)
	switch e.Check {
	case "adler32":
		return fmt.Sprintf("mdict: %s: adler32 mismatch: expected %#08x, got %#08x", loc, e.Expected, e.Actual)
	case "inflate":
		return fmt.Sprintf("mdict: %s: inflate failed: %v", loc, e.Err)
	case "length":
		if e.Err != nil {
			return fmt.Sprintf("mdict: %s: %v %d", loc, e.Err, e.Expected)
		}
	}
	return fmt.Sprintf("mdict: %s: %s mismatch: expected %d, got %d", loc, e.Check, e.Expected, e.Actual)
}

func (e *IntegrityError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrIntegrity, e.Err}
	}
	return []error{ErrIntegrity}
}

// UnsupportedCompressionError is returned for recognised compression types
// that are not implemented.
type UnsupportedCompressionError struct {
	Section     string
	Block       int
	Offset      int64
	Compression CompressionType
}

func (e *UnsupportedCompressionError) Error() string {
	return fmt.Sprintf("mdict: %s: %s compression is not supported", location(e.Section, e.Block, e.Offset), e.Compression)
}

func (e *UnsupportedCompressionError) Unwrap() error { return ErrUnsupportedCompression }

// MalformedLayoutError reports a read outside the buffer or a length field
// that cannot describe a valid range.
type MalformedLayoutError struct {
	Section string
	Block   int
	Offset  int64
	Reason  string
}

func (e *MalformedLayoutError) Error() string {
	return fmt.Sprintf("mdict: %s: %s", location(e.Section, e.Block, e.Offset), e.Reason)
}

func (e *MalformedLayoutError) Unwrap() error { return ErrMalformedLayout }
