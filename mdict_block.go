package mdict

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/adler32"
	"io"
	"math"

	"github.com/klauspost/compress/zlib"
)

// errLengthExceeded is wrapped by length IntegrityErrors raised before the
// whole payload was decompressed.
var errLengthExceeded = errors.New("decoded data exceeds declared length")

// blockLocation identifies a block in error values.
type blockLocation struct {
	section string
	index   int
	offset  int64
}

// DecodeBlock decrypts (when encrypted is set), decompresses and verifies a
// single block, returning its payload.
func DecodeBlock(block []byte, encrypted bool) ([]byte, error) {
	return decodeBlock(block, encrypted, blockLocation{section: "block", index: noBlock}, nil)
}

// DecodeBlockSize is DecodeBlock for a block whose decoded length is known.
// Decompression stops once the payload grows past size.
func DecodeBlockSize(block []byte, encrypted bool, size uint64) ([]byte, error) {
	return decodeBlock(block, encrypted, blockLocation{section: "block", index: noBlock}, &size)
}

// decodeBlock decodes block. A non-nil declared is the expected payload
// length and bounds decompression.
func decodeBlock(block []byte, encrypted bool, loc blockLocation, declared *uint64) ([]byte, error) {
	if len(block) < blockHeaderSize {
		return nil, &MalformedLayoutError{
			Section: loc.section,
			Block:   loc.index,
			Offset:  loc.offset,
			Reason:  fmt.Sprintf("block of %d bytes is shorter than its %d byte header", len(block), blockHeaderSize),
		}
	}

	if encrypted {
		block = decryptBlock(block)
	}

	compression, ok := parseCompressionType(block[0:4])
	if !ok {
		return nil, &MalformedLayoutError{
			Section: loc.section,
			Block:   loc.index,
			Offset:  loc.offset,
			Reason:  fmt.Sprintf("unknown compression tag %x", block[0:4]),
		}
	}

	var payload []byte
	switch compression {
	case CompressionNone:
		payload = block[blockHeaderSize:]
	case CompressionZlib:
		out, err := inflate(block[blockHeaderSize:], declared)
		if err != nil {
			return nil, &IntegrityError{
				Section: loc.section,
				Block:   loc.index,
				Offset:  loc.offset,
				Check:   "inflate",
				Err:     err,
			}
		}
		payload = out
	case CompressionLZO:
		return nil, &UnsupportedCompressionError{
			Section:     loc.section,
			Block:       loc.index,
			Offset:      loc.offset,
			Compression: compression,
		}
	}

	if declared != nil && uint64(len(payload)) != *declared {
		err := &IntegrityError{
			Section:  loc.section,
			Block:    loc.index,
			Offset:   loc.offset,
			Check:    "length",
			Expected: *declared,
			Actual:   uint64(len(payload)),
		}
		if compression == CompressionZlib && uint64(len(payload)) > *declared {
			err.Err = errLengthExceeded
		}
		return nil, err
	}

	expected := binary.BigEndian.Uint32(block[4:8])
	if actual := adler32.Checksum(payload); actual != expected {
		return nil, &IntegrityError{
			Section:  loc.section,
			Block:    loc.index,
			Offset:   loc.offset,
			Check:    "adler32",
			Expected: uint64(expected),
			Actual:   uint64(actual),
		}
	}

	return payload, nil
}

func parseCompressionType(tag []byte) (CompressionType, bool) {
	switch [4]byte(tag) {
	case tagNone:
		return CompressionNone, true
	case tagLZO:
		return CompressionLZO, true
	case tagZlib:
		return CompressionZlib, true
	}
	return 0, false
}

// inflate decompresses data. With a declared length it reads at most one
// byte past it.
func inflate(data []byte, declared *uint64) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer r.Close()

	if declared == nil || *declared >= math.MaxInt64 {
		return io.ReadAll(r)
	}
	var buf bytes.Buffer
	buf.Grow(int(min(*declared, uint64(len(data))*4)))
	_, err = buf.ReadFrom(io.LimitReader(r, int64(*declared)+1))
	return buf.Bytes(), err
}
