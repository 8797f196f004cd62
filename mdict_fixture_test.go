package mdict

import (
	"bytes"
	"encoding/binary"
	"hash/adler32"
	"testing"

	"github.com/klauspost/compress/zlib"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/unicode"
)

// encryptBytes is the inverse of decrypt, used to build encrypted fixtures.
func encryptBytes(plain, key []byte) []byte {
	out := make([]byte, len(plain))
	prev := byte(cipherSeed)
	for i, p := range plain {
		t := p ^ prev ^ byte(i) ^ key[i%len(key)]
		c := t>>4 | t<<4
		out[i] = c
		prev = c
	}
	return out
}

func encryptBlock(block []byte) []byte {
	out := append([]byte(nil), block[:blockHeaderSize]...)
	return append(out, encryptBytes(block[blockHeaderSize:], deriveKey(block[4:8]))...)
}

func zlibCompress(t testing.TB, payload []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	_, err := w.Write(payload)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

// encodeBlock wraps payload in a block header with the given compression.
func encodeBlock(t testing.TB, compression CompressionType, payload []byte) []byte {
	t.Helper()
	var tag [4]byte
	var body []byte
	switch compression {
	case CompressionNone:
		tag, body = tagNone, payload
	case CompressionZlib:
		tag, body = tagZlib, zlibCompress(t, payload)
	case CompressionLZO:
		tag, body = tagLZO, payload
	}
	block := append([]byte(nil), tag[:]...)
	block = binary.BigEndian.AppendUint32(block, adler32.Checksum(payload))
	return append(block, body...)
}

func encodeHeader(t testing.TB, text string) []byte {
	t.Helper()
	xmlBytes, err := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewEncoder().Bytes([]byte(text))
	require.NoError(t, err)
	out := binary.BigEndian.AppendUint32(nil, uint32(len(xmlBytes)))
	out = append(out, xmlBytes...)
	return binary.LittleEndian.AppendUint32(out, adler32.Checksum(xmlBytes))
}

type fixturePair struct {
	keyword  string
	position uint64
}

type fixtureIndexBlock struct {
	head, tail  string
	pairs       []fixturePair
	compression CompressionType
}

func encodeIndexPayload(pairs []fixturePair) []byte {
	var out []byte
	for _, p := range pairs {
		out = binary.BigEndian.AppendUint64(out, p.position)
		out = append(out, p.keyword...)
		out = append(out, 0)
	}
	return out
}

func encodeMateEntry(numKeyword uint64, head, tail string, lenComp, lenUnco uint64) []byte {
	out := binary.BigEndian.AppendUint64(nil, numKeyword)
	out = binary.BigEndian.AppendUint16(out, uint16(len(head)))
	out = append(out, head...)
	out = append(out, 0)
	out = binary.BigEndian.AppendUint16(out, uint16(len(tail)))
	out = append(out, tail...)
	out = append(out, 0)
	out = binary.BigEndian.AppendUint64(out, lenComp)
	return binary.BigEndian.AppendUint64(out, lenUnco)
}

// keywordSection holds the pieces of an encoded keyword section so tests can
// tamper with them before assembly.
type keywordSection struct {
	counters    [5]uint64
	mateBlock   []byte
	indexBlocks [][]byte
}

func newKeywordSection(t testing.TB, blocks []fixtureIndexBlock) *keywordSection {
	t.Helper()
	ks := &keywordSection{}

	var mates []byte
	var numKeyword, lenIndexes uint64
	for _, b := range blocks {
		payload := encodeIndexPayload(b.pairs)
		encoded := encodeBlock(t, b.compression, payload)
		ks.indexBlocks = append(ks.indexBlocks, encoded)
		mates = append(mates, encodeMateEntry(uint64(len(b.pairs)), b.head, b.tail, uint64(len(encoded)), uint64(len(payload)))...)
		numKeyword += uint64(len(b.pairs))
		lenIndexes += uint64(len(encoded))
	}
	ks.mateBlock = encryptBlock(encodeBlock(t, CompressionZlib, mates))
	ks.counters = [5]uint64{
		uint64(len(blocks)),
		numKeyword,
		uint64(len(mates)),
		uint64(len(ks.mateBlock)),
		lenIndexes,
	}
	return ks
}

func (ks *keywordSection) bytes() []byte {
	var out []byte
	for _, c := range ks.counters {
		out = binary.BigEndian.AppendUint64(out, c)
	}
	out = binary.BigEndian.AppendUint32(out, adler32.Checksum(out))
	out = append(out, ks.mateBlock...)
	for _, b := range ks.indexBlocks {
		out = append(out, b...)
	}
	return out
}

func buildMDX(t testing.TB, xmlText string, blocks []fixtureIndexBlock) []byte {
	t.Helper()
	return append(encodeHeader(t, xmlText), newKeywordSection(t, blocks).bytes()...)
}

// twoBlockFixture has keywords spread over two zlib and uncompressed blocks.
func twoBlockFixture() []fixtureIndexBlock {
	return []fixtureIndexBlock{
		{
			head: "able", tail: "about",
			pairs:       []fixturePair{{"able", 100}, {"abode", 180}, {"about", 250}},
			compression: CompressionZlib,
		},
		{
			head: "bad", tail: "bag",
			pairs:       []fixturePair{{"bad", 400}, {"bag", 520}},
			compression: CompressionNone,
		},
	}
}
