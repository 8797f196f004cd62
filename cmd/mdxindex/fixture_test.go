package main

import (
	"bytes"
	"encoding/binary"
	"hash/adler32"
	"os"
	"path/filepath"
	"testing"

	"github.com/c0mm4nd/go-ripemd"
	"github.com/klauspost/compress/zlib"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/unicode"
)

type testPair struct {
	keyword  string
	position uint64
}

// testBlocks spreads five keywords over two index blocks.
var testBlocks = [][]testPair{
	{{"able", 100}, {"abode", 180}, {"about", 250}},
	{{"bad", 400}, {"bag", 520}},
}

// writeTestMDX writes a dictionary with one uncompressed keyword index block
// per element of blocks and returns its path.
func writeTestMDX(t *testing.T, title string, blocks [][]testPair) string {
	t.Helper()

	xmlText := `<Dictionary GeneratedByEngineVersion="2.0" Encrypted="2" Encoding="UTF-8" Title="` + title + `"/>`
	xmlBytes, err := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewEncoder().Bytes([]byte(xmlText))
	require.NoError(t, err)
	buf := binary.BigEndian.AppendUint32(nil, uint32(len(xmlBytes)))
	buf = append(buf, xmlBytes...)
	buf = binary.LittleEndian.AppendUint32(buf, adler32.Checksum(xmlBytes))

	var mates, indexes []byte
	var numKeyword uint64
	for _, pairs := range blocks {
		var payload []byte
		for _, p := range pairs {
			payload = binary.BigEndian.AppendUint64(payload, p.position)
			payload = append(payload, p.keyword...)
			payload = append(payload, 0)
		}
		block := append([]byte{0, 0, 0, 0}, binary.BigEndian.AppendUint32(nil, adler32.Checksum(payload))...)
		block = append(block, payload...)
		indexes = append(indexes, block...)
		numKeyword += uint64(len(pairs))

		mates = binary.BigEndian.AppendUint64(mates, uint64(len(pairs)))
		for _, kw := range []string{pairs[0].keyword, pairs[len(pairs)-1].keyword} {
			mates = binary.BigEndian.AppendUint16(mates, uint16(len(kw)))
			mates = append(mates, kw...)
			mates = append(mates, 0)
		}
		mates = binary.BigEndian.AppendUint64(mates, uint64(len(block)))
		mates = binary.BigEndian.AppendUint64(mates, uint64(len(payload)))
	}
	mateBlock := encryptedZlibBlock(t, mates)

	var counters []byte
	for _, c := range []uint64{uint64(len(blocks)), numKeyword, uint64(len(mates)), uint64(len(mateBlock)), uint64(len(indexes))} {
		counters = binary.BigEndian.AppendUint64(counters, c)
	}
	buf = append(buf, counters...)
	buf = binary.BigEndian.AppendUint32(buf, adler32.Checksum(counters))
	buf = append(buf, mateBlock...)
	buf = append(buf, indexes...)

	path := filepath.Join(t.TempDir(), "fixture.mdx")
	require.NoError(t, os.WriteFile(path, buf, 0o644))
	return path
}

// encryptedZlibBlock compresses payload into a block and enciphers everything
// after the 8-byte block header.
func encryptedZlibBlock(t *testing.T, payload []byte) []byte {
	t.Helper()
	var compressed bytes.Buffer
	w := zlib.NewWriter(&compressed)
	_, err := w.Write(payload)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	block := append([]byte{2, 0, 0, 0}, binary.BigEndian.AppendUint32(nil, adler32.Checksum(payload))...)

	h := ripemd.New128()
	h.Write(block[4:8])
	h.Write([]byte{0x95, 0x36, 0, 0})
	key := h.Sum(nil)

	prev := byte(0x36)
	for i, p := range compressed.Bytes() {
		x := p ^ prev ^ byte(i) ^ key[i%len(key)]
		c := x>>4 | x<<4
		block = append(block, c)
		prev = c
	}
	return block
}
