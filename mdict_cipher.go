package mdict

import (
	"encoding/binary"

	"github.com/c0mm4nd/go-ripemd"
)

const (
	// keySalt is appended little-endian to the block checksum before hashing.
	keySalt = 0x3695
	// cipherSeed is the initial value of the previous-byte accumulator.
	cipherSeed = 0x36
)

// deriveKey returns the RIPEMD-128 of the 4 checksum bytes of a block
// followed by the salt.
func deriveKey(checksum []byte) []byte {
	var salt [4]byte
	binary.LittleEndian.PutUint32(salt[:], keySalt)

	h := ripemd.New128()
	h.Write(checksum)
	h.Write(salt[:])
	return h.Sum(nil)
}

// decryptByte deciphers the byte c at index i. prev is the ciphertext byte
// preceding c, or cipherSeed for the first byte.
func decryptByte(c, prev byte, i int, key []byte) byte {
	swapped := c>>4 | c<<4
	return swapped ^ prev ^ byte(i) ^ key[i%len(key)]
}

// decrypt deciphers src into a new slice. key must not be empty.
func decrypt(src, key []byte) []byte {
	dst := make([]byte, len(src))
	prev := byte(cipherSeed)
	for i, c := range src {
		dst[i] = decryptByte(c, prev, i, key)
		prev = c
	}
	return dst
}

// decryptBlock deciphers everything after the block header, keying on the
// checksum field which itself stays in clear.
func decryptBlock(block []byte) []byte {
	out := make([]byte, 0, len(block))
	out = append(out, block[:blockHeaderSize]...)
	return append(out, decrypt(block[blockHeaderSize:], deriveKey(block[4:8]))...)
}
