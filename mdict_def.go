//
// Copyright (C) 2023 Quan Chen <chenquan_act@163.com>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package mdict

import (
	"encoding/xml"
	"strconv"
	"strings"
)

// CompressionType is the compression applied to a single block.
type CompressionType uint8

const (
	// CompressionNone stores the payload verbatim.
	CompressionNone CompressionType = iota
	// CompressionLZO is recognised but cannot be decoded.
	CompressionLZO
	// CompressionZlib is a zlib (RFC 1950) stream.
	CompressionZlib
)

func (t CompressionType) String() string {
	switch t {
	case CompressionNone:
		return "none"
	case CompressionLZO:
		return "lzo"
	case CompressionZlib:
		return "zlib"
	}
	return "CompressionType(" + strconv.Itoa(int(t)) + ")"
}

// raw 4-byte tags at the start of every block
var (
	tagNone = [4]byte{0x00, 0x00, 0x00, 0x00}
	tagLZO  = [4]byte{0x01, 0x00, 0x00, 0x00}
	tagZlib = [4]byte{0x02, 0x00, 0x00, 0x00}
)

const (
	// blockHeaderSize is the compression tag plus the big-endian adler32.
	blockHeaderSize = 8
	// keywordSectionHeaderSize covers the five 8-byte counters.
	keywordSectionHeaderSize = 8 * 5
	// keywordSectionPrefixSize adds the 4-byte checksum of the counters.
	keywordSectionPrefixSize = keywordSectionHeaderSize + 4
)

// EncryptFlags holds the bits of the header's Encrypted attribute.
type EncryptFlags uint8

const (
	// EncryptHeader means the keyword section counters are encrypted with a
	// registration key.
	EncryptHeader EncryptFlags = 1 << iota
	// EncryptIndexMate means the keyword index mate block is encrypted.
	EncryptIndexMate
)

// HeaderEncrypted reports whether the low bit is set.
func (f EncryptFlags) HeaderEncrypted() bool { return f&EncryptHeader != 0 }

// IndexMateEncrypted reports whether the second bit is set.
func (f EncryptFlags) IndexMateEncrypted() bool { return f&EncryptIndexMate != 0 }

// HeaderAttributes are the attributes of the root element of the metadata XML.
type HeaderAttributes struct {
	XMLName                  xml.Name
	GeneratedByEngineVersion string `xml:"GeneratedByEngineVersion,attr"`
	RequiredEngineVersion    string `xml:"RequiredEngineVersion,attr"`
	Format                   string `xml:"Format,attr"`
	KeyCaseSensitive         string `xml:"KeyCaseSensitive,attr"`
	Encrypted                string `xml:"Encrypted,attr"`
	Encoding                 string `xml:"Encoding,attr"`
	Title                    string `xml:"Title,attr"`
	Description              string `xml:"Description,attr"`
	CreationDate             string `xml:"CreationDate,attr"`
}

// EncryptFlags interprets the Encrypted attribute. "Yes" is the legacy
// spelling of the low bit.
func (a *HeaderAttributes) EncryptFlags() EncryptFlags {
	v := strings.TrimSpace(a.Encrypted)
	switch v {
	case "", "No":
		return 0
	case "Yes":
		return EncryptHeader
	}
	n, err := strconv.ParseUint(v, 10, 8)
	if err != nil {
		return 0
	}
	return EncryptFlags(n) & (EncryptHeader | EncryptIndexMate)
}

// SectionHeader is the leading metadata section of the file.
type SectionHeader struct {
	// XML is the metadata text decoded from UTF-16LE.
	XML string
	// Checksum is the adler32 stored after the encoded text.
	Checksum uint32
	// Offset is the absolute offset of the section's length field.
	Offset int64
	// EndOffset is the absolute offset of the first byte after the section.
	EndOffset int64

	Attributes HeaderAttributes
}

// KeywordSectionMeta describes the keyword section and its index blocks.
type KeywordSectionMeta struct {
	NumIndex                 uint64
	NumKeyword               uint64
	LenIndexMateUncompressed uint64
	LenIndexMateCompressed   uint64
	LenIndexes               uint64

	IndexMates []KeywordIndexMate

	// Offset is where the section starts; EndOffset is the first byte after
	// the last keyword index block, where the record section begins.
	Offset    int64
	EndOffset int64
}

// KeywordIndexMate describes one keyword index block.
type KeywordIndexMate struct {
	NumKeyword  uint64
	LenComp     uint64
	LenUnco     uint64
	HeadKeyword []byte
	TailKeyword []byte
}

// KeywordPair maps a keyword to the offset of its record in the
// decompressed record section.
type KeywordPair struct {
	Keyword  []byte
	Position uint64
}
