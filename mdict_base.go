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
	"fmt"
	"hash/adler32"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/encoding/unicode"
)

// readSectionHeader reads the length-prefixed UTF-16LE metadata XML at
// offset and verifies its little-endian adler32.
func readSectionHeader(buf []byte, offset int64) (*SectionHeader, error) {
	if offset < 0 || offset > int64(len(buf)) {
		return nil, &MalformedLayoutError{Section: SectionHeaderName, Block: noBlock, Offset: offset, Reason: "offset outside buffer"}
	}
	cur := newCursor(buf[offset:], offset, SectionHeaderName, noBlock)

	lenXML, err := cur.uint32BE()
	if err != nil {
		return nil, err
	}
	xmlBytes, err := cur.take(uint64(lenXML))
	if err != nil {
		return nil, err
	}
	checksum, err := cur.uint32LE()
	if err != nil {
		return nil, err
	}
	log.Debugf("Header: %d bytes of XML, stored adler32 %#08x", lenXML, checksum)

	if actual := adler32.Checksum(xmlBytes); actual != checksum {
		return nil, &IntegrityError{
			Section:  SectionHeaderName,
			Block:    noBlock,
			Offset:   offset,
			Check:    "adler32",
			Expected: uint64(checksum),
			Actual:   uint64(actual),
		}
	}

	text, err := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder().Bytes(xmlBytes)
	if err != nil {
		return nil, &MalformedLayoutError{Section: SectionHeaderName, Block: noBlock, Offset: offset + 4, Reason: fmt.Sprintf("decoding UTF-16LE: %v", err)}
	}

	header := &SectionHeader{
		XML:       string(text),
		Checksum:  checksum,
		Offset:    offset,
		EndOffset: cur.offset(),
	}
	if err := parseHeaderAttributes(header.XML, &header.Attributes); err != nil {
		log.Warningf("Header XML could not be parsed, attributes left empty: %v", err)
	}
	return header, nil
}

func parseHeaderAttributes(text string, attrs *HeaderAttributes) error {
	text = strings.TrimRight(text, "\x00\r\n ")
	// Some generators name the root Library_Data.
	text = strings.Replace(text, "Library_Data", "Dictionary", 1)

	d := xml.NewDecoder(strings.NewReader(escapeQuotedLT(text)))
	d.Strict = false
	return d.Decode(attrs)
}

// escapeQuotedLT escapes '<' inside quoted attribute values. Descriptions
// often carry raw HTML such as <br/>.
func escapeQuotedLT(text string) string {
	if !strings.Contains(text, "<") {
		return text
	}
	var b strings.Builder
	var quote rune
	for _, r := range text {
		switch {
		case quote != 0 && r == quote:
			quote = 0
		case quote == 0 && (r == '"' || r == '\''):
			quote = r
		case quote != 0 && r == '<':
			b.WriteString("&lt;")
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// checkEngineVersion rejects engines older than 2.0, whose keyword section
// uses 4-byte counters. A missing or unparsable version is accepted.
func checkEngineVersion(header *SectionHeader) error {
	v := header.Attributes.GeneratedByEngineVersion
	if v == "" {
		return nil
	}
	version, err := strconv.ParseFloat(strings.TrimSpace(v), 32)
	if err != nil {
		log.Warningf("Ignoring unparsable engine version %q", v)
		return nil
	}
	if version < 2.0 {
		return &MalformedLayoutError{
			Section: SectionHeaderName,
			Block:   noBlock,
			Offset:  header.Offset,
			Reason:  fmt.Sprintf("engine version %s uses 4-byte number fields", v),
		}
	}
	return nil
}

// readKeywordSection reads the keyword section at offset, its index mate
// block and every keyword index block, returning the pairs in file order.
func readKeywordSection(buf []byte, offset int64, opts *Options) (*KeywordSectionMeta, []KeywordPair, error) {
	if offset < 0 || offset > int64(len(buf)) {
		return nil, nil, &MalformedLayoutError{Section: SectionKeywordName, Block: noBlock, Offset: offset, Reason: "offset outside buffer"}
	}
	cur := newCursor(buf[offset:], offset, SectionKeywordName, noBlock)

	meta := &KeywordSectionMeta{Offset: offset}
	for _, field := range []*uint64{
		&meta.NumIndex,
		&meta.NumKeyword,
		&meta.LenIndexMateUncompressed,
		&meta.LenIndexMateCompressed,
		&meta.LenIndexes,
	} {
		v, err := cur.uint64BE()
		if err != nil {
			return nil, nil, err
		}
		*field = v
	}

	checksum, err := cur.uint32BE()
	if err != nil {
		return nil, nil, err
	}
	if actual := adler32.Checksum(buf[offset : offset+keywordSectionHeaderSize]); actual != checksum {
		return nil, nil, &IntegrityError{
			Section:  SectionKeywordName,
			Block:    noBlock,
			Offset:   offset,
			Check:    "adler32",
			Expected: uint64(checksum),
			Actual:   uint64(actual),
		}
	}
	log.Debugf("Keyword section at %d: %d index blocks, %d keywords, mate block %d/%d bytes, index data %d bytes",
		offset, meta.NumIndex, meta.NumKeyword, meta.LenIndexMateCompressed, meta.LenIndexMateUncompressed, meta.LenIndexes)

	mateOffset := cur.offset()
	mateRaw, err := cur.take(meta.LenIndexMateCompressed)
	if err != nil {
		return nil, nil, err
	}
	mateLoc := blockLocation{section: SectionIndexMateName, index: noBlock, offset: mateOffset}
	mateBlock, err := decodeBlock(mateRaw, true, mateLoc, &meta.LenIndexMateUncompressed)
	if err != nil {
		return nil, nil, err
	}

	meta.IndexMates, err = readKeywordIndexMates(mateBlock, meta.NumIndex, opts.TerminatorWidth)
	if err != nil {
		return nil, nil, err
	}

	var total uint64
	for _, m := range meta.IndexMates {
		total += m.LenComp
	}
	if total != meta.LenIndexes {
		return nil, nil, &MalformedLayoutError{
			Section: SectionKeywordName,
			Block:   noBlock,
			Offset:  offset + 32,
			Reason:  fmt.Sprintf("index blocks add up to %d bytes, section declares %d", total, meta.LenIndexes),
		}
	}

	spans := make([]blockLocation, len(meta.IndexMates))
	raws := make([][]byte, len(meta.IndexMates))
	for i, m := range meta.IndexMates {
		spans[i] = blockLocation{section: SectionIndexName, index: i, offset: cur.offset()}
		cur.block = i
		if raws[i], err = cur.take(m.LenComp); err != nil {
			return nil, nil, err
		}
	}
	meta.EndOffset = cur.offset()

	results := make([][]KeywordPair, len(meta.IndexMates))
	decodeOne := func(i int) error {
		pairs, err := decodeIndexBlock(raws[i], meta.IndexMates[i], spans[i], opts)
		results[i] = pairs
		return err
	}

	if opts.Workers <= 1 {
		for i := range raws {
			if err := decodeOne(i); err != nil {
				return nil, nil, err
			}
		}
	} else {
		var g errgroup.Group
		g.SetLimit(opts.Workers)
		for i := range raws {
			g.Go(func() error { return decodeOne(i) })
		}
		if err := g.Wait(); err != nil {
			return nil, nil, err
		}
	}

	var count int
	for _, r := range results {
		count += len(r)
	}
	pairs := make([]KeywordPair, 0, count)
	for _, r := range results {
		pairs = append(pairs, r...)
	}

	if opts.VerifyCounts && uint64(len(pairs)) != meta.NumKeyword {
		return nil, nil, &MalformedLayoutError{
			Section: SectionKeywordName,
			Block:   noBlock,
			Offset:  offset + 8,
			Reason:  fmt.Sprintf("decoded %d keywords, section declares %d", len(pairs), meta.NumKeyword),
		}
	}
	log.Debugf("Keyword section decoded: %d pairs, record section starts at %d", len(pairs), meta.EndOffset)

	return meta, pairs, nil
}

func decodeIndexBlock(raw []byte, mate KeywordIndexMate, loc blockLocation, opts *Options) ([]KeywordPair, error) {
	block, err := decodeBlock(raw, false, loc, &mate.LenUnco)
	if err != nil {
		return nil, err
	}
	pairs, err := extractKeywordPairs(block, mate.NumKeyword, opts.TerminatorWidth)
	if err != nil {
		return nil, fmt.Errorf("extracting keywords of block %d at offset %d: %w", loc.index, loc.offset, err)
	}
	return pairs, nil
}

// readKeywordIndexMates parses count back-to-back mate entries from a
// decoded mate block. Keyword lengths count characters of width bytes, and
// each keyword is followed by a width-byte terminator.
func readKeywordIndexMates(block []byte, count uint64, width int) ([]KeywordIndexMate, error) {
	cur := newCursor(block, 0, SectionIndexMateName, noBlock)

	minEntry := uint64(8 + 2 + width + 2 + width + 8 + 8)
	mates := make([]KeywordIndexMate, 0, min(count, uint64(len(block))/minEntry))
	for i := uint64(0); i < count; i++ {
		var m KeywordIndexMate
		var err error

		if m.NumKeyword, err = cur.uint64BE(); err != nil {
			return nil, err
		}
		if m.HeadKeyword, err = readMateKeyword(cur, width); err != nil {
			return nil, err
		}
		if m.TailKeyword, err = readMateKeyword(cur, width); err != nil {
			return nil, err
		}
		if m.LenComp, err = cur.uint64BE(); err != nil {
			return nil, err
		}
		if m.LenUnco, err = cur.uint64BE(); err != nil {
			return nil, err
		}
		mates = append(mates, m)
	}
	return mates, nil
}

func readMateKeyword(cur *byteCursor, width int) ([]byte, error) {
	n, err := cur.uint16BE()
	if err != nil {
		return nil, err
	}
	keyword, err := cur.take(uint64(n) * uint64(width))
	if err != nil {
		return nil, err
	}
	if err := cur.skip(uint64(width)); err != nil {
		return nil, err
	}
	return keyword, nil
}

// extractKeywordPairs walks count (position, keyword) entries of a decoded
// keyword index block.
func extractKeywordPairs(block []byte, count uint64, width int) ([]KeywordPair, error) {
	cur := newCursor(block, 0, SectionIndexName, noBlock)

	pairs := make([]KeywordPair, 0, min(count, uint64(len(block))/uint64(8+width)))
	for i := uint64(0); i < count; i++ {
		position, err := cur.uint64BE()
		if err != nil {
			return nil, err
		}
		keyword, err := cur.untilTerminator(width)
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, KeywordPair{Keyword: keyword, Position: position})
	}
	return pairs, nil
}
