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
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/op/go-logging"
)

var log = logging.MustGetLogger("mdict")

// Options control decoding.
type Options struct {
	// TerminatorWidth is the byte width of a keyword character and of the
	// keyword terminator: 1 for single-byte encodings, 2 for UTF-16.
	TerminatorWidth int
	// Workers is the number of keyword index blocks decoded concurrently.
	// Values below 2 decode sequentially.
	Workers int
	// VerifyCounts checks that the number of decoded keywords matches the
	// section header.
	VerifyCounts bool
}

// DefaultOptions are used when nil options are passed.
var DefaultOptions = &Options{
	TerminatorWidth: 1,
	Workers:         1,
	VerifyCounts:    true,
}

func (o *Options) validate() error {
	if o.TerminatorWidth != 1 && o.TerminatorWidth != 2 {
		return fmt.Errorf("mdict: invalid terminator width %d", o.TerminatorWidth)
	}
	return nil
}

// Index is a decoded keyword index.
type Index struct {
	Header  *SectionHeader
	Keyword *KeywordSectionMeta
	// Pairs are in block order, then in order within each block.
	Pairs []KeywordPair

	path string
	// blockStarts[i] is the index in Pairs of the first pair of block i.
	blockStarts []int
	tree        *blockRangeNode
}

// Decode returns every keyword pair of an in-memory MDX file.
func Decode(buf []byte) ([]KeywordPair, error) {
	idx, err := DecodeIndex(buf, nil)
	if err != nil {
		return nil, err
	}
	return idx.Pairs, nil
}

// DecodeIndex decodes the metadata section and keyword section of buf.
// The returned keywords alias buf or the decompressed blocks.
func DecodeIndex(buf []byte, opts *Options) (*Index, error) {
	if opts == nil {
		opts = DefaultOptions
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}

	header, err := readSectionHeader(buf, 0)
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	if err := checkEngineVersion(header); err != nil {
		return nil, err
	}
	if flags := header.Attributes.EncryptFlags(); flags.HeaderEncrypted() {
		log.Warningf("Header declares encrypted keyword counters (Encrypted=%q); registration keys are not supported", header.Attributes.Encrypted)
	}

	meta, pairs, err := readKeywordSection(buf, header.EndOffset, opts)
	if err != nil {
		return nil, fmt.Errorf("reading keyword section: %w", err)
	}

	idx := &Index{
		Header:  header,
		Keyword: meta,
		Pairs:   pairs,
	}
	idx.buildBlockIndex()
	return idx, nil
}

// Open reads and decodes the file at path.
func Open(path string, opts *Options) (*Index, error) {
	log.Infof("Decoding keyword index: %s", path)
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read '%s': %w", path, err)
	}
	idx, err := DecodeIndex(buf, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to decode '%s': %w", path, err)
	}
	idx.path = path
	return idx, nil
}

func (idx *Index) buildBlockIndex() {
	idx.blockStarts = make([]int, 0, len(idx.Keyword.IndexMates)+1)
	start := 0
	for _, m := range idx.Keyword.IndexMates {
		idx.blockStarts = append(idx.blockStarts, start)
		start += int(m.NumKeyword)
	}
	idx.blockStarts = append(idx.blockStarts, start)

	// The range tree is only meaningful when every block's pairs are where
	// the mates say they are.
	if start == len(idx.Pairs) {
		idx.tree = new(blockRangeNode)
		buildBlockRangeTree(idx.Keyword.IndexMates, 0, idx.tree)
	}
}

// Name returns the file name without its extension, or "" for an index
// decoded from memory.
func (idx *Index) Name() string {
	if idx.path == "" {
		return ""
	}
	name := filepath.Base(idx.path)
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// Title returns the Title header attribute.
func (idx *Index) Title() string {
	return idx.Header.Attributes.Title
}

// Len returns the number of keyword pairs.
func (idx *Index) Len() int {
	return len(idx.Pairs)
}

// BlockPairs returns the pairs decoded from keyword index block i.
func (idx *Index) BlockPairs(i int) []KeywordPair {
	if i < 0 || i+1 >= len(idx.blockStarts) || idx.blockStarts[i+1] > len(idx.Pairs) {
		return nil
	}
	return idx.Pairs[idx.blockStarts[i]:idx.blockStarts[i+1]]
}

// Lookup returns the first pair whose keyword equals word. The block is
// chosen by its head and tail keywords; if the file is not sorted the
// search falls back to a linear scan.
func (idx *Index) Lookup(word string) (KeywordPair, error) {
	key := []byte(word)

	if idx.tree != nil {
		if block := queryBlockRange(idx.tree, key); block >= 0 {
			for _, p := range idx.BlockPairs(block) {
				if bytes.Equal(p.Keyword, key) {
					log.Debugf("Lookup hit %q in block %d", word, block)
					return p, nil
				}
			}
		}
	}

	for _, p := range idx.Pairs {
		if bytes.Equal(p.Keyword, key) {
			log.Debugf("Lookup hit %q by linear scan", word)
			return p, nil
		}
	}
	return KeywordPair{}, fmt.Errorf("%w: (%s)", ErrKeywordNotFound, word)
}
