package mdict

import "bytes"

// blockRangeNode is a node of a binary tree over the [head, tail] keyword
// ranges of the keyword index blocks. Leaves carry a block number.
type blockRangeNode struct {
	head  []byte
	tail  []byte
	block int
	left  *blockRangeNode
	right *blockRangeNode
}

// buildBlockRangeTree fills root from mates, whose first element is block
// number first.
func buildBlockRangeTree(mates []KeywordIndexMate, first int, root *blockRangeNode) {
	root.block = -1
	if len(mates) == 0 {
		return
	}

	root.head = mates[0].HeadKeyword
	root.tail = mates[len(mates)-1].TailKeyword

	if len(mates) == 1 {
		root.block = first
		return
	}

	mid := len(mates) / 2
	root.left = new(blockRangeNode)
	buildBlockRangeTree(mates[:mid], first, root.left)
	root.right = new(blockRangeNode)
	buildBlockRangeTree(mates[mid:], first+mid, root.right)
}

// queryBlockRange returns the block whose range holds key, or -1.
func queryBlockRange(root *blockRangeNode, key []byte) int {
	if root == nil {
		return -1
	}
	if bytes.Compare(key, root.head) < 0 || bytes.Compare(key, root.tail) > 0 {
		return -1
	}
	if root.left == nil && root.right == nil {
		return root.block
	}

	if root.left != nil && bytes.Compare(key, root.left.tail) <= 0 {
		if b := queryBlockRange(root.left, key); b >= 0 {
			return b
		}
	}
	return queryBlockRange(root.right, key)
}
