// Package index provides the ordered in-memory index over access records: a
// binary search tree keyed by the normalized identifier. The tree is a
// derived, rebuildable cache — it is reconstructed wholesale from the record
// store on every reload and never repaired incrementally, so no delete
// operation exists. No rebalancing is performed; at administrative scale
// (a few thousand records) a skewed tree is acceptable.
package index

import "github.com/mquispe/accessdir/internal/directory/types"

type node struct {
	key    string
	record types.AccessRecord
	left   *node
	right  *node
}

// Tree is a binary search tree over access records. It is not safe for
// concurrent mutation; the directory service builds a fresh tree per snapshot
// and only reads it afterwards.
type Tree struct {
	root *node
	size int
}

func New() *Tree {
	return &Tree{}
}

// Insert places the record under key, replacing the payload if the key is
// already present (update, not duplicate).
func (t *Tree) Insert(key string, rec types.AccessRecord) {
	if t.root == nil {
		t.root = &node{key: key, record: rec}
		t.size = 1
		return
	}

	cur := t.root
	for {
		switch {
		case key < cur.key:
			if cur.left == nil {
				cur.left = &node{key: key, record: rec}
				t.size++
				return
			}
			cur = cur.left
		case key > cur.key:
			if cur.right == nil {
				cur.right = &node{key: key, record: rec}
				t.size++
				return
			}
			cur = cur.right
		default:
			cur.record = rec
			return
		}
	}
}

// Search returns the record stored under key.
func (t *Tree) Search(key string) (types.AccessRecord, bool) {
	cur := t.root
	for cur != nil {
		switch {
		case key < cur.key:
			cur = cur.left
		case key > cur.key:
			cur = cur.right
		default:
			return cur.record, true
		}
	}
	return types.AccessRecord{}, false
}

// InOrder returns a fresh slice of all records ordered by key. The slice is a
// snapshot, not a live view.
func (t *Tree) InOrder() []types.AccessRecord {
	out := make([]types.AccessRecord, 0, t.size)

	// Iterative in-order traversal with an explicit stack.
	var stack []*node
	cur := t.root
	for cur != nil || len(stack) > 0 {
		for cur != nil {
			stack = append(stack, cur)
			cur = cur.left
		}
		cur = stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		out = append(out, cur.record)
		cur = cur.right
	}
	return out
}

// Len returns the number of distinct keys in the tree.
func (t *Tree) Len() int { return t.size }
