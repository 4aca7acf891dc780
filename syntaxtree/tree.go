// Package syntaxtree implements the derivation tree produced by
// grammar expansion: an ordered, strictly tree-shaped node with no
// sharing and no cycles, built depth-first and read back out either as
// a rendered sentence (terminals only) or as a hash key (every node).
package syntaxtree

import "github.com/0xca7/grampus-go/fingerprint"

// Node is one node of a derivation tree. A Node with no Children is a
// terminal leaf; a Node with Children has been expanded from a
// non-terminal. Each Node exclusively owns its Children slice.
type Node struct {
	Value    string
	Children []*Node
}

// New creates a leaf node holding value.
func New(value string) *Node {
	return &Node{Value: value}
}

// InsertChild appends a new leaf child holding value, allocating the
// child slice on first use.
func (n *Node) InsertChild(value string) *Node {
	child := New(value)
	n.Children = append(n.Children, child)
	return child
}

// Build performs a pre-order traversal and appends the value of every
// leaf (terminal) node to buf, in left-to-right order. Non-leaf values
// are never appended: the result is the sentence the tree derives.
func (n *Node) Build(buf *[]byte) {
	if len(n.Children) == 0 {
		*buf = append(*buf, n.Value...)
		return
	}
	for _, c := range n.Children {
		c.Build(buf)
	}
}

// Sentence is Build rendered directly to a string.
func (n *Node) Sentence() string {
	var buf []byte
	n.Build(&buf)
	return string(buf)
}

// Hash returns the FNV-1a 64-bit digest of every node's value
// (terminal and non-terminal alike) concatenated in pre-order. Two
// derivations that chose different alternatives anywhere in the tree
// hash differently even if they render to the same sentence, which is
// what the corpus generator wants for de-duplication.
func (n *Node) Hash() uint64 {
	var buf []byte
	n.collect(&buf)
	return fingerprint.Hash(buf)
}

func (n *Node) collect(buf *[]byte) {
	*buf = append(*buf, n.Value...)
	for _, c := range n.Children {
		c.collect(buf)
	}
}
