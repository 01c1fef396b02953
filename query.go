package foundry

import (
	"github.com/TheBitDrifter/mask"
)

type Operation int

const (
	OpAnd Operation = iota
	OpOr
	OpNot
)

// compositeNode holds component type ids rather than bits, so a query can be built before the
// registry knows the types. Unknown ids never match.
type compositeNode struct {
	op       Operation
	children []QueryNode
	typeIDs  []string
}

type leafNode struct {
	typeIDs []string
}

type query struct {
	root QueryNode
}

func newQuery() Query {
	return &query{}
}

func newCompositeNode(op Operation, typeIDs []string) *compositeNode {
	return &compositeNode{
		op:       op,
		children: make([]QueryNode, 0),
		typeIDs:  typeIDs,
	}
}

func newLeafNode(typeIDs []string) *leafNode {
	return &leafNode{typeIDs: typeIDs}
}

// nodeMask resolves ids to a mask. known is false when any id is unregistered.
func nodeMask(typeIDs []string, reg *Registry) (m mask.Mask, known bool) {
	known = true
	for _, typeID := range typeIDs {
		info, ok := reg.types[typeID]
		if !ok {
			known = false
			continue
		}
		m.Mark(info.bit)
	}
	return m, known
}

func (n *compositeNode) Evaluate(signature mask.Mask, reg *Registry) bool {
	m, known := nodeMask(n.typeIDs, reg)

	switch n.op {
	case OpAnd:
		if !known || !signature.ContainsAll(m) {
			return false
		}
		for _, child := range n.children {
			if !child.Evaluate(signature, reg) {
				return false
			}
		}
		return true

	case OpOr:
		if signature.ContainsAny(m) {
			return true
		}
		for _, child := range n.children {
			if child.Evaluate(signature, reg) {
				return true
			}
		}
		return false

	case OpNot:
		for _, child := range n.children {
			if child.Evaluate(signature, reg) {
				return false
			}
		}
		return signature.ContainsNone(m)
	}
	return false
}

func (n *leafNode) Evaluate(signature mask.Mask, reg *Registry) bool {
	m, known := nodeMask(n.typeIDs, reg)
	return known && signature.ContainsAll(m)
}

func (q *query) And(items ...interface{}) QueryNode {
	return q.node(OpAnd, items)
}

func (q *query) Or(items ...interface{}) QueryNode {
	return q.node(OpOr, items)
}

func (q *query) Not(items ...interface{}) QueryNode {
	return q.node(OpNot, items)
}

func (q *query) node(op Operation, items []interface{}) QueryNode {
	typeIDs, children := q.processItems(items...)
	node := newCompositeNode(op, typeIDs)
	node.children = children
	if q.root == nil {
		q.root = node
	}
	return node
}

func (q *query) processItems(items ...interface{}) ([]string, []QueryNode) {
	typeIDs := make([]string, 0)
	children := make([]QueryNode, 0)

	for _, item := range items {
		switch v := item.(type) {
		case string:
			typeIDs = append(typeIDs, v)
		case []string:
			typeIDs = append(typeIDs, v...)
		case ComponentDescriptor:
			typeIDs = append(typeIDs, v.ComponentID())
		case []ComponentDescriptor:
			for _, desc := range v {
				typeIDs = append(typeIDs, desc.ComponentID())
			}
		case QueryNode:
			children = append(children, v)
		}
	}

	return typeIDs, children
}

func (q *query) Evaluate(signature mask.Mask, reg *Registry) bool {
	if q.root == nil {
		return false
	}
	return q.root.Evaluate(signature, reg)
}
