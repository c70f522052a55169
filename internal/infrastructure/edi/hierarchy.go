package edi

import "fmt"

// HL segment element positions
const (
	hlTag       = "HL"
	hlPosID     = 1
	hlPosParent = 2
	hlPosLevel  = 3
)

// Hierarchical level codes used by shipment advices
const (
	LevelShipment  = "S"
	LevelEquipment = "E"
	LevelOrder     = "O"
	LevelItem      = "I"
)

// LoopNode is one node of the hierarchical loop tree: its own segments
// plus its child loops. The tree is strictly tree-shaped because it is
// derived purely from the parent pointer in each loop header.
type LoopNode struct {
	ID       string
	ParentID string
	Level    string
	Segments []Segment
	Children []*LoopNode
}

// FindSegment returns the first of the node's own segments with the
// given tag.
func (n *LoopNode) FindSegment(tag string) (Segment, bool) {
	return FindSegment(n.Segments, tag)
}

// ChildrenAtLevel returns the direct children with the given level code
func (n *LoopNode) ChildrenAtLevel(level string) []*LoopNode {
	var matches []*LoopNode
	for _, child := range n.Children {
		if child.Level == level {
			matches = append(matches, child)
		}
	}
	return matches
}

// BuildLoopTree converts a flat segment sequence into nested loops
// using the loop-header level/parent markers. Segments between loop
// headers belong to the most recently opened loop; segments before the
// first header are transaction-level and left to the caller. The build
// is one pass with no backtracking. A loop header whose parent is not
// an open ancestor is a structural error.
func BuildLoopTree(segments []Segment) ([]*LoopNode, error) {
	var roots []*LoopNode
	var stack []*LoopNode

	for _, seg := range segments {
		if seg.Tag != hlTag {
			if len(stack) > 0 {
				current := stack[len(stack)-1]
				current.Segments = append(current.Segments, seg)
			}
			continue
		}

		node := &LoopNode{
			ID:       seg.Value(hlPosID),
			ParentID: seg.Value(hlPosParent),
			Level:    seg.Value(hlPosLevel),
		}
		if node.ID == "" {
			return nil, NewStructuralError(ErrCodeMalformedHierarchy, "loop header without an id")
		}

		if node.ParentID == "" {
			roots = append(roots, node)
			stack = stack[:0]
			stack = append(stack, node)
			continue
		}

		// Unwind to the named ancestor
		for len(stack) > 0 && stack[len(stack)-1].ID != node.ParentID {
			stack = stack[:len(stack)-1]
		}
		if len(stack) == 0 {
			return nil, NewStructuralError(ErrCodeMalformedHierarchy,
				fmt.Sprintf("loop %s references unknown parent %s", node.ID, node.ParentID))
		}
		parent := stack[len(stack)-1]
		parent.Children = append(parent.Children, node)
		stack = append(stack, node)
	}

	return roots, nil
}
