package edi

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildLoopTree_OceanHierarchy(t *testing.T) {
	// 2 containers, each with 2 orders, each with 2 items
	var raws []string
	raws = append(raws, "HL*1**S", "TD5*****V OCEANIC")
	id := 2
	for c := 0; c < 2; c++ {
		containerID := id
		raws = append(raws, segHL(id, 1, LevelEquipment), "TD3*40HC*MSKU*1234567")
		id++
		for o := 0; o < 2; o++ {
			orderID := id
			raws = append(raws, segHL(id, containerID, LevelOrder), "PRF*PO100")
			id++
			for i := 0; i < 2; i++ {
				raws = append(raws, segHL(id, orderID, LevelItem), "LIN**SK*SKU1")
				id++
			}
		}
	}

	roots, err := BuildLoopTree(segmentsFrom(raws...))
	require.NoError(t, err)
	require.Len(t, roots, 1)

	shipment := roots[0]
	assert.Equal(t, LevelShipment, shipment.Level)
	require.Len(t, shipment.Children, 2)
	for _, equipment := range shipment.Children {
		assert.Equal(t, LevelEquipment, equipment.Level)
		require.Len(t, equipment.Children, 2)
		for _, order := range equipment.Children {
			assert.Equal(t, LevelOrder, order.Level)
			require.Len(t, order.Children, 2)
			for _, item := range order.Children {
				assert.Equal(t, LevelItem, item.Level)
				assert.Empty(t, item.Children)
			}
		}
	}
}

func TestBuildLoopTree_SegmentsBelongToNearestLoop(t *testing.T) {
	roots, err := BuildLoopTree(segmentsFrom(
		"HL*1**S",
		"REF*BM*MBOL1",
		"HL*2*1*O",
		"PRF*PO200",
		"SN1**5*CT",
	))
	require.NoError(t, err)
	require.Len(t, roots, 1)

	require.Len(t, roots[0].Segments, 1)
	assert.Equal(t, "REF", roots[0].Segments[0].Tag)

	order := roots[0].Children[0]
	require.Len(t, order.Segments, 2)
	assert.Equal(t, "PRF", order.Segments[0].Tag)
	assert.Equal(t, "SN1", order.Segments[1].Tag)
}

func TestBuildLoopTree_SiblingAttachment(t *testing.T) {
	// Second order attaches to the shipment after the first order's
	// item closed, by unwinding to the named ancestor.
	roots, err := BuildLoopTree(segmentsFrom(
		"HL*1**S",
		"HL*2*1*O",
		"HL*3*2*I",
		"HL*4*1*O",
	))
	require.NoError(t, err)
	require.Len(t, roots, 1)
	require.Len(t, roots[0].Children, 2)
	assert.Equal(t, "2", roots[0].Children[0].ID)
	assert.Equal(t, "4", roots[0].Children[1].ID)
}

func TestBuildLoopTree_OrphanParentIsStructural(t *testing.T) {
	_, err := BuildLoopTree(segmentsFrom(
		"HL*1**S",
		"HL*2*9*O",
	))
	require.Error(t, err)
	assert.True(t, IsStructural(err))
}

func TestBuildLoopTree_MissingIDIsStructural(t *testing.T) {
	_, err := BuildLoopTree(segmentsFrom("HL***S"))
	require.Error(t, err)
	assert.True(t, IsStructural(err))
}

func TestBuildLoopTree_PreHeaderSegmentsIgnored(t *testing.T) {
	roots, err := BuildLoopTree(segmentsFrom(
		"BSN*00*SHIP1*20240115*1030",
		"HL*1**S",
	))
	require.NoError(t, err)
	require.Len(t, roots, 1)
	assert.Empty(t, roots[0].Segments)
}

func TestLoopNode_ChildrenAtLevel(t *testing.T) {
	roots, err := BuildLoopTree(segmentsFrom(
		"HL*1**S",
		"HL*2*1*E",
		"HL*3*1*O",
	))
	require.NoError(t, err)
	require.Len(t, roots, 1)
	assert.Len(t, roots[0].ChildrenAtLevel(LevelEquipment), 1)
	assert.Len(t, roots[0].ChildrenAtLevel(LevelOrder), 1)
	assert.Empty(t, roots[0].ChildrenAtLevel(LevelItem))
}

func segHL(id, parent int, level string) string {
	if parent == 0 {
		return fmt.Sprintf("HL*%d**%s", id, level)
	}
	return fmt.Sprintf("HL*%d*%d*%s", id, parent, level)
}
