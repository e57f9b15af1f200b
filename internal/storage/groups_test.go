package storage

import (
	"errors"
	"slices"
	"testing"
)

func TestAddGroupDefaults(t *testing.T) {
	t.Parallel()

	list := NewMemoryGroupList()
	group, index := list.Add()

	if index != 0 {
		t.Fatalf("expected first group at position 0, got %d", index)
	}
	if group.StartAisle != 1 || group.EndAisle != 1 || group.BayCount != 1 || group.ShelvesPerBay != 1 {
		t.Fatalf("unexpected defaults: %+v", group)
	}
	if group.Finalized {
		t.Fatalf("expected new group in editing state")
	}
	if len(group.BinIDs) != 0 {
		t.Fatalf("expected no bin references, got %v", group.BinIDs)
	}
}

func TestAddReturnsCurrentPosition(t *testing.T) {
	t.Parallel()

	list := NewMemoryGroupList()
	list.Add()
	list.Add()
	if err := list.Delete(0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The reported position reflects the list as it stands after the append.
	if _, index := list.Add(); index != 1 {
		t.Fatalf("expected position 1 after a delete, got %d", index)
	}
}

func TestUpdateGroupClampsCounts(t *testing.T) {
	t.Parallel()

	list := NewMemoryGroupList()
	list.Add()

	updated, err := list.Update(0, GroupFields{
		Name:       "Mezzanine",
		StartAisle: 0,
		EndAisle:   -3,
		BayCount:   0,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if updated.StartAisle != 1 || updated.EndAisle != 1 || updated.BayCount != 1 || updated.ShelvesPerBay != 1 {
		t.Fatalf("expected counts clamped to 1, got %+v", updated)
	}
	if updated.Name != "Mezzanine" {
		t.Fatalf("expected name to be applied, got %q", updated.Name)
	}
}

func TestFinalizeAndReopen(t *testing.T) {
	t.Parallel()

	list := NewMemoryGroupList()
	list.Add()

	group, err := list.Finalize(0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !group.Finalized {
		t.Fatalf("expected group to be finalized")
	}

	group, err = list.Reopen(0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if group.Finalized {
		t.Fatalf("expected group to be back in editing state")
	}
}

func TestCloneProducesIndependentCopy(t *testing.T) {
	t.Parallel()

	list := NewMemoryGroupList()
	list.Add()
	if _, err := list.Update(0, GroupFields{Name: "Floor 2", StartAisle: 3, EndAisle: 7, BayCount: 4, ShelvesPerBay: 5}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := list.AssignBins(0, []int{1, 2, 2}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := list.Finalize(0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	clone, cloneIndex, err := list.Clone(0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cloneIndex != 1 {
		t.Fatalf("expected clone appended at position 1, got %d", cloneIndex)
	}
	if clone.Name != "Floor 2 (Copy)" {
		t.Fatalf("expected copy suffix, got %q", clone.Name)
	}
	if clone.Finalized {
		t.Fatalf("expected clone in editing state")
	}
	if !slices.Equal(clone.BinIDs, []int{1, 2, 2}) {
		t.Fatalf("expected bin ids copied, got %v", clone.BinIDs)
	}

	// The clone is appended to the end and shares no state with the source.
	if _, err := list.AssignBins(1, []int{9}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	original, err := list.Get(0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !slices.Equal(original.BinIDs, []int{1, 2, 2}) {
		t.Fatalf("mutating the clone changed the original: %v", original.BinIDs)
	}
}

func TestCloneEmptyNameUsesUntitled(t *testing.T) {
	t.Parallel()

	list := NewMemoryGroupList()
	list.Add()

	clone, _, err := list.Clone(0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if clone.Name != "Untitled (Copy)" {
		t.Fatalf("expected Untitled (Copy), got %q", clone.Name)
	}
}

func TestDeleteRemovesByPosition(t *testing.T) {
	t.Parallel()

	list := NewMemoryGroupList()
	list.Add()
	list.Add()
	list.Add()
	if _, err := list.Update(1, GroupFields{Name: "middle", StartAisle: 1, EndAisle: 1, BayCount: 1, ShelvesPerBay: 1}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := list.Delete(1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	groups := list.List()
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
	for _, g := range groups {
		if g.Name == "middle" {
			t.Fatalf("expected the middle group to be removed")
		}
	}
}

func TestAssignBinsKeepsOrderAndDuplicates(t *testing.T) {
	t.Parallel()

	list := NewMemoryGroupList()
	list.Add()

	ids := []int{5, 1, 5, 3}
	group, err := list.AssignBins(0, ids)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !slices.Equal(group.BinIDs, ids) {
		t.Fatalf("expected %v, got %v", ids, group.BinIDs)
	}

	// The store must hold its own copy of the slice.
	ids[0] = 99
	group, err = list.Get(0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if group.BinIDs[0] != 5 {
		t.Fatalf("expected defensive copy of assigned ids, got %v", group.BinIDs)
	}
}

func TestSyncWithLibraryFiltersDanglingReferences(t *testing.T) {
	t.Parallel()

	list := NewMemoryGroupList()
	list.Add()
	list.Add()
	if _, err := list.AssignBins(0, []int{1, 2, 3, 2}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := list.AssignBins(1, []int{2}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	list.SyncWithLibrary(map[int]struct{}{1: {}, 3: {}})

	first, err := list.Get(0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !slices.Equal(first.BinIDs, []int{1, 3}) {
		t.Fatalf("expected [1 3] with order preserved, got %v", first.BinIDs)
	}

	second, err := list.Get(1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(second.BinIDs) != 0 {
		t.Fatalf("expected all references dropped, got %v", second.BinIDs)
	}
	if second.Name != "" || second.StartAisle != 1 {
		t.Fatalf("sync must not touch other fields: %+v", second)
	}
}

func TestGroupIndexOutOfRange(t *testing.T) {
	t.Parallel()

	list := NewMemoryGroupList()

	if _, err := list.Get(0); !errors.Is(err, ErrGroupNotFound) {
		t.Fatalf("expected ErrGroupNotFound from Get, got %v", err)
	}
	if _, err := list.Update(-1, GroupFields{}); !errors.Is(err, ErrGroupNotFound) {
		t.Fatalf("expected ErrGroupNotFound from Update, got %v", err)
	}
	if err := list.Delete(3); !errors.Is(err, ErrGroupNotFound) {
		t.Fatalf("expected ErrGroupNotFound from Delete, got %v", err)
	}
	if _, _, err := list.Clone(0); !errors.Is(err, ErrGroupNotFound) {
		t.Fatalf("expected ErrGroupNotFound from Clone, got %v", err)
	}
}
