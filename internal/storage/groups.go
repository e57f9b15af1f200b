package storage

import (
	"errors"
	"sync"
)

var (
	// ErrGroupNotFound is returned when a group index is outside the current list.
	ErrGroupNotFound = errors.New("group not found")
)

// Group describes a storage location range that references bin definitions by
// id. Groups carry no identity of their own and are addressed by list position.
// Finalized is advisory UI state: a finalized group still exports and clones.
type Group struct {
	Name          string
	Floor         string
	Mod           string
	Depth         string
	StartAisle    int
	EndAisle      int
	BayCount      int
	ShelvesPerBay int
	BayDesign     string
	BinIDs        []int
	Finalized     bool
}

// GroupFields carries the editable fields of a group. Updates replace all
// fields wholesale; out-of-range values are clamped, not rejected.
type GroupFields struct {
	Name          string
	Floor         string
	Mod           string
	Depth         string
	StartAisle    int
	EndAisle      int
	BayCount      int
	ShelvesPerBay int
	BayDesign     string
}

// GroupList provides access to the ordered list of location groups.
type GroupList interface {
	Add() (Group, int)
	Get(index int) (Group, error)
	List() []Group
	Update(index int, fields GroupFields) (Group, error)
	Finalize(index int) (Group, error)
	Reopen(index int) (Group, error)
	Clone(index int) (Group, int, error)
	Delete(index int) error
	AssignBins(index int, ids []int) (Group, error)
	SyncWithLibrary(validIDs map[int]struct{})
}

// MemoryGroupList keeps groups in-memory in insertion order and guards access
// with a RWMutex.
type MemoryGroupList struct {
	mu     sync.RWMutex
	groups []Group
}

// NewMemoryGroupList initialises an empty group list.
func NewMemoryGroupList() *MemoryGroupList {
	return &MemoryGroupList{}
}

// Add appends a new group with default values in editing state and returns
// it together with its list position.
func (s *MemoryGroupList) Add() (Group, int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	group := Group{
		StartAisle:    1,
		EndAisle:      1,
		BayCount:      1,
		ShelvesPerBay: 1,
	}
	s.groups = append(s.groups, group)
	return cloneGroup(group), len(s.groups) - 1
}

// Get returns the group at the given position.
func (s *MemoryGroupList) Get(index int) (Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if index < 0 || index >= len(s.groups) {
		return Group{}, ErrGroupNotFound
	}
	return cloneGroup(s.groups[index]), nil
}

// List returns a defensive copy of all groups in list order.
func (s *MemoryGroupList) List() []Group {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Group, len(s.groups))
	for i, g := range s.groups {
		out[i] = cloneGroup(g)
	}
	return out
}

// Update replaces the editable fields of the group at the given position,
// clamping the aisle and count values to their minimums.
func (s *MemoryGroupList) Update(index int, fields GroupFields) (Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.groups) {
		return Group{}, ErrGroupNotFound
	}

	g := &s.groups[index]
	g.Name = fields.Name
	g.Floor = fields.Floor
	g.Mod = fields.Mod
	g.Depth = fields.Depth
	g.StartAisle = clampMinInt(fields.StartAisle, 1)
	g.EndAisle = clampMinInt(fields.EndAisle, 1)
	g.BayCount = clampMinInt(fields.BayCount, 1)
	g.ShelvesPerBay = clampMinInt(fields.ShelvesPerBay, 1)
	g.BayDesign = fields.BayDesign

	return cloneGroup(*g), nil
}

// Finalize marks the group as reviewed. Purely advisory.
func (s *MemoryGroupList) Finalize(index int) (Group, error) {
	return s.setFinalized(index, true)
}

// Reopen puts a finalized group back into editing state.
func (s *MemoryGroupList) Reopen(index int) (Group, error) {
	return s.setFinalized(index, false)
}

func (s *MemoryGroupList) setFinalized(index int, finalized bool) (Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.groups) {
		return Group{}, ErrGroupNotFound
	}
	s.groups[index].Finalized = finalized
	return cloneGroup(s.groups[index]), nil
}

// Clone deep-copies the group at the given position, forces editing state,
// suffixes the name with " (Copy)" ("Untitled (Copy)" when empty), and appends
// the copy to the end of the list, returning it with its new position.
func (s *MemoryGroupList) Clone(index int) (Group, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.groups) {
		return Group{}, 0, ErrGroupNotFound
	}

	copyGroup := cloneGroup(s.groups[index])
	copyGroup.Finalized = false
	if copyGroup.Name == "" {
		copyGroup.Name = "Untitled (Copy)"
	} else {
		copyGroup.Name += " (Copy)"
	}
	s.groups = append(s.groups, copyGroup)
	return cloneGroup(copyGroup), len(s.groups) - 1, nil
}

// Delete removes the group at the given position from the list.
func (s *MemoryGroupList) Delete(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.groups) {
		return ErrGroupNotFound
	}
	s.groups = append(s.groups[:index], s.groups[index+1:]...)
	return nil
}

// AssignBins replaces the group's bin reference list wholesale. Duplicates and
// arbitrary order are preserved: the list order determines export row order.
func (s *MemoryGroupList) AssignBins(index int, ids []int) (Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.groups) {
		return Group{}, ErrGroupNotFound
	}

	assigned := make([]int, len(ids))
	copy(assigned, ids)
	s.groups[index].BinIDs = assigned
	return cloneGroup(s.groups[index]), nil
}

// SyncWithLibrary filters every group's bin reference list down to the ids
// present in validIDs, preserving relative order. Dangling references are
// dropped silently: losing them is the designed behaviour after a library
// deletion, not an error to surface.
func (s *MemoryGroupList) SyncWithLibrary(validIDs map[int]struct{}) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.groups {
		kept := s.groups[i].BinIDs[:0]
		for _, id := range s.groups[i].BinIDs {
			if _, ok := validIDs[id]; ok {
				kept = append(kept, id)
			}
		}
		s.groups[i].BinIDs = kept
	}
}

func cloneGroup(g Group) Group {
	out := g
	out.BinIDs = make([]int, len(g.BinIDs))
	copy(out.BinIDs, g.BinIDs)
	return out
}
