package storage

import (
	"errors"
	"sync"
)

var (
	// ErrBinNotFound is returned when the requested bin id does not exist in the library.
	ErrBinNotFound = errors.New("bin definition not found")
)

// BinDefinition is a reusable bin box type held in the library. LipCM is a
// derived field: it is recomputed from HeightMM whenever the definition is
// updated and is never settable on its own.
type BinDefinition struct {
	ID            int
	Name          string
	DepthMM       float64
	HeightMM      float64
	WidthMM       float64
	LipCM         float64
	HasLip        bool
	ShelvesPerBay int
	BinsPerShelf  int
	UT            float64
}

// BinFields carries the editable fields of a bin definition. Updates replace
// all fields wholesale; out-of-range values are clamped, not rejected.
type BinFields struct {
	Name          string
	DepthMM       float64
	HeightMM      float64
	WidthMM       float64
	HasLip        bool
	ShelvesPerBay int
	BinsPerShelf  int
	UT            float64
}

// BinLibrary provides access to the shared bin box definitions.
type BinLibrary interface {
	Add() BinDefinition
	Get(id int) (BinDefinition, error)
	List() []BinDefinition
	Update(id int, fields BinFields) (BinDefinition, error)
	Remove(id int) error
	IDs() map[int]struct{}
}

// MemoryLibrary keeps bin definitions in-memory and guards access with a RWMutex.
// Ids come from a monotonically increasing counter that survives deletions, so a
// removed id is never handed out again within the session.
type MemoryLibrary struct {
	mu     sync.RWMutex
	nextID int
	order  []int
	bins   map[int]BinDefinition
}

// NewMemoryLibrary initialises an empty bin library.
func NewMemoryLibrary() *MemoryLibrary {
	return &MemoryLibrary{
		nextID: 1,
		bins:   make(map[int]BinDefinition),
	}
}

// Add creates a bin definition with default values and a freshly allocated id.
func (l *MemoryLibrary) Add() BinDefinition {
	l.mu.Lock()
	defer l.mu.Unlock()

	bin := BinDefinition{
		ID:            l.nextID,
		ShelvesPerBay: 1,
		BinsPerShelf:  1,
	}
	l.nextID++
	l.order = append(l.order, bin.ID)
	l.bins[bin.ID] = bin
	return bin
}

// Get returns the bin definition with the given id.
func (l *MemoryLibrary) Get(id int) (BinDefinition, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	bin, ok := l.bins[id]
	if !ok {
		return BinDefinition{}, ErrBinNotFound
	}
	return bin, nil
}

// List returns the library contents in insertion order.
func (l *MemoryLibrary) List() []BinDefinition {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]BinDefinition, 0, len(l.order))
	for _, id := range l.order {
		out = append(out, l.bins[id])
	}
	return out
}

// Update replaces the editable fields of the bin with the given id, clamping
// numeric values into range and recomputing the lip height.
func (l *MemoryLibrary) Update(id int, fields BinFields) (BinDefinition, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	bin, ok := l.bins[id]
	if !ok {
		return BinDefinition{}, ErrBinNotFound
	}

	bin.Name = fields.Name
	bin.DepthMM = clampMin(fields.DepthMM, 0)
	bin.HeightMM = clampMin(fields.HeightMM, 0)
	bin.WidthMM = clampMin(fields.WidthMM, 0)
	bin.HasLip = fields.HasLip
	bin.LipCM = lipFor(bin.HeightMM, bin.HasLip)
	bin.ShelvesPerBay = clampMinInt(fields.ShelvesPerBay, 1)
	bin.BinsPerShelf = clampMinInt(fields.BinsPerShelf, 1)
	bin.UT = clampRange(fields.UT, 0, 1)

	l.bins[id] = bin
	return bin, nil
}

// Remove deletes the bin definition. Callers must follow a successful removal
// with GroupList.SyncWithLibrary so no group keeps a dangling reference.
func (l *MemoryLibrary) Remove(id int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.bins[id]; !ok {
		return ErrBinNotFound
	}
	delete(l.bins, id)
	for i, existing := range l.order {
		if existing == id {
			l.order = append(l.order[:i], l.order[i+1:]...)
			break
		}
	}
	return nil
}

// IDs returns the set of ids currently present in the library.
func (l *MemoryLibrary) IDs() map[int]struct{} {
	l.mu.RLock()
	defer l.mu.RUnlock()

	ids := make(map[int]struct{}, len(l.bins))
	for id := range l.bins {
		ids[id] = struct{}{}
	}
	return ids
}

// lipFor implements the fixed lip rule: 2% of the bin height, expressed in
// centimeters, or zero when the bin has no lip.
func lipFor(heightMM float64, hasLip bool) float64 {
	if !hasLip {
		return 0
	}
	return heightMM * 0.2 / 10
}

func clampMin(v, min float64) float64 {
	if v < min {
		return min
	}
	return v
}

func clampMinInt(v, min int) int {
	if v < min {
		return min
	}
	return v
}

func clampRange(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
