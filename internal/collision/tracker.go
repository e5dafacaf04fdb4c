package collision

import (
	"fmt"
	"slices"

	"github.com/arloliu/wldfrag/errs"
	"github.com/arloliu/wldfrag/internal/hash"
)

type tracked struct {
	name string
	id   uint32
}

// Tracker indexes fragment type names by their xxHash64 id.
//
// Names whose hashes collide are kept side by side and told apart by a full
// string compare, so a collision only costs an extra comparison on lookup.
// A Tracker is not safe for concurrent use; callers guard it.
type Tracker struct {
	byHash map[uint64][]tracked
	names  []string // registration order
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{
		byHash: make(map[uint64][]tracked),
		names:  make([]string, 0),
	}
}

// Track records name as the name of fragment type id.
//
// Returns:
//   - uint64: Hash id of name
//   - error: ErrInvalidFragmentName for an empty name, ErrDuplicateFragmentName
//     if name is already tracked
func (t *Tracker) Track(name string, id uint32) (uint64, error) {
	if name == "" {
		return 0, errs.ErrInvalidFragmentName
	}

	h := hash.ID(name)
	bucket := t.byHash[h]
	for _, e := range bucket {
		if e.name == name {
			return h, fmt.Errorf("%w: %q is fragment 0x%02x", errs.ErrDuplicateFragmentName, name, e.id)
		}
	}

	t.byHash[h] = append(bucket, tracked{name: name, id: id})
	t.names = append(t.names, name)

	return h, nil
}

// Lookup returns the fragment type id tracked for name.
func (t *Tracker) Lookup(name string) (uint32, bool) {
	for _, e := range t.byHash[hash.ID(name)] {
		if e.name == name {
			return e.id, true
		}
	}

	return 0, false
}

// Names returns the tracked names in registration order.
func (t *Tracker) Names() []string {
	return slices.Clone(t.names)
}
