package command

import (
	"slices"

	"github.com/samber/lo"
)

// DefaultRestrictedIDs are the reserved accounts that can never be updated or deleted.
var DefaultRestrictedIDs = []int64{200, 201, 202, 203}

// RestrictedIDs is an immutable set of reserved account ids.
type RestrictedIDs struct {
	ids map[int64]struct{}
}

// NewRestrictedIDs builds the set. Duplicates are ignored.
func NewRestrictedIDs(ids ...int64) RestrictedIDs {
	return RestrictedIDs{ids: lo.SliceToMap(ids, func(id int64) (int64, struct{}) {
		return id, struct{}{}
	})}
}

// Contains reports whether id is reserved.
func (r RestrictedIDs) Contains(id int64) bool {
	_, ok := r.ids[id]
	return ok
}

// IDs returns the reserved ids in ascending order.
func (r RestrictedIDs) IDs() []int64 {
	ids := lo.Keys(r.ids)
	slices.Sort(ids)
	return ids
}
