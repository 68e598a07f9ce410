package models

import (
	"sort"
)

// LikeSet is the set of post ids liked by the current identity.
type LikeSet map[int64]struct{}

// NewLikeSet builds a set from ids.
func NewLikeSet(ids ...int64) LikeSet {
	s := make(LikeSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s LikeSet) Has(id int64) bool {
	_, ok := s[id]
	return ok
}

// IDs returns the members in ascending order.
func (s LikeSet) IDs() []int64 {
	ids := make([]int64, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Clone returns an independent copy.
func (s LikeSet) Clone() LikeSet {
	c := make(LikeSet, len(s))
	for id := range s {
		c[id] = struct{}{}
	}
	return c
}
