package actor

// Filter decides whether two fixtures may collide.
// Both filters of a pair must allow it.
type Filter interface {
	IsAllowed(other Filter) bool
}

// DefaultFilter lets every pair collide.
type DefaultFilter struct{}

func (DefaultFilter) IsAllowed(Filter) bool {
	return true
}

// CategoryFilter uses category and mask bits: two fixtures collide when the
// category of each one is in the mask of the other.
// Against any other Filter implementation it allows the pair.
type CategoryFilter struct {
	Category uint64
	Mask     uint64
}

// NewCategoryFilter returns a filter belonging to category and colliding
// with every category in mask.
func NewCategoryFilter(category, mask uint64) CategoryFilter {
	return CategoryFilter{Category: category, Mask: mask}
}

func (f CategoryFilter) IsAllowed(other Filter) bool {
	var o CategoryFilter
	switch v := other.(type) {
	case CategoryFilter:
		o = v
	case *CategoryFilter:
		if v == nil {
			return true
		}
		o = *v
	default:
		return true
	}

	return f.Category&o.Mask != 0 && o.Category&f.Mask != 0
}
