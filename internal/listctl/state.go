package listctl

import (
	"github.com/BuzzLyutic/optimistic-todo/internal/model"
)

// State is the lifecycle of a managed list, not of individual items.
type State int

const (
	Idle State = iota
	Loading
	Ready
	Refreshing
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Refreshing:
		return "refreshing"
	}
	return "unknown"
}

// View is an immutable copy of what the list currently displays.
type View struct {
	State  State
	Filter model.FilterState

	// Items is nil until the first fetch resolves, and a non-nil (possibly
	// empty) slice afterwards.
	Items []model.Item

	// Err is the last list fetch failure. The snapshot in Items is the last
	// good one.
	Err error

	// ItemErrors holds the message of the last failed mutation per item.
	ItemErrors map[int64]string

	// Pending lists items with a mutation awaiting remote confirmation.
	Pending map[int64]bool
}

// Loaded reports whether a list has ever been received.
func (v View) Loaded() bool { return v.Items != nil }

func (v View) Item(id int64) (model.Item, bool) {
	for _, it := range v.Items {
		if it.ID == id {
			return it, true
		}
	}
	return model.Item{}, false
}

// pendingMutation tracks the unconfirmed change on one item. Only the newest
// mutation (gen) may settle the displayed value.
type pendingMutation struct {
	gen uint64

	// original is the last server-confirmed value. Reverts restore it.
	original model.Item

	// value is the speculative value, or the removed item when deleted is set.
	value   model.Item
	deleted bool
	index   int
}
