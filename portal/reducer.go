package portal

// Keyed is an entity with a server-assigned id.
type Keyed interface {
	Key() int
}

type MutationKind int

const (
	// Created puts the item first, replacing any item with the same id.
	Created MutationKind = iota
	// Updated replaces the item with the same id in place; unknown ids are ignored.
	Updated
)

// Mutation is the server's answer to a create or update.
type Mutation[T Keyed] struct {
	Kind MutationKind
	Item T
}

// Reduce returns the list after m. items is never modified.
func Reduce[T Keyed](items []T, m Mutation[T]) []T {
	switch m.Kind {
	case Created:
		next := make([]T, 0, len(items)+1)
		next = append(next, m.Item)
		for _, it := range items {
			if it.Key() != m.Item.Key() {
				next = append(next, it)
			}
		}
		return next
	case Updated:
		next := make([]T, len(items))
		copy(next, items)
		for i, it := range next {
			if it.Key() == m.Item.Key() {
				next[i] = m.Item
			}
		}
		return next
	default:
		return items
	}
}

// list is the entity list of a page.
type list[T Keyed] struct {
	items []T
}

func (l *list[T]) reset(items []T) {
	l.items = items
}

func (l *list[T]) apply(m Mutation[T]) {
	l.items = Reduce(l.items, m)
}

func (l *list[T]) find(key int) (T, bool) {
	for _, it := range l.items {
		if it.Key() == key {
			return it, true
		}
	}
	var zero T
	return zero, false
}

// all returns a copy of the items.
func (l *list[T]) all() []T {
	out := make([]T, len(l.items))
	copy(out, l.items)
	return out
}
