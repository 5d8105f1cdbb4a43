// Package inmemdb is the development backend's storage: every LMS table in memory.
package inmemdb

import (
	"sort"
	"sync"

	"github.com/pkg/errors"

	"github.com/trezcool/masomo-portal/core/lms"
)

var (
	ErrNotFound    = errors.New("not found")
	ErrEmailExists = errors.New("a user with this email already exists")
)

// table is a mutex-guarded map of rows keyed by a sequential primary key.
type table[T any] struct {
	mutex sync.RWMutex
	pk    int
	rows  map[int]T
}

func newTable[T any]() *table[T] {
	return &table[T]{rows: make(map[int]T)}
}

// insert stores the row built by mk from the next primary key.
func (t *table[T]) insert(mk func(id int) T) T {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	t.pk++
	row := mk(t.pk)
	t.rows[t.pk] = row
	return row
}

func (t *table[T]) get(id int) (T, error) {
	t.mutex.RLock()
	defer t.mutex.RUnlock()
	row, ok := t.rows[id]
	if !ok {
		var zero T
		return zero, ErrNotFound
	}
	return row, nil
}

// update applies fn to the row under id and stores the result.
func (t *table[T]) update(id int, fn func(T) T) (T, error) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	row, ok := t.rows[id]
	if !ok {
		var zero T
		return zero, ErrNotFound
	}
	row = fn(row)
	t.rows[id] = row
	return row, nil
}

// query returns the rows accepted by keep, newest first.
func (t *table[T]) query(keep func(T) bool) []T {
	t.mutex.RLock()
	defer t.mutex.RUnlock()
	ids := make([]int, 0, len(t.rows))
	for id, row := range t.rows {
		if keep == nil || keep(row) {
			ids = append(ids, id)
		}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(ids)))
	rows := make([]T, 0, len(ids))
	for _, id := range ids {
		rows = append(rows, t.rows[id])
	}
	return rows
}

type DB struct {
	accounts      *accountTable
	courses       *table[lms.Course]
	assignments   *table[lms.Assignment]
	submissions   *table[lms.Submission]
	gradebook     *table[lms.GradebookEntry]
	announcements *table[lms.Announcement]
}

func Open() *DB {
	return &DB{
		accounts:      &accountTable{rows: make(map[string]Account)},
		courses:       newTable[lms.Course](),
		assignments:   newTable[lms.Assignment](),
		submissions:   newTable[lms.Submission](),
		gradebook:     newTable[lms.GradebookEntry](),
		announcements: newTable[lms.Announcement](),
	}
}
