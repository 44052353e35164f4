// Package planner computes the ordered work list the Engine drives
// through the Store for each CLI command, given the full migration set
// and the set of already-completed ids. The planner never touches the
// database itself; it is pure given its inputs.
package planner

import (
	"log/slog"
	"sort"

	"github.com/wrenchdb/wrench/pkg/kind"
)

// Direction selects which side of a migration's kind the Engine invokes.
type Direction int

const (
	Up Direction = iota
	Down
)

func (d Direction) String() string {
	if d == Up {
		return "up"
	}
	return "down"
}

// Item is one planned unit of work: a migration id paired with the
// direction to run it.
type Item struct {
	Descriptor *kind.Descriptor
	Direction  Direction
}

// completedSet turns the Store's completed-id slice into a lookup set.
func completedSet(completed []int64) map[int64]struct{} {
	set := make(map[int64]struct{}, len(completed))
	for _, id := range completed {
		set[id] = struct{}{}
	}
	return set
}

func sortedIDs(set map[int64]*kind.Descriptor, desc bool) []int64 {
	ids := make([]int64, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if desc {
			return ids[i] > ids[j]
		}
		return ids[i] < ids[j]
	})
	return ids
}

// pending returns every migration id in migrations not yet in completed,
// ascending.
func pending(migrations map[int64]*kind.Descriptor, completed []int64) []int64 {
	done := completedSet(completed)

	var ids []int64
	for id := range migrations {
		if _, ok := done[id]; !ok {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func toItems(migrations map[int64]*kind.Descriptor, ids []int64, dir Direction) []Item {
	items := make([]Item, 0, len(ids))
	for _, id := range ids {
		items = append(items, Item{Descriptor: migrations[id], Direction: dir})
	}
	return items
}

// Migrate returns every pending migration, ascending, direction up.
func Migrate(migrations map[int64]*kind.Descriptor, completed []int64) []Item {
	return toItems(migrations, pending(migrations, completed), Up)
}

// MigrateUntilJustBefore returns pending migrations with id < target,
// ascending, direction up.
func MigrateUntilJustBefore(migrations map[int64]*kind.Descriptor, completed []int64, target int64) []Item {
	var ids []int64
	for _, id := range pending(migrations, completed) {
		if id < target {
			ids = append(ids, id)
		}
	}
	return toItems(migrations, ids, Up)
}

// UpByID returns one item per listed id, in the given order, skipping ids
// already completed or unknown to the migration set.
func UpByID(migrations map[int64]*kind.Descriptor, completed []int64, ids []int64) []Item {
	done := completedSet(completed)

	var items []Item
	for _, id := range ids {
		if _, ok := migrations[id]; !ok {
			slog.Warn("planner: unknown migration id, skipping", "id", id)
			continue
		}
		if _, ok := done[id]; ok {
			continue
		}
		items = append(items, Item{Descriptor: migrations[id], Direction: Up})
	}
	return items
}

// DownByID returns one item per listed id, in the given order, skipping
// ids not completed or unknown to the migration set.
func DownByID(migrations map[int64]*kind.Descriptor, completed []int64, ids []int64) []Item {
	done := completedSet(completed)

	var items []Item
	for _, id := range ids {
		if _, ok := migrations[id]; !ok {
			slog.Warn("planner: unknown migration id, skipping", "id", id)
			continue
		}
		if _, ok := done[id]; !ok {
			continue
		}
		items = append(items, Item{Descriptor: migrations[id], Direction: Down})
	}
	return items
}

// Rollback returns the single most-recently-applied migration, direction
// down, or nil if nothing is completed.
func Rollback(migrations map[int64]*kind.Descriptor, completed []int64) []Item {
	if len(completed) == 0 {
		return nil
	}

	max := completed[0]
	for _, id := range completed[1:] {
		if id > max {
			max = id
		}
	}
	if _, ok := migrations[max]; !ok {
		return nil
	}
	return []Item{{Descriptor: migrations[max], Direction: Down}}
}

// RollbackUntilJustAfter returns every completed migration with id >
// target, descending, direction down.
func RollbackUntilJustAfter(migrations map[int64]*kind.Descriptor, completed []int64, target int64) []Item {
	var ids []int64
	for _, id := range completed {
		if id > target {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] > ids[j] })
	return toItems(migrations, ids, Down)
}

// Reset returns every completed migration descending (direction down),
// followed by every pending migration ascending (direction up) — a full
// rebuild of the migration set from empty.
func Reset(migrations map[int64]*kind.Descriptor, completed []int64) []Item {
	var ids []int64
	for _, id := range completed {
		if _, ok := migrations[id]; ok {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] > ids[j] })

	items := toItems(migrations, ids, Down)
	return append(items, toItems(migrations, sortedIDs(migrations, false), Up)...)
}

// PendingNames returns the human names of every pending migration,
// ascending by id, for the list --pending reporting surface.
func PendingNames(migrations map[int64]*kind.Descriptor, completed []int64) []string {
	ids := pending(migrations, completed)
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		names = append(names, migrations[id].Name)
	}
	return names
}

// AllIDs returns every migration id in the set, ascending.
func AllIDs(migrations map[int64]*kind.Descriptor) []int64 {
	return sortedIDs(migrations, false)
}
