// Package listmut applies local updates to displayed collections of
// server-owned records.
package listmut

import (
	"time"

	"github.com/aura-events/dashboard/internal/models"
)

// Entity is a server-owned record with an identity and a moderation status.
type Entity[T any] interface {
	EntityID() string
	EntityStatus() models.Status
	WithStatus(s models.Status, at time.Time) T
}

// ApplyStatusChange returns a copy of items in which the element with id
// carries status and a refreshed update time. Length and order are kept.
// PRE: id occurs at most once
// POST: absent id returns an unchanged copy
func ApplyStatusChange[T Entity[T]](items []T, id string, status models.Status, at time.Time) []T {
	out := make([]T, len(items))
	copy(out, items)
	for i, it := range out {
		if it.EntityID() == id {
			out[i] = it.WithStatus(status, at)
			break
		}
	}
	return out
}

// RemoveByID returns a copy of items without the element with id.
func RemoveByID[T Entity[T]](items []T, id string) []T {
	out := make([]T, 0, len(items))
	for _, it := range items {
		if it.EntityID() != id {
			out = append(out, it)
		}
	}
	return out
}

// Find returns the element with id.
func Find[T Entity[T]](items []T, id string) (T, bool) {
	for _, it := range items {
		if it.EntityID() == id {
			return it, true
		}
	}
	var zero T
	return zero, false
}

// Partition splits items into pending and processed, keeping relative order.
func Partition[T Entity[T]](items []T) (pending, processed []T) {
	for _, it := range items {
		if it.EntityStatus() == models.StatusPending {
			pending = append(pending, it)
		} else {
			processed = append(processed, it)
		}
	}
	return pending, processed
}

// replace swaps in v for the element with the same id, if it is still there.
func replace[T Entity[T]](items []T, v T) []T {
	out := make([]T, len(items))
	copy(out, items)
	for i, it := range out {
		if it.EntityID() == v.EntityID() {
			out[i] = v
			break
		}
	}
	return out
}
