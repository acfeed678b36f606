package fakeapi

import (
	"errors"
	"sort"

	"github.com/aura-events/dashboard/internal/models"
)

var (
	errInvalidRole   = errors.New("invalid role")
	errInvalidEvent  = errors.New("title and total_seats are required")
	errInvalidStatus = errors.New("invalid status")
)

func sortByCreated(list []models.UserPublic) {
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].CreatedAt.Equal(list[j].CreatedAt.Time) {
			return list[i].Email < list[j].Email
		}
		return list[i].CreatedAt.Before(list[j].CreatedAt.Time)
	})
}
