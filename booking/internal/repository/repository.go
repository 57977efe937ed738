package repository

import (
	"context"
	"sort"
	"time"

	"github.com/Astemirdum/room-booking/booking/internal/model"
)

// Repository is the booking store. Writers must run inside WithRoomLock for
// every room they touch; the store itself rejects overlapping bookings with
// errs.ErrConflict.
type Repository interface {
	// WithRoomLock runs fn while holding exclusive write locks on rooms.
	// Calls nested through the ctx passed to fn reuse the held locks.
	WithRoomLock(ctx context.Context, rooms []string, fn func(ctx context.Context) error) error

	FindByRoomAndTime(ctx context.Context, roomName string, start time.Time) (model.Booking, error)
	FindByRoom(ctx context.Context, roomName string) ([]model.Booking, error)
	FindByUser(ctx context.Context, username string) ([]model.Booking, error)
	FindByDate(ctx context.Context, date time.Time) ([]model.Booking, error)
	// FindOverlapping returns bookings of roomName intersecting [start, end).
	FindOverlapping(ctx context.Context, roomName string, start, end time.Time) ([]model.Booking, error)
	List(ctx context.Context, filter model.BookingFilter) ([]model.Booking, error)

	Create(ctx context.Context, b model.Booking) (model.Booking, error)
	// Replace swaps booking id for b in one step, keeping id and BookingUid.
	Replace(ctx context.Context, id int64, b model.Booking) (model.Booking, error)
	Delete(ctx context.Context, id int64) error
}

type Catalog interface {
	FindRoomByName(ctx context.Context, name string) (model.Room, error)
	FindUserByUsername(ctx context.Context, username string) (model.User, error)

	CreateRoom(ctx context.Context, room model.Room) error
	ListRooms(ctx context.Context) ([]model.Room, error)
	DeleteRoom(ctx context.Context, name string) error
	CreateUser(ctx context.Context, user model.User) error
}

// lockOrder returns the distinct rooms sorted, the order locks are taken in.
func lockOrder(rooms []string) []string {
	seen := make(map[string]struct{}, len(rooms))
	out := make([]string, 0, len(rooms))
	for _, r := range rooms {
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	sort.Strings(out)
	return out
}

// instant maps t onto what the bookings table stores: UTC at microsecond
// precision. Both stores key and compare on it so they agree on equality.
func instant(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}

func normalize(b model.Booking) model.Booking {
	b.StartTime = instant(b.StartTime)
	b.EndTime = instant(b.EndTime)
	return b
}

var (
	_ Repository = (*repository)(nil)
	_ Repository = (*memoryRepository)(nil)
	_ Catalog    = (*catalog)(nil)
	_ Catalog    = (*memoryCatalog)(nil)
)
