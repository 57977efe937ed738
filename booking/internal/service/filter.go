package service

import (
	"context"

	"github.com/Astemirdum/room-booking/booking/internal/errs"
	"github.com/Astemirdum/room-booking/booking/internal/model"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// FilterBookings returns the bookings matching every criterion present in
// filter, in store order. A username or room name unknown to the catalog
// matches nothing.
func (s *Service) FilterBookings(ctx context.Context, filter model.BookingFilter) ([]model.Booking, error) {
	var unknownUser, unknownRoom bool

	g, gCtx := errgroup.WithContext(ctx)
	if filter.Username != nil {
		g.Go(func() error {
			_, err := s.catalog.FindUserByUsername(gCtx, *filter.Username)
			if errors.Is(err, errs.ErrNotFound) {
				unknownUser = true
				return nil
			}
			return err
		})
	}
	if filter.RoomName != nil {
		g.Go(func() error {
			_, err := s.catalog.FindRoomByName(gCtx, *filter.RoomName)
			if errors.Is(err, errs.ErrNotFound) {
				unknownRoom = true
				return nil
			}
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if unknownUser || unknownRoom {
		return []model.Booking{}, nil
	}

	return s.repo.List(ctx, filter)
}
