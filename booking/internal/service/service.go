package service

import (
	"context"
	"time"

	"github.com/Astemirdum/room-booking/booking/internal/errs"
	"github.com/Astemirdum/room-booking/booking/internal/model"
	"github.com/Astemirdum/room-booking/booking/internal/repository"
	"github.com/Astemirdum/room-booking/pkg/auth"
	"github.com/Astemirdum/room-booking/pkg/kafka"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type Service struct {
	log       *zap.Logger
	repo      repository.Repository
	catalog   repository.Catalog
	publisher kafka.Publisher
	now       func() time.Time
}

// NewService builds the reservation engine. A nil publisher disables events.
func NewService(repo repository.Repository, catalog repository.Catalog, publisher kafka.Publisher, log *zap.Logger) *Service {
	if publisher == nil {
		publisher = kafka.NewNopPublisher()
	}
	return &Service{
		log:       log.Named("service"),
		repo:      repo,
		catalog:   catalog,
		publisher: publisher,
		now:       time.Now,
	}
}

// IsAvailable reports whether no booking of roomName intersects [start, end).
func (s *Service) IsAvailable(ctx context.Context, roomName string, start, end time.Time) (bool, error) {
	if !start.Before(end) {
		return false, errs.ErrInvalidInterval
	}
	existing, err := s.repo.FindOverlapping(ctx, roomName, start, end)
	if err != nil {
		return false, err
	}
	return model.Available(existing, start, end, 0), nil
}

func (s *Service) CreateBooking(ctx context.Context, caller auth.Identity, req model.CreateBookingRequest) (model.Booking, error) {
	if !caller.Authenticated() {
		return model.Booking{}, errs.ErrUnauthenticated
	}
	if !req.StartTime.Before(req.EndTime) {
		return model.Booking{}, errs.ErrInvalidInterval
	}
	if err := s.userExists(ctx, caller.Username); err != nil {
		return model.Booking{}, err
	}
	if err := s.roomExists(ctx, req.RoomName); err != nil {
		return model.Booking{}, err
	}

	var created model.Booking
	err := s.repo.WithRoomLock(ctx, []string{req.RoomName}, func(ctx context.Context) error {
		existing, err := s.repo.FindOverlapping(ctx, req.RoomName, req.StartTime, req.EndTime)
		if err != nil {
			return err
		}
		if !model.Available(existing, req.StartTime, req.EndTime, 0) {
			return errs.ErrNotAvailable
		}
		created, err = s.repo.Create(ctx, model.Booking{
			Username:  caller.Username,
			RoomName:  req.RoomName,
			StartTime: req.StartTime,
			EndTime:   req.EndTime,
		})
		return err
	})
	if err != nil {
		return model.Booking{}, err
	}

	s.log.Info("booking created",
		zap.Int64("id", created.ID), zap.String("room", created.RoomName), zap.String("user", created.Username))
	s.publish(ctx, model.EventBookingCreated, caller, created, nil)
	return created, nil
}

func (s *Service) UpdateBooking(ctx context.Context, caller auth.Identity, req model.UpdateBookingRequest) (model.Booking, error) {
	if !caller.Authenticated() {
		return model.Booking{}, errs.ErrUnauthenticated
	}
	if !req.StartTime.Before(req.EndTime) {
		return model.Booking{}, errs.ErrInvalidInterval
	}

	var previous, updated model.Booking
	rooms := []string{req.OriginalRoomName, req.RoomName}
	err := s.repo.WithRoomLock(ctx, rooms, func(ctx context.Context) error {
		var err error
		previous, err = s.repo.FindByRoomAndTime(ctx, req.OriginalRoomName, req.OriginalStartTime)
		if err != nil {
			if errors.Is(err, errs.ErrNotFound) {
				return errors.Wrapf(err, "booking %s at %s", req.OriginalRoomName, req.OriginalStartTime.Format(time.RFC3339))
			}
			return err
		}
		if !caller.CanModify(previous.Username) {
			return errs.ErrPermissionDenied
		}
		if req.RoomName != previous.RoomName {
			if err := s.roomExists(ctx, req.RoomName); err != nil {
				return err
			}
		}

		existing, err := s.repo.FindOverlapping(ctx, req.RoomName, req.StartTime, req.EndTime)
		if err != nil {
			return err
		}
		if !model.Available(existing, req.StartTime, req.EndTime, previous.ID) {
			return errs.ErrNotAvailable
		}
		updated, err = s.repo.Replace(ctx, previous.ID, model.Booking{
			Username:  previous.Username,
			RoomName:  req.RoomName,
			StartTime: req.StartTime,
			EndTime:   req.EndTime,
		})
		return err
	})
	if err != nil {
		return model.Booking{}, err
	}

	s.log.Info("booking updated",
		zap.Int64("id", updated.ID), zap.String("room", updated.RoomName), zap.String("actor", caller.Username))
	s.publish(ctx, model.EventBookingUpdated, caller, updated, &previous)
	return updated, nil
}

// DeleteBooking removes the booking of roomName starting at start. A missing
// booking is reported as errs.ErrNotAvailable.
func (s *Service) DeleteBooking(ctx context.Context, caller auth.Identity, roomName string, start time.Time) error {
	if !caller.Authenticated() {
		return errs.ErrUnauthenticated
	}

	var deleted model.Booking
	err := s.repo.WithRoomLock(ctx, []string{roomName}, func(ctx context.Context) error {
		var err error
		deleted, err = s.repo.FindByRoomAndTime(ctx, roomName, start)
		if err != nil {
			if errors.Is(err, errs.ErrNotFound) {
				return errs.ErrNotAvailable
			}
			return err
		}
		if !caller.CanModify(deleted.Username) {
			return errs.ErrPermissionDenied
		}
		return s.repo.Delete(ctx, deleted.ID)
	})
	if err != nil {
		return err
	}

	s.log.Info("booking deleted",
		zap.Int64("id", deleted.ID), zap.String("room", deleted.RoomName), zap.String("actor", caller.Username))
	s.publish(ctx, model.EventBookingDeleted, caller, deleted, nil)
	return nil
}

// UserBookings lists the caller's own bookings.
func (s *Service) UserBookings(ctx context.Context, caller auth.Identity) ([]model.Booking, error) {
	if !caller.Authenticated() {
		return nil, errs.ErrUnauthenticated
	}
	return s.repo.FindByUser(ctx, caller.Username)
}

// userExists rejects callers missing from the catalog, so every booking
// names a registered user and shows up in username filters.
func (s *Service) userExists(ctx context.Context, username string) error {
	if _, err := s.catalog.FindUserByUsername(ctx, username); err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return errors.Wrapf(err, "user %q", username)
		}
		return err
	}
	return nil
}

func (s *Service) roomExists(ctx context.Context, roomName string) error {
	if _, err := s.catalog.FindRoomByName(ctx, roomName); err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return errors.Wrapf(err, "room %q", roomName)
		}
		return err
	}
	return nil
}

func (s *Service) publish(ctx context.Context, typ model.EventType, caller auth.Identity, b model.Booking, previous *model.Booking) {
	ev := model.BookingEvent{
		Type:      typ,
		Booking:   b,
		Previous:  previous,
		Actor:     caller.Username,
		Timestamp: s.now().UTC(),
	}
	if err := s.publisher.Publish(ctx, b.BookingUid, ev); err != nil {
		s.log.Warn("publish event", zap.String("type", string(typ)), zap.Int64("id", b.ID), zap.Error(err))
	}
}
