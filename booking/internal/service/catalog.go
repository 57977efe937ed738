package service

import (
	"context"

	"github.com/Astemirdum/room-booking/booking/internal/errs"
	"github.com/Astemirdum/room-booking/booking/internal/model"
	"github.com/Astemirdum/room-booking/pkg/auth"
	"go.uber.org/zap"
)

func requireAdmin(caller auth.Identity) error {
	if !caller.Authenticated() {
		return errs.ErrUnauthenticated
	}
	if !caller.IsAdmin {
		return errs.ErrPermissionDenied
	}
	return nil
}

func (s *Service) CreateRoom(ctx context.Context, caller auth.Identity, room model.Room) (model.Room, error) {
	if err := requireAdmin(caller); err != nil {
		return model.Room{}, err
	}
	if room.Name == "" {
		return model.Room{}, errs.ErrInvalidArgument
	}
	switch room.Type {
	case model.RoomTypeWorkspace, model.RoomTypeMeetingRoom:
	default:
		return model.Room{}, errs.ErrInvalidArgument
	}
	if err := s.catalog.CreateRoom(ctx, room); err != nil {
		return model.Room{}, err
	}
	s.log.Info("room created", zap.String("room", room.Name), zap.String("type", string(room.Type)))
	return room, nil
}

func (s *Service) ListRooms(ctx context.Context) ([]model.Room, error) {
	return s.catalog.ListRooms(ctx)
}

// DeleteRoom removes the room from the catalog. Its bookings stay in the
// store; they carry the room name by value.
func (s *Service) DeleteRoom(ctx context.Context, caller auth.Identity, name string) error {
	if err := requireAdmin(caller); err != nil {
		return err
	}
	if err := s.catalog.DeleteRoom(ctx, name); err != nil {
		return err
	}
	s.log.Info("room deleted", zap.String("room", name))
	return nil
}

func (s *Service) CreateUser(ctx context.Context, caller auth.Identity, user model.User) (model.User, error) {
	if err := requireAdmin(caller); err != nil {
		return model.User{}, err
	}
	if user.Username == "" {
		return model.User{}, errs.ErrInvalidArgument
	}
	if err := s.catalog.CreateUser(ctx, user); err != nil {
		return model.User{}, err
	}
	s.log.Info("user created", zap.String("user", user.Username), zap.Bool("admin", user.IsAdmin))
	return user, nil
}
