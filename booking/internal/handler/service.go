package handler

import (
	"context"
	"iter"
	"time"

	"github.com/Astemirdum/room-booking/booking/internal/model"
	"github.com/Astemirdum/room-booking/booking/internal/service"
	"github.com/Astemirdum/room-booking/pkg/auth"
)

//go:generate go run github.com/golang/mock/mockgen -source=service.go -destination=mocks/mock.go

type BookingService interface {
	CreateBooking(ctx context.Context, caller auth.Identity, req model.CreateBookingRequest) (model.Booking, error)
	UpdateBooking(ctx context.Context, caller auth.Identity, req model.UpdateBookingRequest) (model.Booking, error)
	DeleteBooking(ctx context.Context, caller auth.Identity, roomName string, start time.Time) error
	FilterBookings(ctx context.Context, filter model.BookingFilter) ([]model.Booking, error)
	UserBookings(ctx context.Context, caller auth.Identity) ([]model.Booking, error)
	GetAvailableHours(ctx context.Context, date time.Time, roomName string) (iter.Seq[int], error)
}

type CatalogService interface {
	CreateRoom(ctx context.Context, caller auth.Identity, room model.Room) (model.Room, error)
	ListRooms(ctx context.Context) ([]model.Room, error)
	DeleteRoom(ctx context.Context, caller auth.Identity, name string) error
	CreateUser(ctx context.Context, caller auth.Identity, user model.User) (model.User, error)
}

var (
	_ BookingService = (*service.Service)(nil)
	_ CatalogService = (*service.Service)(nil)
)
