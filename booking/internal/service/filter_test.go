package service

import (
	"context"
	"testing"
	"time"

	"github.com/Astemirdum/room-booking/booking/internal/model"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestService_FilterBookings(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _ := newTestService(t)

	first, err := svc.CreateBooking(ctx, alice, createReq("RoomA", at(20, 9, 0), at(20, 10, 0)))
	require.NoError(t, err)
	second, err := svc.CreateBooking(ctx, bob, createReq("RoomA", at(21, 9, 0), at(21, 10, 0)))
	require.NoError(t, err)
	third, err := svc.CreateBooking(ctx, alice, createReq("Room1", at(21, 23, 0), at(22, 1, 0)))
	require.NoError(t, err)

	tests := []struct {
		name   string
		filter model.BookingFilter
		want   []model.Booking
	}{
		{
			name:   "no criteria",
			filter: model.BookingFilter{},
			want:   []model.Booking{first, second, third},
		},
		{
			name:   "date and user",
			filter: model.BookingFilter{Date: ptr(at(20, 0, 0)), Username: ptr("alice")},
			want:   []model.Booking{first},
		},
		{
			name:   "user and room",
			filter: model.BookingFilter{Username: ptr("bob"), RoomName: ptr("RoomA")},
			want:   []model.Booking{second},
		},
		{
			name:   "date matches start day only",
			filter: model.BookingFilter{Date: ptr(at(22, 0, 0))},
			want:   []model.Booking{},
		},
		{
			name:   "date in another zone",
			filter: model.BookingFilter{Date: ptr(time.Date(2024, 6, 21, 12, 0, 0, 0, time.FixedZone("UTC+3", 3*3600)))},
			want:   []model.Booking{second, third},
		},
		{
			name:   "unknown user",
			filter: model.BookingFilter{Username: ptr("carol")},
			want:   []model.Booking{},
		},
		{
			name:   "unknown room",
			filter: model.BookingFilter{Username: ptr("alice"), RoomName: ptr("missing")},
			want:   []model.Booking{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := svc.FilterBookings(ctx, tt.filter)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestService_UserBookings(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _ := newTestService(t)

	mine, err := svc.CreateBooking(ctx, alice, createReq("Room1", at(20, 9, 0), at(20, 10, 0)))
	require.NoError(t, err)
	_, err = svc.CreateBooking(ctx, bob, createReq("Room2", at(20, 9, 0), at(20, 10, 0)))
	require.NoError(t, err)

	got, err := svc.UserBookings(ctx, alice)
	require.NoError(t, err)
	require.Equal(t, []model.Booking{mine}, got)
}
