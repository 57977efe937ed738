package model_test

import (
	"testing"
	"time"

	"github.com/Astemirdum/room-booking/booking/internal/model"
	"github.com/stretchr/testify/require"
)

func at(hour, minute int) time.Time {
	return time.Date(2024, 6, 20, hour, minute, 0, 0, time.UTC)
}

func TestBooking_Overlaps(t *testing.T) {
	t.Parallel()
	b := model.Booking{ID: 1, RoomName: "Room1", StartTime: at(10, 0), EndTime: at(11, 0)}

	tests := []struct {
		name       string
		start, end time.Time
		expect     bool
	}{
		{name: "same interval", start: at(10, 0), end: at(11, 0), expect: true},
		{name: "extends past end", start: at(10, 0), end: at(11, 30), expect: true},
		{name: "inside", start: at(10, 15), end: at(10, 45), expect: true},
		{name: "covers", start: at(9, 0), end: at(12, 0), expect: true},
		{name: "back to back after", start: at(11, 0), end: at(12, 0), expect: false},
		{name: "back to back before", start: at(9, 0), end: at(10, 0), expect: false},
		{name: "far away", start: at(14, 0), end: at(15, 0), expect: false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.expect, b.Overlaps(tt.start, tt.end))
		})
	}
}

func TestAvailable(t *testing.T) {
	t.Parallel()
	bookings := []model.Booking{
		{ID: 1, StartTime: at(10, 0), EndTime: at(11, 0)},
		{ID: 2, StartTime: at(13, 0), EndTime: at(14, 0)},
	}
	require.False(t, model.Available(bookings, at(10, 0), at(11, 0), 0))
	require.True(t, model.Available(bookings, at(10, 0), at(11, 0), 1))
	require.False(t, model.Available(bookings, at(10, 0), at(13, 30), 1))
	require.True(t, model.Available(bookings, at(11, 0), at(13, 0), 0))
	require.True(t, model.Available(nil, at(0, 0), at(23, 0), 0))
}

func TestBookingFilter_Match(t *testing.T) {
	t.Parallel()
	alice := "alice"
	roomA := "RoomA"
	day := time.Date(2024, 6, 20, 0, 0, 0, 0, time.UTC)

	b := model.Booking{Username: "alice", RoomName: "RoomA", StartTime: at(23, 0), EndTime: at(23, 30)}

	require.True(t, model.BookingFilter{}.Match(b))
	require.True(t, model.BookingFilter{}.Empty())
	require.True(t, model.BookingFilter{Date: &day, Username: &alice, RoomName: &roomA}.Match(b))

	nextDay := day.AddDate(0, 0, 1)
	require.False(t, model.BookingFilter{Date: &nextDay}.Match(b))

	bob := "bob"
	require.False(t, model.BookingFilter{Username: &bob, RoomName: &roomA}.Match(b))
}

func TestDate_JSON(t *testing.T) {
	t.Parallel()
	var d model.Date
	require.NoError(t, d.UnmarshalJSON([]byte(`"2024-06-20"`)))
	require.Equal(t, time.Date(2024, 6, 20, 0, 0, 0, 0, time.UTC), d.Time)

	out, err := d.MarshalJSON()
	require.NoError(t, err)
	require.Equal(t, `"2024-06-20"`, string(out))

	require.Error(t, d.UnmarshalJSON([]byte(`"20.06.2024"`)))
}
