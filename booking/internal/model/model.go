package model

import (
	"strings"
	"time"
)

type RoomType string

const (
	RoomTypeWorkspace   RoomType = "WORKSPACE"
	RoomTypeMeetingRoom RoomType = "MEETING_ROOM"
)

type Room struct {
	Name string   `json:"name" db:"name" validate:"required"`
	Type RoomType `json:"type" db:"type" validate:"required,oneof=WORKSPACE MEETING_ROOM"`
}

type User struct {
	Username string `json:"username" db:"username" validate:"required"`
	IsAdmin  bool   `json:"isAdmin" db:"is_admin"`
}

// Booking holds room RoomName for the half-open interval [StartTime, EndTime).
type Booking struct {
	ID         int64     `json:"id" db:"id"`
	BookingUid string    `json:"bookingUid" db:"booking_uid"`
	Username   string    `json:"username" db:"username"`
	RoomName   string    `json:"roomName" db:"room_name"`
	StartTime  time.Time `json:"startTime" db:"start_time"`
	EndTime    time.Time `json:"endTime" db:"end_time"`
}

// Overlaps reports whether b intersects [start, end).
func (b Booking) Overlaps(start, end time.Time) bool {
	return b.StartTime.Before(end) && b.EndTime.After(start)
}

// Available reports whether [start, end) is free among bookings, ignoring
// the booking with id exclude (0 ignores nothing).
func Available(bookings []Booking, start, end time.Time, exclude int64) bool {
	for _, b := range bookings {
		if exclude != 0 && b.ID == exclude {
			continue
		}
		if b.Overlaps(start, end) {
			return false
		}
	}
	return true
}

// DayBounds returns [00:00, 24:00) of the UTC calendar day containing t.
func DayBounds(t time.Time) (time.Time, time.Time) {
	t = t.UTC()
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 0, 1)
}

// BookingFilter holds the criteria of FilterBookings. Nil fields are absent.
type BookingFilter struct {
	Date     *time.Time
	Username *string
	RoomName *string
}

func (f BookingFilter) Empty() bool {
	return f.Date == nil && f.Username == nil && f.RoomName == nil
}

// Match reports whether b satisfies every present criterion.
func (f BookingFilter) Match(b Booking) bool {
	if f.Username != nil && b.Username != *f.Username {
		return false
	}
	if f.RoomName != nil && b.RoomName != *f.RoomName {
		return false
	}
	if f.Date != nil {
		from, to := DayBounds(*f.Date)
		if b.StartTime.Before(from) || !b.StartTime.Before(to) {
			return false
		}
	}
	return true
}

type CreateBookingRequest struct {
	RoomName  string    `json:"roomName" validate:"required"`
	StartTime time.Time `json:"startTime" validate:"required"`
	EndTime   time.Time `json:"endTime" validate:"required"`
}

type UpdateBookingRequest struct {
	OriginalRoomName  string    `json:"-" validate:"required"`
	OriginalStartTime time.Time `json:"-" validate:"required"`
	RoomName          string    `json:"roomName" validate:"required"`
	StartTime         time.Time `json:"startTime" validate:"required"`
	EndTime           time.Time `json:"endTime" validate:"required"`
}

type AvailableHours struct {
	RoomName string `json:"roomName"`
	Date     Date   `json:"date"`
	Hours    []int  `json:"hours"`
}

type Date struct {
	time.Time `json:",inline"`
}

func (d *Date) UnmarshalJSON(b []byte) (err error) {
	s := strings.Trim(string(b), "\"")
	date, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return err
	}
	d.Time = date
	return
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Format(time.DateOnly) + `"`), nil
}

type EventType string

const (
	EventBookingCreated EventType = "booking.created"
	EventBookingUpdated EventType = "booking.updated"
	EventBookingDeleted EventType = "booking.deleted"
)

type BookingEvent struct {
	Type      EventType `json:"type"`
	Booking   Booking   `json:"booking"`
	Previous  *Booking  `json:"previous,omitempty"`
	Actor     string    `json:"actor"`
	Timestamp time.Time `json:"timestamp"`
}
