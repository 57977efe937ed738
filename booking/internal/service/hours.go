package service

import (
	"context"
	"iter"
	"time"

	"github.com/Astemirdum/room-booking/booking/internal/model"
)

const hoursPerDay = 24

// GetAvailableHours yields every hour h of date's UTC day whose slot
// [h:00, h+1:00) is free in roomName. The sequence is computed from one read
// of the day's bookings, so every iteration sees the same answer and nothing
// is reserved.
func (s *Service) GetAvailableHours(ctx context.Context, date time.Time, roomName string) (iter.Seq[int], error) {
	if err := s.roomExists(ctx, roomName); err != nil {
		return nil, err
	}
	dayStart, dayEnd := model.DayBounds(date)
	snapshot, err := s.repo.FindOverlapping(ctx, roomName, dayStart, dayEnd)
	if err != nil {
		return nil, err
	}

	return func(yield func(int) bool) {
		for h := 0; h < hoursPerDay; h++ {
			slotStart := dayStart.Add(time.Duration(h) * time.Hour)
			if !model.Available(snapshot, slotStart, slotStart.Add(time.Hour), 0) {
				continue
			}
			if !yield(h) {
				return
			}
		}
	}, nil
}
