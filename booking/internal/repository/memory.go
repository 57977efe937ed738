package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Astemirdum/room-booking/booking/internal/errs"
	"github.com/Astemirdum/room-booking/booking/internal/model"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type bookingKey struct {
	room  string
	start time.Time
}

func keyOf(room string, start time.Time) bookingKey {
	return bookingKey{room: room, start: instant(start)}
}

type heldRoomsKey struct{}

type memoryRepository struct {
	// mu guards the indexes; a Replace is applied under one write lock so
	// readers never observe the old and new booking at once or neither.
	mu     sync.RWMutex
	nextID int64
	byID   map[int64]model.Booking
	byKey  map[bookingKey]int64
	byRoom map[string]map[int64]struct{}

	// locks holds one single-slot channel per room; a send acquires.
	locksMu sync.Mutex
	locks   map[string]chan struct{}

	log *zap.Logger
}

func NewMemoryRepository(log *zap.Logger) *memoryRepository {
	return &memoryRepository{
		byID:   make(map[int64]model.Booking),
		byKey:  make(map[bookingKey]int64),
		byRoom: make(map[string]map[int64]struct{}),
		locks:  make(map[string]chan struct{}),
		log:    log.Named("memory-repo"),
	}
}

func (r *memoryRepository) roomLock(room string) chan struct{} {
	r.locksMu.Lock()
	defer r.locksMu.Unlock()
	l, ok := r.locks[room]
	if !ok {
		l = make(chan struct{}, 1)
		r.locks[room] = l
	}
	return l
}

func (r *memoryRepository) WithRoomLock(ctx context.Context, rooms []string, fn func(ctx context.Context) error) error {
	if held, ok := ctx.Value(heldRoomsKey{}).(map[string]struct{}); ok {
		for _, room := range rooms {
			if _, ok := held[room]; !ok {
				return errors.Errorf("room %q is not locked by the enclosing call", room)
			}
		}
		return fn(ctx)
	}

	ordered := lockOrder(rooms)
	held := make(map[string]struct{}, len(ordered))
	for _, room := range ordered {
		l := r.roomLock(room)
		select {
		case l <- struct{}{}:
		case <-ctx.Done():
			return ctx.Err()
		}
		defer func() { <-l }()
		held[room] = struct{}{}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(context.WithValue(ctx, heldRoomsKey{}, held))
}

func (r *memoryRepository) FindByRoomAndTime(ctx context.Context, roomName string, start time.Time) (model.Booking, error) {
	if err := ctx.Err(); err != nil {
		return model.Booking{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byKey[keyOf(roomName, start)]
	if !ok {
		return model.Booking{}, errs.ErrNotFound
	}
	return r.byID[id], nil
}

func (r *memoryRepository) FindByRoom(ctx context.Context, roomName string) ([]model.Booking, error) {
	return r.List(ctx, model.BookingFilter{RoomName: &roomName})
}

func (r *memoryRepository) FindByUser(ctx context.Context, username string) ([]model.Booking, error) {
	return r.List(ctx, model.BookingFilter{Username: &username})
}

func (r *memoryRepository) FindByDate(ctx context.Context, date time.Time) ([]model.Booking, error) {
	return r.List(ctx, model.BookingFilter{Date: &date})
}

func (r *memoryRepository) FindOverlapping(ctx context.Context, roomName string, start, end time.Time) ([]model.Booking, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.overlapping(roomName, instant(start), instant(end), 0), nil
}

func (r *memoryRepository) List(ctx context.Context, filter model.BookingFilter) ([]model.Booking, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	items := make([]model.Booking, 0)
	if filter.RoomName != nil {
		for id := range r.byRoom[*filter.RoomName] {
			if b := r.byID[id]; filter.Match(b) {
				items = append(items, b)
			}
		}
	} else {
		for _, b := range r.byID {
			if filter.Match(b) {
				items = append(items, b)
			}
		}
	}
	sortByID(items)
	return items, nil
}

func (r *memoryRepository) Create(ctx context.Context, b model.Booking) (model.Booking, error) {
	if err := ctx.Err(); err != nil {
		return model.Booking{}, err
	}
	b = normalize(b)
	if !b.StartTime.Before(b.EndTime) {
		return model.Booking{}, errs.ErrInvalidInterval
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.overlapping(b.RoomName, b.StartTime, b.EndTime, 0)) > 0 {
		return model.Booking{}, errs.ErrNotAvailable
	}
	r.nextID++
	b.ID = r.nextID
	if b.BookingUid == "" {
		b.BookingUid = uuid.NewString()
	}
	r.insert(b)
	r.log.Debug("created", zap.Int64("id", b.ID), zap.String("room", b.RoomName))
	return b, nil
}

func (r *memoryRepository) Replace(ctx context.Context, id int64, b model.Booking) (model.Booking, error) {
	if err := ctx.Err(); err != nil {
		return model.Booking{}, err
	}
	b = normalize(b)
	if !b.StartTime.Before(b.EndTime) {
		return model.Booking{}, errs.ErrInvalidInterval
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	old, ok := r.byID[id]
	if !ok {
		return model.Booking{}, errs.ErrNotFound
	}
	if len(r.overlapping(b.RoomName, b.StartTime, b.EndTime, id)) > 0 {
		return model.Booking{}, errs.ErrNotAvailable
	}
	b.ID = old.ID
	b.BookingUid = old.BookingUid
	r.remove(old)
	r.insert(b)
	r.log.Debug("replaced", zap.Int64("id", b.ID), zap.String("room", b.RoomName))
	return b, nil
}

func (r *memoryRepository) Delete(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.byID[id]
	if !ok {
		return errs.ErrNotFound
	}
	r.remove(b)
	r.log.Debug("deleted", zap.Int64("id", b.ID), zap.String("room", b.RoomName))
	return nil
}

// overlapping must be called with mu held.
func (r *memoryRepository) overlapping(roomName string, start, end time.Time, exclude int64) []model.Booking {
	var items []model.Booking
	for id := range r.byRoom[roomName] {
		if id == exclude {
			continue
		}
		if b := r.byID[id]; b.Overlaps(start, end) {
			items = append(items, b)
		}
	}
	sortByID(items)
	return items
}

func (r *memoryRepository) insert(b model.Booking) {
	r.byID[b.ID] = b
	r.byKey[keyOf(b.RoomName, b.StartTime)] = b.ID
	ids, ok := r.byRoom[b.RoomName]
	if !ok {
		ids = make(map[int64]struct{})
		r.byRoom[b.RoomName] = ids
	}
	ids[b.ID] = struct{}{}
}

func (r *memoryRepository) remove(b model.Booking) {
	delete(r.byID, b.ID)
	delete(r.byKey, keyOf(b.RoomName, b.StartTime))
	if ids, ok := r.byRoom[b.RoomName]; ok {
		delete(ids, b.ID)
		if len(ids) == 0 {
			delete(r.byRoom, b.RoomName)
		}
	}
}

func sortByID(items []model.Booking) {
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
}
