package repository

import (
	"context"
	"sync"
	"testing"

	"github.com/Astemirdum/room-booking/booking/internal/errs"
	"github.com/Astemirdum/room-booking/booking/internal/model"
	"github.com/Astemirdum/room-booking/booking/internal/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestPostgresRepository(t *testing.T) {
	pool := testutil.NewTestPool(t)
	ctx := context.Background()
	testutil.TruncateBookings(t, ctx, pool)

	repo, err := NewRepository(pool, zap.NewNop())
	require.NoError(t, err)

	a, err := repo.Create(ctx, newBooking("alice", "Room1", hour(20, 10), hour(20, 11)))
	require.NoError(t, err)
	require.NotZero(t, a.ID)
	require.NotEmpty(t, a.BookingUid)

	t.Run("overlap rejected by constraint", func(t *testing.T) {
		_, err := repo.Create(ctx, newBooking("bob", "Room1", hour(20, 10), hour(20, 12)))
		require.ErrorIs(t, err, errs.ErrConflict)
	})

	b, err := repo.Create(ctx, newBooking("bob", "Room1", hour(20, 11), hour(20, 12)))
	require.NoError(t, err)

	t.Run("find", func(t *testing.T) {
		got, err := repo.FindByRoomAndTime(ctx, "Room1", hour(20, 10))
		require.NoError(t, err)
		require.Equal(t, a, got)

		_, err = repo.FindByRoomAndTime(ctx, "Room1", hour(20, 9))
		require.ErrorIs(t, err, errs.ErrNotFound)

		items, err := repo.FindOverlapping(ctx, "Room1", hour(20, 10), hour(20, 11))
		require.NoError(t, err)
		require.Equal(t, []model.Booking{a}, items)

		byUser, err := repo.FindByUser(ctx, "bob")
		require.NoError(t, err)
		require.Equal(t, []model.Booking{b}, byUser)

		byDate, err := repo.FindByDate(ctx, hour(20, 0))
		require.NoError(t, err)
		require.Equal(t, []model.Booking{a, b}, byDate)

		none, err := repo.FindByDate(ctx, hour(21, 0))
		require.NoError(t, err)
		require.Empty(t, none)
	})

	t.Run("replace keeps identity", func(t *testing.T) {
		_, err := repo.Replace(ctx, a.ID, newBooking("alice", "Room1", hour(20, 10), hour(20, 12)))
		require.ErrorIs(t, err, errs.ErrConflict)

		moved, err := repo.Replace(ctx, a.ID, newBooking("alice", "Room2", hour(20, 10), hour(20, 11)))
		require.NoError(t, err)
		require.Equal(t, a.ID, moved.ID)
		require.Equal(t, a.BookingUid, moved.BookingUid)
		require.Equal(t, "Room2", moved.RoomName)

		_, err = repo.Replace(ctx, 1<<40, moved)
		require.ErrorIs(t, err, errs.ErrNotFound)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, b.ID))
		require.ErrorIs(t, repo.Delete(ctx, b.ID), errs.ErrNotFound)
	})
}

func TestPostgresRepository_ConcurrentCreate(t *testing.T) {
	pool := testutil.NewTestPool(t)
	ctx := context.Background()
	testutil.TruncateBookings(t, ctx, pool)

	repo, err := NewRepository(pool, zap.NewNop())
	require.NoError(t, err)

	const writers = 10
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		success int
	)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := repo.WithRoomLock(ctx, []string{"Room1"}, func(ctx context.Context) error {
				items, err := repo.FindOverlapping(ctx, "Room1", hour(22, 10), hour(22, 11))
				if err != nil {
					return err
				}
				if len(items) > 0 {
					return errs.ErrNotAvailable
				}
				_, err = repo.Create(ctx, newBooking("u", "Room1", hour(22, 10), hour(22, 11)))
				return err
			})
			if err == nil {
				mu.Lock()
				success++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	require.Equal(t, 1, success)
}

func TestPostgresCatalog(t *testing.T) {
	pool := testutil.NewTestPool(t)
	ctx := context.Background()
	c := NewCatalog(pool, zap.NewNop())

	room, err := c.FindRoomByName(ctx, "Room1")
	require.NoError(t, err)
	require.Equal(t, model.RoomTypeMeetingRoom, room.Type)

	_, err = c.FindRoomByName(ctx, "no-such-room")
	require.ErrorIs(t, err, errs.ErrNotFound)

	name := "catalog-test-desk"
	_ = c.DeleteRoom(ctx, name)
	require.NoError(t, c.CreateRoom(ctx, model.Room{Name: name, Type: model.RoomTypeWorkspace}))
	require.ErrorIs(t, c.CreateRoom(ctx, model.Room{Name: name, Type: model.RoomTypeWorkspace}), errs.ErrConflict)

	rooms, err := c.ListRooms(ctx)
	require.NoError(t, err)
	require.Contains(t, rooms, model.Room{Name: name, Type: model.RoomTypeWorkspace})

	require.NoError(t, c.DeleteRoom(ctx, name))
	require.ErrorIs(t, c.DeleteRoom(ctx, name), errs.ErrNotFound)

	admin, err := c.FindUserByUsername(ctx, "admin")
	require.NoError(t, err)
	require.True(t, admin.IsAdmin)
}
