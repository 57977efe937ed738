package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Astemirdum/room-booking/booking/internal/errs"
	"github.com/Astemirdum/room-booking/booking/internal/model"
	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type repository struct {
	db  *pgxpool.Pool
	log *zap.Logger
}

func NewRepository(db *pgxpool.Pool, log *zap.Logger) (*repository, error) {
	return &repository{
		db:  db,
		log: log.Named("repo"),
	}, nil
}

const (
	bookingTableName = `bookings`
)

var (
	qb = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

	bookingColumns = []string{"id", "booking_uid::text AS booking_uid", "username", "room_name", "start_time", "end_time"}
	returning      = "RETURNING id, booking_uid::text AS booking_uid, username, room_name, start_time, end_time"
)

// WithRoomLock opens a transaction and takes a transaction-scoped advisory
// lock per room, in sorted order. The exclusion constraint on bookings stays
// the last line against overlaps written outside this path.
func (r *repository) WithRoomLock(ctx context.Context, rooms []string, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.db, func(txCtx context.Context) error {
		tx := txFromContext(txCtx)
		for _, room := range lockOrder(rooms) {
			if _, err := tx.Exec(txCtx, `SELECT pg_advisory_xact_lock(hashtext($1))`, room); err != nil {
				return fmt.Errorf("lock room %q: %w", room, err)
			}
		}
		return fn(txCtx)
	})
}

func (r *repository) FindByRoomAndTime(ctx context.Context, roomName string, start time.Time) (model.Booking, error) {
	query, args, err := qb.Select(bookingColumns...).
		From(bookingTableName).
		Where(sq.Eq{"room_name": roomName}).
		Where(sq.Eq{"start_time": instant(start)}).
		Limit(1).
		ToSql()
	if err != nil {
		return model.Booking{}, err
	}

	rows, err := conn(ctx, r.db).Query(ctx, query, args...)
	if err != nil {
		return model.Booking{}, err
	}
	defer rows.Close()

	b, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Booking])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Booking{}, errs.ErrNotFound
		}
		return model.Booking{}, fmt.Errorf("pgx.CollectOneRow: %w", err)
	}
	return normalize(b), nil
}

func (r *repository) FindByRoom(ctx context.Context, roomName string) ([]model.Booking, error) {
	return r.List(ctx, model.BookingFilter{RoomName: &roomName})
}

func (r *repository) FindByUser(ctx context.Context, username string) ([]model.Booking, error) {
	return r.List(ctx, model.BookingFilter{Username: &username})
}

func (r *repository) FindByDate(ctx context.Context, date time.Time) ([]model.Booking, error) {
	return r.List(ctx, model.BookingFilter{Date: &date})
}

func (r *repository) FindOverlapping(ctx context.Context, roomName string, start, end time.Time) ([]model.Booking, error) {
	q := qb.Select(bookingColumns...).
		From(bookingTableName).
		Where(sq.Eq{"room_name": roomName}).
		Where(sq.Lt{"start_time": instant(end)}).
		Where(sq.Gt{"end_time": instant(start)}).
		OrderBy("id")
	return r.collect(ctx, q)
}

func (r *repository) List(ctx context.Context, filter model.BookingFilter) ([]model.Booking, error) {
	q := qb.Select(bookingColumns...).
		From(bookingTableName).
		OrderBy("id")

	if filter.Username != nil {
		q = q.Where(sq.Eq{"username": *filter.Username})
	}
	if filter.RoomName != nil {
		q = q.Where(sq.Eq{"room_name": *filter.RoomName})
	}
	if filter.Date != nil {
		from, to := model.DayBounds(*filter.Date)
		q = q.Where(sq.GtOrEq{"start_time": from}).Where(sq.Lt{"start_time": to})
	}
	return r.collect(ctx, q)
}

func (r *repository) collect(ctx context.Context, q sq.SelectBuilder) ([]model.Booking, error) {
	query, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}
	r.log.Debug("select", zap.String("query", query), zap.Any("args", args))

	rows, err := conn(ctx, r.db).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items, err := pgx.CollectRows(rows, pgx.RowToStructByName[model.Booking])
	if err != nil {
		return nil, fmt.Errorf("pgx.CollectRows: %w", err)
	}
	for i := range items {
		items[i] = normalize(items[i])
	}
	return items, nil
}

func (r *repository) Create(ctx context.Context, b model.Booking) (model.Booking, error) {
	b = normalize(b)
	if !b.StartTime.Before(b.EndTime) {
		return model.Booking{}, errs.ErrInvalidInterval
	}
	if b.BookingUid == "" {
		b.BookingUid = uuid.NewString()
	}
	query, args, err := qb.Insert(bookingTableName).
		Columns("booking_uid", "username", "room_name", "start_time", "end_time").
		Values(b.BookingUid, b.Username, b.RoomName, b.StartTime, b.EndTime).
		Suffix(returning).
		ToSql()
	if err != nil {
		return model.Booking{}, err
	}
	return r.writeOne(ctx, "Create", query, args)
}

func (r *repository) Replace(ctx context.Context, id int64, b model.Booking) (model.Booking, error) {
	b = normalize(b)
	if !b.StartTime.Before(b.EndTime) {
		return model.Booking{}, errs.ErrInvalidInterval
	}
	query, args, err := qb.Update(bookingTableName).
		Set("username", b.Username).
		Set("room_name", b.RoomName).
		Set("start_time", b.StartTime).
		Set("end_time", b.EndTime).
		Where(sq.Eq{"id": id}).
		Suffix(returning).
		ToSql()
	if err != nil {
		return model.Booking{}, err
	}
	return r.writeOne(ctx, "Replace", query, args)
}

func (r *repository) writeOne(ctx context.Context, op, query string, args []any) (model.Booking, error) {
	rows, err := conn(ctx, r.db).Query(ctx, query, args...)
	if err != nil {
		return model.Booking{}, mapPgError(err)
	}
	defer rows.Close()

	res, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Booking])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Booking{}, errs.ErrNotFound
		}
		r.log.Error(op, zap.String("q", query), zap.Any("args", args), zap.Error(err))
		return model.Booking{}, mapPgError(err)
	}
	return normalize(res), nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	q := `delete from bookings where id = @id`
	tag, err := conn(ctx, r.db).Exec(ctx, q, pgx.NamedArgs{"id": id})
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}
