package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Astemirdum/room-booking/booking/internal/errs"
	"github.com/Astemirdum/room-booking/booking/internal/model"
	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type catalog struct {
	db  *pgxpool.Pool
	log *zap.Logger
}

func NewCatalog(db *pgxpool.Pool, log *zap.Logger) *catalog {
	return &catalog{
		db:  db,
		log: log.Named("catalog"),
	}
}

const (
	roomTableName = `rooms`
	userTableName = `users`
)

func (c *catalog) FindRoomByName(ctx context.Context, name string) (model.Room, error) {
	query, args, err := qb.Select("name", "type").
		From(roomTableName).
		Where(sq.Eq{"name": name}).
		Limit(1).
		ToSql()
	if err != nil {
		return model.Room{}, err
	}

	rows, err := conn(ctx, c.db).Query(ctx, query, args...)
	if err != nil {
		return model.Room{}, err
	}
	defer rows.Close()

	room, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Room])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Room{}, errs.ErrNotFound
		}
		return model.Room{}, fmt.Errorf("pgx.CollectOneRow: %w", err)
	}
	return room, nil
}

func (c *catalog) FindUserByUsername(ctx context.Context, username string) (model.User, error) {
	query, args, err := qb.Select("username", "is_admin").
		From(userTableName).
		Where(sq.Eq{"username": username}).
		Limit(1).
		ToSql()
	if err != nil {
		return model.User{}, err
	}

	rows, err := conn(ctx, c.db).Query(ctx, query, args...)
	if err != nil {
		return model.User{}, err
	}
	defer rows.Close()

	user, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[model.User])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, errs.ErrNotFound
		}
		return model.User{}, fmt.Errorf("pgx.CollectOneRow: %w", err)
	}
	return user, nil
}

func (c *catalog) CreateRoom(ctx context.Context, room model.Room) error {
	q := `insert into rooms (name, type) values (@name, @type)`
	_, err := conn(ctx, c.db).Exec(ctx, q, pgx.NamedArgs{
		"name": room.Name,
		"type": string(room.Type),
	})
	return mapCatalogError(err)
}

func (c *catalog) ListRooms(ctx context.Context) ([]model.Room, error) {
	query, args, err := qb.Select("name", "type").
		From(roomTableName).
		OrderBy("name").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := conn(ctx, c.db).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rooms, err := pgx.CollectRows(rows, pgx.RowToStructByName[model.Room])
	if err != nil {
		return nil, fmt.Errorf("pgx.CollectRows: %w", err)
	}
	return rooms, nil
}

func (c *catalog) DeleteRoom(ctx context.Context, name string) error {
	tag, err := conn(ctx, c.db).Exec(ctx, `delete from rooms where name = @name`, pgx.NamedArgs{"name": name})
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

func (c *catalog) CreateUser(ctx context.Context, user model.User) error {
	q := `insert into users (username, is_admin) values (@username, @is_admin)`
	_, err := conn(ctx, c.db).Exec(ctx, q, pgx.NamedArgs{
		"username": user.Username,
		"is_admin": user.IsAdmin,
	})
	return mapCatalogError(err)
}

func mapCatalogError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.UniqueViolation:
			return errs.ErrAlreadyExists
		case pgerrcode.CheckViolation:
			return errs.ErrInvalidArgument
		}
	}
	return err
}
