package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/Astemirdum/room-booking/booking/internal/errs"
	"github.com/Astemirdum/room-booking/booking/internal/model"
)

type memoryCatalog struct {
	mu    sync.RWMutex
	rooms map[string]model.Room
	users map[string]model.User
}

func NewMemoryCatalog(rooms []model.Room, users []model.User) *memoryCatalog {
	c := &memoryCatalog{
		rooms: make(map[string]model.Room, len(rooms)),
		users: make(map[string]model.User, len(users)),
	}
	for _, r := range rooms {
		c.rooms[r.Name] = r
	}
	for _, u := range users {
		c.users[u.Username] = u
	}
	return c
}

func (c *memoryCatalog) FindRoomByName(_ context.Context, name string) (model.Room, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	room, ok := c.rooms[name]
	if !ok {
		return model.Room{}, errs.ErrNotFound
	}
	return room, nil
}

func (c *memoryCatalog) FindUserByUsername(_ context.Context, username string) (model.User, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	user, ok := c.users[username]
	if !ok {
		return model.User{}, errs.ErrNotFound
	}
	return user, nil
}

func (c *memoryCatalog) CreateRoom(_ context.Context, room model.Room) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.rooms[room.Name]; ok {
		return errs.ErrAlreadyExists
	}
	c.rooms[room.Name] = room
	return nil
}

func (c *memoryCatalog) ListRooms(_ context.Context) ([]model.Room, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	rooms := make([]model.Room, 0, len(c.rooms))
	for _, r := range c.rooms {
		rooms = append(rooms, r)
	}
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].Name < rooms[j].Name })
	return rooms, nil
}

func (c *memoryCatalog) DeleteRoom(_ context.Context, name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.rooms[name]; !ok {
		return errs.ErrNotFound
	}
	delete(c.rooms, name)
	return nil
}

func (c *memoryCatalog) CreateUser(_ context.Context, user model.User) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.users[user.Username]; ok {
		return errs.ErrAlreadyExists
	}
	c.users[user.Username] = user
	return nil
}
