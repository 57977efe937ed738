package auth

import (
	"context"

	"github.com/golang-jwt/jwt/v4"
	"github.com/pkg/errors"
)

const (
	XUserNameHeader = "X-User-Name"
	XUserRoleHeader = "X-User-Role"

	RoleAdmin = "admin"
	RoleUser  = "user"
)

type Config struct {
	// JWTKey enables bearer token authentication. Empty means identity
	// comes from the gateway headers.
	JWTKey string `yaml:"jwtKey" envconfig:"AUTH_JWT_KEY"`
}

var ErrNoIdentity = errors.New("no identity in context")

// Identity is the authenticated caller. A zero Identity is anonymous.
type Identity struct {
	Username string `json:"username"`
	IsAdmin  bool   `json:"isAdmin"`
}

func (i Identity) Authenticated() bool {
	return i.Username != ""
}

// CanModify reports whether the caller may change a resource owned by owner.
func (i Identity) CanModify(owner string) bool {
	return i.IsAdmin || (i.Authenticated() && i.Username == owner)
}

func NewIdentity(username, role string) Identity {
	return Identity{Username: username, IsAdmin: role == RoleAdmin}
}

type Claims struct {
	Profile struct {
		Username string `json:"username"`
		Role     string `json:"role"`
	} `json:"profile"`
	jwt.RegisteredClaims
}

type ctxKey struct{}

func SetAuthContext(ctx context.Context, userName, role string) context.Context {
	return context.WithValue(ctx, ctxKey{}, NewIdentity(userName, role))
}

func FromContext(ctx context.Context) (Identity, error) {
	id, ok := ctx.Value(ctxKey{}).(Identity)
	if !ok || !id.Authenticated() {
		return Identity{}, ErrNoIdentity
	}
	return id, nil
}
