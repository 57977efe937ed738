package auth_test

import (
	"context"
	"testing"

	"github.com/Astemirdum/room-booking/pkg/auth"
	"github.com/stretchr/testify/require"
)

func TestIdentity_CanModify(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		id     auth.Identity
		owner  string
		expect bool
	}{
		{name: "creator", id: auth.NewIdentity("alice", auth.RoleUser), owner: "alice", expect: true},
		{name: "admin", id: auth.NewIdentity("root", auth.RoleAdmin), owner: "alice", expect: true},
		{name: "stranger", id: auth.NewIdentity("bob", auth.RoleUser), owner: "alice", expect: false},
		{name: "anonymous", id: auth.Identity{}, owner: "", expect: false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.expect, tt.id.CanModify(tt.owner))
		})
	}
}

func TestContext(t *testing.T) {
	t.Parallel()
	_, err := auth.FromContext(context.Background())
	require.ErrorIs(t, err, auth.ErrNoIdentity)

	ctx := auth.SetAuthContext(context.Background(), "alice", auth.RoleAdmin)
	id, err := auth.FromContext(ctx)
	require.NoError(t, err)
	require.Equal(t, auth.Identity{Username: "alice", IsAdmin: true}, id)

	// an empty name is anonymous even with a role
	_, err = auth.FromContext(auth.SetAuthContext(context.Background(), "", auth.RoleAdmin))
	require.ErrorIs(t, err, auth.ErrNoIdentity)
}
