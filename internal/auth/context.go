package auth

import (
	"context"
	"errors"
)

var ErrNoIdentity = errors.New("auth: no identity in context")

// Identity is who made a request, as proven by an access token.
type Identity struct {
	UserID string `json:"user_id"`
	Client string `json:"client"`
	Role   string `json:"role"`
}

type identityKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFrom returns the identity set by RequireAccessToken.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}

func UserID(ctx context.Context) (string, error) {
	return field(ctx, func(id Identity) string { return id.UserID })
}

func Client(ctx context.Context) (string, error) {
	return field(ctx, func(id Identity) string { return id.Client })
}

func Role(ctx context.Context) (string, error) {
	return field(ctx, func(id Identity) string { return id.Role })
}

func field(ctx context.Context, get func(Identity) string) (string, error) {
	id, ok := IdentityFrom(ctx)
	if !ok || get(id) == "" {
		return "", ErrNoIdentity
	}
	return get(id), nil
}
