package test_utils

import (
	"context"

	"github.com/google/uuid"
	"github.com/klokku/courseplan/pkg/user"
)

// TestUser returns a user with a fresh uid.
func TestUser(username string) user.User {
	return user.User{
		Uid:         uuid.NewString(),
		Username:    username,
		DisplayName: "Test " + username,
		School:      "SEAS",
	}
}

// ContextWithUser returns a background context carrying u, as the X-User-Id middleware would.
func ContextWithUser(u user.User) context.Context {
	return user.WithUser(context.Background(), u)
}
