package controllers

import (
	"context"

	"github.com/google/uuid"
	"github.com/harvestly/harvestly-backend/api/middleware"
	"github.com/harvestly/harvestly-backend/internal/checkout"
	"github.com/harvestly/harvestly-backend/pkg/enums"
	pkgerrors "github.com/harvestly/harvestly-backend/pkg/errors"
)

// actorFromContext resolves the authenticated identity the auth middleware
// seeded into the request context.
func actorFromContext(ctx context.Context) (checkout.Identity, error) {
	userID, err := uuid.Parse(middleware.UserIDFromContext(ctx))
	if err != nil {
		return checkout.Identity{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}
	role, err := enums.ParseRole(middleware.RoleFromContext(ctx))
	if err != nil {
		return checkout.Identity{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}
	return checkout.Identity{UserID: userID, Role: role}, nil
}
