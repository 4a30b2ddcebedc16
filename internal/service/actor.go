package service

import (
	"github.com/google/uuid"

	"yayasan/internal/policy"
)

// Actor is the resolved principal behind a request.
type Actor struct {
	UserID uuid.UUID   `json:"userId"`
	Email  string      `json:"email"`
	Name   string      `json:"name"`
	Role   policy.Role `json:"role"`
	Branch string      `json:"cabang"`
}

func (a Actor) userRef() *uuid.UUID {
	if a.UserID == uuid.Nil {
		return nil
	}
	id := a.UserID
	return &id
}
