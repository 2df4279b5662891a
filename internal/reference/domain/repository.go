package domain

import (
	"context"
	"errors"
)

var ErrStateNotFound = errors.New("state_not_found")

type Repository interface {
	ListStates(ctx context.Context) ([]State, error)
	FindState(ctx context.Context, code string) (*State, error)
}
