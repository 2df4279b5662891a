package reference

import (
	"context"
	"errors"
	"strings"

	"github.com/smallbiznis/gstbook/internal/reference/domain"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) domain.Repository {
	return &repository{db: db}
}

func (r *repository) ListStates(ctx context.Context) ([]domain.State, error) {
	var states []domain.State
	err := r.db.WithContext(ctx).
		Raw(`SELECT code, name, is_union_territory FROM gst_states ORDER BY code`).
		Scan(&states).Error
	if err != nil {
		return nil, err
	}
	return states, nil
}

func (r *repository) FindState(ctx context.Context, code string) (*domain.State, error) {
	code = strings.TrimSpace(code)
	if len(code) == 1 {
		code = "0" + code
	}

	var state domain.State
	err := r.db.WithContext(ctx).
		Where("code = ?", code).
		First(&state).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrStateNotFound
	}
	if err != nil {
		return nil, err
	}
	return &state, nil
}
