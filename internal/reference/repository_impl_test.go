package reference

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/smallbiznis/gstbook/internal/reference/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupRepository(t *testing.T) domain.Repository {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.State{}))

	now := time.Now().UTC()
	require.NoError(t, db.Create([]domain.State{
		{Code: "29", Name: "Karnataka", CreatedAt: now},
		{Code: "07", Name: "Delhi", IsUnionTerritory: true, CreatedAt: now},
	}).Error)
	return NewRepository(db)
}

func TestListStatesOrdersByCode(t *testing.T) {
	repo := setupRepository(t)

	states, err := repo.ListStates(context.Background())
	require.NoError(t, err)
	require.Len(t, states, 2)
	assert.Equal(t, "07", states[0].Code)
	assert.True(t, states[0].IsUnionTerritory)
	assert.Equal(t, "29", states[1].Code)
}

func TestFindState(t *testing.T) {
	repo := setupRepository(t)
	ctx := context.Background()

	state, err := repo.FindState(ctx, " 7 ")
	require.NoError(t, err)
	assert.Equal(t, "Delhi", state.Name)

	_, err = repo.FindState(ctx, "99")
	assert.ErrorIs(t, err, domain.ErrStateNotFound)
}
