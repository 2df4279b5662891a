package seed

import (
	"fmt"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	referencedomain "github.com/smallbiznis/gstbook/internal/reference/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestEnsureStatesIsIdempotent(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&referencedomain.State{}))

	require.NoError(t, EnsureStates(db))
	require.NoError(t, EnsureStates(db))

	var count int64
	require.NoError(t, db.Model(&referencedomain.State{}).Count(&count).Error)
	assert.Equal(t, int64(len(gstStates)), count)
}

func TestEnsureStatesRequiresHandle(t *testing.T) {
	assert.Error(t, EnsureStates(nil))
}
