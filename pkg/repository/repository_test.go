package repository_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	customerdomain "github.com/billwise/billwise/internal/customer/domain"
	"github.com/billwise/billwise/internal/entity"
	"github.com/billwise/billwise/pkg/repository"
)

var testNow = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

// A single shared node: snowflake IDs generated by separate nodes in the
// same millisecond collide, so every seeded row draws from this one.
var testNode = mustNode()

func mustNode() *snowflake.Node {
	node, err := snowflake.NewNode(3)
	if err != nil {
		panic(err)
	}
	return node
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:memdb_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&customerdomain.Customer{}))
	return db
}

func seedCustomer(t *testing.T, db *gorm.DB, name string) *customerdomain.Customer {
	t.Helper()

	c := &customerdomain.Customer{
		ID:        testNode.Generate(),
		CompanyID: snowflake.ID(1),
		Name:      name,
		IsActive:  true,
		Meta:      entity.NewMeta(testNow, "test"),
	}
	require.NoError(t, db.Create(c).Error)
	return c
}

func TestFindOneReturnsNilWhenMissing(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	repo := repository.ProvideStore[customerdomain.Customer](db)

	got, err := repo.FindOne(ctx, &customerdomain.Customer{ID: snowflake.ID(12345)})
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestFindSkipsDeletedRows(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	repo := repository.ProvideStore[customerdomain.Customer](db)

	kept := seedCustomer(t, db, "kept")
	gone := seedCustomer(t, db, "gone")

	entity.MarkDeleted(&gone.Meta, testNow, "test")
	require.NoError(t, repo.Save(ctx, gone))

	rows, err := repo.Find(ctx, &customerdomain.Customer{CompanyID: snowflake.ID(1)})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, kept.ID, rows[0].ID)

	got, err := repo.FindOne(ctx, &customerdomain.Customer{ID: gone.ID})
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestFindOneDeletedSeesDeletedRows(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	repo := repository.ProvideStore[customerdomain.Customer](db)

	gone := seedCustomer(t, db, "gone")
	entity.MarkDeleted(&gone.Meta, testNow, "test")
	require.NoError(t, repo.Save(ctx, gone))

	got, err := repo.FindOneDeleted(ctx, &customerdomain.Customer{ID: gone.ID})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.IsDeleted)
}

func TestRestoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	repo := repository.ProvideStore[customerdomain.Customer](db)

	c := seedCustomer(t, db, "phoenix")
	entity.MarkDeleted(&c.Meta, testNow, "test")
	require.NoError(t, repo.Save(ctx, c))

	deleted, err := repo.FindOneDeleted(ctx, &customerdomain.Customer{ID: c.ID})
	require.NoError(t, err)
	require.NotNil(t, deleted)

	entity.Restore(&deleted.Meta, testNow.Add(time.Hour), "test")
	require.NoError(t, repo.Save(ctx, deleted))

	restored, err := repo.FindOne(ctx, &customerdomain.Customer{ID: c.ID})
	require.NoError(t, err)
	require.NotNil(t, restored)
	assert.False(t, restored.IsDeleted)
}

func TestCountFiltersDeleted(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	repo := repository.ProvideStore[customerdomain.Customer](db)

	seedCustomer(t, db, "one")
	gone := seedCustomer(t, db, "two")
	entity.MarkDeleted(&gone.Meta, testNow, "test")
	require.NoError(t, repo.Save(ctx, gone))

	count, err := repo.Count(ctx, &customerdomain.Customer{CompanyID: snowflake.ID(1)})
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}
