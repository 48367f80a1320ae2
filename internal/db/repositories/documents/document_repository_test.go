package documents

import (
	"context"
	"fmt"
	"testing"

	"github.com/MyelinBots/resellboost-go/internal/db"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestRepo(t *testing.T) DocumentRepository {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, gdb.AutoMigrate(&Document{}))
	return NewDocumentRepository(db.Wrap(gdb))
}

func TestLoadMissing(t *testing.T) {
	repo := newTestRepo(t)

	data, found, err := repo.Load(context.Background(), "user_data")
	require.NoError(t, err)
	require.False(t, found)
	require.Nil(t, data)
}

func TestSaveThenLoad(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, "user_data", []byte(`{"1":{"xp":10}}`)))
	data, found, err := repo.Load(ctx, "user_data")
	require.NoError(t, err)
	require.True(t, found)
	require.JSONEq(t, `{"1":{"xp":10}}`, string(data))
}

func TestSaveOverwrites(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, "guild_data", []byte(`{}`)))
	require.NoError(t, repo.Save(ctx, "Guild_Data ", []byte(`{"g":{"name":"x"}}`)))

	data, found, err := repo.Load(ctx, "guild_data")
	require.NoError(t, err)
	require.True(t, found)
	require.JSONEq(t, `{"g":{"name":"x"}}`, string(data))

	names, err := repo.List(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"guild_data"}, names)
}
