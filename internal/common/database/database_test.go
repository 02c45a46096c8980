package database

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"assistance-wizard/internal/common/config"
)

func TestRedisClient_GetSetDel(t *testing.T) {
	s := miniredis.RunT(t)
	client := NewRedisFromClient(redis.NewClient(&redis.Options{Addr: s.Addr()}), time.Minute)
	defer client.Close()
	ctx := context.Background()

	require.NoError(t, client.Ping(ctx))

	_, err := client.Get(ctx, "wizard")
	assert.ErrorIs(t, err, ErrKeyNotFound)

	require.NoError(t, client.Set(ctx, "wizard", []byte(`{"version":1}`)))
	got, err := client.Get(ctx, "wizard")
	require.NoError(t, err)
	assert.Equal(t, `{"version":1}`, string(got))
	assert.Equal(t, time.Minute, s.TTL("wizard"))

	require.NoError(t, client.Del(ctx, "wizard"))
	assert.False(t, s.Exists("wizard"))
}

func TestRedisClient_Unreachable(t *testing.T) {
	s := miniredis.RunT(t)
	client := NewRedisFromClient(redis.NewClient(&redis.Options{Addr: s.Addr()}), 0)
	s.Close()

	assert.Error(t, client.Ping(context.Background()))
	_, err := client.Get(context.Background(), "wizard")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrKeyNotFound)
}

func TestNewRedis_RequiresAddress(t *testing.T) {
	_, err := NewRedis(config.RedisConfig{})
	assert.Error(t, err)

	client, err := NewRedis(config.RedisConfig{Address: "localhost:6379", TTL: 1000})
	require.NoError(t, err)
	assert.Equal(t, time.Second, client.ttl)
	assert.NoError(t, client.Close())
}

func TestPostgresClient_PingAndExec(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	client := NewPostgresFromDB(db)

	mock.ExpectPing()
	mock.ExpectExec("DELETE FROM wizard_snapshots").
		WithArgs("k").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectClose()

	require.NoError(t, client.Ping(context.Background()))
	res, err := client.Exec(context.Background(), "DELETE FROM wizard_snapshots WHERE slot_key = $1", "k")
	require.NoError(t, err)
	n, _ := res.RowsAffected()
	assert.Equal(t, int64(1), n)
	require.NoError(t, client.Close())

	assert.NoError(t, mock.ExpectationsWereMet())
}
