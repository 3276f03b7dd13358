package database

import (
	"context"
	"errors"
	"testing"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisClient_Ping(t *testing.T) {
	db, mock := redismock.NewClientMock()
	c := NewRedisFromClient(db, "hk:")

	mock.ExpectPing().SetVal("PONG")
	require.NoError(t, c.Ping(context.Background()))

	mock.ExpectPing().SetErr(errors.New("connection refused"))
	err := c.Ping(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis ping failed")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisClient_Publish(t *testing.T) {
	db, mock := redismock.NewClientMock()
	c := NewRedisFromClient(db, "hk:")

	mock.ExpectPublish("hk:events:registerSteps", `{"steps":12}`).SetVal(1)
	require.NoError(t, c.Publish(context.Background(), c.Key("events:registerSteps"), `{"steps":12}`))
	assert.NoError(t, mock.ExpectationsWereMet())
}
