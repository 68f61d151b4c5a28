package database

import (
	"context"
	"testing"
	"time"

	"martinspocos/config"
	"martinspocos/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

func TestCacheConstants(t *testing.T) {
	assert.Equal(t, 0, SESSION_CACHE_INDEX)
	assert.Equal(t, 1, CONTRACT_CACHE_INDEX)
	assert.Equal(t, 2, EVENTS_CACHE_INDEX)
	assert.Len(t, Cache{}.clients(), 3)
}

func TestGormConfig(t *testing.T) {
	cfg := GormConfig(gormLogger.Error)
	assert.True(t, cfg.TranslateError)
	assert.True(t, cfg.SkipDefaultTransaction)
	assert.True(t, cfg.PrepareStmt)
}

func TestDSN(t *testing.T) {
	dsn := DSN(config.Config{
		DatabaseHost:     "db",
		DatabasePort:     5432,
		DatabaseUser:     "app",
		DatabasePassword: "secret",
		DatabaseName:     "pocos",
	})
	assert.Equal(t, "host=db port=5432 user=app password=secret dbname=pocos sslmode=disable TimeZone=UTC", dsn)
}

func TestModels_DependencyOrder(t *testing.T) {
	list := Models()
	assert.IsType(t, &models.User{}, list[0])
	assert.IsType(t, &models.ContractSignature{}, list[len(list)-1])
}

func TestCacheBuilder_Keys(t *testing.T) {
	id := uuid.MustParse("0193b7a2-0000-7000-8000-000000000001")

	cb := NewCacheBuilder(nil, id).WithHash("contract")
	assert.Equal(t, "contract:0193b7a2-0000-7000-8000-000000000001", cb.Key())

	cb = NewCacheBuilder(nil, "session-token").WithHash("")
	assert.Equal(t, "session-token", cb.Key())
}

func TestCacheBuilder_ValidationBeforeNetwork(t *testing.T) {
	_, err := NewCacheBuilder(nil, "").Get(&struct{}{})
	assert.EqualError(t, err, "key is required")

	err = NewCacheBuilder(nil, "k").Set()
	assert.EqualError(t, err, "value is required")

	err = NewCacheBuilder(nil, "k").WithStruct(make(chan int)).Set()
	assert.ErrorContains(t, err, "failed to marshal value to json")
}

func TestCacheBuilder_TimeoutContext(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	cb := NewCacheBuilder(nil, "k").WithContext(ctx).WithTimeout(5 * time.Second)
	timeoutCtx, timeoutCancel := cb.createTimeoutContext()
	defer timeoutCancel()

	deadline, ok := timeoutCtx.Deadline()
	assert.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(time.Second), deadline, 500*time.Millisecond)
}

func TestIsKeyNotFoundError(t *testing.T) {
	assert.False(t, isKeyNotFoundError(nil))
	assert.False(t, isKeyNotFoundError(gorm.ErrInvalidData))
}
