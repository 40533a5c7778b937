package utils

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func TestHealthMonitorChecksImmediately(t *testing.T) {
	// Unreachable backends with short timeouts: the check itself fails fast,
	// which is fine because the assertion is about when it runs, not what it
	// finds.
	redisClient := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
	})
	defer redisClient.Close()

	mongoClient, err := mongo.Connect(context.Background(), options.Client().
		ApplyURI("mongodb://127.0.0.1:1").
		SetServerSelectionTimeout(100*time.Millisecond).
		SetConnectTimeout(100*time.Millisecond))
	require.NoError(t, err)
	defer mongoClient.Disconnect(context.Background())

	start := time.Now()
	StartHealthMonitor(redisClient, mongoClient)

	// The first snapshot lands right away rather than after the first 60s
	// tick.
	assert.Eventually(t, func() bool {
		return !GetHealthStatus().CheckedAt.IsZero()
	}, 5*time.Second, 20*time.Millisecond)

	status := GetHealthStatus()
	assert.False(t, status.CheckedAt.Before(start))
	assert.False(t, status.Mongo)
	assert.False(t, status.Redis)
}
