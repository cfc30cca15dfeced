//go:build integration

package kafka

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"vpexchange/pkg/testutil/containers"
)

func TestHealthChecker_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	kafka := containers.GetManager().GetKafka(t)

	client, err := kgo.NewClient(kgo.SeedBrokers(kafka.Brokers))
	require.NoError(t, err)
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	assert.NoError(t, NewHealthChecker(client).Check(ctx))
}
