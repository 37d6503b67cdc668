//go:build integration

package kafka

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	id "viewergate/pkg/domain"
	audit "viewergate/pkg/platform/audit"
	"viewergate/pkg/testutil/containers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"
)

func TestSink_ProducesKeyedJSONRecord(t *testing.T) {
	broker := containers.NewRedpandaContainer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	sink, err := New(Config{Brokers: []string{broker.Broker}, Topic: "viewergate.audit"})
	require.NoError(t, err)
	defer sink.Close()
	require.NoError(t, sink.EnsureTopic(ctx, 1))
	require.NoError(t, sink.EnsureTopic(ctx, 1), "creating an existing topic is not an error")

	accountID := id.NewAccountID()
	require.NoError(t, sink.Append(ctx, audit.Event{
		Category:  audit.CategoryCompliance,
		Timestamp: time.Now(),
		AccountID: accountID,
		Action:    string(audit.EventVerificationAccepted),
	}))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(broker.Broker),
		kgo.ConsumeTopics("viewergate.audit"),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	require.NoError(t, err)
	defer consumer.Close()

	fetches := consumer.PollFetches(ctx)
	require.NoError(t, fetches.Err())
	records := fetches.Records()
	require.Len(t, records, 1)
	assert.Equal(t, accountID.String(), string(records[0].Key))

	var got map[string]any
	require.NoError(t, json.Unmarshal(records[0].Value, &got))
	assert.Equal(t, "verification_accepted", got["action"])
	assert.Equal(t, "compliance", got["category"])
}
