package broker_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diffuzzer/diffuzzer/broker"
	"github.com/diffuzzer/diffuzzer/event"
)

func TestBrokerKeepsLatestStatsPerInstance(t *testing.T) {
	b := broker.New(8)
	go b.Run()

	b.Send(event.NewBlackBoxStats("inst-0", time.Now(), 1, 0, 0))
	b.Send(event.NewBlackBoxStats("inst-0", time.Now(), 2, 1, 0))
	b.Close()

	msg, ok := b.Snapshot("inst-0")
	require.True(t, ok)
	stats, ok := msg.(event.BlackBoxStats)
	require.True(t, ok)
	assert.Equal(t, uint64(2), stats.TestsRun)
	assert.Equal(t, uint64(1), stats.CrashesFound)
}

func TestBrokerAccumulatesErrors(t *testing.T) {
	b := broker.New(8)
	go b.Run()

	b.Send(event.NewError("inst-0", time.Now(), errors.New("boom")))
	b.Send(event.NewError("inst-1", time.Now(), errors.New("kaboom")))
	b.Close()

	errs := b.Errors()
	assert.Len(t, errs, 2)
}

func TestBrokerCountsMessagesProcessed(t *testing.T) {
	b := broker.New(8)
	go b.Run()

	b.Send(event.NewInfo("inst-0", time.Now(), "hello"))
	b.Send(event.NewBlackBoxStats("inst-0", time.Now(), 1, 0, 0))
	b.Close()

	assert.Equal(t, uint64(2), b.MessagesProcessed())
}
