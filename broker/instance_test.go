package broker_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diffuzzer/diffuzzer/broker"
)

type countingLoop struct {
	steps     int
	failAfter int
}

func (l *countingLoop) Step(ctx context.Context) error {
	l.steps++
	if l.failAfter > 0 && l.steps >= l.failAfter {
		return errors.New("simulated loop failure")
	}
	return nil
}

func TestInstanceRunStopsAtTestCount(t *testing.T) {
	loop := &countingLoop{}
	inst := &broker.Instance{ID: "inst-0", Loop: loop, TestCount: 5}

	require.NoError(t, inst.Run(context.Background()))
	assert.Equal(t, 5, loop.steps)
}

func TestInstanceRunPropagatesLoopError(t *testing.T) {
	loop := &countingLoop{failAfter: 3}
	b := broker.New(8)
	go b.Run()
	inst := &broker.Instance{ID: "inst-0", Loop: loop, Broker: b, TestCount: 10}

	err := inst.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, 3, loop.steps)

	b.Close()
	assert.Len(t, b.Errors(), 1)
}

func TestInstanceRunStopsOnContextCancel(t *testing.T) {
	loop := &countingLoop{}
	inst := &broker.Instance{ID: "inst-0", Loop: loop}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, inst.Run(ctx))
}
