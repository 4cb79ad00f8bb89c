package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type countingEmitter struct {
	calls int
	err   error
}

func (c *countingEmitter) Emit(ctx context.Context, event *ImportEvent) error {
	c.calls++
	return c.err
}

func TestMultiEmitter(t *testing.T) {
	ok := &countingEmitter{}
	failing := &countingEmitter{err: errors.New("broker down")}
	after := &countingEmitter{}

	err := MultiEmitter(ok, nil, failing, after).Emit(context.Background(), &ImportEvent{AuditID: 1})

	assert.ErrorIs(t, err, failing.err)
	assert.Equal(t, 1, ok.calls)
	assert.Equal(t, 1, failing.calls)
	assert.Equal(t, 1, after.calls, "a failing emitter must not stop the others")
}

func TestMultiEmitter_Empty(t *testing.T) {
	assert.NoError(t, MultiEmitter().Emit(context.Background(), &ImportEvent{}))
}
