package notify

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/tj/assert"

	"github.com/i474232898/weather-dashboard/internal/dashboard"
)

func newTestPublisher(sent *[][]byte, fail *atomic.Bool) *Publisher {
	p := NewPublisher(Config{Broker: "localhost", Port: 1883, ClientID: "test", Topic: "weather/test"}, nil)
	p.send = func(payload []byte) error {
		if fail != nil && fail.Load() {
			return errors.New("broker unavailable")
		}
		*sent = append(*sent, payload)
		return nil
	}
	return p
}

func TestRunPublishesDistinctViews(t *testing.T) {
	var sent [][]byte
	p := newTestPublisher(&sent, nil)

	states := make(chan dashboard.State, 3)
	states <- dashboard.State{SearchQuery: "Rome"}
	states <- dashboard.State{SearchQuery: "Rome"}
	states <- dashboard.State{SearchQuery: "Rome", Load: dashboard.LoadState{Phase: dashboard.PhaseLoading}}
	close(states)

	p.Run(context.Background(), states)

	assert.Len(t, sent, 2)
	var v dashboard.View
	assert.NoError(t, json.Unmarshal(sent[1], &v))
	assert.Equal(t, "Rome", v.SearchQuery)
	assert.True(t, v.IsLoading)
}

func TestRunRetriesViewAfterFailedSend(t *testing.T) {
	var sent [][]byte
	var fail atomic.Bool
	fail.Store(true)
	p := newTestPublisher(&sent, &fail)

	states := make(chan dashboard.State)
	done := make(chan struct{})
	go func() {
		defer close(done)
		p.Run(context.Background(), states)
	}()

	states <- dashboard.State{SearchQuery: "Rome"}
	states <- dashboard.State{SearchQuery: "Rome"}
	fail.Store(false)
	states <- dashboard.State{SearchQuery: "Rome"}
	close(states)
	<-done

	assert.Len(t, sent, 1)
}

func TestRunStopsOnContext(t *testing.T) {
	var sent [][]byte
	p := newTestPublisher(&sent, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p.Run(ctx, make(chan dashboard.State))
	assert.Empty(t, sent)
}

func TestPublishRequiresConnection(t *testing.T) {
	p := NewPublisher(Config{Broker: "localhost", Port: 1883, ClientID: "test", Topic: "weather/test"}, nil)
	assert.Error(t, p.publish([]byte("{}")))
}
