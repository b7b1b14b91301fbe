package eventbus

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type samplePayload struct {
	Name string `json:"name"`
}

func startSubscriber(t *testing.T, bus *LocalEventBus, ctx context.Context, group string, topic Topic, h EventHandler) {
	t.Helper()
	before := bus.subscriberCount(topic.Base())
	go func() { _ = bus.Subscribe(ctx, group, topic, h) }()
	require.Eventually(t, func() bool {
		return bus.subscriberCount(topic.Base()) > before
	}, time.Second, 5*time.Millisecond)
}

func TestTopicNames(t *testing.T) {
	topic := NewTopic("chatline.test")
	assert.Equal(t, "chatline.test.dlq", topic.DLQ())

	retry, err := topic.GetRetryTopic(1)
	require.NoError(t, err)
	assert.Equal(t, "chatline.test.retry.10s", retry)

	_, err = topic.GetRetryTopic(len(RetryDelays) + 1)
	assert.ErrorIs(t, err, ErrMaxRetryExceeded)

	for i, name := range topic.GetRetryTopics() {
		d, ok := ParseRetryFromTopicName(name)
		require.True(t, ok, name)
		assert.Equal(t, RetryDelays[i], d)
	}
	_, ok := ParseRetryFromTopicName("chatline.test")
	assert.False(t, ok)
	_, ok = ParseRetryFromTopicName("chatline.test.retry.soon")
	assert.False(t, ok)
}

func TestRouteFailure(t *testing.T) {
	topic := NewTopic("chatline.test")
	evt := Event{ID: "e1", MaxRetry: 2}

	r := routeFailure(topic, evt, errors.New("boom"))
	assert.False(t, r.Dead)
	assert.Equal(t, 1, r.Event.Retry)
	assert.Equal(t, "boom", r.Event.LastError)

	r = routeFailure(topic, r.Event, errors.New("boom"))
	assert.False(t, r.Dead)
	assert.Equal(t, 2, r.Event.Retry)

	r = routeFailure(topic, r.Event, errors.New("boom"))
	assert.True(t, r.Dead)
	assert.Equal(t, topic.DLQ(), r.Topic)
}

func TestRouteFailureSendsUndecodableToDLQ(t *testing.T) {
	topic := NewTopic("chatline.test")
	evt, err := NewJSONEvent("e2", samplePayload{Name: "x"}, 0)
	require.NoError(t, err)
	assert.Equal(t, len(RetryDelays), evt.MaxRetry)

	evt.Payload = []byte("not json")
	_, derr := DecodeJSON[samplePayload](evt)
	require.ErrorIs(t, derr, ErrUndecodable)

	r := routeFailure(topic, evt, derr)
	assert.True(t, r.Dead)
	assert.Equal(t, topic.DLQ(), r.Topic)
	assert.Equal(t, 0, r.Event.Retry)
}

func TestTopicSpecs(t *testing.T) {
	topics := []Topic{NewTopic("a"), NewTopic("b")}
	specs := TopicSpecs(topics, 3)
	require.Len(t, specs, len(topics)*(len(RetryDelays)+2))

	byName := map[string]int{}
	for _, s := range specs {
		byName[s.Topic] = s.NumPartitions
	}
	assert.Equal(t, 3, byName["a"])
	assert.Equal(t, 3, byName["b.retry.10s"])
	assert.Equal(t, 1, byName["a.dlq"])
}

func TestLocalBusFanOutAcrossGroups(t *testing.T) {
	bus := NewLocalEventBus(time.Millisecond)
	defer bus.Close()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	topic := NewTopic("chatline.test")

	var mu sync.Mutex
	got := map[string][]string{}
	record := func(group string) EventHandler {
		return func(ctx context.Context, evt Event) error {
			p, err := DecodeJSON[samplePayload](evt)
			if err != nil {
				return err
			}
			mu.Lock()
			got[group] = append(got[group], p.Name)
			mu.Unlock()
			return nil
		}
	}
	startSubscriber(t, bus, ctx, "api-1", topic, record("api-1"))
	startSubscriber(t, bus, ctx, "api-2", topic, record("api-2"))

	evt, err := NewJSONEvent("", samplePayload{Name: "hello"}, 0)
	require.NoError(t, err)
	assert.NotEmpty(t, evt.ID)
	assert.Equal(t, len(RetryDelays), evt.MaxRetry)
	require.NoError(t, bus.Publish(ctx, topic.Base(), evt))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got["api-1"]) == 1 && len(got["api-2"]) == 1
	}, time.Second, 5*time.Millisecond)
}

func TestLocalBusSameGroupSharesEvents(t *testing.T) {
	bus := NewLocalEventBus(time.Millisecond)
	defer bus.Close()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	topic := NewTopic("chatline.test")

	var total atomic.Int32
	h := func(ctx context.Context, evt Event) error {
		total.Add(1)
		return nil
	}
	startSubscriber(t, bus, ctx, "processor", topic, h)
	startSubscriber(t, bus, ctx, "processor", topic, h)

	for i := 0; i < 4; i++ {
		evt, err := NewJSONEvent("", samplePayload{Name: "x"}, 0)
		require.NoError(t, err)
		require.NoError(t, bus.Publish(ctx, topic.Base(), evt))
	}
	require.Eventually(t, func() bool { return total.Load() == 4 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(4), total.Load())
}

func TestLocalBusRetriesThenSucceeds(t *testing.T) {
	bus := NewLocalEventBus(time.Millisecond, 2*time.Millisecond)
	defer bus.Close()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	topic := NewTopic("chatline.test")

	var attempts atomic.Int32
	var lastRetry atomic.Int32
	startSubscriber(t, bus, ctx, "processor", topic, func(ctx context.Context, evt Event) error {
		lastRetry.Store(int32(evt.Retry))
		if attempts.Add(1) < 3 {
			return errors.New("temporary")
		}
		return nil
	})

	evt, err := NewJSONEvent("retry-me", samplePayload{Name: "x"}, 3)
	require.NoError(t, err)
	require.NoError(t, bus.Publish(ctx, topic.Base(), evt))

	require.Eventually(t, func() bool { return attempts.Load() == 3 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(2), lastRetry.Load())
	assert.Empty(t, bus.DeadLetters(topic))
}

func TestLocalBusDeadLettersAfterMaxRetry(t *testing.T) {
	bus := NewLocalEventBus(time.Millisecond)
	defer bus.Close()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	topic := NewTopic("chatline.test")

	startSubscriber(t, bus, ctx, "processor", topic, func(ctx context.Context, evt Event) error {
		return errors.New("always")
	})

	evt, err := NewJSONEvent("doomed", samplePayload{Name: "x"}, 2)
	require.NoError(t, err)
	require.NoError(t, bus.Publish(ctx, topic.Base(), evt))

	require.Eventually(t, func() bool { return len(bus.DeadLetters(topic)) == 1 }, time.Second, 5*time.Millisecond)
	dead := bus.DeadLetters(topic)[0]
	assert.Equal(t, "doomed", dead.ID)
	assert.Equal(t, 2, dead.Retry)
	assert.Equal(t, "always", dead.LastError)
}
