package eventbus

import (
	"context"
	"strings"
	"sync"
	"time"

	"chatline/logger"
)

// LocalEventBus 는 단일 프로세스용 EventBus 구현체입니다.
// 같은 groupID 구독자끼리는 이벤트를 나눠 받고(라운드로빈), 서로 다른 그룹은 모두 받습니다.
// 재시도는 지연 후 기본 토픽으로 다시 발행하고, 한도를 넘으면 DLQ 목록에 보관합니다.
type LocalEventBus struct {
	mu     sync.Mutex
	groups map[string]map[string]*localGroup
	dead   map[string][]Event
	timers map[*time.Timer]struct{}

	delays []time.Duration
	buffer int

	done      chan struct{}
	closeOnce sync.Once
}

type localGroup struct {
	next int
	subs []chan Event
}

// NewLocalEventBus 는 retryDelays 가 비어 있으면 RetryDelays 를 사용합니다.
func NewLocalEventBus(retryDelays ...time.Duration) *LocalEventBus {
	if len(retryDelays) == 0 {
		retryDelays = RetryDelays
	}
	return &LocalEventBus{
		groups: make(map[string]map[string]*localGroup),
		dead:   make(map[string][]Event),
		timers: make(map[*time.Timer]struct{}),
		delays: retryDelays,
		buffer: 256,
		done:   make(chan struct{}),
	}
}

func (b *LocalEventBus) Publish(ctx context.Context, topic string, event Event) error {
	if strings.HasSuffix(topic, ".dlq") {
		b.mu.Lock()
		b.dead[topic] = append(b.dead[topic], event)
		b.mu.Unlock()
		return nil
	}
	if idx := strings.LastIndex(topic, ".retry."); idx != -1 {
		b.scheduleRetry(topic[:idx], event)
		return nil
	}

	for _, ch := range b.pick(topic) {
		select {
		case ch <- event:
		case <-b.done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// pick 은 그룹마다 구독자 하나를 고른다.
func (b *LocalEventBus) pick(topic string) []chan Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	var out []chan Event
	for _, g := range b.groups[topic] {
		if len(g.subs) == 0 {
			continue
		}
		out = append(out, g.subs[g.next%len(g.subs)])
		g.next++
	}
	return out
}

func (b *LocalEventBus) retryDelay(retry int) time.Duration {
	if retry <= 0 {
		return 0
	}
	if retry > len(b.delays) {
		return b.delays[len(b.delays)-1]
	}
	return b.delays[retry-1]
}

func (b *LocalEventBus) scheduleRetry(base string, event Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	select {
	case <-b.done:
		return
	default:
	}

	var t *time.Timer
	t = time.AfterFunc(b.retryDelay(event.Retry), func() {
		b.mu.Lock()
		delete(b.timers, t)
		b.mu.Unlock()
		if err := b.Publish(context.Background(), base, event); err != nil {
			logger.Log().Errorf("이벤트 %s 재주입 실패: %v", event.ID, err)
		}
	})
	b.timers[t] = struct{}{}
}

func (b *LocalEventBus) Subscribe(ctx context.Context, groupID string, topic Topic, handler EventHandler) error {
	ch := make(chan Event, b.buffer)

	b.mu.Lock()
	groups, ok := b.groups[topic.Base()]
	if !ok {
		groups = make(map[string]*localGroup)
		b.groups[topic.Base()] = groups
	}
	g, ok := groups[groupID]
	if !ok {
		g = &localGroup{}
		groups[groupID] = g
	}
	g.subs = append(g.subs, ch)
	b.mu.Unlock()

	defer b.unsubscribe(topic.Base(), groupID, ch)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-b.done:
			return nil
		case evt := <-ch:
			if err := handler(ctx, evt); err != nil {
				route := routeFailure(topic, evt, err)
				if route.Dead {
					logger.Log().Errorf("이벤트 %s 최대 재시도 초과. DLQ %s로 전송. 최종 오류: %v", evt.ID, route.Topic, err)
				} else {
					logger.Log().Warnf("이벤트 %s 처리 실패. 재시도 %d/%d 예약.", evt.ID, route.Event.Retry, route.Event.MaxRetry)
				}
				_ = b.Publish(ctx, route.Topic, route.Event)
			}
		}
	}
}

func (b *LocalEventBus) unsubscribe(topic, groupID string, ch chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	g := b.groups[topic][groupID]
	if g == nil {
		return
	}
	for i, c := range g.subs {
		if c == ch {
			g.subs = append(g.subs[:i], g.subs[i+1:]...)
			break
		}
	}
}

// StartRetryReinjector 는 재시도가 Publish 안에서 처리되므로 종료까지 대기만 합니다.
func (b *LocalEventBus) StartRetryReinjector(ctx context.Context, groupID string, topic Topic) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-b.done:
		return nil
	}
}

// DeadLetters 는 DLQ 로 보내진 이벤트 사본을 반환합니다.
func (b *LocalEventBus) DeadLetters(topic Topic) []Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Event(nil), b.dead[topic.DLQ()]...)
}

func (b *LocalEventBus) Close() {
	b.closeOnce.Do(func() {
		b.mu.Lock()
		close(b.done)
		for t := range b.timers {
			t.Stop()
		}
		b.timers = map[*time.Timer]struct{}{}
		b.mu.Unlock()
	})
}

func (b *LocalEventBus) subscriberCount(topic string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, g := range b.groups[topic] {
		n += len(g.subs)
	}
	return n
}
