package events

import (
	"context"
	"fmt"

	"chatline/eventbus"
)

// Dispatcher 는 도메인 이벤트를 이벤트 버스 토픽으로 보낸다.
type Dispatcher struct {
	bus eventbus.EventBus
}

func NewDispatcher(bus eventbus.EventBus) *Dispatcher {
	return &Dispatcher{bus: bus}
}

func (d *Dispatcher) PublishChatTurnCompleted(ctx context.Context, evt ChatTurnCompletedEvent) error {
	return d.publish(ctx, eventbus.TopicChatEvents, evt.ID, evt)
}

func (d *Dispatcher) PublishNotificationCreated(ctx context.Context, evt NotificationCreatedEvent) error {
	return d.publish(ctx, eventbus.TopicNotificationEvents, evt.ID, evt)
}

func (d *Dispatcher) publish(ctx context.Context, topic eventbus.Topic, id string, payload any) error {
	evt, err := eventbus.NewJSONEvent(id, payload, 0)
	if err != nil {
		return err
	}
	if err := d.bus.Publish(ctx, topic.Base(), evt); err != nil {
		return fmt.Errorf("publish %s: %w", topic.Base(), err)
	}
	return nil
}
