package notifications

import (
	"context"
	"errors"

	"chatline/eventbus"
	"chatline/events"
	"chatline/logger"
	"chatline/realtime"
)

// Pusher 는 연결된 클라이언트로 이벤트를 보내는 쪽이다 (realtime.Hub).
type Pusher interface {
	SendToUser(userID string, evt realtime.Event) error
	Broadcast(evt realtime.Event) error
}

// Relay 는 이벤트 버스의 도메인 이벤트를 실시간 이벤트로 바꿔 허브에 넘긴다.
// 인스턴스마다 자기 연결만 알고 있으므로 인스턴스별 그룹으로 구독해야 한다.
type Relay struct {
	bus     eventbus.EventBus
	pusher  Pusher
	groupID string
}

func NewRelay(bus eventbus.EventBus, pusher Pusher, groupID string) *Relay {
	return &Relay{bus: bus, pusher: pusher, groupID: groupID}
}

// Run 은 두 토픽 구독이 모두 끝날 때까지 블록한다.
func (r *Relay) Run(ctx context.Context) error {
	errCh := make(chan error, 2)
	go func() {
		errCh <- eventbus.SubscribeJSON(ctx, r.bus, r.groupID, eventbus.TopicChatEvents, r.HandleChatTurn)
	}()
	go func() {
		errCh <- eventbus.SubscribeJSON(ctx, r.bus, r.groupID, eventbus.TopicNotificationEvents, r.HandleNotification)
	}()

	var firstErr error
	for i := 0; i < 2; i++ {
		if err := <-errCh; err != nil && firstErr == nil && !errors.Is(err, context.Canceled) {
			firstErr = err
		}
	}
	return firstErr
}

type chatMessagePayload struct {
	SessionID        string `json:"session_id"`
	SessionTitle     string `json:"session_title"`
	UserMessage      any    `json:"user_message"`
	AssistantMessage any    `json:"assistant_message"`
	Fallback         bool   `json:"fallback"`
}

type creditsPayload struct {
	Balance int64 `json:"balance"`
	Charged int64 `json:"charged"`
}

// HandleChatTurn 은 완료된 턴을 chat.message 와 credits.updated 로 사용자 기기에 보낸다.
func (r *Relay) HandleChatTurn(ctx context.Context, evt events.ChatTurnCompletedEvent, meta eventbus.Event) error {
	if evt.Type != events.ChatTurnCompleted || evt.UserID == "" {
		return nil
	}
	if err := r.pusher.SendToUser(evt.UserID, realtime.NewEvent(realtime.EventChatMessage, chatMessagePayload{
		SessionID:        evt.SessionID,
		SessionTitle:     evt.SessionTitle,
		UserMessage:      evt.UserMessage,
		AssistantMessage: evt.AssistantMessage,
		Fallback:         evt.Fallback,
	})); err != nil {
		return r.pushFailed(meta, err)
	}
	if err := r.pusher.SendToUser(evt.UserID, realtime.NewEvent(realtime.EventCreditsUpdated, creditsPayload{
		Balance: evt.Balance,
		Charged: evt.ChargedCredits,
	})); err != nil {
		return r.pushFailed(meta, err)
	}
	return nil
}

// HandleNotification 은 대상 사용자 또는 전체 연결로 notification 을 보낸다.
func (r *Relay) HandleNotification(ctx context.Context, evt events.NotificationCreatedEvent, meta eventbus.Event) error {
	if evt.Type != events.NotificationCreated {
		return nil
	}
	out := realtime.NewEvent(realtime.EventNotification, evt.Notification)
	var err error
	if evt.Notification.IsBroadcast() {
		err = r.pusher.Broadcast(out)
	} else {
		err = r.pusher.SendToUser(*evt.Notification.UserID, out)
	}
	if err != nil {
		return r.pushFailed(meta, err)
	}
	return nil
}

// 허브가 멈춘 상태면 재시도해도 소용없으므로 버린다.
func (r *Relay) pushFailed(meta eventbus.Event, err error) error {
	if errors.Is(err, realtime.ErrHubStopped) {
		logger.WarnWithFields("realtime hub stopped, dropping event", logger.Fields{
			"event_id": meta.ID,
		})
		return nil
	}
	return err
}
