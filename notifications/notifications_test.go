package notifications_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatline/authz"
	"chatline/eventbus"
	"chatline/events"
	"chatline/models"
	"chatline/notifications"
	"chatline/realtime"
	"chatline/testutil"
)

type recordingPublisher struct {
	mu   sync.Mutex
	sent []events.NotificationCreatedEvent
	err  error
}

func (p *recordingPublisher) PublishNotificationCreated(ctx context.Context, evt events.NotificationCreatedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, evt)
	return p.err
}

type pushed struct {
	userID    string
	broadcast bool
	evt       realtime.Event
}

type recordingPusher struct {
	mu     sync.Mutex
	pushes []pushed
	err    error
}

func (p *recordingPusher) SendToUser(userID string, evt realtime.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pushes = append(p.pushes, pushed{userID: userID, evt: evt})
	return p.err
}

func (p *recordingPusher) Broadcast(evt realtime.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pushes = append(p.pushes, pushed{broadcast: true, evt: evt})
	return p.err
}

func (p *recordingPusher) snapshot() []pushed {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]pushed(nil), p.pushes...)
}

func newService(t *testing.T) (*notifications.Service, *recordingPublisher, *models.User, *models.User, *models.User) {
	t.Helper()
	store := testutil.NewStore(t)
	gate, err := authz.NewGate(context.Background(), store.Sessions, "")
	require.NoError(t, err)

	pub := &recordingPublisher{}
	svc := notifications.NewService(store.Notifications, store.Users, gate, pub, "test")
	admin := testutil.SeedUser(t, store, models.RoleAdmin, 0)
	alice := testutil.SeedUser(t, store, models.RoleUser, 0)
	bob := testutil.SeedUser(t, store, models.RoleUser, 0)
	return svc, pub, admin, alice, bob
}

func callerOf(u *models.User) authz.Caller {
	return authz.Caller{ID: u.ID, Role: u.Role}
}

func TestSendTargetedAndBroadcast(t *testing.T) {
	ctx := context.Background()
	svc, pub, admin, alice, bob := newService(t)

	targeted, err := svc.Send(ctx, callerOf(admin), notifications.SendInput{UserID: &alice.ID, Title: " Hello ", Body: "only you"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(targeted.ID, notifications.IDPrefix+"_"))
	assert.Equal(t, "Hello", targeted.Title)
	require.NotNil(t, targeted.UserID)
	assert.Equal(t, alice.ID, *targeted.UserID)

	time.Sleep(2 * time.Millisecond)
	announce, err := svc.Send(ctx, callerOf(admin), notifications.SendInput{Title: "Maintenance", Body: "tonight"})
	require.NoError(t, err)
	assert.True(t, announce.IsBroadcast())

	require.Len(t, pub.sent, 2)
	assert.Equal(t, events.NotificationCreated, pub.sent[0].Type)
	assert.Equal(t, targeted.ID, pub.sent[0].Notification.ID)

	aliceList, err := svc.List(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, aliceList, 2)
	assert.Equal(t, announce.ID, aliceList[0].ID, "newest first")
	assert.Equal(t, targeted.ID, aliceList[1].ID)

	bobList, err := svc.List(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, bobList, 1)
	assert.Equal(t, announce.ID, bobList[0].ID)
}

func TestSendRequiresAdmin(t *testing.T) {
	svc, pub, _, alice, bob := newService(t)

	_, err := svc.Send(context.Background(), callerOf(alice), notifications.SendInput{UserID: &bob.ID, Title: "t", Body: "b"})
	assert.ErrorIs(t, err, authz.ErrForbidden)
	assert.Empty(t, pub.sent)
}

func TestSendValidation(t *testing.T) {
	ctx := context.Background()
	svc, _, admin, _, _ := newService(t)

	_, err := svc.Send(ctx, callerOf(admin), notifications.SendInput{Title: "  ", Body: "b"})
	assert.ErrorIs(t, err, notifications.ErrInvalidInput)

	ghost := "00000000-0000-0000-0000-000000000000"
	_, err = svc.Send(ctx, callerOf(admin), notifications.SendInput{UserID: &ghost, Title: "t", Body: "b"})
	assert.ErrorIs(t, err, notifications.ErrNotFound)
}

func TestSendSurvivesPublishFailure(t *testing.T) {
	ctx := context.Background()
	svc, pub, admin, alice, _ := newService(t)
	pub.err = errors.New("broker down")

	n, err := svc.Send(ctx, callerOf(admin), notifications.SendInput{UserID: &alice.ID, Title: "t", Body: "b"})
	require.NoError(t, err)

	list, err := svc.List(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, n.ID, list[0].ID)
}

func TestMarkRead(t *testing.T) {
	ctx := context.Background()
	svc, _, admin, alice, bob := newService(t)

	mine, err := svc.Send(ctx, callerOf(admin), notifications.SendInput{UserID: &alice.ID, Title: "a", Body: "1"})
	require.NoError(t, err)
	_, err = svc.Send(ctx, callerOf(admin), notifications.SendInput{UserID: &alice.ID, Title: "a", Body: "2"})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.MarkRead(ctx, bob.ID, mine.ID), notifications.ErrNotFound)
	assert.ErrorIs(t, svc.MarkRead(ctx, alice.ID, ""), notifications.ErrInvalidInput)
	require.NoError(t, svc.MarkRead(ctx, alice.ID, mine.ID))

	n, err := svc.MarkAllRead(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	list, err := svc.List(ctx, alice.ID)
	require.NoError(t, err)
	for _, item := range list {
		assert.True(t, item.Seen)
	}
}

func TestRelayChatTurn(t *testing.T) {
	pusher := &recordingPusher{}
	relay := notifications.NewRelay(eventbus.NewLocalEventBus(), pusher, "relay")

	evt := events.NewChatTurnCompletedEvent("test")
	evt.UserID = "alice"
	evt.SessionID = "s1"
	evt.ChargedCredits = 10
	evt.Balance = 5
	require.NoError(t, relay.HandleChatTurn(context.Background(), evt, eventbus.Event{ID: evt.ID}))

	got := pusher.snapshot()
	require.Len(t, got, 2)
	assert.Equal(t, "alice", got[0].userID)
	assert.Equal(t, realtime.EventChatMessage, got[0].evt.Type)
	assert.Equal(t, realtime.EventCreditsUpdated, got[1].evt.Type)
}

func TestRelayNotificationTargets(t *testing.T) {
	pusher := &recordingPusher{}
	relay := notifications.NewRelay(eventbus.NewLocalEventBus(), pusher, "relay")
	uid := "bob"

	require.NoError(t, relay.HandleNotification(context.Background(),
		events.NewNotificationCreatedEvent("test", models.Notification{ID: "ntf_1", UserID: &uid}), eventbus.Event{}))
	require.NoError(t, relay.HandleNotification(context.Background(),
		events.NewNotificationCreatedEvent("test", models.Notification{ID: "ntf_2"}), eventbus.Event{}))

	got := pusher.snapshot()
	require.Len(t, got, 2)
	assert.Equal(t, "bob", got[0].userID)
	assert.False(t, got[0].broadcast)
	assert.True(t, got[1].broadcast)
}

func TestRelayDropsWhenHubStopped(t *testing.T) {
	pusher := &recordingPusher{err: realtime.ErrHubStopped}
	relay := notifications.NewRelay(eventbus.NewLocalEventBus(), pusher, "relay")

	err := relay.HandleNotification(context.Background(),
		events.NewNotificationCreatedEvent("test", models.Notification{ID: "ntf_1"}), eventbus.Event{})
	assert.NoError(t, err)

	pusher.err = errors.New("boom")
	err = relay.HandleNotification(context.Background(),
		events.NewNotificationCreatedEvent("test", models.Notification{ID: "ntf_1"}), eventbus.Event{})
	assert.Error(t, err)
}

func TestRelayRunOverLocalBus(t *testing.T) {
	bus := eventbus.NewLocalEventBus(time.Millisecond)
	defer bus.Close()
	pusher := &recordingPusher{}
	relay := notifications.NewRelay(bus, pusher, "relay")
	dispatcher := events.NewDispatcher(bus)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- relay.Run(ctx) }()

	require.Eventually(t, func() bool {
		_ = dispatcher.PublishNotificationCreated(context.Background(),
			events.NewNotificationCreatedEvent("test", models.Notification{ID: "ntf_run"}))
		return len(pusher.snapshot()) > 0
	}, 2*time.Second, 10*time.Millisecond)

	first := pusher.snapshot()[0]
	assert.True(t, first.broadcast)
	assert.Equal(t, realtime.EventNotification, first.evt.Type)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("relay did not stop")
	}
}
