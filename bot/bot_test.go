package bot

import (
	"context"
	"errors"
	"sync"
	"testing"

	"scripters-bot/internal/handlers"
	"scripters-bot/internal/publisher"
	telegoapi "scripters-bot/pkg/telegoapi"
	"scripters-bot/pkg/telegoapi/telegoapitest"

	"github.com/mymmrac/telego"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testChannelID = int64(-100123)

type fakePublisher struct {
	mu    sync.Mutex
	ids   []int
	err   error
	panic bool
}

func (f *fakePublisher) Publish(_ context.Context, msg *telego.Message) error {
	if f.panic {
		panic("boom")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ids = append(f.ids, msg.MessageID)
	return f.err
}

func (f *fakePublisher) published() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.ids...)
}

type fakeRouter struct {
	mu    sync.Mutex
	texts []string
	err   error
}

func (f *fakeRouter) Handle(_ context.Context, _ telegoapi.BotAPI, message telego.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts = append(f.texts, message.Text)
	return f.err
}

func runUpdates(t *testing.T, pub *fakePublisher, router *fakeRouter, channelID int64, updates ...telego.Update) {
	t.Helper()
	ch := make(chan telego.Update, len(updates))
	for _, u := range updates {
		ch <- u
	}
	close(ch)

	b, err := New(BotDeps{
		Bot:         new(telegoapitest.MockBot),
		UpdatesChan: ch,
		ChannelID:   channelID,
		Publisher:   pub,
		Commands:    router,
		RateLimit:   1000,
	})
	require.NoError(t, err)
	b.Start(context.Background())
}

func channelPost(id int, chatID int64) *telego.Message {
	return &telego.Message{MessageID: id, Chat: telego.Chat{ID: chatID, Type: "channel"}}
}

func TestNew_RequiresDeps(t *testing.T) {
	ch := make(chan telego.Update)
	_, err := New(BotDeps{UpdatesChan: ch, Publisher: &fakePublisher{}, Commands: &fakeRouter{}})
	assert.Error(t, err)
	_, err = New(BotDeps{Bot: new(telegoapitest.MockBot), Publisher: &fakePublisher{}, Commands: &fakeRouter{}})
	assert.Error(t, err)
	_, err = New(BotDeps{Bot: new(telegoapitest.MockBot), UpdatesChan: ch, Commands: &fakeRouter{}})
	assert.Error(t, err)
	_, err = New(BotDeps{Bot: new(telegoapitest.MockBot), UpdatesChan: ch, Publisher: &fakePublisher{}})
	assert.Error(t, err)
}

func TestStart_PublishesChannelPosts(t *testing.T) {
	pub := &fakePublisher{}
	router := &fakeRouter{}
	runUpdates(t, pub, router, testChannelID,
		telego.Update{UpdateID: 1, ChannelPost: channelPost(10, testChannelID)},
		telego.Update{UpdateID: 2, EditedChannelPost: channelPost(11, testChannelID)},
		telego.Update{UpdateID: 3, ChannelPost: channelPost(12, -100999)},
	)
	assert.ElementsMatch(t, []int{10, 11}, pub.published())
	assert.Empty(t, router.texts)
}

func TestStart_AnyChannelWhenUnset(t *testing.T) {
	pub := &fakePublisher{}
	runUpdates(t, pub, &fakeRouter{}, 0,
		telego.Update{UpdateID: 1, ChannelPost: channelPost(1, -1001)},
		telego.Update{UpdateID: 2, ChannelPost: channelPost(2, -1002)},
	)
	assert.ElementsMatch(t, []int{1, 2}, pub.published())
}

func TestStart_RoutesCommands(t *testing.T) {
	pub := &fakePublisher{}
	router := &fakeRouter{}
	user := &telego.User{ID: 7, FirstName: "Ann"}
	chat := telego.Chat{ID: 7, Type: "private"}
	runUpdates(t, pub, router, testChannelID,
		telego.Update{UpdateID: 1, Message: &telego.Message{MessageID: 1, From: user, Chat: chat, Text: "/fetch"}},
		telego.Update{UpdateID: 2, Message: &telego.Message{MessageID: 2, From: user, Chat: chat, Text: "hello"}},
		telego.Update{UpdateID: 3, Message: &telego.Message{MessageID: 3, Chat: chat, Text: "/start"}},
	)
	assert.Equal(t, []string{"/fetch"}, router.texts)
	assert.Empty(t, pub.published())
}

func TestStart_PublishErrorsDoNotStopLoop(t *testing.T) {
	pub := &fakePublisher{err: &publisher.PersistenceError{Artifact: "page", PostID: 1, Err: errors.New("disk full")}}
	router := &fakeRouter{err: handlers.ErrUnknownCommand}
	runUpdates(t, pub, router, 0,
		telego.Update{UpdateID: 1, ChannelPost: channelPost(1, testChannelID)},
		telego.Update{UpdateID: 2, ChannelPost: channelPost(2, testChannelID)},
	)
	assert.ElementsMatch(t, []int{1, 2}, pub.published())

	invalid := &fakePublisher{err: publisher.ErrInvalidRecord}
	runUpdates(t, invalid, router, 0, telego.Update{UpdateID: 3, ChannelPost: channelPost(0, testChannelID)})
	assert.Equal(t, []int{0}, invalid.published())
}

func TestStart_RecoversFromPanic(t *testing.T) {
	pub := &fakePublisher{panic: true}
	assert.NotPanics(t, func() {
		runUpdates(t, pub, &fakeRouter{}, 0, telego.Update{UpdateID: 1, ChannelPost: channelPost(1, testChannelID)})
	})
}

func TestStart_StopsOnContextCancel(t *testing.T) {
	ch := make(chan telego.Update)
	b, err := New(BotDeps{
		Bot:         new(telegoapitest.MockBot),
		UpdatesChan: ch,
		Publisher:   &fakePublisher{},
		Commands:    &fakeRouter{},
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		b.Start(ctx)
		close(done)
	}()
	cancel()
	<-done
	b.Stop()
}
