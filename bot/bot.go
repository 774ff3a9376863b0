package bot

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strconv"
	"sync"
	"time"

	"scripters-bot/internal/handlers"
	"scripters-bot/internal/publisher"
	telegoapi "scripters-bot/pkg/telegoapi"

	"github.com/getsentry/sentry-go"
	"github.com/mymmrac/telego"
	"go.uber.org/ratelimit"
	"go.uber.org/zap"
)

const processTimeout = 30 * time.Second

// PostPublisher turns a channel post into stored artifacts.
type PostPublisher interface {
	Publish(ctx context.Context, msg *telego.Message) error
}

// CommandRouter answers command messages.
type CommandRouter interface {
	Handle(ctx context.Context, bot telegoapi.BotAPI, message telego.Message) error
}

// Bot represents the main application logic for the Telegram bot.
// It consumes the update stream, publishes channel posts and routes commands.
type Bot struct {
	bot         telegoapi.BotAPI
	updatesChan <-chan telego.Update
	debug       bool
	channelID   int64
	publisher   PostPublisher
	commands    CommandRouter
	logger      *zap.Logger
	ratelimiter ratelimit.Limiter
}

// BotDeps holds the dependencies required by the Bot.
type BotDeps struct {
	Bot         telegoapi.BotAPI
	UpdatesChan <-chan telego.Update
	Debug       bool
	ChannelID   int64 // 0 accepts posts from any channel
	Publisher   PostPublisher
	Commands    CommandRouter
	Logger      *zap.Logger
	RateLimit   int // updates per second, defaults to 20
}

// New creates a new Bot instance from its dependencies.
func New(deps BotDeps) (*Bot, error) {
	if deps.Bot == nil {
		return nil, fmt.Errorf("telego bot (BotAPI) instance cannot be nil")
	}
	if deps.UpdatesChan == nil {
		return nil, fmt.Errorf("updates channel cannot be nil")
	}
	if deps.Publisher == nil {
		return nil, fmt.Errorf("publisher cannot be nil")
	}
	if deps.Commands == nil {
		return nil, fmt.Errorf("command router cannot be nil")
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	rate := deps.RateLimit
	if rate <= 0 {
		rate = 20
	}

	return &Bot{
		bot:         deps.Bot,
		updatesChan: deps.UpdatesChan,
		debug:       deps.Debug,
		channelID:   deps.ChannelID,
		publisher:   deps.Publisher,
		commands:    deps.Commands,
		logger:      logger,
		ratelimiter: ratelimit.New(rate),
	}, nil
}

// handleChannelPost publishes a post from the configured channel.
func (b *Bot) handleChannelPost(ctx context.Context, post *telego.Message, edited bool) {
	log := b.logger.With(
		zap.Int("post_id", post.MessageID),
		zap.Int64("chat_id", post.Chat.ID),
		zap.Bool("edited", edited),
	)
	if b.channelID != 0 && post.Chat.ID != b.channelID {
		if b.debug {
			log.Debug("ignoring post from another channel")
		}
		return
	}

	err := b.publisher.Publish(ctx, post)
	if err == nil {
		return
	}

	tags := map[string]string{
		"post_id": strconv.Itoa(post.MessageID),
		"chat_id": strconv.FormatInt(post.Chat.ID, 10),
	}
	var persistErr *publisher.PersistenceError
	switch {
	case errors.Is(err, publisher.ErrInvalidRecord):
		log.Warn("skipping post without identity", zap.Error(err))
		captureError(err, tags, sentry.LevelWarning)
	case errors.As(err, &persistErr):
		tags["artifact"] = persistErr.Artifact
		log.Error("failed to persist post", zap.String("artifact", persistErr.Artifact), zap.Error(err))
		captureError(err, tags, sentry.LevelError)
	default:
		log.Error("failed to publish post", zap.Error(err))
		captureError(err, tags, sentry.LevelError)
	}
}

// handleCommandUpdate processes a message identified as a command.
func (b *Bot) handleCommandUpdate(ctx context.Context, message telego.Message) {
	log := b.logger.With(
		zap.String("command", handlers.ParseCommand(message.Text)),
		zap.Int64("user_id", message.From.ID),
	)
	if b.debug {
		log.Debug("executing handler")
	}
	if err := b.commands.Handle(ctx, b.bot, message); err != nil {
		if errors.Is(err, handlers.ErrUnknownCommand) {
			log.Info("no handler found")
			return
		}
		log.Error("handler error", zap.Error(err))
		captureError(err, map[string]string{"command": handlers.ParseCommand(message.Text)}, sentry.LevelError)
	}
}

// processUpdate routes incoming updates to the appropriate handlers.
func (b *Bot) processUpdate(ctx context.Context, update telego.Update) {
	b.ratelimiter.Take()

	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("panic recovered in processUpdate",
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()),
			)
			sentry.CurrentHub().Recover(r)
			sentry.Flush(2 * time.Second)
		}
	}()

	processingCtx, cancel := context.WithTimeout(ctx, processTimeout)
	defer cancel()

	switch {
	case update.ChannelPost != nil:
		b.handleChannelPost(processingCtx, update.ChannelPost, false)

	case update.EditedChannelPost != nil:
		b.handleChannelPost(processingCtx, update.EditedChannelPost, true)

	case update.Message != nil:
		message := *update.Message
		if message.From == nil {
			b.logger.Debug("ignoring message without sender",
				zap.Int("message_id", message.MessageID), zap.Int64("chat_id", message.Chat.ID))
			return
		}
		if handlers.ParseCommand(message.Text) != "" {
			b.handleCommandUpdate(processingCtx, message)
			return
		}
		if b.debug {
			b.logger.Debug("ignoring non-command message", zap.Int("message_id", message.MessageID))
		}

	default:
		if b.debug {
			b.logger.Debug("ignoring unhandled update type", zap.Int("update_id", update.UpdateID))
		}
	}
}

// Start begins the bot's update processing loop. It returns once ctx is
// done or the updates channel is closed and every in-flight update finished.
func (b *Bot) Start(ctx context.Context) {
	b.logger.Info("listening for updates", zap.Int64("channel_id", b.channelID))

	var wg sync.WaitGroup

	for {
		select {
		case <-ctx.Done():
			b.logger.Info("context done, stopping update processing")
			wg.Wait()
			b.logger.Info("all update processing finished")
			return
		case update, ok := <-b.updatesChan:
			if !ok {
				b.logger.Info("updates channel closed")
				wg.Wait()
				return
			}
			wg.Add(1)
			go func(up telego.Update) {
				defer wg.Done()
				b.processUpdate(ctx, up)
			}(update)
		}
	}
}

// Stop gracefully stops the bot. Polling itself stops when the context
// passed to the updates channel is cancelled.
func (b *Bot) Stop() {
	b.logger.Info("bot stopped")
	_ = b.logger.Sync()
}
