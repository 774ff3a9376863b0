package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	telegoapi "scripters-bot/pkg/telegoapi"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
	"go.uber.org/zap"
)

// ErrUnknownCommand is returned by Handle for commands nobody registered.
var ErrUnknownCommand = errors.New("unknown command")

// Handle routes a command message to its handler. Unknown commands get a
// localized hint and ErrUnknownCommand.
func (h *CommandHandler) Handle(ctx context.Context, bot telegoapi.BotAPI, message telego.Message) error {
	command := ParseCommand(message.Text)
	handler := h.GetCommandHandler(command)
	if handler == nil {
		localizer := h.localizer(message.From)
		h.reply(ctx, bot, message.Chat.ID, h.translator.GetMessage(localizer, "MsgErrorUnknownCommand", nil))
		return fmt.Errorf("%w: %q", ErrUnknownCommand, command)
	}
	return handler(ctx, bot, message)
}

// HandleStart greets the user.
func (h *CommandHandler) HandleStart(ctx context.Context, bot telegoapi.BotAPI, message telego.Message) error {
	name := "there"
	if message.From != nil && message.From.FirstName != "" {
		name = message.From.FirstName
	}
	localizer := h.localizer(message.From)
	text := h.translator.GetMessage(localizer, "MsgStart", map[string]interface{}{"Name": name})
	return h.send(ctx, bot, message.Chat.ID, text)
}

// HandleHelp lists the available commands.
func (h *CommandHandler) HandleHelp(ctx context.Context, bot telegoapi.BotAPI, message telego.Message) error {
	localizer := h.localizer(message.From)
	return h.send(ctx, bot, message.Chat.ID, h.translator.GetMessage(localizer, "MsgHelp", nil))
}

// HandleFetch replies with the most recent stored posts.
func (h *CommandHandler) HandleFetch(ctx context.Context, bot telegoapi.BotAPI, message telego.Message) error {
	localizer := h.localizer(message.From)
	records, err := h.publisher.Recent(ctx, fetchLimit)
	if err != nil {
		return h.sendError(ctx, bot, message, fmt.Errorf("fetch recent posts: %w", err))
	}
	if len(records) == 0 {
		return h.send(ctx, bot, message.Chat.ID, h.translator.GetMessage(localizer, "MsgNoPosts", nil))
	}

	parts := make([]string, 0, len(records))
	for _, rec := range records {
		if rec.HasCaption() {
			parts = append(parts, rec.CaptionText())
			continue
		}
		parts = append(parts, h.translator.GetMessage(localizer, "MsgPostWithoutCaption", map[string]interface{}{"ID": rec.ID}))
	}
	return h.send(ctx, bot, message.Chat.ID, strings.Join(parts, "\n\n"))
}

// HandleGenerate rebuilds every post page and the index. Channel admins only.
func (h *CommandHandler) HandleGenerate(ctx context.Context, bot telegoapi.BotAPI, message telego.Message) error {
	localizer := h.localizer(message.From)
	if !h.isAdmin(ctx, message.From) {
		h.logger.Info("non-admin requested site generation", zap.Int64("chat_id", message.Chat.ID))
		return h.send(ctx, bot, message.Chat.ID, h.translator.GetMessage(localizer, "MsgErrorRequiresAdmin", nil))
	}

	count, err := h.publisher.Regenerate(ctx)
	if err != nil {
		return h.sendError(ctx, bot, message, fmt.Errorf("regenerate site: %w", err))
	}
	text := h.translator.GetMessage(localizer, "MsgSiteGenerated", map[string]interface{}{"Count": count})
	return h.send(ctx, bot, message.Chat.ID, text)
}

// SetupCommands publishes the command menu to Telegram.
func (h *CommandHandler) SetupCommands(ctx context.Context, bot telegoapi.BotAPI) error {
	localizer := h.translator.NewLocalizer()
	cmds := make([]telego.BotCommand, 0, len(h.commands))
	for _, cmd := range h.commands {
		cmds = append(cmds, telego.BotCommand{
			Command:     cmd.Command,
			Description: h.translator.GetMessage(localizer, cmd.Description, nil),
		})
	}
	if err := bot.SetMyCommands(ctx, &telego.SetMyCommandsParams{Commands: cmds}); err != nil {
		return fmt.Errorf("failed to set bot commands: %w", err)
	}
	return nil
}

func (h *CommandHandler) isAdmin(ctx context.Context, user *telego.User) bool {
	if h.adminChecker == nil || user == nil {
		return false
	}
	ok, err := h.adminChecker.IsAdmin(ctx, user.ID)
	if err != nil {
		h.logger.Warn("admin check failed", zap.Int64("user_id", user.ID), zap.Error(err))
		return false
	}
	return ok
}

func (h *CommandHandler) send(ctx context.Context, bot telegoapi.BotAPI, chatID int64, text string) error {
	if _, err := bot.SendMessage(ctx, tu.Message(tu.ID(chatID), text)); err != nil {
		return fmt.Errorf("send message to chat %d: %w", chatID, err)
	}
	return nil
}

// reply sends text and only logs a failure.
func (h *CommandHandler) reply(ctx context.Context, bot telegoapi.BotAPI, chatID int64, text string) {
	if err := h.send(ctx, bot, chatID, text); err != nil {
		h.logger.Warn("reply failed", zap.Error(err))
	}
}

// sendError tells the user something went wrong and returns the original error.
func (h *CommandHandler) sendError(ctx context.Context, bot telegoapi.BotAPI, message telego.Message, originalErr error) error {
	localizer := h.localizer(message.From)
	h.reply(ctx, bot, message.Chat.ID, h.translator.GetMessage(localizer, "MsgErrorGeneral", nil))
	return originalErr
}
