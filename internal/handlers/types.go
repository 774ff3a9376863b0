package handlers

import (
	"context"
	"fmt"
	"strings"

	"scripters-bot/internal/locales"
	"scripters-bot/internal/posts"
	telegoapi "scripters-bot/pkg/telegoapi"

	"github.com/mymmrac/telego"
	"go.uber.org/zap"
)

// Publisher is the part of the publishing pipeline exposed to commands.
type Publisher interface {
	Regenerate(ctx context.Context) (int, error)
	Recent(ctx context.Context, limit int) ([]posts.Record, error)
}

// AdminChecker reports whether a user administers the channel.
type AdminChecker interface {
	IsAdmin(ctx context.Context, userID int64) (bool, error)
}

// HandlerFunc handles one command message.
type HandlerFunc func(ctx context.Context, bot telegoapi.BotAPI, message telego.Message) error

// Command represents a bot command, mapping the command string to its description and handler function.
type Command struct {
	Command     string      // The command string (e.g., "start").
	Description string      // Message ID of the localized description.
	Handler     HandlerFunc // The function to execute when the command is received.
}

// fetchLimit is the number of posts /fetch replies with.
const fetchLimit = 5

// CommandHandler answers private-chat commands.
type CommandHandler struct {
	publisher    Publisher
	adminChecker AdminChecker // nil when no channel is configured
	translator   *locales.Translator
	logger       *zap.Logger
	commands     []Command
}

// NewCommandHandler creates a CommandHandler. adminChecker may be nil, in
// which case admin-only commands are refused.
func NewCommandHandler(publisher Publisher, adminChecker AdminChecker, translator *locales.Translator, logger *zap.Logger) (*CommandHandler, error) {
	if publisher == nil {
		return nil, fmt.Errorf("publisher cannot be nil")
	}
	if translator == nil {
		return nil, fmt.Errorf("translator cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &CommandHandler{
		publisher:    publisher,
		adminChecker: adminChecker,
		translator:   translator,
		logger:       logger,
	}
	h.commands = []Command{
		{Command: "start", Description: "CmdStartDescription", Handler: h.HandleStart},
		{Command: "help", Description: "CmdHelpDescription", Handler: h.HandleHelp},
		{Command: "fetch", Description: "CmdFetchDescription", Handler: h.HandleFetch},
		{Command: "generate", Description: "CmdGenerateDescription", Handler: h.HandleGenerate},
	}
	return h, nil
}

// Commands returns the registered commands.
func (h *CommandHandler) Commands() []Command {
	return h.commands
}

// GetCommandHandler retrieves the handler for command, or nil if there is none.
func (h *CommandHandler) GetCommandHandler(command string) HandlerFunc {
	for _, cmd := range h.commands {
		if cmd.Command == command {
			return cmd.Handler
		}
	}
	return nil
}

// ParseCommand extracts the command name from a message text such as
// "/fetch@ScriptersBot arg". It returns "" for non-command text.
func ParseCommand(text string) string {
	if len(text) < 2 || !strings.HasPrefix(text, "/") {
		return ""
	}
	name := strings.Fields(text)[0][1:]
	if at := strings.IndexByte(name, '@'); at >= 0 {
		name = name[:at]
	}
	return strings.ToLower(name)
}
