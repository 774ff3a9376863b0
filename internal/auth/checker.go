package auth

import (
	"context"
	"fmt"
	"strings"

	telegoapi "scripters-bot/pkg/telegoapi"

	"github.com/mymmrac/telego"
)

// AdminChecker handles checking user admin status against a configured channel.
type AdminChecker struct {
	bot             telegoapi.BotAPI
	targetChannelID int64
}

// NewAdminChecker creates a new AdminChecker.
// It requires a non-nil bot instance and a non-zero target channel ID.
func NewAdminChecker(bot telegoapi.BotAPI, channelID int64) (*AdminChecker, error) {
	if bot == nil {
		return nil, fmt.Errorf("telego bot instance cannot be nil")
	}
	if channelID == 0 {
		return nil, fmt.Errorf("target channel ID cannot be zero")
	}
	return &AdminChecker{
		bot:             bot,
		targetChannelID: channelID,
	}, nil
}

// ChannelID returns the channel admin status is checked against.
func (ac *AdminChecker) ChannelID() int64 {
	return ac.targetChannelID
}

// IsAdmin checks if a user is an administrator or creator in the target channel.
func (ac *AdminChecker) IsAdmin(ctx context.Context, userID int64) (bool, error) {
	member, err := ac.bot.GetChatMember(ctx, &telego.GetChatMemberParams{
		ChatID: telego.ChatID{ID: ac.targetChannelID},
		UserID: userID,
	})
	if err != nil {
		// A user not found in the channel is simply not an admin.
		if strings.Contains(strings.ToLower(err.Error()), "user not found") {
			return false, nil
		}
		return false, fmt.Errorf("failed to get chat member info for user %d: %w", userID, err)
	}

	status := member.MemberStatus()
	return status == telego.MemberStatusCreator || status == telego.MemberStatusAdministrator, nil
}
