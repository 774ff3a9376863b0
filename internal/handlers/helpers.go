package handlers

import (
	"github.com/mymmrac/telego"
	"github.com/nicksnyder/go-i18n/v2/i18n"
)

// localizer picks the user's Telegram language, falling back to the default language.
func (h *CommandHandler) localizer(user *telego.User) *i18n.Localizer {
	if user != nil && user.LanguageCode != "" {
		return h.translator.NewLocalizer(user.LanguageCode)
	}
	return h.translator.NewLocalizer()
}
