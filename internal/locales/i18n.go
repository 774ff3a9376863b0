package locales

import (
	"embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

//go:embed *.json
var localeFS embed.FS

// Translator resolves bot replies from the embedded message files.
type Translator struct {
	bundle          *i18n.Bundle
	defaultLanguage language.Tag
}

// New loads every embedded message file. An unparsable default language
// code falls back to English.
func New(defaultLangCode string) (*Translator, error) {
	defaultLanguage, err := language.Parse(defaultLangCode)
	if err != nil {
		defaultLanguage = language.English
	}

	bundle := i18n.NewBundle(defaultLanguage)
	bundle.RegisterUnmarshalFunc("json", json.Unmarshal)

	entries, err := localeFS.ReadDir(".")
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded locales directory: %w", err)
	}
	loaded := 0
	for _, file := range entries {
		if file.IsDir() || !strings.HasSuffix(file.Name(), ".json") {
			continue
		}
		if _, err := bundle.LoadMessageFileFS(localeFS, file.Name()); err != nil {
			return nil, fmt.Errorf("failed to load message file '%s': %w", file.Name(), err)
		}
		loaded++
	}
	if loaded == 0 {
		return nil, fmt.Errorf("no message files embedded")
	}
	return &Translator{bundle: bundle, defaultLanguage: defaultLanguage}, nil
}

// DefaultLanguage returns the configured default language tag.
func (t *Translator) DefaultLanguage() language.Tag {
	return t.defaultLanguage
}

// NewLocalizer creates a localizer for the given language preferences,
// e.g. a Telegram user's language code. The default language is always
// the last preference.
func (t *Translator) NewLocalizer(langPrefs ...string) *i18n.Localizer {
	prefs := append(langPrefs, t.defaultLanguage.String())
	return i18n.NewLocalizer(t.bundle, prefs...)
}

// GetMessage retrieves and formats a message by its ID.
// If the message is missing in every language the ID itself is returned.
func (t *Translator) GetMessage(localizer *i18n.Localizer, msgID string, templateData map[string]interface{}) string {
	msg, err := localizer.Localize(&i18n.LocalizeConfig{
		MessageID:    msgID,
		TemplateData: templateData,
	})
	if err != nil || msg == "" {
		return msgID
	}
	return msg
}
