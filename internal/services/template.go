package services

import (
	"context"
	"fmt"
	"strings"
	"text/template"

	"github.com/samber/do"

	"boostbot/internal/interfaces"
	"boostbot/internal/models"
)

var defaultTemplates = map[models.MessageKind]map[string]string{
	models.MessageBoostProgress: {
		models.LanguageEnglish:   "📈 Your boost is working!\n\n💰 Current balance: <b>{{.current_balance}}</b>\n⏳ Time left: {{.remaining_time}}\n🏦 Platform: {{.platform}}",
		models.LanguageUkrainian: "📈 Ваш буст працює!\n\n💰 Поточний баланс: <b>{{.current_balance}}</b>\n⏳ Залишилось: {{.remaining_time}}\n🏦 Платформа: {{.platform}}",
	},
	models.MessageBoostFinished: {
		models.LanguageEnglish:   "✅ Your boost is complete!\n\n💵 Initial balance: {{.start_balance}}\n🏁 Final balance: <b>{{.final_balance}}</b>",
		models.LanguageUkrainian: "✅ Ваш буст завершено!\n\n💵 Початковий баланс: {{.start_balance}}\n🏁 Фінальний баланс: <b>{{.final_balance}}</b>",
	},
	models.MessageBoostStopped: {
		models.LanguageEnglish:   "⛔ Boost stopped.\n\n💵 Initial balance: {{.start_balance}}\n🏁 Final balance: <b>{{.final_balance}}</b>",
		models.LanguageUkrainian: "⛔ Буст зупинено.\n\n💵 Початковий баланс: {{.start_balance}}\n🏁 Фінальний баланс: <b>{{.final_balance}}</b>",
	},
	models.MessageBoostStarted: {
		models.LanguageEnglish:   "🚀 Boost started on {{.platform}}!\n\n💵 Initial balance: {{.start_balance}}\n⏳ Duration: {{.remaining_time}}",
		models.LanguageUkrainian: "🚀 Буст запущено на {{.platform}}!\n\n💵 Початковий баланс: {{.start_balance}}\n⏳ Тривалість: {{.remaining_time}}",
	},
	models.MessagePaidBoost: {
		models.LanguageEnglish:   "💳 Your free boost is used.\n\n🏁 Last final balance: {{.last_final_balance}}\n💰 Next boost costs <b>{{.amount_to_pay}}</b>",
		models.LanguageUkrainian: "💳 Безкоштовний буст використано.\n\n🏁 Останній фінальний баланс: {{.last_final_balance}}\n💰 Наступний буст коштує <b>{{.amount_to_pay}}</b>",
	},
}

// NormalizeLanguage maps a profile or Telegram language code to a supported language.
func NormalizeLanguage(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	switch {
	case lang == "ua" || strings.HasPrefix(lang, models.LanguageUkrainian):
		return models.LanguageUkrainian
	default:
		return models.LanguageEnglish
	}
}

// ServiceTemplate renders message texts. A config entry TEMPLATE_<KIND>_<LANG> overrides
// the built-in text.
type ServiceTemplate struct {
	container *do.Injector
	configs   interfaces.ConfigReader
}

func NewServiceTemplate(container *do.Injector) (*ServiceTemplate, error) {
	configs, err := do.Invoke[interfaces.ConfigReader](container)
	if err != nil {
		return nil, err
	}

	return &ServiceTemplate{container, configs}, nil
}

func TemplateConfigKey(kind models.MessageKind, lang string) string {
	return strings.ToUpper(fmt.Sprintf("%s%s_%s", CONFIG_TEMPLATE_PREFIX, kind, lang))
}

func (service *ServiceTemplate) Render(ctx context.Context, kind models.MessageKind, lang string, fields map[string]string) (string, error) {
	lang = NormalizeLanguage(lang)

	byLang, ok := defaultTemplates[kind]
	if !ok {
		return "", fmt.Errorf("unknown message kind %q", kind)
	}
	text := byLang[lang]

	if service.configs != nil {
		// a missing override is not an error, the default stays
		if v, err := service.configs.GetStringConfig(ctx, TemplateConfigKey(kind, lang), text); err == nil && v != "" {
			text = v
		}
	}

	tmpl, err := template.New(string(kind)).Option("missingkey=zero").Parse(text)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	if err := tmpl.Execute(&b, fields); err != nil {
		return "", err
	}
	return b.String(), nil
}
