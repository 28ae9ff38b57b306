// Package i18n holds the user-facing copy for generation notifications.
package i18n

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/feature/plural"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Message keys.
const (
	KeyPlanReadyTitle   = "generation.plan_ready.title"
	KeyPlanReadyMessage = "generation.plan_ready.message"
	KeySlotReadyTitle   = "generation.slot_ready.title"
	KeySlotReadyMessage = "generation.slot_ready.message"
	KeyFailedTitle      = "generation.failed.title"
	KeyFailedMessage    = "generation.failed.message"
	KeyFailedNoReason   = "generation.failed.no_reason"
	KeyPollExhausted    = "generation.failed.unreachable"
	KeyUnknownClient    = "generation.client.unknown"
	KeyNotificationGone = "notification.not_found"
)

var supported = []language.Tag{language.English, language.Indonesian}

// Translator renders catalog messages for a locale.
type Translator struct {
	matcher  language.Matcher
	fallback language.Tag
	cat      catalog.Catalog
}

// New builds the catalog. defaultLocale picks the fallback for unmatched locales.
func New(defaultLocale string) *Translator {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	mustSet(b, language.English, KeyPlanReadyTitle, catalog.String("Meal plan ready"))
	mustSet(b, language.English, KeyPlanReadyMessage, plural.Selectf(1, "%d",
		"=0", "No new meals were suggested for %[2]s.",
		"=1", "1 meal suggestion is ready for %[2]s.",
		"other", "%[1]d meal suggestions are ready for %[2]s.",
	))
	mustSet(b, language.English, KeySlotReadyTitle, catalog.String("New meal suggestion"))
	mustSet(b, language.English, KeySlotReadyMessage, catalog.String("%[1]s %[2]s for %[3]s is ready to review."))
	mustSet(b, language.English, KeyFailedTitle, catalog.String("Meal generation failed"))
	mustSet(b, language.English, KeyFailedMessage, catalog.String("Could not generate meals for %[1]s: %[2]s"))
	mustSet(b, language.English, KeyFailedNoReason, catalog.String("the generation service did not give a reason"))
	mustSet(b, language.English, KeyPollExhausted, catalog.String("the generation service stopped responding"))
	mustSet(b, language.English, KeyUnknownClient, catalog.String("this client"))
	mustSet(b, language.English, KeyNotificationGone, catalog.String("This item is no longer available."))

	mustSet(b, language.Indonesian, KeyPlanReadyTitle, catalog.String("Rencana makan siap"))
	mustSet(b, language.Indonesian, KeyPlanReadyMessage, catalog.String("%[1]d saran menu siap untuk %[2]s."))
	mustSet(b, language.Indonesian, KeySlotReadyTitle, catalog.String("Saran menu baru"))
	mustSet(b, language.Indonesian, KeySlotReadyMessage, catalog.String("%[2]s %[1]s untuk %[3]s siap ditinjau."))
	mustSet(b, language.Indonesian, KeyFailedTitle, catalog.String("Gagal membuat menu"))
	mustSet(b, language.Indonesian, KeyFailedMessage, catalog.String("Tidak dapat membuat menu untuk %[1]s: %[2]s"))
	mustSet(b, language.Indonesian, KeyFailedNoReason, catalog.String("layanan tidak memberikan alasan"))
	mustSet(b, language.Indonesian, KeyPollExhausted, catalog.String("layanan pembuatan menu tidak merespons"))
	mustSet(b, language.Indonesian, KeyUnknownClient, catalog.String("klien ini"))
	mustSet(b, language.Indonesian, KeyNotificationGone, catalog.String("Item ini sudah tidak tersedia."))

	t := &Translator{matcher: language.NewMatcher(supported), fallback: language.English, cat: b}
	if strings.TrimSpace(defaultLocale) != "" {
		t.fallback = t.Tag(defaultLocale)
	}
	return t
}

func mustSet(b *catalog.Builder, tag language.Tag, key string, msg catalog.Message) {
	if err := b.Set(tag, key, msg); err != nil {
		panic(err)
	}
}

// Tag matches a locale or Accept-Language value against the supported languages.
func (t *Translator) Tag(locale string) language.Tag {
	locale = strings.TrimSpace(locale)
	if locale == "" {
		return t.fallback
	}
	tags, _, err := language.ParseAcceptLanguage(locale)
	if err != nil || len(tags) == 0 {
		return t.fallback
	}
	_, idx, conf := t.matcher.Match(tags...)
	if conf == language.No {
		return t.fallback
	}
	return supported[idx]
}

// Normalize returns the base language code ("en", "id") for locale.
func (t *Translator) Normalize(locale string) string {
	base, _ := t.Tag(locale).Base()
	return base.String()
}

// Sprintf renders key for locale.
func (t *Translator) Sprintf(locale, key string, args ...any) string {
	p := message.NewPrinter(t.Tag(locale), message.Catalog(t.cat))
	return p.Sprintf(key, args...)
}

// Title capitalizes words like day and meal names in the locale's casing rules.
func (t *Translator) Title(locale, s string) string {
	return cases.Title(t.Tag(locale)).String(strings.TrimSpace(s))
}
