// Package i18n localizes the short status texts shown on controls.
package i18n

import (
	"os"
	"strings"

	"github.com/jeandeaual/go-locale"
	"github.com/rs/zerolog/log"
)

// EnvLang overrides locale detection when set.
const EnvLang = "CONTROLS_LANG"

// Message keys
const (
	KeyOn  = "ON"
	KeyOff = "OFF"

	KeyToggleSampleTitle    = "ON/OFF sample"
	KeyToggleSampleSubtitle = "Tap to switch ON/OFF."
	KeySliderSampleTitle    = "Slider sample"
	KeySliderSampleSubtitle = "Drag to change the level."
)

var translations = map[string]map[string]string{
	KeyOn: {
		"ja": "ONです",
	},
	KeyOff: {
		"ja": "OFFです",
	},
	KeyToggleSampleTitle: {
		"ja": "ON/OFFサンプル",
	},
	KeyToggleSampleSubtitle: {
		"ja": "おすとON/OFFが切り替わります。",
	},
	KeySliderSampleTitle: {
		"ja": "スライダーサンプル",
	},
	KeySliderSampleSubtitle: {
		"ja": "スライダーです。",
	},
}

// Supported lists the languages with translations; English is the fallback.
var Supported = []string{"en", "ja"}

// Translator resolves message keys for one language.
type Translator struct {
	lang string
}

// New returns a translator for lang, falling back to English for
// anything outside Supported.
func New(lang string) *Translator {
	return &Translator{lang: normalize(lang)}
}

// Detect picks the language from CONTROLS_LANG, then fallback, then the
// system locale.
func Detect(fallback string) *Translator {
	if forced := strings.TrimSpace(os.Getenv(EnvLang)); forced != "" {
		log.Debug().Str("lang", forced).Msg(EnvLang + " is set")
		return New(forced)
	}
	if fallback != "" {
		return New(fallback)
	}
	return New(SystemLocale())
}

// SystemLocale returns the first user locale, or "en" when none is known.
func SystemLocale() string {
	userLocales, err := locale.GetLocales()
	if err != nil || len(userLocales) == 0 {
		log.Debug().Err(err).Msg("Could not detect user locale, defaulting to en")
		return "en"
	}
	return userLocales[0]
}

// Lang returns the resolved language code.
func (t *Translator) Lang() string {
	return t.lang
}

// T returns the translation of key, or key itself.
func (t *Translator) T(key string) string {
	if t == nil {
		return key
	}
	if translated, ok := translations[key][t.lang]; ok {
		return translated
	}
	return key
}

// OnOff returns the status text for a toggle.
func (t *Translator) OnOff(on bool) string {
	if on {
		return t.T(KeyOn)
	}
	return t.T(KeyOff)
}

func normalize(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	for _, l := range Supported {
		if strings.HasPrefix(lang, l) {
			return l
		}
	}
	return "en"
}
