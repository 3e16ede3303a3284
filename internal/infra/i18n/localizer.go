package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed locales
var LocalesFS embed.FS

// Localizer resolves dotted message keys per language, falling back to the
// default language and finally to the key itself.
type Localizer struct {
	defaultLang string
	supported   map[string]struct{}
	messages    map[string]map[string]string // lang -> key -> text
}

func NewLocalizer(fsys fs.FS, defaultLang string, supported []string) (*Localizer, error) {
	l := &Localizer{
		defaultLang: defaultLang,
		supported:   make(map[string]struct{}, len(supported)),
		messages:    make(map[string]map[string]string, len(supported)),
	}
	for _, lang := range supported {
		data, err := fs.ReadFile(fsys, path.Join("locales", fmt.Sprintf("%s.yaml", lang)))
		if err != nil {
			return nil, fmt.Errorf("read locale %s: %w", lang, err)
		}
		var msgs map[string]string
		if err := yaml.Unmarshal(data, &msgs); err != nil {
			return nil, fmt.Errorf("parse locale %s: %w", lang, err)
		}
		l.supported[lang] = struct{}{}
		l.messages[lang] = msgs
	}
	if _, ok := l.supported[defaultLang]; !ok {
		return nil, fmt.Errorf("default language %q is not among supported locales", defaultLang)
	}
	return l, nil
}

// Normalize maps a raw Telegram language code onto a supported language,
// falling back to the default.
func (l *Localizer) Normalize(lang string) string {
	lang = strings.ToLower(lang)
	if len(lang) > 2 {
		lang = lang[:2]
	}
	if _, ok := l.supported[lang]; ok {
		return lang
	}
	return l.defaultLang
}

// T translates a dotted key for the given language.
func (l *Localizer) T(key, lang string) string {
	lang = l.Normalize(lang)
	if msg, ok := l.messages[lang][key]; ok {
		return msg
	}
	if lang != l.defaultLang {
		if msg, ok := l.messages[l.defaultLang][key]; ok {
			return msg
		}
	}
	return key
}
