package i18n

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"maps"
	"path"
	"regexp"
	"slices"
	"strings"

	"golang.org/x/text/language"
)

// DefaultLanguage is used when no preference matches.
const DefaultLanguage = "en"

//go:embed locales/*.yaml
var builtin embed.FS

// Translator resolves dotted keys per language. It is read-only after
// construction and safe for concurrent use.
type Translator struct {
	translations map[string]map[string]string
	defaultLang  string
	matcher      language.Matcher
	tags         []language.Tag
	logger       *slog.Logger
}

// Option configures a Translator.
type Option func(*Translator)

// WithDefaultLanguage sets the fallback language. It must be present in
// the loaded catalogue.
func WithDefaultLanguage(lang string) Option {
	return func(t *Translator) { t.defaultLang = lang }
}

// WithLogger logs missing keys at debug level.
func WithLogger(l *slog.Logger) Option {
	return func(t *Translator) { t.logger = l }
}

// New loads the bundled auth and validation messages.
func New(opts ...Option) (*Translator, error) {
	return NewFromFS(builtin, "locales", opts...)
}

// NewFromFS loads every *.yaml / *.yml file in dir of fsys. Files may
// add languages or override keys of earlier files.
func NewFromFS(fsys fs.FS, dir string, opts ...Option) (*Translator, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFailedToReadFile, err)
	}

	translations := make(map[string]map[string]string)
	for _, e := range entries {
		ext := path.Ext(e.Name())
		if e.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		content, err := fs.ReadFile(fsys, path.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrFailedToReadFile, e.Name(), err)
		}
		parsed, err := parseYAML(content)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", e.Name(), err)
		}
		for lang, kv := range parsed {
			lang = strings.ToLower(lang)
			if translations[lang] == nil {
				translations[lang] = make(map[string]string, len(kv))
			}
			maps.Copy(translations[lang], kv)
		}
	}
	return newTranslator(translations, opts...)
}

func newTranslator(translations map[string]map[string]string, opts ...Option) (*Translator, error) {
	if len(translations) == 0 {
		return nil, ErrNoTranslations
	}
	t := &Translator{
		translations: translations,
		defaultLang:  DefaultLanguage,
		logger:       slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(t)
	}
	if _, ok := translations[t.defaultLang]; !ok {
		return nil, fmt.Errorf("%w: default language %q has no translations", ErrInvalidLanguage, t.defaultLang)
	}

	// The matcher's first tag is its fallback.
	langs := t.SupportedLanguages()
	langs = slices.DeleteFunc(langs, func(l string) bool { return l == t.defaultLang })
	langs = append([]string{t.defaultLang}, langs...)
	for _, l := range langs {
		tag, err := language.Parse(l)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrInvalidLanguage, l, err)
		}
		t.tags = append(t.tags, tag)
	}
	t.matcher = language.NewMatcher(t.tags)
	return t, nil
}

// SupportedLanguages returns the loaded languages, sorted.
func (t *Translator) SupportedLanguages() []string {
	return slices.Sorted(maps.Keys(t.translations))
}

// DefaultLanguage returns the fallback language.
func (t *Translator) DefaultLanguage() string {
	return t.defaultLang
}

// Match picks the best supported language for the given preferences,
// each either a tag ("de-AT") or an Accept-Language header value.
func (t *Translator) Match(prefs ...string) string {
	var tags []language.Tag
	for _, p := range prefs {
		if p == "" {
			continue
		}
		parsed, _, err := language.ParseAcceptLanguage(p)
		if err != nil {
			continue
		}
		tags = append(tags, parsed...)
	}
	if len(tags) == 0 {
		return t.defaultLang
	}
	_, idx, conf := t.matcher.Match(tags...)
	if conf == language.No {
		return t.defaultLang
	}
	return t.langOf(idx)
}

func (t *Translator) langOf(idx int) string {
	base, _ := t.tags[idx].Base()
	full := strings.ToLower(t.tags[idx].String())
	if _, ok := t.translations[full]; ok {
		return full
	}
	return base.String()
}

// Has reports whether lang defines key.
func (t *Translator) Has(lang, key string) bool {
	_, ok := t.translations[lang][key]
	return ok
}

// T translates key for lang, falling back to the default language and
// then to the key itself. args are name/value pairs for %{name}
// placeholders.
func (t *Translator) T(lang, key string, args ...string) string {
	tmpl, ok := t.translations[lang][key]
	if !ok {
		tmpl, ok = t.translations[t.defaultLang][key]
	}
	if !ok {
		t.logger.Debug("translation not found", slog.String("lang", lang), slog.String("key", key))
		return key
	}
	return substitute(tmpl, pairs(args))
}

// Tm is T with a parameter map, as carried by validator.ValidationError.
func (t *Translator) Tm(lang, key string, params map[string]any) string {
	strs := make(map[string]string, len(params))
	for k, v := range params {
		strs[k] = fmt.Sprint(v)
	}
	tmpl, ok := t.translations[lang][key]
	if !ok {
		tmpl, ok = t.translations[t.defaultLang][key]
	}
	if !ok {
		return key
	}
	return substitute(tmpl, strs)
}

// Tc translates using the locale stored in ctx.
func (t *Translator) Tc(ctx context.Context, key string, args ...string) string {
	return t.T(GetLocale(ctx), key, args...)
}

var paramRegex = regexp.MustCompile(`%\{([^}]+)\}`)

// substitute replaces %{name} placeholders; unknown names are kept.
func substitute(tmpl string, params map[string]string) string {
	if len(params) == 0 {
		return tmpl
	}
	return paramRegex.ReplaceAllStringFunc(tmpl, func(m string) string {
		if v, ok := params[m[2:len(m)-1]]; ok {
			return v
		}
		return m
	})
}

func pairs(args []string) map[string]string {
	if len(args) < 2 {
		return nil
	}
	m := make(map[string]string, len(args)/2)
	for i := 0; i+1 < len(args); i += 2 {
		m[args[i]] = args[i+1]
	}
	return m
}
