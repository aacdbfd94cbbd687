// Package messages renders templated, localized player messages. Templates
// live in per-locale YAML files; the player's client locale is matched
// against the available locales, falling back to the configured default.
package messages

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/skyisle/islandfly/internal/world"
	"go.uber.org/zap"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// DeliverFunc hands a rendered message to the host for display. The default
// logs it; the host integration replaces it with real chat delivery.
type DeliverFunc func(p *world.PlayerInfo, text string)

type Service struct {
	log     *zap.Logger
	tags    []language.Tag
	matcher language.Matcher
	locales map[string]map[string]string // tag string → key → template
	deliver DeliverFunc
}

// Load reads every *.yaml locale file in dir. File basenames are BCP 47
// tags (en-US.yaml, de.yaml, ...). defaultLocale must be among them.
func Load(dir, defaultLocale string, log *zap.Logger) (*Service, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read locales dir: %w", err)
	}

	locales := make(map[string]map[string]string)
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".yaml" {
			continue
		}
		name := strings.TrimSuffix(e.Name(), ".yaml")
		raw, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("read locale %s: %w", name, err)
		}
		var tree map[string]any
		if err := yaml.Unmarshal(raw, &tree); err != nil {
			return nil, fmt.Errorf("parse locale %s: %w", name, err)
		}
		flat := make(map[string]string)
		flatten("", tree, flat)
		locales[name] = flat
	}
	if _, ok := locales[defaultLocale]; !ok {
		return nil, fmt.Errorf("default locale %s not found in %s", defaultLocale, dir)
	}
	return New(locales, defaultLocale, log)
}

// New builds a Service from already-parsed templates. The default locale's
// tag is placed first so the matcher falls back to it.
func New(locales map[string]map[string]string, defaultLocale string, log *zap.Logger) (*Service, error) {
	defTag, err := language.Parse(defaultLocale)
	if err != nil {
		return nil, fmt.Errorf("default locale %s: %w", defaultLocale, err)
	}
	tags := []language.Tag{defTag}
	for name := range locales {
		if name == defaultLocale {
			continue
		}
		tag, err := language.Parse(name)
		if err != nil {
			return nil, fmt.Errorf("locale %s: %w", name, err)
		}
		tags = append(tags, tag)
	}

	s := &Service{
		log:     log,
		tags:    tags,
		matcher: language.NewMatcher(tags),
		locales: locales,
	}
	s.deliver = s.logDeliver
	return s, nil
}

// SetDeliver replaces the delivery function (host integration, tests).
func (s *Service) SetDeliver(fn DeliverFunc) {
	s.deliver = fn
}

// Send renders the template for key in the player's locale and delivers it.
// vars are placeholder/value pairs, e.g. "[number]", "30". A missing key
// delivers the key itself so broken locales are visible, not silent.
func (s *Service) Send(p *world.PlayerInfo, key string, vars ...string) {
	s.deliver(p, s.Render(p.Locale, key, vars...))
}

// Render resolves locale and key and substitutes placeholders.
func (s *Service) Render(locale, key string, vars ...string) string {
	_, idx, _ := s.matcher.Match(language.Make(locale))
	flat := s.locales[s.tags[idx].String()]
	if flat == nil {
		// Matcher tags canonicalize; fall back to the default locale map.
		flat = s.locales[s.tags[0].String()]
	}
	tpl, ok := flat[key]
	if !ok {
		return key
	}
	for i := 0; i+1 < len(vars); i += 2 {
		tpl = strings.ReplaceAll(tpl, vars[i], vars[i+1])
	}
	return tpl
}

func (s *Service) logDeliver(p *world.PlayerInfo, text string) {
	s.log.Info("message",
		zap.String("player", p.Name),
		zap.String("text", text))
}

// flatten turns nested YAML maps into dot-joined keys.
func flatten(prefix string, tree map[string]any, out map[string]string) {
	for k, v := range tree {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch val := v.(type) {
		case map[string]any:
			flatten(key, val, out)
		case string:
			out[key] = val
		default:
			out[key] = fmt.Sprint(val)
		}
	}
}
