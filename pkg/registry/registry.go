// Package registry holds the compiled cardinal normalizer of every
// lexicon found under a directory, and serves evaluations against them.
package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"

	"github.com/hazyhaar/cardinal-itn/pkg/cardinal"
	"github.com/hazyhaar/cardinal-itn/pkg/lexicon"
	"github.com/hazyhaar/cardinal-itn/pkg/metrics"
)

// ErrUnknownLanguage is returned for a language with no loaded lexicon.
var ErrUnknownLanguage = errors.New("unknown language")

// DefaultCacheSize is the per-language result cache size.
const DefaultCacheSize = 4096

// Language is one compiled lexicon.
type Language struct {
	Manifest   *lexicon.Manifest
	Normalizer *cardinal.Normalizer
	Dir        string
	cache      *lru.Cache[string, *cardinal.Result]
}

// Registry holds all compiled languages. Load builds a complete new set
// before swapping it in, so evaluations never see a half-loaded state.
type Registry struct {
	mu        sync.RWMutex
	langs     map[string]*Language
	dir       string
	compile   []cardinal.Option
	cacheSize int
	metrics   *metrics.Metrics
}

// Option configures a Registry.
type Option func(*Registry)

// WithCompileOptions passes options to every cardinal.NewNormalizer call.
func WithCompileOptions(opts ...cardinal.Option) Option {
	return func(r *Registry) { r.compile = append(r.compile, opts...) }
}

// WithCacheSize sets the per-language result cache size; 0 disables it.
func WithCacheSize(n int) Option {
	return func(r *Registry) { r.cacheSize = n }
}

// WithMetrics records compilations, evaluations and cache lookups.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Registry) { r.metrics = m }
}

// New creates an empty registry for the given lexicons directory.
func New(dir string, opts ...Option) *Registry {
	r := &Registry{
		langs:     make(map[string]*Language),
		dir:       dir,
		cacheSize: DefaultCacheSize,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Load scans the lexicons directory and compiles every lexicon that has
// a manifest.yaml, one goroutine per lexicon. Any failure aborts the
// load and leaves the previous set in place.
func (r *Registry) Load(ctx context.Context) error {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return fmt.Errorf("read lexicons dir %s: %w", r.dir, err)
	}

	var dirs []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dir := filepath.Join(r.dir, entry.Name())
		if _, err := os.Stat(filepath.Join(dir, "manifest.yaml")); err != nil {
			continue
		}
		dirs = append(dirs, dir)
	}

	loaded := make([]*Language, len(dirs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, dir := range dirs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			l, err := r.compileDir(dir)
			if err != nil {
				return err
			}
			loaded[i] = l
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	langs := make(map[string]*Language, len(loaded))
	for _, l := range loaded {
		lang := l.Manifest.Lang
		if prev, ok := langs[lang]; ok {
			return fmt.Errorf("language %s defined twice: %s and %s", lang, prev.Dir, l.Dir)
		}
		langs[lang] = l
	}

	r.mu.Lock()
	r.langs = langs
	r.mu.Unlock()
	slog.Info("lexicons loaded", "dir", r.dir, "languages", len(langs))
	return nil
}

// Reload recompiles every lexicon from disk (hot reload).
func (r *Registry) Reload(ctx context.Context) error {
	return r.Load(ctx)
}

func (r *Registry) compileDir(dir string) (*Language, error) {
	lex, manifest, err := lexicon.LoadDir(dir)
	if err != nil {
		r.metrics.CompileFailed(filepath.Base(dir))
		return nil, fmt.Errorf("load lexicon %s: %w", filepath.Base(dir), err)
	}
	n, err := cardinal.NewNormalizer(lex, r.compile...)
	if err != nil {
		r.metrics.CompileFailed(manifest.Lang)
		return nil, err
	}
	r.metrics.Compiled(manifest.Lang, n.FST().NumStates(), n.CompileTime())

	l := &Language{Manifest: manifest, Normalizer: n, Dir: dir}
	if r.cacheSize > 0 {
		l.cache, err = lru.New[string, *cardinal.Result](r.cacheSize)
		if err != nil {
			return nil, fmt.Errorf("result cache: %w", err)
		}
	}
	return l, nil
}

// Normalize evaluates text with the normalizer of lang. Cached results
// are shared between callers and must not be modified.
func (r *Registry) Normalize(lang, text string) (*cardinal.Result, error) {
	r.mu.RLock()
	l, ok := r.langs[lang]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownLanguage, lang)
	}

	if l.cache != nil {
		if res, ok := l.cache.Get(text); ok {
			r.metrics.CacheLookup(lang, true)
			return res, nil
		}
		r.metrics.CacheLookup(lang, false)
	}

	start := time.Now()
	res := l.Normalizer.Normalize(text)
	r.metrics.Evaluated(lang, res.Status.String(), time.Since(start))
	if l.cache != nil {
		l.cache.Add(text, res)
	}
	return res, nil
}

// Normalizer returns the compiled normalizer of lang.
func (r *Registry) Normalizer(lang string) (*cardinal.Normalizer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.langs[lang]
	if !ok {
		return nil, false
	}
	return l.Normalizer, true
}

// LanguageInfo is the public metadata of a loaded language.
type LanguageInfo struct {
	Lang        string   `json:"lang"`
	Name        string   `json:"name"`
	Version     string   `json:"version"`
	Source      string   `json:"source,omitempty"`
	License     string   `json:"license,omitempty"`
	Forms       int      `json:"forms"`
	Tiers       []string `json:"tiers"`
	States      int      `json:"states"`
	Arcs        int      `json:"arcs"`
	CompileTime string   `json:"compile_time"`
}

// Languages returns metadata for all loaded languages, sorted by code.
func (r *Registry) Languages() []LanguageInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]LanguageInfo, 0, len(r.langs))
	for _, l := range r.langs {
		lex := l.Normalizer.Lexicon()
		var tiers []string
		for _, t := range lexicon.Tiers() {
			if lex.HasTier(t) {
				tiers = append(tiers, t.String())
			}
		}
		infos = append(infos, LanguageInfo{
			Lang:        l.Manifest.Lang,
			Name:        l.Manifest.Name,
			Version:     l.Manifest.Version,
			Source:      l.Manifest.Source,
			License:     l.Manifest.License,
			Forms:       lex.Size(),
			Tiers:       tiers,
			States:      l.Normalizer.FST().NumStates(),
			Arcs:        l.Normalizer.FST().NumArcs(),
			CompileTime: l.Normalizer.CompileTime().Round(time.Millisecond).String(),
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Lang < infos[j].Lang })
	return infos
}

// Count returns the number of loaded languages.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.langs)
}
