package registry

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/hazyhaar/cardinal-itn/pkg/cardinal"
	"github.com/hazyhaar/cardinal-itn/pkg/metrics"
)

const digitTSV = "zero\t0\none\t1\ntwo\t2\nthree\t3\nfour\t4\nfive\t5\nsix\t6\nseven\t7\neight\t8\nnine\t9\n"

const tensTSV = "ten\t10\neleven\t11\ntwelve\t12\nthirteen\t13\nfourteen\t14\nfifteen\t15\n" +
	"sixteen\t16\nseventeen\t17\neighteen\t18\nnineteen\t19\ntwenty\t20\nthirty\t30\n" +
	"forty\t40\nfifty\t50\nsixty\t60\nseventy\t70\neighty\t80\nninety\t90\n"

// writeLexicon writes a small English-style lexicon under dir/name.
func writeLexicon(t *testing.T, dir, name, lang, multipliers string) {
	t.Helper()
	d := filepath.Join(dir, name)
	os.MkdirAll(d, 0o755)
	manifest := "lang: " + lang + "\nname: " + name + "\nversion: \"1.0\"\n" +
		"multipliers:\n" + multipliers + "conjunctions: [and]\nminus: [minus]\n"
	os.WriteFile(filepath.Join(d, "manifest.yaml"), []byte(manifest), 0o644)
	os.WriteFile(filepath.Join(d, "digit.tsv"), []byte(digitTSV), 0o644)
	os.WriteFile(filepath.Join(d, "tens.tsv"), []byte(tensTSV), 0o644)
}

func setupRegistry(t *testing.T, opts ...Option) (*Registry, string) {
	t.Helper()
	dir := t.TempDir()
	writeLexicon(t, dir, "en", "en", "  hundred: [hundred]\n  thousand: [thousand]\n  million: [million]\n")
	writeLexicon(t, dir, "en-in", "en-IN", "  hundred: [hundred]\n  thousand: [thousand]\n  lakh: [lakh]\n  crore: [crore]\n")
	// Ignored: no manifest, and a stray file.
	os.MkdirAll(filepath.Join(dir, "notes"), 0o755)
	os.WriteFile(filepath.Join(dir, "README"), []byte("x"), 0o644)

	reg := New(dir, opts...)
	if err := reg.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	return reg, dir
}

func TestRegistryLoad(t *testing.T) {
	reg, _ := setupRegistry(t)
	if reg.Count() != 2 {
		t.Errorf("Count = %d, want 2", reg.Count())
	}

	infos := reg.Languages()
	if len(infos) != 2 || infos[0].Lang != "en" || infos[1].Lang != "en-IN" {
		t.Fatalf("Languages = %+v", infos)
	}
	if strings.Join(infos[1].Tiers, ",") != "hundred,thousand,lakh,crore" {
		t.Errorf("en-IN tiers = %v", infos[1].Tiers)
	}
	if infos[0].States == 0 || infos[0].Forms != 31 {
		t.Errorf("en info = %+v", infos[0])
	}
}

func TestRegistryNormalize(t *testing.T) {
	reg, _ := setupRegistry(t)

	tests := []struct{ lang, text, want string }{
		{"en", "two hundred and fifty", "250"},
		{"en", "minus one million", "-1000000"},
		{"en-IN", "five lakh", "500000"},
		{"en-IN", "one crore twenty lakh", "12000000"},
	}
	for _, tt := range tests {
		res, err := reg.Normalize(tt.lang, tt.text)
		if err != nil {
			t.Fatalf("Normalize(%s, %q): %v", tt.lang, tt.text, err)
		}
		if res.Status != cardinal.Match || res.Value.String() != tt.want {
			t.Errorf("Normalize(%s, %q) = %s %v, want %s", tt.lang, tt.text, res.Status, res.Value, tt.want)
		}
	}

	res, err := reg.Normalize("en", "five lakh")
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if res.Status != cardinal.NoMatch || res.Unknown != "lakh" {
		t.Errorf("en five lakh = %s, unknown %q", res.Status, res.Unknown)
	}
}

func TestRegistryUnknownLanguage(t *testing.T) {
	reg, _ := setupRegistry(t)
	if _, err := reg.Normalize("fr", "vingt"); !errors.Is(err, ErrUnknownLanguage) {
		t.Errorf("err = %v, want ErrUnknownLanguage", err)
	}
	if _, ok := reg.Normalizer("fr"); ok {
		t.Error("Normalizer(fr) found")
	}
}

func TestRegistryCache(t *testing.T) {
	m := metrics.New()
	reg, _ := setupRegistry(t, WithCacheSize(8), WithMetrics(m))

	first, _ := reg.Normalize("en", "twenty one")
	second, _ := reg.Normalize("en", "twenty one")
	if first != second {
		t.Error("second lookup did not come from the cache")
	}

	reg, _ = setupRegistry(t, WithCacheSize(0))
	first, _ = reg.Normalize("en", "twenty one")
	second, _ = reg.Normalize("en", "twenty one")
	if first == second {
		t.Error("cache disabled but results are shared")
	}
}

func TestRegistryReload(t *testing.T) {
	reg, dir := setupRegistry(t)
	writeLexicon(t, dir, "en-gb", "en-GB", "  hundred: [hundred]\n")
	if err := reg.Reload(context.Background()); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if reg.Count() != 3 {
		t.Errorf("Count after reload = %d, want 3", reg.Count())
	}
}

func TestRegistryLoadErrorKeepsPrevious(t *testing.T) {
	reg, dir := setupRegistry(t)
	bad := filepath.Join(dir, "broken")
	os.MkdirAll(bad, 0o755)
	os.WriteFile(filepath.Join(bad, "manifest.yaml"), []byte("lang: xx\n"), 0o644)
	os.WriteFile(filepath.Join(bad, "digit.tsv"), []byte("one\t1\n"), 0o644)
	os.WriteFile(filepath.Join(bad, "tens.tsv"), []byte("ten\t10\n"), 0o644)

	err := reg.Reload(context.Background())
	if err == nil {
		t.Fatal("Reload succeeded with a broken lexicon")
	}
	if !strings.Contains(err.Error(), "broken") {
		t.Errorf("error %q does not name the lexicon", err)
	}
	if reg.Count() != 2 {
		t.Errorf("Count = %d, previous set should survive", reg.Count())
	}
}

func TestRegistryDuplicateLanguage(t *testing.T) {
	dir := t.TempDir()
	writeLexicon(t, dir, "a", "en", "  hundred: [hundred]\n")
	writeLexicon(t, dir, "b", "en", "  hundred: [hundred]\n")
	if err := New(dir).Load(context.Background()); err == nil || !strings.Contains(err.Error(), "defined twice") {
		t.Errorf("err = %v, want duplicate language", err)
	}
}

func TestRegistryMissingDir(t *testing.T) {
	if err := New(filepath.Join(t.TempDir(), "nope")).Load(context.Background()); err == nil {
		t.Error("Load of a missing dir succeeded")
	}
}

func TestRegistryConcurrentNormalize(t *testing.T) {
	reg, dir := setupRegistry(t)
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				res, err := reg.Normalize("en", "three thousand")
				if err != nil || res.Value == nil || res.Value.Digits != "3000" {
					t.Errorf("Normalize = %v, %v", res, err)
					return
				}
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		writeLexicon(t, dir, "en-au", "en-AU", "  hundred: [hundred]\n")
		if err := reg.Reload(context.Background()); err != nil {
			t.Errorf("Reload: %v", err)
		}
	}()
	wg.Wait()
}
