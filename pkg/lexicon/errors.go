package lexicon

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrTierCollision: one multiplier form is listed under two tiers.
	ErrTierCollision = errors.New("multiplier form shared by two tiers")
	// ErrFormCollision: one form carries two meanings.
	ErrFormCollision = errors.New("form has two meanings")
)

// ConfigError reports a lexicon that violates a table invariant. It is
// fatal: a language with an invalid lexicon is never compiled.
type ConfigError struct {
	Lang   string
	Table  string
	Form   string
	Reason string
	Err    error
}

func (e *ConfigError) Error() string {
	if e.Form == "" {
		return fmt.Sprintf("lexicon %s: %s table: %s", e.Lang, e.Table, e.Reason)
	}
	return fmt.Sprintf("lexicon %s: %s table, form %q: %s", e.Lang, e.Table, e.Form, e.Reason)
}

func (e *ConfigError) Unwrap() error { return e.Err }

type formInfo struct {
	table string
	value string
}

// validator tracks every folded form seen so far so cross-table
// collisions are caught whatever the table order.
type validator struct {
	lang       string
	values     map[string]formInfo
	tiers      map[string]Tier
	keywords   map[string]string
	duplicates int
}

func (v *validator) errorf(table, form, format string, args ...any) error {
	return &ConfigError{Lang: v.lang, Table: table, Form: form, Reason: fmt.Sprintf(format, args...)}
}

func (v *validator) collision(sentinel error, table, form, format string, args ...any) error {
	return &ConfigError{Lang: v.lang, Table: table, Form: form, Reason: fmt.Sprintf(format, args...), Err: sentinel}
}

func (v *validator) fold(table, raw string) (string, error) {
	form := Fold(raw)
	if form == "" {
		return "", v.errorf(table, raw, "empty form")
	}
	return form, nil
}

// value registers a form that denotes a digit string.
func (v *validator) value(table, raw, value string) (string, error) {
	form, err := v.fold(table, raw)
	if err != nil {
		return "", err
	}
	if t, ok := v.tiers[form]; ok {
		bare := "1" + strings.Repeat("0", t.Exponent())
		if table != "standalone" || value != bare {
			return "", v.collision(ErrFormCollision, table, form, "collides with %s multiplier", t)
		}
	}
	if k, ok := v.keywords[form]; ok {
		return "", v.collision(ErrFormCollision, table, form, "collides with %s word", k)
	}
	if prev, ok := v.values[form]; ok {
		if prev.value != value {
			return "", v.collision(ErrFormCollision, table, form, "maps to %q but %s table maps it to %q", value, prev.table, prev.value)
		}
		v.duplicates++
		return form, nil
	}
	v.values[form] = formInfo{table: table, value: value}
	return form, nil
}

// multiplier registers a multiplier form of tier t.
func (v *validator) multiplier(t Tier, raw string) (string, error) {
	table := t.String() + " multiplier"
	form, err := v.fold(table, raw)
	if err != nil {
		return "", err
	}
	if prev, ok := v.values[form]; ok {
		return "", v.collision(ErrFormCollision, table, form, "collides with %s form %q", prev.table, prev.value)
	}
	if prev, ok := v.tiers[form]; ok {
		if prev != t {
			return "", v.collision(ErrTierCollision, table, form, "already a %s multiplier", prev)
		}
		v.duplicates++
		return form, nil
	}
	v.tiers[form] = t
	return form, nil
}

// keyword registers a conjunction or minus word.
func (v *validator) keyword(table, raw string) (string, error) {
	form, err := v.fold(table, raw)
	if err != nil {
		return "", err
	}
	if v.keywords == nil {
		v.keywords = make(map[string]string)
	}
	if prev, ok := v.values[form]; ok {
		return "", v.collision(ErrFormCollision, table, form, "collides with %s form %q", prev.table, prev.value)
	}
	if t, ok := v.tiers[form]; ok {
		return "", v.collision(ErrFormCollision, table, form, "collides with %s multiplier", t)
	}
	if prev, ok := v.keywords[form]; ok {
		if prev != table {
			return "", v.collision(ErrFormCollision, table, form, "already a %s word", prev)
		}
		v.duplicates++
		return form, nil
	}
	v.keywords[form] = table
	return form, nil
}
