package lexicon

import (
	"encoding/gob"
	"fmt"
	"os"
)

// LoadGob decodes a Spec snapshot and validates it like any other
// lexicon source.
func LoadGob(path string) (*Lexicon, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open gob file: %w", err)
	}
	defer f.Close()

	var s Spec
	if err := gob.NewDecoder(f).Decode(&s); err != nil {
		return nil, fmt.Errorf("decode gob: %w", err)
	}
	return New(s)
}

// SaveGob writes the lexicon's tables to path.
func SaveGob(lex *Lexicon, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create gob file: %w", err)
	}
	defer f.Close()

	if err := gob.NewEncoder(f).Encode(lex.Spec()); err != nil {
		return fmt.Errorf("encode gob: %w", err)
	}
	return nil
}
