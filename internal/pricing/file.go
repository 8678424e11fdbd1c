package pricing

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadFile reads a YAML pricing file mapping model identifiers to entries:
//
//	gpt-4o:
//	  input: 2.50
//	  cachedInput: 1.25
//	  output: 10.00
//	whisper-1:
//	  inputPerMinute: 0.006
func LoadFile(path string) (map[string]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read pricing file: %w", err)
	}

	var entries map[string]Entry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse pricing file %s: %w", path, err)
	}

	return entries, nil
}

// ReloadFile replaces the table contents from a pricing file. The swap is
// all-or-nothing: a parse failure leaves the current table untouched.
func (t *Table) ReloadFile(path string) error {
	entries, err := LoadFile(path)
	if err != nil {
		return err
	}
	t.Replace(entries)
	return nil
}
