package diag

import (
	"encoding/gob"
	"fmt"
	"os"
)

func init() {
	gob.Register(Result{})
}

// SaveCache gob-encodes report to path.
func SaveCache(report *Report, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("diag: create cache: %w", err)
	}
	defer f.Close()
	if err := gob.NewEncoder(f).Encode(report); err != nil {
		return fmt.Errorf("diag: encode cache: %w", err)
	}
	return nil
}

// LoadCache reads a Report previously written by SaveCache. It returns
// (nil, nil) if path does not exist, so callers can treat "no prior cache"
// as a normal first run rather than an error.
func LoadCache(path string) (*Report, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("diag: open cache: %w", err)
	}
	defer f.Close()
	var report Report
	if err := gob.NewDecoder(f).Decode(&report); err != nil {
		return nil, fmt.Errorf("diag: decode cache: %w", err)
	}
	return &report, nil
}
