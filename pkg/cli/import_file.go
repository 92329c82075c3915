package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"user-control/internal/domain"
)

// controlFile is the YAML document accepted by `usercontrol import`:
//
//	controls:
//	  - email: fallback
//	    plan: free
//	  - email: a@x.com
//	    plan: pro
//	    daily_quota: 500
type controlFile struct {
	Controls []map[string]interface{} `yaml:"controls"`
}

// readControlFile parses path, or stdin when path is "-".
func readControlFile(path string, stdin io.Reader) ([]domain.ControlRecord, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path) //nolint:gosec // operator-supplied path
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return parseControlFile(data)
}

func parseControlFile(data []byte) ([]domain.ControlRecord, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var f controlFile
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, domain.ErrValidation("control file is empty")
		}
		return nil, fmt.Errorf("parse control file: %w", err)
	}

	records := make([]domain.ControlRecord, 0, len(f.Controls))
	for i, row := range f.Controls {
		email, ok := row[domain.ColumnEmail].(string)
		if !ok || email == "" {
			return nil, domain.ErrValidation("controls[%d]: email must be a non-empty string", i)
		}
		for col, v := range row {
			if !isScalar(v) {
				return nil, domain.ErrValidation("controls[%d]: column %q must be a scalar value", i, col)
			}
		}
		records = append(records, domain.ControlRecord{Email: email, Columns: row})
	}
	return records, nil
}

func isScalar(v interface{}) bool {
	switch v.(type) {
	case nil, string, bool, int, int64, uint64, float64, time.Time:
		return true
	default:
		return false
	}
}
