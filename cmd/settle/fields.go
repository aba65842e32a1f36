package main

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v2"

	apperrors "settlecli/internal/errors"
)

// sheetFields are the export fields of one sheet
type sheetFields struct {
	Placement    string `yaml:"placement"`
	Denomination string `yaml:"denomination"`
}

// fieldsTable maps sheet names to their export fields, with a fallback
// taken from the command line flags.
type fieldsTable struct {
	sheets   map[string]sheetFields
	fallback sheetFields
}

// loadFieldsFile reads a YAML document of the form
//
//	LECAP:
//	  placement: "4663"
//	  denomination: LECAP S31L5
func loadFieldsFile(path string) (map[string]sheetFields, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fields file: %w", err)
	}

	sheets := make(map[string]sheetFields)
	if err := yaml.UnmarshalStrict(data, &sheets); err != nil {
		return nil, apperrors.NewAppValidationError("parse fields file "+path, err)
	}
	return sheets, nil
}

// lookup returns the fields for a sheet. Sheet names match exactly first,
// then ignoring case and surrounding spaces. Values missing from the sheet
// entry come from the fallback, and a denomination still missing after that
// defaults to the sheet name.
func (t fieldsTable) lookup(sheet string) sheetFields {
	f, ok := t.sheets[sheet]
	if !ok {
		want := strings.ToLower(strings.TrimSpace(sheet))
		for name, candidate := range t.sheets {
			if strings.ToLower(strings.TrimSpace(name)) == want {
				f = candidate
				break
			}
		}
	}
	if strings.TrimSpace(f.Placement) == "" {
		f.Placement = t.fallback.Placement
	}
	if strings.TrimSpace(f.Denomination) == "" {
		f.Denomination = t.fallback.Denomination
	}
	if strings.TrimSpace(f.Denomination) == "" {
		f.Denomination = sheet
	}
	return f
}
