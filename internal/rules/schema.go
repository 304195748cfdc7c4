// Package rules loads and validates the user-supplied path include/exclude
// ruleset that decides which file operations a filter.Callback keeps.
// The callback signature itself lives in internal/filter; this package only
// supplies one concrete, schema-validated implementation of it.
package rules

import (
	_ "embed"
	"fmt"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

//go:embed rules-schema.json
var schemaBytes []byte

// Document is the on-disk shape of a rules file: YAML or JSON, validated
// against the embedded JSON Schema before being compiled into a Set.
type Document struct {
	// Include lists path globs to keep. Empty means "keep everything not
	// excluded".
	Include []string `yaml:"include" json:"include"`

	// Exclude lists path globs to drop. Evaluated after Include.
	Exclude []string `yaml:"exclude" json:"exclude"`

	// DropEmails lists committer email substrings whose commits are dropped
	// outright. The author email is not checked.
	DropEmails []string `yaml:"drop_emails" json:"drop_emails"`

	// RenameRefs maps an exact ref_name to its replacement.
	RenameRefs map[string]string `yaml:"rename_refs" json:"rename_refs"`
}

// Parse decodes raw as YAML (a superset of JSON, so JSON documents parse
// too) and validates it against the embedded schema before returning it.
func Parse(raw []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("rules: decode document: %w", err)
	}

	// Re-marshal through JSON so gojsonschema (which only understands
	// JSON-shaped Go values) sees the same structure yaml.v3 decoded,
	// rather than parsing raw twice with two different decoders.
	asMap := map[string]any{
		"include":     toAnySlice(doc.Include),
		"exclude":     toAnySlice(doc.Exclude),
		"drop_emails": toAnySlice(doc.DropEmails),
		"rename_refs": toAnyMap(doc.RenameRefs),
	}

	// Carry over top-level keys Document has no field for, so the schema's
	// additionalProperties check still sees them.
	var generic map[string]any
	if err := yaml.Unmarshal(raw, &generic); err != nil {
		return nil, fmt.Errorf("rules: decode document: %w", err)
	}

	for k, v := range generic {
		if _, known := asMap[k]; !known {
			asMap[k] = v
		}
	}

	schemaLoader := gojsonschema.NewBytesLoader(schemaBytes)
	docLoader := gojsonschema.NewGoLoader(asMap)

	result, err := gojsonschema.Validate(schemaLoader, docLoader)
	if err != nil {
		return nil, fmt.Errorf("rules: schema validation: %w", err)
	}

	if !result.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidDocument, describeErrors(result.Errors()))
	}

	return &doc, nil
}

func toAnySlice(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}

	return out
}

func toAnyMap(m map[string]string) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}

	return out
}

func describeErrors(errs []gojsonschema.ResultError) string {
	msg := ""
	for i, e := range errs {
		if i > 0 {
			msg += "; "
		}

		msg += fmt.Sprintf("%s: %s", e.Field(), e.Description())
	}

	return msg
}
