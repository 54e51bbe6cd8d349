// Package schemas provides JSON Schema validation for the documents read
// back from the store, so a malformed or hand-edited document is rejected at
// load time instead of surfacing as silent zero values.
package schemas

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed definitions/job_profiles.schema.json
var jobProfilesSchemaRaw string

//go:embed definitions/company_profile.schema.json
var companyProfileSchemaRaw string

// FieldError is a single validation error at a specific field path.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError aggregates all schema violations found in one document.
type ValidationError struct {
	Schema string
	Errors []FieldError
}

func (ve *ValidationError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s validation failed:", ve.Schema)
	for _, fe := range ve.Errors {
		fmt.Fprintf(&sb, "\n  - %s: %s", fe.Field, fe.Message)
	}
	return sb.String()
}

var (
	jobProfilesSchema    = gojsonschema.NewStringLoader(jobProfilesSchemaRaw)
	companyProfileSchema = gojsonschema.NewStringLoader(companyProfileSchemaRaw)
)

// ValidateJobProfiles validates a raw job-profile-collection document.
func ValidateJobProfiles(body []byte) error {
	return validate("job_profiles", jobProfilesSchema, body)
}

// ValidateCompanyProfile validates a raw company-profile document.
func ValidateCompanyProfile(body []byte) error {
	return validate("company_profile", companyProfileSchema, body)
}

func validate(name string, schema gojsonschema.JSONLoader, body []byte) error {
	result, err := gojsonschema.Validate(schema, gojsonschema.NewBytesLoader(body))
	if err != nil {
		return fmt.Errorf("failed to validate %s document: %w", name, err)
	}
	if result.Valid() {
		return nil
	}

	ve := &ValidationError{Schema: name}
	for _, e := range result.Errors() {
		ve.Errors = append(ve.Errors, FieldError{
			Field:   e.Field(),
			Message: e.Description(),
		})
	}
	return ve
}
