package validation

import (
	"github.com/xeipuuv/gojsonschema"

	apperrors "detox-form-api/internal/common/errors"
)

// submissionSchema enforces the shape of the raw payload before the field
// rules run. Types are deliberately loose where browsers disagree: numeric
// fields may arrive as strings, multi-selects as a single string.
const submissionSchema = `{
	"type": "object",
	"properties": {
		"fullName":          {"type": "string"},
		"age":               {"type": ["integer", "string"]},
		"height":            {"type": ["integer", "string"]},
		"weight":            {"type": ["integer", "string"]},
		"occupation":        {"type": "string"},
		"email":             {"type": "string"},
		"phone":             {"type": "string"},
		"healthConditions":  {"type": ["array", "string"]},
		"vitaminDeficiency": {"type": ["array", "string"]},
		"bloodTest":         {"type": ["string", "number"]},
		"bloodTestFileUrl":  {"type": "string"},
		"chronicDiseases":   {"type": ["array", "string"]},
		"regularMedication": {"type": ["string", "number"]},
		"pastSurgery":       {"type": ["string", "number"]},
		"allergies":         {"type": ["array", "string"]},
		"digestiveIssues":   {"type": ["array", "string"]},
		"bodyType":          {"type": ["string", "number"]},
		"dietChallenges":    {"type": ["array", "string"]},
		"dietReadiness":     {"type": ["string", "number"]},
		"personalNote":      {"type": "string"},
		"mealsPerDay":       {"type": ["string", "number"]},
		"snacking":          {"type": ["string", "number"]},
		"waterIntake":       {"type": ["string", "number"]},
		"aydinlatmaMetni":   {"type": "string"},
		"acikRizaMetni":     {"type": "string"}
	}
}`

var schemaLoader = gojsonschema.NewStringLoader(submissionSchema)

// CheckPayloadShape validates the raw request body against the submission
// schema. Shape violations come back as field errors, a body that is not
// JSON at all comes back as err.
func CheckPayloadShape(body []byte) ([]apperrors.FieldError, error) {
	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(body))
	if err != nil {
		return nil, apperrors.NewInvalidArgumentError("Geçersiz istek gövdesi", err.Error())
	}

	if result.Valid() {
		return nil, nil
	}

	errs := make([]apperrors.FieldError, 0, len(result.Errors()))
	for _, re := range result.Errors() {
		errs = append(errs, apperrors.FieldError{
			Field:   re.Field(),
			Code:    "INVALID_TYPE",
			Message: re.Description(),
		})
	}
	return errs, nil
}
