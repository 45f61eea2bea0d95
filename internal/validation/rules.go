// Package validation applies the questionnaire's field rules. Rules never
// short-circuit, the submitter gets every problem in one response.
package validation

import (
	"fmt"
	"regexp"
	"strings"

	apperrors "detox-form-api/internal/common/errors"
	"detox-form-api/internal/models"
)

const (
	fullNameMinLen   = 2
	fullNameMaxLen   = 100
	ageMin           = 18
	ageMax           = 100
	heightMin        = 120
	heightMax        = 250
	weightMin        = 30
	weightMax        = 300
	occupationMaxLen = 200
)

var (
	emailRegex     = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	nonDigitsRegex = regexp.MustCompile(`\D`)
)

// ValidateSubmission checks every field rule and collects the failures.
// The phone number is normalized to bare digits in place, later stages see
// the sanitized value.
func ValidateSubmission(form *models.SubmissionForm) []apperrors.FieldError {
	var errs []apperrors.FieldError

	if form.FullName == "" {
		errs = append(errs, apperrors.FieldError{
			Field:   "fullName",
			Code:    "MISSING_REQUIRED",
			Message: "Ad-Soyad zorunludur",
		})
	} else if nameLen := len([]rune(form.FullName)); nameLen < fullNameMinLen || nameLen > fullNameMaxLen {
		errs = append(errs, apperrors.FieldError{
			Field:   "fullName",
			Code:    "INVALID_LENGTH",
			Message: fmt.Sprintf("Ad-Soyad %d-%d karakter arasında olmalıdır", fullNameMinLen, fullNameMaxLen),
		})
	}

	if age := form.Age.Int(); age < ageMin || age > ageMax {
		errs = append(errs, apperrors.FieldError{
			Field:   "age",
			Code:    "OUT_OF_RANGE",
			Message: fmt.Sprintf("Yaş %d-%d arasında olmalıdır", ageMin, ageMax),
		})
	}

	if height := form.Height.Int(); height < heightMin || height > heightMax {
		errs = append(errs, apperrors.FieldError{
			Field:   "height",
			Code:    "OUT_OF_RANGE",
			Message: fmt.Sprintf("Boy %d-%d cm arasında olmalıdır", heightMin, heightMax),
		})
	}

	if weight := form.Weight.Int(); weight < weightMin || weight > weightMax {
		errs = append(errs, apperrors.FieldError{
			Field:   "weight",
			Code:    "OUT_OF_RANGE",
			Message: fmt.Sprintf("Kilo %d-%d kg arasında olmalıdır", weightMin, weightMax),
		})
	}

	if form.Occupation == "" {
		errs = append(errs, apperrors.FieldError{
			Field:   "occupation",
			Code:    "MISSING_REQUIRED",
			Message: "Meslek/yaşam tarzı zorunludur",
		})
	} else if len([]rune(form.Occupation)) > occupationMaxLen {
		errs = append(errs, apperrors.FieldError{
			Field:   "occupation",
			Code:    "INVALID_LENGTH",
			Message: fmt.Sprintf("Meslek açıklaması en fazla %d karakter olabilir", occupationMaxLen),
		})
	}

	if form.Phone == "" {
		errs = append(errs, apperrors.FieldError{
			Field:   "phone",
			Code:    "MISSING_REQUIRED",
			Message: "Telefon numarası zorunludur",
		})
	} else {
		sanitized := SanitizePhone(form.Phone)
		if !isTurkishMobile(sanitized) {
			errs = append(errs, apperrors.FieldError{
				Field:   "phone",
				Code:    "INVALID_FORMAT",
				Message: "Geçerli bir Türk telefon numarası giriniz (05XXXXXXXXX formatında)",
			})
		} else {
			form.Phone = sanitized
		}
	}

	if form.Email == "" {
		errs = append(errs, apperrors.FieldError{
			Field:   "email",
			Code:    "MISSING_REQUIRED",
			Message: "E-posta adresi zorunludur",
		})
	} else if !emailRegex.MatchString(strings.TrimSpace(form.Email)) {
		errs = append(errs, apperrors.FieldError{
			Field:   "email",
			Code:    "INVALID_FORMAT",
			Message: "Geçerli bir email adresi giriniz",
		})
	}

	return errs
}

// SanitizePhone strips every non-digit character.
func SanitizePhone(phone string) string {
	return nonDigitsRegex.ReplaceAllString(phone, "")
}

// isTurkishMobile accepts the three digit-only spellings of a Turkish mobile
// number: 05XXXXXXXXX, 905XXXXXXXXXX (international) and 5XXXXXXXXX (bare).
func isTurkishMobile(digits string) bool {
	switch len(digits) {
	case 11:
		return strings.HasPrefix(digits, "05")
	case 13:
		return strings.HasPrefix(digits, "905")
	case 10:
		return strings.HasPrefix(digits, "5")
	default:
		return false
	}
}
