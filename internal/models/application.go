// internal/models/application.go
package models

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Timestamps are stored in the same human-readable layout the index and
// record files use.
const (
	TimestampLayout = "2006-01-02 15:04:05"
	DateLayout      = "2006-01-02"
)

// Application status lifecycle.
const (
	StatusPending   = "pending"
	StatusApproved  = "approved"
	StatusRejected  = "rejected"
	StatusContacted = "contacted"
)

// ValidStatuses lists every allowed status value, in display order.
var ValidStatuses = []string{StatusPending, StatusApproved, StatusRejected, StatusContacted}

// IsValidStatus reports whether s is one of the allowed status values.
func IsValidStatus(s string) bool {
	for _, v := range ValidStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// FlexInt unmarshals from a JSON number or a numeric string. The public form
// posts numbers as strings depending on the browser, both must parse.
type FlexInt int

func (f *FlexInt) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		// non-numeric input coerces to zero so the field rules report it as
		// a per-field error instead of aborting the whole decode
		*f = 0
		return nil
	}
	*f = FlexInt(n)
	return nil
}

func (f FlexInt) Int() int { return int(f) }

// FlexString unmarshals from a JSON string or number.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	if string(data) == "null" {
		*f = ""
		return nil
	}
	*f = FlexString(data)
	return nil
}

func (f FlexString) String() string { return string(f) }

// StringList unmarshals from a JSON array of strings or a single string.
// Multi-select form fields arrive either way.
type StringList []string

func (l *StringList) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '[' {
		var items []string
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		*l = items
		return nil
	}
	if string(data) == "null" {
		*l = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*l = nil
		return nil
	}
	*l = []string{s}
	return nil
}

// Join renders the list the way the sheet mirror expects it.
func (l StringList) Join() string {
	return strings.Join(l, ", ")
}

// SubmissionForm is the questionnaire payload posted by the public form.
type SubmissionForm struct {
	FullName   string  `json:"fullName"`
	Age        FlexInt `json:"age"`
	Height     FlexInt `json:"height"`
	Weight     FlexInt `json:"weight"`
	Occupation string  `json:"occupation"`
	Email      string  `json:"email"`
	Phone      string  `json:"phone"`

	HealthConditions  StringList `json:"healthConditions,omitempty"`
	VitaminDeficiency StringList `json:"vitaminDeficiency,omitempty"`
	BloodTest         FlexString `json:"bloodTest,omitempty"`
	BloodTestFileURL  string     `json:"bloodTestFileUrl,omitempty"`
	ChronicDiseases   StringList `json:"chronicDiseases,omitempty"`
	RegularMedication FlexString `json:"regularMedication,omitempty"`
	PastSurgery       FlexString `json:"pastSurgery,omitempty"`
	Allergies         StringList `json:"allergies,omitempty"`
	DigestiveIssues   StringList `json:"digestiveIssues,omitempty"`
	BodyType          FlexString `json:"bodyType,omitempty"`
	DietChallenges    StringList `json:"dietChallenges,omitempty"`
	DietReadiness     FlexString `json:"dietReadiness,omitempty"`
	PersonalNote      string     `json:"personalNote,omitempty"`
	MealsPerDay       FlexString `json:"mealsPerDay,omitempty"`
	Snacking          FlexString `json:"snacking,omitempty"`
	WaterIntake       FlexString `json:"waterIntake,omitempty"`
	ConsentNotice     string     `json:"aydinlatmaMetni,omitempty"`
	ConsentExplicit   string     `json:"acikRizaMetni,omitempty"`
}

// Metadata captures request context recorded alongside each submission.
type Metadata struct {
	UserAgent      string `json:"userAgent"`
	IP             string `json:"ip"`
	Referrer       string `json:"referrer,omitempty"`
	SubmissionTime string `json:"submissionTime"`
}

// Application is the full stored record, one JSON file per submission.
type Application struct {
	ID         string `json:"id"`
	CreatedAt  string `json:"createdAt"`
	UpdatedAt  string `json:"updatedAt"`
	Status     string `json:"status"`
	AdminNotes string `json:"adminNotes,omitempty"`

	SubmissionForm

	Metadata Metadata `json:"metadata"`
}

// IndexEntry is the compact listing row kept in applications_index.json.
type IndexEntry struct {
	ID        string `json:"id"`
	FullName  string `json:"fullName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
	Status    string `json:"status"`
}
