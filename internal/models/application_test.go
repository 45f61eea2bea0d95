package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlexIntCoercion(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int
	}{
		{"number", `{"age": 42}`, 42},
		{"numeric string", `{"age": "42"}`, 42},
		{"padded string", `{"age": " 42 "}`, 42},
		{"empty string", `{"age": ""}`, 0},
		{"null", `{"age": null}`, 0},
		{"non-numeric string", `{"age": "abc"}`, 0},
		{"fractional string", `{"age": "4.5"}`, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var form SubmissionForm
			require.NoError(t, json.Unmarshal([]byte(tt.input), &form))
			assert.Equal(t, tt.want, form.Age.Int())
		})
	}
}

func TestStringListCoercion(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"array", `{"allergies": ["Polen", "Gluten"]}`, []string{"Polen", "Gluten"}},
		{"single string", `{"allergies": "Polen"}`, []string{"Polen"}},
		{"empty string", `{"allergies": ""}`, nil},
		{"null", `{"allergies": null}`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var form SubmissionForm
			require.NoError(t, json.Unmarshal([]byte(tt.input), &form))
			assert.Equal(t, StringList(tt.want), form.Allergies)
		})
	}
}
