package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Start     string `json:"start" validate:"notblank"`
	PatientID int64  `json:"patientId" validate:"required,gt=0"`
}

func TestValidate_UsesJSONNames(t *testing.T) {
	v := NewValidator()

	err := v.Validate(&sample{Start: "   ", PatientID: 0})
	require.Error(t, err)

	errs := v.FormatValidationErrors(err)
	assert.Equal(t, "start must not be blank", errs["start"])
	assert.Equal(t, "patientId is required", errs["patientId"])
}

func TestValidate_GreaterThan(t *testing.T) {
	v := NewValidator()

	err := v.Validate(&sample{Start: "x", PatientID: -3})
	require.Error(t, err)

	assert.Equal(t, map[string]string{"patientId": "patientId must be greater than 0"}, v.FormatValidationErrors(err))
}

func TestValidate_OK(t *testing.T) {
	assert.NoError(t, NewValidator().Validate(&sample{Start: "2024-01-15T10:00:00", PatientID: 1}))
}

func TestFormatValidationErrors_NonValidationError(t *testing.T) {
	assert.Empty(t, NewValidator().FormatValidationErrors(assert.AnError))
}
