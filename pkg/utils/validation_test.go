package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/BOHARRY/courtDataAPI-sub002/pkg/errors"
)

type edgeInput struct {
	Source string `validate:"required"`
	Target string `validate:"required"`
	Zoom   int    `validate:"min=1"`
}

func TestValidateStruct_ReportsEachField(t *testing.T) {
	err := ValidateStruct(edgeInput{Zoom: 0})

	appErr := apperrors.GetAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.ErrorTypeValidation, appErr.Type)
	assert.Equal(t, map[string]interface{}{
		"source": "source is required",
		"target": "target is required",
		"zoom":   "zoom must be at least 1",
	}, appErr.Details["fields"])
	assert.Contains(t, appErr.Message, "source is required")
}

func TestValidateStruct_Valid(t *testing.T) {
	assert.NoError(t, ValidateStruct(edgeInput{Source: "a", Target: "b", Zoom: 1}))
}

func TestValidateVar(t *testing.T) {
	err := ValidateVar("limit", 0, "min=1")

	assert.True(t, apperrors.IsValidation(err))
	assert.Equal(t, "VALIDATION: limit must be at least 1", err.Error())
}
