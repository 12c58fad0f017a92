package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsEntityID(t *testing.T) {
	tests := []struct {
		id   string
		want bool
	}{
		{id: "65a1b2c3d4e5f60718293a4b", want: true},
		{id: "65A1B2C3D4E5F60718293A4B", want: true},
		{id: "0f8fad5b-d9cb-469f-a165-70867728950e", want: true},
		{id: "0f8fad5bd9cb469fa16570867728950e"},
		{id: "65a1b2c3d4e5f60718293a4"},
		{id: "zza1b2c3d4e5f60718293a4b"},
		{id: ""},
	}
	for _, tc := range tests {
		t.Run(tc.id, func(t *testing.T) {
			assert.Equal(t, tc.want, IsEntityID(tc.id))
		})
	}
}

func TestTranslateValidationErrors(t *testing.T) {
	validate, translator := NewValidator()

	type payload struct {
		BranchID string `json:"branchId" validate:"required,entityid"`
		Name     string `json:"name" validate:"notblank"`
		Email    string `json:"email" validate:"omitempty,email"`
		Internal string `json:"-" validate:"required"`
	}

	err := TranslateValidationErrors(validate.Struct(payload{BranchID: "nope", Name: "  ", Internal: "x"}), translator)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, map[string]string{
		"branchId": "branchId is not a valid identifier",
		"name":     "this field cannot be blank",
	}, verr.FieldMap())

	err = TranslateValidationErrors(validate.Struct(payload{Name: "A", Internal: "x"}), translator)
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, map[string]string{"branchId": "this field is required"}, verr.FieldMap())

	assert.NoError(t, TranslateValidationErrors(validate.Struct(payload{BranchID: "65a1b2c3d4e5f60718293a4b", Name: "A", Internal: "x"}), translator))
}

func TestValidationError_Error(t *testing.T) {
	assert.Equal(t, "", ValidationError{}.Error())
	assert.Equal(t, "fee: required", ValidationError{Fields: []FieldError{{Field: "fee", Error: "required"}}}.Error())
}
