package dto

import (
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bindingValidator() *validator.Validate {
	v := validator.New()
	v.SetTagName("binding")
	return v
}

func TestHandleValidationErrorPerField(t *testing.T) {
	err := bindingValidator().Struct(RegisterRequest{Username: "al", Email: "not-an-email"})
	require.Error(t, err)

	detail := HandleValidationError(err)
	assert.Equal(t, ErrorCodeValidationFailed, detail.Code)

	violations, ok := detail.Details.([]FieldViolation)
	require.True(t, ok)
	require.Len(t, violations, 3)
	assert.Equal(t, FieldViolation{Field: "username", Message: "username must be at least 3"}, violations[0])
	assert.Equal(t, FieldViolation{Field: "email", Message: "email must be a valid email address"}, violations[1])
	assert.Equal(t, FieldViolation{Field: "password", Message: "password is required"}, violations[2])
}

func TestHandleValidationErrorSingleField(t *testing.T) {
	err := bindingValidator().Struct(CreateCommentRequest{})
	detail := HandleValidationError(err)
	assert.Equal(t, "content", detail.Field)
	assert.Equal(t, "content is required", detail.Message)
}

func TestHandleValidationErrorMalformedBody(t *testing.T) {
	detail := HandleValidationError(errors.New("unexpected EOF"))
	assert.Equal(t, "Invalid request format", detail.Message)
	assert.Equal(t, "unexpected EOF", detail.Details)
}

func TestSuccessResponseWarning(t *testing.T) {
	resp := NewSuccessResponse(map[string]int{"id": 1}, "created").WithWarning("email not sent")
	assert.True(t, resp.Success)
	assert.Equal(t, "email not sent", resp.Warning)
	assert.Nil(t, resp.Error)
}
