package response

import (
	"testing"

	"github.com/go-playground/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusOKWithData(t *testing.T) {
	data := map[string]string{"key": "value"}
	resp := StatusOKWithData(data)

	assert.Equal(t, StatusOK, resp.Status)
	assert.Empty(t, resp.Error)
	assert.Equal(t, data, resp.Data)
}

func TestError(t *testing.T) {
	resp := Error("something went wrong")

	assert.Equal(t, StatusError, resp.Status)
	assert.Equal(t, "something went wrong", resp.Error)
	assert.Nil(t, resp.Data)
}

func TestValidationError(t *testing.T) {
	type request struct {
		Email string `validate:"required,email"`
		Title string `validate:"max=5"`
		Mode  string `validate:"oneof=performance grouped manual"`
		Name  string `validate:"required"`
	}

	err := validator.New().Struct(request{Email: "nope", Title: "too long title", Mode: "random"})
	require.Error(t, err)

	resp := ValidationError(err.(validator.ValidationErrors))

	assert.Equal(t, StatusError, resp.Status)
	assert.Contains(t, resp.Error, "field Email must be a valid email")
	assert.Contains(t, resp.Error, "field Title must be at most 5")
	assert.Contains(t, resp.Error, "field Mode must be one of [performance grouped manual]")
	assert.Contains(t, resp.Error, "field Name is a required field")
}
