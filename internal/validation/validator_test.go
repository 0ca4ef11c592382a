package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name   string   `json:"name" validate:"required,max=5"`
	Color  *string  `json:"color" validate:"omitnil,rgbhex"`
	Rating *int     `json:"rating" validate:"omitnil,min=1,max=5"`
	Status *string  `json:"status" validate:"omitnil,oneof=a b"`
	Items  []string `json:"items" validate:"max=2,dive,max=3"`
}

func ptr[T any](v T) *T { return &v }

func fieldError(t *testing.T, err error) *Error {
	t.Helper()
	var ve *Error
	require.True(t, errors.As(err, &ve), "expected *validation.Error, got %T", err)
	return ve
}

func TestStruct_Valid(t *testing.T) {
	require.NoError(t, Struct(sample{Name: "ok", Color: ptr("#A1b2C3"), Rating: ptr(5)}))
}

func TestStruct_UsesJSONFieldNames(t *testing.T) {
	ve := fieldError(t, Struct(sample{}))
	assert.Equal(t, "name", ve.Field)
	assert.Equal(t, "name is required", ve.Message)
}

func TestStruct_StringMax(t *testing.T) {
	ve := fieldError(t, Struct(sample{Name: "toolong"}))
	assert.Equal(t, "name must be at most 5 characters", ve.Message)
}

func TestStruct_RGBHex(t *testing.T) {
	for _, c := range []string{"#fff", "ff0000", "#ff00001", "#gg0000"} {
		ve := fieldError(t, Struct(sample{Name: "ok", Color: ptr(c)}))
		assert.Equal(t, "color", ve.Field, c)
	}
}

func TestStruct_RatingRange(t *testing.T) {
	ve := fieldError(t, Struct(sample{Name: "ok", Rating: ptr(0)}))
	assert.Equal(t, "rating must be at least 1", ve.Message)

	ve = fieldError(t, Struct(sample{Name: "ok", Rating: ptr(6)}))
	assert.Equal(t, "rating must be at most 5", ve.Message)
}

func TestStruct_OneOf(t *testing.T) {
	ve := fieldError(t, Struct(sample{Name: "ok", Status: ptr("c")}))
	assert.Equal(t, "status must be one of: a b", ve.Message)
}

func TestStruct_Collections(t *testing.T) {
	ve := fieldError(t, Struct(sample{Name: "ok", Items: []string{"a", "b", "c"}}))
	assert.Equal(t, "items must contain at most 2 items", ve.Message)

	ve = fieldError(t, Struct(sample{Name: "ok", Items: []string{"abcd"}}))
	assert.Equal(t, "items[0]", ve.Field)
}

func TestVar(t *testing.T) {
	require.NoError(t, Var("authors", []string{"a"}, "max=2,dive,max=5"))

	ve := fieldError(t, Var("authors", []string{"a", "b", "c"}, "max=2"))
	assert.Equal(t, "authors", ve.Field)
	assert.Equal(t, "authors must contain at most 2 items", ve.Message)
}
