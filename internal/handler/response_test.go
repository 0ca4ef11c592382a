package handler

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bookshelf/bookshelf-go/internal/model"
)

func TestInvalidField(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"valid body", `{"title":"Dune","rating":4}`, ""},
		{"fractional rating", `{"title":"Dune","rating":4.5}`, "rating"},
		{"string title", `{"title":5}`, "title"},
		{"string authors", `{"title":"Dune","authors":"Frank Herbert"}`, "authors"},
		{"first bad field in declaration order", `{"rating":"x","title":5}`, "title"},
		{"unknown keys ignored", `{"title":"Dune","shelf":[1]}`, ""},
		{"not an object", `[1,2]`, ""},
		{"malformed", `{"title":`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, invalidField([]byte(tt.body), &model.CreateBookRequest{}))
		})
	}

	assert.Empty(t, invalidField([]byte(`{"a":1}`), &[]int{}), "non-struct destinations have no fields")
}
