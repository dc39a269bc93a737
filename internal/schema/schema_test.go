package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	s, err := New([]Field{
		{Name: "title", Type: "text"},
		{Name: "tags", Type: "PAYLOADS"},
		{Name: "body"},
	})
	require.NoError(t, err)

	assert.True(t, s.IsPayloadBearing("tags"))
	assert.False(t, s.IsPayloadBearing("title"))
	assert.False(t, s.IsPayloadBearing("missing"))
	assert.Equal(t, []string{"tags"}, s.PayloadFields())

	body, ok := s.Field("body")
	require.True(t, ok)
	assert.Equal(t, TypeText, body.Type)

	names := make([]string, 0)
	for _, f := range s.Fields() {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"title", "tags", "body"}, names)
}

func TestNew_Errors(t *testing.T) {
	tests := []struct {
		name   string
		fields []Field
		want   error
	}{
		{"duplicate", []Field{{Name: "a"}, {Name: "a"}}, ErrDuplicateField},
		{"bad type", []Field{{Name: "a", Type: "vector"}}, ErrInvalidType},
		{"empty name", []Field{{Type: "text"}}, ErrEmptyFieldName},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.fields)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestNilSchema(t *testing.T) {
	var s *Schema
	assert.False(t, s.IsPayloadBearing("tags"))
	assert.Nil(t, s.Fields())
}

func TestRegistry_Replace(t *testing.T) {
	before, err := New([]Field{{Name: "tags", Type: TypePayloads}})
	require.NoError(t, err)
	after, err := New([]Field{{Name: "tags", Type: TypeText}})
	require.NoError(t, err)

	r := NewRegistry(before)
	assert.True(t, r.IsPayloadBearing("tags"))
	r.Replace(after)
	assert.False(t, r.IsPayloadBearing("tags"))
	assert.Same(t, after, r.Load())
}
