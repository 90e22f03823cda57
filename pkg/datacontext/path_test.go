package datacontext

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePath(t *testing.T) {
	tests := []struct {
		in   string
		want Path
	}{
		{"a", Path{{Key: "a"}}},
		{"a.b.c", Path{{Key: "a"}, {Key: "b"}, {Key: "c"}}},
		{"a[1]", Path{{Key: "a", Indexes: []int{1}}}},
		{"a[1][2].b", Path{{Key: "a", Indexes: []int{1, 2}}, {Key: "b"}}},
		{"[0].name", Path{{Indexes: []int{0}}, {Key: "name"}}},
		{"a[-3]", Path{{Key: "a", Indexes: []int{-3}}}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePath(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.in, got.String())
		})
	}
}

func TestParsePath_Errors(t *testing.T) {
	for _, in := range []string{"", "a..b", ".a", "a.", "a[", "a]", "a[x]", "a[1]b", "a.[0]"} {
		t.Run(in, func(t *testing.T) {
			_, err := ParsePath(in)
			var pe *PathError
			assert.True(t, errors.As(err, &pe), "expected *PathError, got %v", err)
		})
	}
}
