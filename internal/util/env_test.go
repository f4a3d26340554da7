package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetEnvString(t *testing.T) {
	t.Setenv("PAPERTEXT_TEST_STR", "neo4j")
	assert.Equal(t, "neo4j", GetEnvString("PAPERTEXT_TEST_STR", "memory"))
	assert.Equal(t, "memory", GetEnvString("PAPERTEXT_TEST_MISSING", "memory"))

	t.Setenv("PAPERTEXT_TEST_EMPTY", "")
	assert.Equal(t, "memory", GetEnvString("PAPERTEXT_TEST_EMPTY", "memory"))
}

func TestGetEnvNumeric(t *testing.T) {
	t.Setenv("PAPERTEXT_TEST_NUM", "7687")
	assert.Equal(t, float64(7687), GetEnvNumeric("PAPERTEXT_TEST_NUM", 1))

	t.Setenv("PAPERTEXT_TEST_BAD_NUM", "port")
	assert.Equal(t, float64(4), GetEnvNumeric("PAPERTEXT_TEST_BAD_NUM", 4))
}

func TestGetEnvBool(t *testing.T) {
	tests := []struct {
		name  string
		value string
		def   bool
		want  bool
	}{
		{name: "true literal", value: "true", want: true},
		{name: "numeric true", value: "1", want: true},
		{name: "false literal", value: "false", def: true, want: false},
		{name: "garbage keeps default", value: "maybe", def: true, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("PAPERTEXT_TEST_BOOL", tt.value)
			assert.Equal(t, tt.want, GetEnvBool("PAPERTEXT_TEST_BOOL", tt.def))
		})
	}
}
