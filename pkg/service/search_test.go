package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSuggestTemplates(t *testing.T) {
	names := []string{"D4200310A", "D4200310B", "D0000010", "D4211", "F4211FS"}

	tests := []struct {
		name  string
		query string
		first string
	}{
		{name: "exact", query: "D4211", first: "D4211"},
		{name: "case insensitive prefix", query: "d42003", first: "D4200310A"},
		{name: "substring", query: "4211FS", first: "F4211FS"},
		{name: "typo", query: "D0000001", first: "D0000010"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SuggestTemplates(tt.query, names, 0)
			if assert.NotEmpty(t, got) {
				assert.Equal(t, tt.first, got[0].Name)
			}
		})
	}
}

func TestSuggestTemplates_LimitAndNoise(t *testing.T) {
	names := []string{"D4200310A", "D4200310B", "D4200310C"}

	got := SuggestTemplates("D420", names, 2)
	assert.Equal(t, []TemplateMatch{{Name: "D4200310A", Score: 0.95}, {Name: "D4200310B", Score: 0.95}}, got)

	assert.Empty(t, SuggestTemplates("ZZZZZZZZZZ", names, 0))
	assert.Nil(t, SuggestTemplates("  ", names, 0))
}
