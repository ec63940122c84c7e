package categories

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCategoryBodyValidate(t *testing.T) {
	tests := []struct {
		name    string
		body    categoryBody
		wantMsg string
	}{
		{"valid", categoryBody{Name: "Chores", Color: "#ff8800"}, ""},
		{"short hex ok", categoryBody{Name: "School", Color: "#abc"}, ""},
		{"name trimmed", categoryBody{Name: "  Sports  ", Color: "#112233"}, ""},
		{"empty name", categoryBody{Name: "   "}, "name is required"},
		{"default color", categoryBody{Name: "Misc"}, ""},
		{"bad color", categoryBody{Name: "Misc", Color: "red"}, "color must be a hex value like #aabbcc"},
		{"wrong length", categoryBody{Name: "Misc", Color: "#aabbccdd"}, "color must be a hex value like #aabbcc"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			msg := tc.body.validate()
			assert.Equal(t, tc.wantMsg, msg)
		})
	}
}

func TestCategoryBodyValidateDefaultColor(t *testing.T) {
	body := categoryBody{Name: "Misc"}
	assert.Equal(t, "", body.validate())
	assert.Equal(t, "#808080", body.Color)
}
