package simpleblog_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tendant/simple-blog/pkg/simpleblog"
)

func TestAuthorize(t *testing.T) {
	tests := []struct {
		name    string
		actor   string
		owner   string
		allowed bool
	}{
		{"same identity", "user-1", "user-1", true},
		{"case differs", "USER-1", "user-1", true},
		{"surrounding space", " user-1 ", "user-1", true},
		{"different identity", "user-2", "user-1", false},
		{"anonymous actor", "", "user-1", false},
		{"anonymous actor and owner", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := simpleblog.Authorize(tt.actor, tt.owner)
			if tt.allowed {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, simpleblog.ErrForbidden)
			}
		})
	}
}

func TestCanonicalID(t *testing.T) {
	assert.Equal(t, "abc-def", simpleblog.CanonicalID("  ABC-def\t"))
	assert.Equal(t, "", simpleblog.CanonicalID("   "))
}
