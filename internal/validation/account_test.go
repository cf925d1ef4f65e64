package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"Valid", "SecurePass12!@", false},
		{"Too Short", "Short1!", true},
		{"Too Long", strings.Repeat("Aa1!", 33), true},
		{"No Uppercase", "securepass12!@", true},
		{"No Lowercase", "SECUREPASS12!@", true},
		{"No Digit", "SecurePassword!@", true},
		{"No Special", "SecurePassword12", true},
		{"Exactly Twelve", "SecurePas12!", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateUsername(t *testing.T) {
	tests := []struct {
		name     string
		username string
		wantErr  bool
	}{
		{"Valid", "alice_42", false},
		{"Valid With Hyphen", "alice-42", false},
		{"Too Short", "ab", true},
		{"Too Long", strings.Repeat("a", 31), true},
		{"Illegal Characters", "alice!", true},
		{"Leading Underscore", "_alice", true},
		{"Trailing Hyphen", "alice-", true},
		{"Spaces", "alice smith", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUsername(tt.username)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		name    string
		email   string
		wantErr bool
	}{
		{"Valid", "alice@example.com", false},
		{"Valid With Plus", "alice+tag@example.co.uk", false},
		{"Missing At", "alice.example.com", true},
		{"Missing Domain", "alice@", true},
		{"Missing TLD", "alice@example", true},
		{"Too Long", strings.Repeat("a", 250) + "@x.com", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEmail(tt.email)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
