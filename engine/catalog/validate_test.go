package catalog

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateQuery(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr error
	}{
		{"plain", "red phone case", "red phone case", nil},
		{"trimmed", "  return policy \n", "return policy", nil},
		{"empty", "", "", ErrEmptyQuery},
		{"whitespace only", "   \t\n", "", ErrEmptyQuery},
		{"at limit", strings.Repeat("a", MaxQueryLen), strings.Repeat("a", MaxQueryLen), nil},
		{"over limit", strings.Repeat("a", MaxQueryLen+1), "", ErrQueryTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateQuery(tt.in)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValidateQuery_RuneCount(t *testing.T) {
	// Multi-byte runes count as one character each.
	q := strings.Repeat("ü", MaxQueryLen)
	if _, err := ValidateQuery(q); err != nil {
		t.Errorf("500 multi-byte runes should pass: %v", err)
	}
}

func TestValidationError_Unwrap(t *testing.T) {
	err := NewValidationError("query", "", ErrEmptyQuery)
	if !errors.Is(err, ErrEmptyQuery) {
		t.Error("ValidationError should unwrap to its sentinel")
	}
	if !strings.Contains(err.Error(), "query") {
		t.Errorf("error text should name the field: %s", err)
	}
}
