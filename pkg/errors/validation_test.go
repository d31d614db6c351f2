package errors

import (
	"testing"
)

func TestValidateCellName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"single letter", "A1", false},
		{"lowercase", "b7", false},
		{"multi letter", "AZ100", false},
		{"large row", "x99999", false},

		{"empty", "", true},
		{"zero row", "A0", true},
		{"leading zero", "A01", true},
		{"digits only", "12", true},
		{"letters only", "ABC", true},
		{"digit first", "1A", true},
		{"trailing letter", "A1B", true},
		{"space", "A 1", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCellName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateCellName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidName) {
				t.Errorf("ValidateCellName(%q) code = %v, want %v", tt.input, GetCode(err), ErrCodeInvalidName)
			}
		})
	}
}

func TestValidatePattern(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		match   string
		want    bool
		wantErr bool
	}{
		{"empty accepts all", "", "ZZ99", true, false},
		{"anchored", "^[A-C][1-9]$", "B3", true, false},
		{"anchored rejects", "^[A-C][1-9]$", "D3", false, false},
		{"malformed", "^[A-", "", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			re, err := ValidatePattern(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidatePattern(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil {
				if !Is(err, ErrCodeInvalidPattern) {
					t.Errorf("code = %v, want %v", GetCode(err), ErrCodeInvalidPattern)
				}
				return
			}
			if got := re.MatchString(tt.match); got != tt.want {
				t.Errorf("MatchString(%q) = %v, want %v", tt.match, got, tt.want)
			}
		})
	}
}

func TestValidateWorkbookName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple", "budget", false},
		{"with dash", "q3-budget", false},
		{"with dot", "budget.2026", false},
		{"with underscore", "my_book", false},

		{"empty", "", true},
		{"too long", string(make([]byte, 200)), true},
		{"traversal", "a..b", true},
		{"slash", "a/b", true},
		{"leading dot", ".hidden", true},
		{"space", "my book", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateWorkbookName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateWorkbookName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidatePath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"relative", "book.xml", false},
		{"absolute", "/tmp/book.xml", false},
		{"nested", "sheets/q3/book.json", false},

		{"empty", "", true},
		{"null byte", "book\x00.xml", true},
		{"control char", "book\x01.xml", true},
		{"too long", string(make([]byte, 600)), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePath(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePath(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}
