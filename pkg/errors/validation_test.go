package errors

import (
	"math"
	"testing"
)

func TestValidatePositive(t *testing.T) {
	tests := []struct {
		name    string
		value   float64
		wantErr bool
	}{
		{"Positive", 100, false},
		{"Zero", 0, true},
		{"Negative", -10, true},
		{"NaN", math.NaN(), true},
		{"Inf", math.Inf(1), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePositive("column width", tt.value)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePositive(%v) error = %v, wantErr %v", tt.value, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidConfig) {
				t.Errorf("error code = %q, want %q", GetCode(err), ErrCodeInvalidConfig)
			}
		})
	}
}

func TestValidateNonNegative(t *testing.T) {
	if err := ValidateNonNegative("overscan", 0); err != nil {
		t.Errorf("zero overscan should be valid, got %v", err)
	}
	if err := ValidateNonNegative("overscan", -1); err == nil {
		t.Error("negative overscan should be invalid")
	}
}

func TestValidDimensions(t *testing.T) {
	tests := []struct {
		name          string
		width, height float64
		want          bool
	}{
		{"Normal", 150, 200, true},
		{"ZeroWidth", 0, 200, false},
		{"NegativeHeight", 100, -5, false},
		{"NaNWidth", math.NaN(), 100, false},
		{"InfHeight", 100, math.Inf(1), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidDimensions(tt.width, tt.height); got != tt.want {
				t.Errorf("ValidDimensions(%v, %v) = %v, want %v", tt.width, tt.height, got, tt.want)
			}
		})
	}
}
