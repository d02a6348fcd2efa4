package cli

import (
	"testing"
)

func TestParseRect(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    [4]int64
		wantErr bool
	}{
		{"simple", "0,0,4,4", [4]int64{0, 0, 4, 4}, false},
		{"negative", "-3,-2,1,0", [4]int64{-3, -2, 1, 0}, false},
		{"spaces", " 1, 2, 3, 4 ", [4]int64{1, 2, 3, 4}, false},
		{"too few", "1,2,3", [4]int64{}, true},
		{"not a number", "1,2,x,4", [4]int64{}, true},
		{"empty", "", [4]int64{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseRect(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("parseRect = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseCoord(t *testing.T) {
	col, row, err := parseCoord("-17", "42")
	if err != nil {
		t.Fatalf("parseCoord: %v", err)
	}
	if col != -17 || row != 42 {
		t.Errorf("parseCoord = (%d, %d), want (-17, 42)", col, row)
	}

	if _, _, err := parseCoord("abc", "1"); err == nil {
		t.Error("expected error for non-numeric column")
	}
	if _, _, err := parseCoord("1", ""); err == nil {
		t.Error("expected error for empty row")
	}
}
