package errors

import "testing"

func TestValidateName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple", "Graph 1", false},
		{"matrix", "Simple IOR Choice", false},
		{"unicode", "Auftragsprozess", false},

		{"empty", "", true},
		{"blank", "   ", true},
		{"too long", string(make([]byte, 300)), true},
		{"traversal", "a/../b", true},
		{"slash", "a/b", true},
		{"backslash", "a\\b", true},
		{"newline", "a\nb", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidInput) {
				t.Errorf("ValidateName(%q) code = %v, want %v", tt.input, GetCode(err), ErrCodeInvalidInput)
			}
		})
	}
}

func TestValidateGraphFile(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"order.json", false},
		{"Order.JSON", false},
		{"", true},
		{"dir/order.json", true},
		{".order.json", true},
		{"order.txt", true},
	}

	for _, tt := range tests {
		err := ValidateGraphFile(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateGraphFile(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
		}
	}
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"http://localhost:8080", false},
		{"https://predict.example.com", false},
		{"", true},
		{"ftp://example.com", true},
		{"localhost:8080", true},
	}

	for _, tt := range tests {
		err := ValidateURL(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateURL(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
		}
	}
}
