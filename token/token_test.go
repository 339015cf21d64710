package token

import "testing"

func TestNew(t *testing.T) {
	tests := []struct {
		name string
		kind Kind
		text string
	}{
		{"operator token", Operator, "+"},
		{"identifier token", Identifier, "total"},
		{"number token", NumberLiteral, "42"},
		{"keyword token", Keyword, "while"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := New(tt.kind, tt.text, 3, 7)
			if got.Kind != tt.kind {
				t.Errorf("Kind = %v, want %v", got.Kind, tt.kind)
			}
			if got.Lexeme != tt.text {
				t.Errorf("Lexeme = %q, want %q", got.Lexeme, tt.text)
			}
			if got.Line != 3 || got.Column != 7 {
				t.Errorf("position = (%d,%d), want (3,7)", got.Line, got.Column)
			}
		})
	}
}

func TestKeywords(t *testing.T) {
	for _, kw := range []string{"let", "const", "var", "if", "else", "while", "for", "return", "break", "continue"} {
		if !Keywords[kw] {
			t.Errorf("expected %q to be a reserved keyword", kw)
		}
	}
	if Keywords["total"] {
		t.Errorf("did not expect %q to be a reserved keyword", "total")
	}
}

func TestString(t *testing.T) {
	got := New(Operator, "<=", 0, 0).String()
	want := `Token{OPERATOR "<="}`
	if got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
