package language

import (
	"strings"
	"testing"
)

func TestResolveIndicNames(t *testing.T) {
	tests := []struct {
		input  string
		code   string
		name   string
		script string
	}{
		{"Hindi", "hi", "Hindi", "Deva"},
		{"hindi", "hi", "Hindi", "Deva"},
		{" SANSKRIT ", "sa", "Sanskrit", "Deva"},
		{"bengali", "bn", "Bengali", "Beng"},
		{"Bangla", "bn", "Bengali", "Beng"},
		{"tamil", "ta", "Tamil", "Taml"},
		{"telugu", "te", "Telugu", "Telu"},
		{"gujarati", "gu", "Gujarati", "Gujr"},
		{"kannada", "kn", "Kannada", "Knda"},
		{"malayalam", "ml", "Malayalam", "Mlym"},
		{"marathi", "mr", "Marathi", "Deva"},
		{"odia", "or", "Odia", "Orya"},
		{"Oriya", "or", "Odia", "Orya"},
		{"punjabi", "pa", "Punjabi", "Guru"},
		{"urdu", "ur", "Urdu", "Arab"},
		{"ta", "ta", "Tamil", "Taml"},
		{"mar", "mr", "Marathi", "Deva"},
		{"hi-IN", "hi", "Hindi", "Deva"},
		{"English", "en", "English", "Latn"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := Resolve(tt.input)
			if err != nil {
				t.Fatalf("Resolve(%q) returned error: %v", tt.input, err)
			}
			if got.Code != tt.code || got.Name != tt.name || got.Script != tt.script {
				t.Fatalf("Resolve(%q) = %+v", tt.input, got)
			}
		})
	}
}

func TestResolveUnknownListsSupported(t *testing.T) {
	_, err := Resolve("Klingon")
	if err == nil {
		t.Fatal("expected error for unsupported language")
	}
	for _, fragment := range []string{"Klingon", "Hindi", "Urdu"} {
		if !strings.Contains(err.Error(), fragment) {
			t.Fatalf("expected %q in %q", fragment, err.Error())
		}
	}
	if _, err := Resolve("   "); err == nil {
		t.Fatal("expected error for blank name")
	}
}

func TestIndicScripts(t *testing.T) {
	for _, name := range []string{"Hindi", "Tamil", "Punjabi", "Odia"} {
		l, err := Resolve(name)
		if err != nil {
			t.Fatalf("Resolve(%q): %v", name, err)
		}
		if !l.Indic() {
			t.Fatalf("expected %s to be Indic", name)
		}
	}
	for _, name := range []string{"Urdu", "English", "Japanese"} {
		l, err := Resolve(name)
		if err != nil {
			t.Fatalf("Resolve(%q): %v", name, err)
		}
		if l.Indic() {
			t.Fatalf("expected %s not to be Indic", name)
		}
	}
}

func TestResolvedTagCarriesScript(t *testing.T) {
	l, err := Resolve("Marathi")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got := l.Tag.String(); got != "mr-Deva" {
		t.Fatalf("unexpected tag %q", got)
	}
}

func TestCapitalize(t *testing.T) {
	tests := map[string]string{
		"hindi":      "Hindi",
		"HINDI":      "Hindi",
		" malayalam": "Malayalam",
		"":           "",
	}
	for input, want := range tests {
		if got := Capitalize(input); got != want {
			t.Errorf("Capitalize(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestSupportedIsSorted(t *testing.T) {
	names := SupportedNames()
	if len(names) != len(table) {
		t.Fatalf("expected %d names, got %d", len(table), len(names))
	}
	for i := 1; i < len(names); i++ {
		if names[i-1] > names[i] {
			t.Fatalf("names not sorted: %q before %q", names[i-1], names[i])
		}
	}
}

func TestResolveAlternateCodes(t *testing.T) {
	tests := map[string]string{
		"HIN":     "hi",
		"ory":     "or",
		"fre":     "fr",
		"chi":     "zh",
		"Panjabi": "pa",
		"ben":     "bn",
	}
	for input, want := range tests {
		got, err := Resolve(input)
		if err != nil {
			t.Fatalf("Resolve(%q): %v", input, err)
		}
		if got.Code != want {
			t.Errorf("Resolve(%q).Code = %q, want %q", input, got.Code, want)
		}
	}
	if l, _ := Resolve("Tamil"); l.Code3 != "tam" {
		t.Errorf("expected ISO 639-2 code tam, got %q", l.Code3)
	}
}
