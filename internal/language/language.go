package language

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"golang.org/x/text/cases"
	xlang "golang.org/x/text/language"
)

// Language is a resolved table entry.
type Language struct {
	Code   string // ISO 639-1
	Code3  string // ISO 639-2/T
	Name   string
	Script string // ISO 15924
	Tag    xlang.Tag
}

// row is one table line: name, script, then every code or word that names it.
// The first alias is the ISO 639-1 code and the second the ISO 639-2/T code.
type row struct {
	name    string
	script  string
	aliases []string
}

var table = []row{
	// Languages the transcription models were fine-tuned on.
	{"Hindi", "Deva", []string{"hi", "hin"}},
	{"Sanskrit", "Deva", []string{"sa", "san"}},
	{"Bengali", "Beng", []string{"bn", "ben", "bangla"}},
	{"Tamil", "Taml", []string{"ta", "tam"}},
	{"Telugu", "Telu", []string{"te", "tel"}},
	{"Gujarati", "Gujr", []string{"gu", "guj"}},
	{"Kannada", "Knda", []string{"kn", "kan"}},
	{"Malayalam", "Mlym", []string{"ml", "mal"}},
	{"Marathi", "Deva", []string{"mr", "mar"}},
	{"Odia", "Orya", []string{"or", "ori", "ory", "oriya"}},
	{"Punjabi", "Guru", []string{"pa", "pan", "panjabi"}},
	{"Urdu", "Arab", []string{"ur", "urd"}},

	{"English", "Latn", []string{"en", "eng"}},
	{"Spanish", "Latn", []string{"es", "spa"}},
	{"French", "Latn", []string{"fr", "fra", "fre"}},
	{"German", "Latn", []string{"de", "deu", "ger"}},
	{"Italian", "Latn", []string{"it", "ita"}},
	{"Portuguese", "Latn", []string{"pt", "por"}},
	{"Japanese", "Jpan", []string{"ja", "jpn"}},
	{"Korean", "Kore", []string{"ko", "kor"}},
	{"Chinese", "Hans", []string{"zh", "zho", "chi"}},
	{"Russian", "Cyrl", []string{"ru", "rus"}},
	{"Arabic", "Arab", []string{"ar", "ara"}},
	{"Dutch", "Latn", []string{"nl", "nld", "dut"}},
}

// brahmic scripts get canonical decomposition before comparison.
var brahmic = []string{"Deva", "Beng", "Taml", "Telu", "Gujr", "Knda", "Mlym", "Orya", "Guru"}

var index = sync.OnceValue(func() map[string]Language {
	m := make(map[string]Language, len(table)*3)
	for _, r := range table {
		l := r.language()
		m[strings.ToLower(r.name)] = l
		for _, alias := range r.aliases {
			m[alias] = l
		}
	}
	return m
})

func (r row) language() Language {
	tag, err := xlang.Parse(r.aliases[0] + "-" + r.script)
	if err != nil {
		tag = xlang.Make(r.aliases[0])
	}
	return Language{Code: r.aliases[0], Code3: r.aliases[1], Name: r.name, Script: r.script, Tag: tag}
}

// Indic reports whether the language is written in a Brahmic script.
func (l Language) Indic() bool {
	return slices.Contains(brahmic, l.Script)
}

// Capitalize title-cases a language name the way names appear in the table:
// "hindi", "HINDI" and " Hindi " all become "Hindi".
func Capitalize(name string) string {
	return cases.Title(xlang.Und).String(strings.ToLower(strings.TrimSpace(name)))
}

// Resolve maps a language name, ISO 639 code, or alternate spelling to its
// table entry. A BCP 47 tag whose base language is in the table (for example
// "hi-IN") also resolves.
func Resolve(name string) (Language, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return Language{}, fmt.Errorf("language: name is required")
	}
	if l, ok := index()[key]; ok {
		return l, nil
	}
	if tag, err := xlang.Parse(key); err == nil {
		base, _ := tag.Base()
		if l, ok := index()[base.String()]; ok {
			return l, nil
		}
	}
	return Language{}, fmt.Errorf("language: %q is not supported (supported: %s)",
		Capitalize(name), strings.Join(SupportedNames(), ", "))
}

// Supported returns every table entry ordered by name.
func Supported() []Language {
	out := make([]Language, len(table))
	for i, r := range table {
		out[i] = r.language()
	}
	slices.SortFunc(out, func(a, b Language) int { return strings.Compare(a.Name, b.Name) })
	return out
}

// SupportedNames returns the display names ordered alphabetically.
func SupportedNames() []string {
	var names []string
	for _, l := range Supported() {
		names = append(names, l.Name)
	}
	return names
}
