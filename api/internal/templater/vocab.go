package templater

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Class is the grammatical slot a number word fills inside a phrase.
type Class string

const (
	ClassUnit       Class = "unit"       // one..nine
	ClassTeen       Class = "teen"       // ten..nineteen
	ClassTens       Class = "tens"       // twenty..ninety
	ClassHundred    Class = "hundred"    // hundred
	ClassScale      Class = "scale"      // dozen, thousand, million...
	ClassStandalone Class = "standalone" // zero, twice: never joined
)

type entry struct {
	class Class
	rank  int // scales only; larger scales have larger ranks
}

// Vocabulary is the lexicon the scanner matches word-form quantities against.
// Lookups are lowercase. A Vocabulary is read-only once built and safe to share.
type Vocabulary struct {
	cardinals    map[string]entry
	ordinals     map[string]entry
	denominators map[string]bool
	standalone   map[string]bool // fraction words valid without a count ("half")
	measures     map[string]bool // ordinals that read as a unit after a quantity ("second")
	openers      map[string]bool // ordinals that open a clause before a comma ("First, ...")
	idioms       [][]string
}

// VocabularyFile is the YAML layout accepted by LoadVocabulary.
//
//	cardinals:
//	  - {word: score, class: standalone}
//	ordinals:
//	  - {word: umpteenth, class: standalone}
//	denominators: [eighths]
//	idioms: ["no one"]
type VocabularyFile struct {
	Cardinals    []WordSpec `yaml:"cardinals"`
	Ordinals     []WordSpec `yaml:"ordinals"`
	Denominators []string   `yaml:"denominators"`
	Standalone   []string   `yaml:"standalone"`
	Measures     []string   `yaml:"measures"`
	Idioms       []string   `yaml:"idioms"`
}

type WordSpec struct {
	Word  string `yaml:"word"`
	Class Class  `yaml:"class"`
	Rank  int    `yaml:"rank"`
}

var (
	units = []string{"one", "two", "three", "four", "five", "six", "seven", "eight", "nine"}
	teens = []string{"ten", "eleven", "twelve", "thirteen", "fourteen", "fifteen",
		"sixteen", "seventeen", "eighteen", "nineteen"}
	tens = []string{"twenty", "thirty", "forty", "fifty", "sixty", "seventy", "eighty", "ninety"}

	unitOrdinals = []string{"first", "second", "third", "fourth", "fifth", "sixth",
		"seventh", "eighth", "ninth"}
	teenOrdinals = []string{"tenth", "eleventh", "twelfth", "thirteenth", "fourteenth",
		"fifteenth", "sixteenth", "seventeenth", "eighteenth", "nineteenth"}
	tensOrdinals = []string{"twentieth", "thirtieth", "fortieth", "fiftieth", "sixtieth",
		"seventieth", "eightieth", "ninetieth"}

	scales = []string{"dozen", "thousand", "million", "billion", "trillion"}

	defaultIdioms = []string{
		"no one", "one another", "which one", "this one", "that one",
		"each one", "every one", "at first", "first of all",
	}
)

// DefaultVocabulary returns the built-in English lexicon.
func DefaultVocabulary() *Vocabulary {
	v := &Vocabulary{
		cardinals:    map[string]entry{},
		ordinals:     map[string]entry{},
		denominators: map[string]bool{},
		standalone:   map[string]bool{"half": true},
		measures:     map[string]bool{"second": true},
		openers:      map[string]bool{"first": true, "second": true, "third": true},
	}
	for _, w := range units {
		v.cardinals[w] = entry{class: ClassUnit}
	}
	for _, w := range teens {
		v.cardinals[w] = entry{class: ClassTeen}
	}
	for _, w := range tens {
		v.cardinals[w] = entry{class: ClassTens}
	}
	v.cardinals["hundred"] = entry{class: ClassHundred}
	for i, w := range scales {
		v.cardinals[w] = entry{class: ClassScale, rank: i + 1}
		if w != "dozen" {
			v.ordinals[w+"th"] = entry{class: ClassScale, rank: i + 1}
		}
	}
	for _, w := range []string{"zero", "twice", "thrice"} {
		v.cardinals[w] = entry{class: ClassStandalone}
	}

	for _, w := range unitOrdinals {
		v.ordinals[w] = entry{class: ClassUnit}
	}
	for _, w := range teenOrdinals {
		v.ordinals[w] = entry{class: ClassTeen}
	}
	for _, w := range tensOrdinals {
		v.ordinals[w] = entry{class: ClassTens}
	}
	v.ordinals["hundredth"] = entry{class: ClassHundred}

	// Every ordinal from third upwards names a fraction part, singular and plural.
	for w := range v.ordinals {
		if w == "first" || w == "second" {
			continue
		}
		v.denominators[w] = true
		v.denominators[w+"s"] = true
	}
	for _, w := range []string{"half", "halves", "quarter", "quarters"} {
		v.denominators[w] = true
	}

	for _, p := range defaultIdioms {
		v.addIdiom(p)
	}
	return v
}

// LoadVocabulary reads a YAML extension file and merges it over the
// built-in vocabulary. An empty path returns the defaults.
func LoadVocabulary(path string) (*Vocabulary, error) {
	v := DefaultVocabulary()
	if strings.TrimSpace(path) == "" {
		return v, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read vocabulary: %w", err)
	}
	var f VocabularyFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse vocabulary %s: %w", path, err)
	}
	if err := v.Extend(f); err != nil {
		return nil, fmt.Errorf("vocabulary %s: %w", path, err)
	}
	return v, nil
}

// Extend merges extra words into v.
func (v *Vocabulary) Extend(f VocabularyFile) error {
	for _, s := range f.Cardinals {
		e, err := s.entry()
		if err != nil {
			return err
		}
		v.cardinals[normWord(s.Word)] = e
	}
	for _, s := range f.Ordinals {
		e, err := s.entry()
		if err != nil {
			return err
		}
		v.ordinals[normWord(s.Word)] = e
	}
	for _, w := range f.Denominators {
		v.denominators[normWord(w)] = true
	}
	for _, w := range f.Standalone {
		v.denominators[normWord(w)] = true
		v.standalone[normWord(w)] = true
	}
	for _, w := range f.Measures {
		v.measures[normWord(w)] = true
	}
	for _, p := range f.Idioms {
		v.addIdiom(p)
	}
	return nil
}

func (s WordSpec) entry() (entry, error) {
	if normWord(s.Word) == "" {
		return entry{}, fmt.Errorf("empty word")
	}
	switch s.Class {
	case ClassUnit, ClassTeen, ClassTens, ClassHundred, ClassStandalone:
		return entry{class: s.Class}, nil
	case ClassScale:
		if s.Rank <= 0 {
			return entry{}, fmt.Errorf("scale %q needs a positive rank", s.Word)
		}
		return entry{class: ClassScale, rank: s.Rank}, nil
	case "":
		return entry{class: ClassStandalone}, nil
	default:
		return entry{}, fmt.Errorf("word %q: unknown class %q", s.Word, s.Class)
	}
}

func (v *Vocabulary) addIdiom(phrase string) {
	words := strings.Fields(strings.ToLower(phrase))
	if len(words) > 0 {
		v.idioms = append(v.idioms, words)
	}
}

func normWord(w string) string { return strings.ToLower(strings.TrimSpace(w)) }
