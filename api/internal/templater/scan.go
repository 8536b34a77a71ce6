package templater

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Kind classifies a numeric token.
type Kind int

const (
	KindDigit    Kind = iota + 1 // 12, 3.5, 1,000, 3/4, 2½, 3rd
	KindWord                     // ten, twenty-one, third
	KindFraction                 // one half, two-thirds, a quarter
)

func (k Kind) String() string {
	switch k {
	case KindDigit:
		return "digit"
	case KindWord:
		return "word"
	case KindFraction:
		return "fraction"
	default:
		return "unknown"
	}
}

// Token is a span of the source text carrying a concrete quantity.
type Token struct {
	Kind  Kind
	Start int // byte offsets into the scanned text
	End   int
	Text  string
}

// Scan is the classification of one text.
type Scan struct {
	// Lead is the byte length of the leading problem number ("5.") that is
	// exempt from templating, or 0.
	Lead   int
	Tokens []Token
	// Next is the first placeholder index not already present in the text.
	Next int

	used map[int]bool // placeholder indexes already present
}

type lexKind int

const (
	lexWord lexKind = iota
	lexDigit
	lexMarker
)

type lexeme struct {
	kind       lexKind
	start, end int
	word       string // lowercased, words only
}

// Scan classifies text left to right. It is safe for concurrent use.
func (v *Vocabulary) Scan(text string) Scan {
	lead := leadingNumber(text)
	lx, used := lex(text, lead)
	sc := Scan{Lead: lead, used: used}
	for idx := range used {
		if idx+1 > sc.Next {
			sc.Next = idx + 1
		}
	}

	lastEnd := -1
	for i := 0; i < len(lx); {
		l := lx[i]
		switch l.kind {
		case lexMarker:
			// "{X} million" is one quantity.
			i = v.scaleTail(text, lx, i)
			continue
		case lexDigit:
			end := v.scaleTail(text, lx, i)
			t := Token{Kind: KindDigit, Start: l.start, End: lx[end-1].end}
			t.Text = text[t.Start:t.End]
			sc.Tokens = append(sc.Tokens, t)
			lastEnd = t.End
			i = end
			continue
		}
		if n := v.idiomAt(text, lx, i); n > 0 {
			i += n
			continue
		}
		if v.openers[l.word] && clauseOpener(text, l, lead) {
			i++
			continue
		}
		prevNumeric := i > 0 && joined(text, lx[i-1], l) &&
			(lx[i-1].kind != lexWord || lx[i-1].end == lastEnd)
		end, kind := v.phrase(text, lx, i, prevNumeric)
		if end <= i {
			i++
			continue
		}
		t := Token{Kind: kind, Start: l.start, End: lx[end-1].end}
		t.Text = text[t.Start:t.End]
		sc.Tokens = append(sc.Tokens, t)
		lastEnd = t.End
		i = end
	}
	return sc
}

// Replace substitutes every numeric token in text with the next placeholder,
// continuing after any placeholder already present. It returns the new text
// and the number of substitutions.
func (v *Vocabulary) Replace(text string) (string, int) {
	sc := v.Scan(text)
	next := sc.Next
	return substitute(text, sc.Tokens, func() int {
		next++
		return next - 1
	})
}

// Number is Replace for raw problem text: numbering starts at the first
// symbol and skips only symbols the text already spells out.
func (v *Vocabulary) Number(text string) (string, int) {
	sc := v.Scan(text)
	next := 0
	return substitute(text, sc.Tokens, func() int {
		for sc.used[next] {
			next++
		}
		next++
		return next - 1
	})
}

func substitute(text string, tokens []Token, index func() int) (string, int) {
	if len(tokens) == 0 {
		return text, 0
	}
	var b strings.Builder
	b.Grow(len(text))
	last := 0
	for _, t := range tokens {
		b.WriteString(text[last:t.Start])
		b.WriteString(Placeholder(index()))
		last = t.End
	}
	b.WriteString(text[last:])
	return b.String(), len(tokens)
}

// scaleTail returns the index past lx[i] and any "hundred" or scale words
// joined to it ("2 million", "1.5 billion", "3 dozen").
func (v *Vocabulary) scaleTail(text string, lx []lexeme, i int) int {
	state, minRank := ClassUnit, 0
	j := i + 1
	for j < len(lx) && lx[j].kind == lexWord && joined(text, lx[j-1], lx[j]) {
		e, ok := v.cardinals[lx[j].word]
		if !ok || (e.class != ClassHundred && e.class != ClassScale) || !canFollow(state, e, minRank) {
			break
		}
		state = e.class
		if e.class == ClassScale {
			minRank = e.rank
		}
		j++
	}
	return j
}

// clauseOpener reports an ordinal used as a discourse marker: first word of
// a clause and followed by a comma ("First, add 3.").
func clauseOpener(text string, l lexeme, lead int) bool {
	rest := strings.TrimLeft(text[l.end:], " \t")
	if !strings.HasPrefix(rest, ",") {
		return false
	}
	before := strings.TrimRight(text[lead:l.start], " \t\u00a0")
	if before == "" {
		return true
	}
	switch before[len(before)-1] {
	case '.', '!', '?', ':', ';', '\n', '\r', '(':
		return true
	}
	return false
}

// phrase tries to read a word-form quantity starting at lx[i]. It returns the
// index one past the last lexeme consumed (i when nothing matched).
func (v *Vocabulary) phrase(text string, lx []lexeme, i int, prevNumeric bool) (int, Kind) {
	if lx[i].kind != lexWord {
		return i, 0
	}
	w := lx[i].word
	if e, ok := v.cardinals[w]; ok {
		return v.cardinalPhrase(text, lx, i, e)
	}
	if _, ok := v.ordinals[w]; ok {
		if prevNumeric && v.measures[w] {
			return i, 0
		}
		return i + 1, KindWord
	}
	if v.standalone[w] {
		return i + 1, KindFraction
	}
	if v.denominators[w] && i > 0 && joined(text, lx[i-1], lx[i]) &&
		(lx[i-1].word == "a" || lx[i-1].word == "an") {
		return i + 1, KindFraction
	}
	return i, 0
}

func (v *Vocabulary) cardinalPhrase(text string, lx []lexeme, i int, first entry) (int, Kind) {
	if first.class == ClassStandalone {
		return i + 1, KindWord
	}
	state, minRank := first.class, first.rank

	j := i + 1
	for j < len(lx) && lx[j].kind == lexWord && joined(text, lx[j-1], lx[j]) {
		w := lx[j].word
		if v.denominators[w] {
			return j + 1, KindFraction
		}
		if w == "and" && (state == ClassHundred || state == ClassScale) &&
			j+1 < len(lx) && lx[j+1].kind == lexWord && joined(text, lx[j], lx[j+1]) {
			if e, ok := v.lookup(lx[j+1].word); ok && groupStart(e.class) {
				j++
				continue
			}
			break
		}
		if e, ok := v.cardinals[w]; ok && canFollow(state, e, minRank) {
			state = e.class
			if e.class == ClassScale {
				minRank = e.rank
			}
			j++
			continue
		}
		if e, ok := v.ordinals[w]; ok && canFollow(state, e, minRank) {
			return j + 1, KindWord
		}
		break
	}

	// Mixed numbers: "two and a half", "one and three quarters".
	if j+1 < len(lx) && lx[j].word == "and" && joined(text, lx[j-1], lx[j]) && joined(text, lx[j], lx[j+1]) {
		if (lx[j+1].word == "a" || lx[j+1].word == "an") && j+2 < len(lx) &&
			joined(text, lx[j+1], lx[j+2]) && v.denominators[lx[j+2].word] {
			return j + 3, KindFraction
		}
		if _, ok := v.cardinals[lx[j+1].word]; ok {
			if end, kind := v.phrase(text, lx, j+1, false); kind == KindFraction {
				return end, KindFraction
			}
		}
	}
	return j, KindWord
}

func (v *Vocabulary) lookup(w string) (entry, bool) {
	if e, ok := v.cardinals[w]; ok {
		return e, true
	}
	e, ok := v.ordinals[w]
	return e, ok
}

func groupStart(c Class) bool {
	return c == ClassUnit || c == ClassTeen || c == ClassTens
}

// canFollow reports whether a word of class next may continue a phrase whose
// last word had class state. Scales must strictly decrease left to right.
func canFollow(state Class, next entry, minRank int) bool {
	switch next.class {
	case ClassUnit:
		return state == ClassTens || state == ClassHundred || state == ClassScale
	case ClassTeen, ClassTens:
		return state == ClassHundred || state == ClassScale
	case ClassHundred:
		return state == ClassUnit || state == ClassTeen
	case ClassScale:
		if minRank != 0 && next.rank >= minRank {
			return false
		}
		return state == ClassUnit || state == ClassTeen || state == ClassTens || state == ClassHundred
	}
	return false
}

// idiomAt returns the number of lexemes covered by an idiom starting at lx[i].
func (v *Vocabulary) idiomAt(text string, lx []lexeme, i int) int {
next:
	for _, words := range v.idioms {
		if i+len(words) > len(lx) {
			continue
		}
		for k, w := range words {
			l := lx[i+k]
			if l.kind != lexWord || l.word != w {
				continue next
			}
			if k > 0 && !spaced(text[lx[i+k-1].end:l.start]) {
				continue next
			}
		}
		return len(words)
	}
	return 0
}

// leadingNumber returns the length of a "<digits>." prefix, or 0. A period
// followed by another digit is a decimal point, not a problem number.
func leadingNumber(text string) int {
	j := digitRun(text, 0)
	if j == 0 || j >= len(text) || text[j] != '.' {
		return 0
	}
	if digitAt(text, j+1) {
		return 0
	}
	return j + 1
}

func lex(text string, from int) ([]lexeme, map[int]bool) {
	var (
		out  []lexeme
		used = map[int]bool{}
	)
	for i := from; i < len(text); {
		if text[i] == '{' {
			if size, idx, ok := parsePlaceholder(text[i:]); ok {
				out = append(out, lexeme{kind: lexMarker, start: i, end: i + size})
				used[idx] = true
				i += size
				continue
			}
		}
		r, size := utf8.DecodeRuneInString(text[i:])
		switch {
		case unicode.IsDigit(r) || vulgar(r):
			end := scanNumber(text, i)
			out = append(out, lexeme{kind: lexDigit, start: i, end: end})
			i = end
		case unicode.IsLetter(r):
			j := i + size
			for j < len(text) {
				r2, s2 := utf8.DecodeRuneInString(text[j:])
				if !unicode.IsLetter(r2) {
					break
				}
				j += s2
			}
			out = append(out, lexeme{kind: lexWord, start: i, end: j, word: strings.ToLower(text[i:j])})
			i = j
		default:
			i += size
		}
	}
	return out, used
}

// scanNumber returns the end of the digit-form quantity starting at s[i].
func scanNumber(s string, i int) int {
	j := digitRun(s, i)
	if j == i {
		_, size := utf8.DecodeRuneInString(s[i:])
		return i + size
	}
	simple := true
	for j+4 <= len(s) && s[j] == ',' && asciiDigits(s[j+1:j+4]) && !digitAt(s, j+4) {
		j += 4
	}
	if j < len(s) && s[j] == '.' && digitAt(s, j+1) {
		j = digitRun(s, j+1)
		simple = false
	}
	if j < len(s) && s[j] == '/' && digitAt(s, j+1) {
		j = digitRun(s, j+1)
		simple = false
	}
	if simple && j < len(s) && s[j] == ' ' && digitAt(s, j+1) {
		k := digitRun(s, j+1)
		if k < len(s) && s[k] == '/' && digitAt(s, k+1) {
			j = digitRun(s, k+1)
		}
	}
	if r, size := utf8.DecodeRuneInString(s[j:]); vulgar(r) {
		return j + size
	}
	if j+2 <= len(s) {
		switch strings.ToLower(s[j : j+2]) {
		case "st", "nd", "rd", "th":
			if r, _ := utf8.DecodeRuneInString(s[j+2:]); j+2 == len(s) || !unicode.IsLetter(r) {
				return j + 2
			}
		}
	}
	return j
}

func digitRun(s string, i int) int {
	for i < len(s) {
		r, size := utf8.DecodeRuneInString(s[i:])
		if !unicode.IsDigit(r) {
			break
		}
		i += size
	}
	return i
}

func digitAt(s string, i int) bool {
	if i >= len(s) {
		return false
	}
	r, _ := utf8.DecodeRuneInString(s[i:])
	return unicode.IsDigit(r)
}

func asciiDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}

// vulgar reports the precomposed fraction characters (¼ ½ ¾ ⅐ … ⅞).
func vulgar(r rune) bool {
	return (r >= 0x00BC && r <= 0x00BE) || (r >= 0x2150 && r <= 0x215E)
}

// joined reports whether two lexemes belong to one phrase: separated only by
// horizontal whitespace, or by a single hyphen.
func joined(text string, a, b lexeme) bool {
	gap := text[a.end:b.start]
	switch gap {
	case "-", "\u2010", "\u2011":
		return true
	}
	return spaced(gap)
}

func spaced(gap string) bool {
	if gap == "" {
		return false
	}
	for _, r := range gap {
		if r != ' ' && r != '\t' && r != '\u00a0' {
			return false
		}
	}
	return true
}
