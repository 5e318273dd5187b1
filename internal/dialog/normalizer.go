package dialog

import (
	"regexp"
	"strings"
)

// The normalizer folds common Spanish colloquial misspellings before the
// text reaches the intent classifier. It is an ordered list of rules applied
// exactly once, in sequence, over the lower-cased input. It is NOT applied
// to input that must match digits (DNI, complaint IDs).
//
// Later rules see the output of earlier ones, so the order is part of the
// contract and each rule is tested independently as well as composed.
type normalizeRule struct {
	name  string
	apply func(string) string
}

func patternRule(name, pattern, replacement string) normalizeRule {
	re := regexp.MustCompile(pattern)
	return normalizeRule{name: name, apply: func(s string) string {
		return re.ReplaceAllString(s, replacement)
	}}
}

func funcRule(name, pattern string, fn func(string) string) normalizeRule {
	re := regexp.MustCompile(pattern)
	return normalizeRule{name: name, apply: func(s string) string {
		return re.ReplaceAllStringFunc(s, fn)
	}}
}

var normalizeRules = []normalizeRule{
	// Phonetic letter folding on whole words starting with the letter.
	funcRule("k-to-qu", `\bk\w*`, func(w string) string {
		return strings.ReplaceAll(w, "k", "qu")
	}),
	funcRule("z-to-s", `\bz\w*`, func(w string) string {
		return strings.ReplaceAll(w, "z", "s")
	}),
	funcRule("x-to-s", `\bx\w*`, func(w string) string {
		return strings.ReplaceAll(w, "x", "s")
	}),
	// Vocabulary the intent prompt cares about.
	patternRule("quiero", `\b(qu|k|q)uier[oa]\b|\bkere\b`, "quiero"),
	patternRule("actualizar", `\b(ak|ac)tua(l|ll)?(l|ll)?i(z|s)(ar|er)\b|\baktuali[zs]ar\b`, "actualizar"),
	patternRule("reclamo", `\b(rek|rec|rel)lam[oa]\b|\breclamoo+\b`, "reclamo"),
	patternRule("consultar", `\b(kom|kon|kol)sultar\b|\bconsul[dt]ar\b`, "consultar"),
	patternRule("hacer", `\b(ha|as)ser\b|\baser\b`, "hacer"),
	patternRule("direccion", `\b(direk|dier|dir)ec(c|k)ion\b|\bdirecsion\b`, "direccion"),
	patternRule("estado", `\bes?stadoo+\b`, "estado"),
	// Collapse doubled vowels ("bueeno" -> "bueno").
	funcRule("double-vowel", `(aa|ee|ii|oo|uu)`, func(v string) string {
		return v[:1]
	}),
	// Transposed "re" inside a word ("porblema" -> "problema" style slips).
	patternRule("re-swap", `(\w)r(\w)e`, "${1}er${2}"),
}

// Normalize lower-cases the input and runs the full rule chain once.
func Normalize(text string) string {
	out := strings.ToLower(strings.TrimSpace(text))
	for _, r := range normalizeRules {
		out = r.apply(out)
	}
	return out
}
