package feeds

import (
	"strings"
	"sync"

	lingua "github.com/pemistahl/lingua-go"
	"github.com/samber/lo"
)

// LanguageDetector is the part of lingua.LanguageDetector the filter needs
type LanguageDetector interface {
	DetectLanguageOf(text string) (lingua.Language, bool)
}

// Languages the detector always compares against, so that a feed restricted to a
// single language can still reject headlines written in another common one.
var commonLanguages = []lingua.Language{
	lingua.English,
	lingua.French,
	lingua.German,
	lingua.Spanish,
	lingua.Portuguese,
	lingua.Italian,
	lingua.Dutch,
	lingua.Swedish,
	lingua.Russian,
	lingua.Chinese,
	lingua.Japanese,
}

func NewLanguageDetector(targetCodes []string) lingua.LanguageDetector {
	languages := lo.Uniq(append(append([]lingua.Language{}, commonLanguages...), targetLanguagesToLingua(targetCodes)...))

	return lingua.NewLanguageDetectorBuilder().
		FromLanguages(languages...).
		WithMinimumRelativeDistance(0.25).
		Build()
}

// LanguageFilter keeps titles detected in one of the target languages.
// Titles whose language cannot be told apart are kept.
type LanguageFilter struct {
	detector LanguageDetector
	targets  []lingua.Language
}

func NewLanguageFilter(detector LanguageDetector, targetCodes []string) *LanguageFilter {
	return &LanguageFilter{
		detector: detector,
		targets:  targetLanguagesToLingua(targetCodes),
	}
}

func (f *LanguageFilter) Keep(title string) bool {
	if len(f.targets) == 0 {
		return true
	}
	lang, ok := f.detector.DetectLanguageOf(title)
	if !ok {
		return true
	}
	return lo.Contains(f.targets, lang)
}

// languagesByCode maps lower case ISO 639-1 codes to lingua languages
var languagesByCode = sync.OnceValue(func() map[string]lingua.Language {
	return lo.SliceToMap(lingua.AllLanguages(), func(lang lingua.Language) (string, lingua.Language) {
		return strings.ToLower(lang.IsoCode639_1().String()), lang
	})
})

// targetLanguagesToLingua resolves codes such as " EN" and "de". Unknown
// codes are dropped.
func targetLanguagesToLingua(codes []string) []lingua.Language {
	byCode := languagesByCode()
	return lo.Uniq(lo.FilterMap(codes, func(code string, _ int) (lingua.Language, bool) {
		lang, ok := byCode[strings.ToLower(strings.TrimSpace(code))]
		return lang, ok
	}))
}
