package story

// Language is a supported narration language code.
type Language string

const (
	English   Language = "en"
	Hindi     Language = "hi"
	Marathi   Language = "mr"
	Kannada   Language = "kn"
	Tamil     Language = "ta"
	Malayalam Language = "ml"
)

type LanguageInfo struct {
	Code       Language
	Name       string
	NativeName string
	// Locale is the speech recognition locale tag.
	Locale string
}

var languages = []LanguageInfo{
	{Code: English, Name: "English", NativeName: "English", Locale: "en-IN"},
	{Code: Hindi, Name: "Hindi", NativeName: "हिंदी", Locale: "hi-IN"},
	{Code: Marathi, Name: "Marathi", NativeName: "मराठी", Locale: "mr-IN"},
	{Code: Kannada, Name: "Kannada", NativeName: "ಕನ್ನಡ", Locale: "kn-IN"},
	{Code: Tamil, Name: "Tamil", NativeName: "தமிழ்", Locale: "ta-IN"},
	{Code: Malayalam, Name: "Malayalam", NativeName: "മലയാളം", Locale: "ml-IN"},
}

// Languages lists every supported language, English first.
func Languages() []LanguageInfo {
	cp := make([]LanguageInfo, len(languages))
	copy(cp, languages)
	return cp
}

// Info returns the language details, falling back to English for unknown codes.
func (l Language) Info() LanguageInfo {
	for _, info := range languages {
		if info.Code == l {
			return info
		}
	}
	return languages[0]
}

func (l Language) Valid() bool {
	for _, info := range languages {
		if info.Code == l {
			return true
		}
	}
	return false
}

// ParseLanguage returns the language for code, or English when it is unknown.
func ParseLanguage(code string) Language {
	return Language(code).Info().Code
}
