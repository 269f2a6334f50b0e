package gallery

import (
	"path/filepath"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// SupportedExtensions lists the enrollment image formats, lower-case.
var SupportedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".bmp":  true,
	".tiff": true,
	".tif":  true,
}

// IsSupportedImage reports whether path has an enrollment image extension.
func IsSupportedImage(path string) bool {
	return SupportedExtensions[strings.ToLower(filepath.Ext(path))]
}

// NameFromFile derives a person's name from an enrollment file name:
// "joao_silva.jpg" becomes "Joao Silva" and "o'brien.jpg" becomes "O'Brien".
func NameFromFile(path string) string {
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return titleWords(strings.ReplaceAll(stem, "_", " "))
}

// titleWords capitalizes every run of letters and lower-cases the rest of the
// run. Any non-letter (space, apostrophe, digit, hyphen) starts a new run.
func titleWords(s string) string {
	caser := cases.Title(language.Und)
	var b strings.Builder
	b.Grow(len(s))
	start := -1
	for i, r := range s {
		if unicode.IsLetter(r) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			b.WriteString(caser.String(s[start:i]))
			start = -1
		}
		b.WriteRune(r)
	}
	if start >= 0 {
		b.WriteString(caser.String(s[start:]))
	}
	return b.String()
}
