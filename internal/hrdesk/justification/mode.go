package justification

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/aussiebroadwan/hrdesk/pkg/hrsdk"
)

// Mode decides which fields a justification needs.
type Mode string

const (
	ModePicada Mode = "PICADA" // single punch correction
	ModeHoras  Mode = "HORAS"  // hour range within one day
	ModeDias   Mode = "DIAS"   // whole days
)

// Checked in order, first hit wins.
var modeKeywords = []struct {
	mode     Mode
	keywords []string
}{
	{ModePicada, []string{"PICADA", "PUNCH", "MARCA"}},
	{ModeHoras, []string{"HORA", "HOUR"}},
	{ModeDias, []string{"DIA", "DAY", "COMPLETO", "FULL"}},
}

// NormalizeTypeCode uppercases s and strips diacritics, so "Día" and "DIA"
// compare equal.
func NormalizeTypeCode(s string) string {
	// Transformers carry state, build one per call
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToUpper(strings.TrimSpace(out))
}

// ModeOf matches free text against the keyword table.
func ModeOf(text string) (Mode, bool) {
	n := NormalizeTypeCode(text)
	if n == "" {
		return "", false
	}
	for _, e := range modeKeywords {
		for _, kw := range e.keywords {
			if strings.Contains(n, kw) {
				return e.mode, true
			}
		}
	}
	return "", false
}

// DeriveMode looks at the type's code first, then its name.
func DeriveMode(t hrsdk.JustificationType) (Mode, bool) {
	if m, ok := ModeOf(t.Code); ok {
		return m, true
	}
	return ModeOf(t.Name)
}
