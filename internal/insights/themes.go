package insights

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/felixdelbarrio/bug-resolution-radar/internal/incident"
	"github.com/felixdelbarrio/bug-resolution-radar/internal/textnorm"
)

// OtherTheme collects summaries no rule matches.
const OtherTheme = "Other"

// Theme is a named keyword rule for topic classification.
type Theme struct {
	Name     string   `toml:"name" json:"name"`
	Keywords []string `toml:"keywords" json:"keywords"`
}

// DefaultThemes are the built-in functional areas, checked in order.
var DefaultThemes = []Theme{
	{Name: "Softoken", Keywords: []string{"softoken", "token", "firma", "otp"}},
	{Name: "Credit", Keywords: []string{"credito", "cvv", "tarjeta", "tdc"}},
	{Name: "Monetary", Keywords: []string{"monetarias", "saldo", "nomina"}},
	{Name: "Tasks", Keywords: []string{"tareas", "task", "acciones", "dashboard"}},
	{Name: "Payments", Keywords: []string{"pago", "pagos", "tpv", "cobranza"}},
	{Name: "Transfers", Keywords: []string{"transferencia", "spei", "swift", "divisas"}},
	{Name: "Login & access", Keywords: []string{"login", "acceso", "face id", "biometr", "password", "tokenbnc"}},
	{Name: "Notifications", Keywords: []string{"notificacion", "push", "mensaje"}},
}

type themesFile struct {
	Themes []Theme `toml:"theme"`
}

// LoadThemes reads [[theme]] tables from a TOML file.
func LoadThemes(path string) ([]Theme, error) {
	var f themesFile
	if _, err := toml.DecodeFile(path, &f); err != nil {
		return nil, fmt.Errorf("failed to parse themes file: %w", err)
	}
	return validateThemes(f.Themes)
}

// ParseThemes reads [[theme]] tables from TOML text.
func ParseThemes(data string) ([]Theme, error) {
	var f themesFile
	if _, err := toml.Decode(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse themes: %w", err)
	}
	return validateThemes(f.Themes)
}

func validateThemes(themes []Theme) ([]Theme, error) {
	if len(themes) == 0 {
		return nil, fmt.Errorf("no themes defined")
	}
	for i, t := range themes {
		if strings.TrimSpace(t.Name) == "" {
			return nil, fmt.Errorf("theme %d has no name", i+1)
		}
		if strings.EqualFold(strings.TrimSpace(t.Name), OtherTheme) {
			return nil, fmt.Errorf("theme name %q is reserved", OtherTheme)
		}
		if len(t.Keywords) == 0 {
			return nil, fmt.Errorf("theme %q has no keywords", t.Name)
		}
	}
	return themes, nil
}

// wordText folds s and keeps only its alphanumeric words.
func wordText(s string) string {
	return strings.Join(tokenRe.FindAllString(textnorm.Fold(s), -1), " ")
}

// ClassifyTheme returns the first theme with a keyword occurring as a whole
// word in the folded summary, or OtherTheme.
func ClassifyTheme(summary string, themes []Theme) string {
	text := wordText(summary)
	if text == "" {
		return OtherTheme
	}
	for _, t := range themes {
		for _, kw := range t.Keywords {
			if textnorm.ContainsPhrase(text, wordText(kw)) {
				return t.Name
			}
		}
	}
	return OtherTheme
}

// ThemeCounts tallies incidents with a non-blank summary per theme.
func ThemeCounts(ds incident.Dataset, themes []Theme) map[string]int {
	out := map[string]int{}
	for _, inc := range ds {
		if strings.TrimSpace(inc.Summary) == "" {
			continue
		}
		out[ClassifyTheme(inc.Summary, themes)]++
	}
	return out
}

// TopTheme returns the largest theme other than OtherTheme.
func TopTheme(ds incident.Dataset, themes []Theme) (incident.LabelCount, bool) {
	for _, lc := range incident.Ranked(ThemeCounts(ds, themes)) {
		if lc.Label != OtherTheme {
			return lc, true
		}
	}
	return incident.LabelCount{}, false
}
