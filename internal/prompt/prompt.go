// Package prompt builds the generation instruction sent to the provider.
// Composition is fully deterministic: identical inputs always produce the
// same instruction text.
package prompt

import (
	"fmt"
	"math"
	"strings"
)

// AllowedLengths are the selectable target lengths in characters.
var AllowedLengths = []int{1000, 2000, 3000}

func LengthAllowed(n int) bool {
	for _, l := range AllowedLengths {
		if n == l {
			return true
		}
	}
	return false
}

// Band bounds for acceptable output length relative to the target.
const (
	bandMinRatio = 0.85
	bandMaxRatio = 1.10
)

// Structure is the plan derived from the target length: models follow a
// demonstrated shape far more reliably than a bare character count.
type Structure struct {
	Words      int
	Paragraphs int
	Sections   int
}

func StructureFor(targetLength int) Structure {
	words := int(math.Round(float64(targetLength) / 6.5))
	paragraphs := int(math.Round(float64(words) / 80))
	if paragraphs < 3 {
		paragraphs = 3
	}

	sections := 4
	switch {
	case targetLength <= 1200:
		sections = 2
	case targetLength <= 2200:
		sections = 3
	}

	return Structure{Words: words, Paragraphs: paragraphs, Sections: sections}
}

// LengthBand returns the acceptable [min, max] output length in characters.
func LengthBand(targetLength int) (int, int) {
	return int(math.Floor(float64(targetLength) * bandMinRatio)),
		int(math.Floor(float64(targetLength) * bandMaxRatio))
}

type Params struct {
	Topic        string
	TargetLength int
	Keywords     []string
}

func seoInstructions(keywords []string) string {
	if len(keywords) == 0 {
		return ""
	}

	var list strings.Builder
	for i, kw := range keywords {
		fmt.Fprintf(&list, "  %d. %q\n", i+1, kw)
	}

	return fmt.Sprintf(`
OPTYMALIZACJA SEO — FRAZY KLUCZOWE:
%s
Zasady SEO:
- Fraza główna (%q) MUSI wystąpić w <h1> i 2-3× w tekście
- Pozostałe frazy rozmieść naturalnie w <h2>, <h3> lub <p>
- Używaj odmian gramatycznych i synonimów
- ZAKAZ keyword stuffingu — tekst musi brzmieć naturalnie`, list.String(), keywords[0])
}

// Build assembles the full instruction: persona and language rules, the
// output format restricted to a small HTML subset (Markdown forbidden, so
// downstream stripping stays trivial), a worked example of the target
// tier, optional SEO constraints, and hard length bounds.
func Build(p Params) string {
	structure := StructureFor(p.TargetLength)
	minChars, maxChars := LengthBand(p.TargetLength)

	return fmt.Sprintf(`Jesteś doświadczonym, profesjonalnym polskim copywriterem i redaktorem.
Piszesz WYŁĄCZNIE w języku polskim — poprawnym, naturalnym, bogatym stylistycznie.

ZASADY JĘZYKA POLSKIEGO:
- Pisz poprawną polszczyzną — gramatyka, ortografia, interpunkcja
- Używaj naturalnych, płynnych zdań — NIE tłumacz z angielskiego
- Stosuj polskie zwroty i frazeologię (nie kalki językowe)
- Unikaj sztucznego, „robociego" stylu — pisz jak doświadczony dziennikarz
- Każde zdanie musi być gramatycznie poprawne i zakończone
- Akapity muszą płynnie na siebie przechodzić (spójność logiczna)
- Używaj różnorodnego słownictwa — NIE powtarzaj tych samych słów
- Pisz konkretnie i merytorycznie — każde zdanie musi wnosić wartość

FORMAT: CZYSTY HTML (bez Markdown, bez <!DOCTYPE>, bez komentarzy)
Używaj TYLKO: <h1> <h2> <h3> <p> <strong> <em> <ul> <li> <ol>
NIE używaj: # ## ### * - (Markdown)
Rozpocznij od: <h1>

TEMAT: %s

%s

%s

KRYTYCZNE ZASADY DŁUGOŚCI:
- MINIMUM: %d znaków
- MAKSIMUM: %d znaków
- IDEAŁ: ~%d znaków
- Licz WSZYSTKO łącznie: tagi HTML + tekst + spacje
- Gdy zbliżasz się do limitu → ZAKOŃCZ naturalnym zdaniem i </p>
- NIE PISZ WIĘCEJ niż %d znaków!

STRUKTURA:
- <h1>: 1 (tytuł)
- <h2>: %d sekcji
- <p>: %d akapitów (3-5 zdań każdy)

NAPISZ TEKST na temat "%s" (%d-%d znaków):`,
		p.Topic,
		lengthExample(p.TargetLength),
		seoInstructions(p.Keywords),
		minChars, maxChars, p.TargetLength, maxChars,
		structure.Sections, structure.Paragraphs,
		p.Topic, minChars, maxChars,
	)
}
