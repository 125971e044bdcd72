package utils

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Unit tags the unit written next to a magnitude.
type Unit int

const (
	UnitNone Unit = iota
	UnitArea
	UnitCurrency
)

// Magnitude is a number found in text. Area magnitudes are in hectares.
type Magnitude struct {
	Value   float64
	Unit    Unit
	Spelled bool
	// Next is the token right after the number and its unit, if any.
	Next string
}

var (
	thousandsDot   = regexp.MustCompile(`^\d{1,3}(\.\d{3})+$`)
	thousandsComma = regexp.MustCompile(`^\d{1,3}(,\d{3}){2,}$`)
	digitSuffix    = regexp.MustCompile(`^(\d[\d.,]*)([a-z]+)$`)
	centsSuffix    = regexp.MustCompile(`,\d{2}\s*$`)
	nonDigits      = regexp.MustCompile(`\D`)
)

var numberWords = map[string]float64{
	"zero": 0, "um": 1, "uma": 1, "dois": 2, "duas": 2, "tres": 3, "quatro": 4,
	"cinco": 5, "seis": 6, "sete": 7, "oito": 8, "nove": 9, "dez": 10, "onze": 11,
	"doze": 12, "treze": 13, "quatorze": 14, "catorze": 14, "quinze": 15,
	"dezesseis": 16, "dezessete": 17, "dezoito": 18, "dezenove": 19, "vinte": 20,
	"trinta": 30, "quarenta": 40, "cinquenta": 50, "sessenta": 60, "setenta": 70,
	"oitenta": 80, "noventa": 90, "cem": 100, "cento": 100, "duzentos": 200,
	"duzentas": 200, "trezentos": 300, "trezentas": 300, "quatrocentos": 400,
	"quatrocentas": 400, "quinhentos": 500, "quinhentas": 500, "seiscentos": 600,
	"seiscentas": 600, "setecentos": 700, "setecentas": 700, "oitocentos": 800,
	"oitocentas": 800, "novecentos": 900, "novecentas": 900,
}

var multiplierWords = map[string]float64{
	"mil": 1e3, "milhao": 1e6, "milhoes": 1e6, "bilhao": 1e9, "bilhoes": 1e9,
}

// Abbreviated multipliers only count right after digits ("500k", "2 mi").
var digitMultipliers = map[string]float64{
	"k": 1e3, "mi": 1e6, "mm": 1e6, "bi": 1e9,
}

var areaUnits = map[string]float64{
	"ha": 1, "hectare": 1, "hectares": 1, "alqueire": 4.84, "alqueires": 4.84,
	"m2": 0.0001,
}

// ParseMagnitude returns the first number found in text. Digit forms win
// over spelled-out words; the second result is false when text holds none.
func ParseMagnitude(text string) (float64, bool) {
	mags := ExtractMagnitudes(Normalize(text), false)
	for _, m := range mags {
		if !m.Spelled {
			return m.Value, true
		}
	}
	if len(mags) > 0 {
		return mags[0].Value, true
	}
	return 0, false
}

// ExtractMagnitudes finds every number in tokens, in order. With
// skipArticles, a lone "um"/"uma" is read as an article, not a number.
func ExtractMagnitudes(tokens []string, skipArticles bool) []Magnitude {
	tokens = splitDigitSuffixes(tokens)
	var out []Magnitude

	for i := 0; i < len(tokens); {
		if !startsRun(tokens[i]) {
			i++
			continue
		}
		value, spelled, end := readRun(tokens, i)
		if end == i {
			i++
			continue
		}
		if skipArticles && spelled && end == i+1 && (tokens[i] == "um" || tokens[i] == "uma") {
			i = end
			continue
		}

		m := Magnitude{Value: value, Spelled: spelled}
		next := end
		if end < len(tokens) {
			if factor, ok := areaUnits[tokens[end]]; ok {
				if factor == 4.84 && end+1 < len(tokens) && tokens[end+1] == "paulista" {
					factor = 2.42
				}
				m.Unit = UnitArea
				m.Value = value * factor
				next = end + 1
			} else if end+1 < len(tokens) && tokens[end] == "metros" && tokens[end+1] == "quadrados" {
				m.Unit = UnitArea
				m.Value = value * 0.0001
				next = end + 2
			} else if tokens[end] == "reais" || tokens[end] == "real" {
				m.Unit = UnitCurrency
				next = end + 1
			} else if end+1 < len(tokens) && tokens[end] == "de" && tokens[end+1] == "reais" {
				m.Unit = UnitCurrency
				next = end + 2
			}
		}
		if m.Unit == UnitNone && i > 0 && tokens[i-1] == "r" {
			m.Unit = UnitCurrency
		}
		if next < len(tokens) {
			m.Next = tokens[next]
		}
		out = append(out, m)
		i = next
	}
	return out
}

func startsRun(tok string) bool {
	if tok == "" {
		return false
	}
	if tok[0] >= '0' && tok[0] <= '9' {
		return true
	}
	_, word := numberWords[tok]
	_, mult := multiplierWords[tok]
	return word || mult
}

// readRun converts the numeric run starting at tokens[start], summing
// place-value groups left to right. It returns the index after the run.
func readRun(tokens []string, start int) (float64, bool, int) {
	var total, current, lastMult float64
	spelled := true
	i := start

	if d, ok := parseDigits(tokens[i]); ok {
		current = d
		spelled = false
		i++
		if i < len(tokens) {
			if mult, ok := digitMultipliers[tokens[i]]; ok {
				return current * mult, false, i + 1
			}
		}
	}

	for i < len(tokens) {
		tok := tokens[i]
		if v, ok := numberWords[tok]; ok && spelled {
			current += v
			i++
			continue
		}
		if mult, ok := multiplierWords[tok]; ok {
			if current == 0 && total == 0 {
				current = 1
			}
			// A multiplier larger than every earlier one scales the whole
			// run: "mil e duzentos milhões" is 1.2 billion.
			if mult > lastMult {
				total = (total + current) * mult
				lastMult = mult
			} else {
				total += current * mult
			}
			current = 0
			i++
			continue
		}
		// "e" joins word groups only: "cento e vinte", not "100 e 200".
		if tok == "e" && i+1 < len(tokens) && i > start {
			if _, ok := numberWords[tokens[i+1]]; ok {
				spelled = true
				i++
				continue
			}
		}
		break
	}
	return total + current, spelled && !startsWithDigit(tokens[start]), i
}

func startsWithDigit(tok string) bool {
	return tok != "" && tok[0] >= '0' && tok[0] <= '9'
}

func parseDigits(tok string) (float64, bool) {
	if !startsWithDigit(tok) {
		return 0, false
	}
	s := tok
	hasComma := strings.Contains(s, ",")
	hasDot := strings.Contains(s, ".")
	switch {
	case hasComma && hasDot:
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	case hasComma:
		if thousandsComma.MatchString(s) {
			s = strings.ReplaceAll(s, ",", "")
		} else {
			s = strings.Replace(s, ",", ".", 1)
		}
	case hasDot:
		if thousandsDot.MatchString(s) {
			s = strings.ReplaceAll(s, ".", "")
		}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func splitDigitSuffixes(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if m := digitSuffix.FindStringSubmatch(tok); m != nil {
			out = append(out, m[1], m[2])
			continue
		}
		out = append(out, tok)
	}
	return out
}

// ParseCurrencyAnswer reads a price typed by a seller. A trailing ",dd"
// cents group is dropped and every other non-digit stripped; multiplier
// and spelled forms ("1,5 milhão") go through ParseMagnitude.
func ParseCurrencyAnswer(raw string) (int64, bool) {
	folded := Fold(raw)
	hasMultiplier := false
	for _, tok := range Normalize(raw) {
		if _, ok := multiplierWords[tok]; ok {
			hasMultiplier = true
			break
		}
	}
	if hasMultiplier || !strings.ContainsAny(folded, "0123456789") {
		v, ok := ParseMagnitude(raw)
		if !ok || v <= 0 {
			return 0, false
		}
		return int64(math.Round(v)), true
	}
	digits := nonDigits.ReplaceAllString(centsSuffix.ReplaceAllString(folded, ""), "")
	if digits == "" {
		return 0, false
	}
	v, err := strconv.ParseInt(digits, 10, 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}

// FormatCurrency renders an amount in reais with pt-BR grouping ("R$ 1.500.000").
func FormatCurrency(v int64) string {
	p := message.NewPrinter(language.BrazilianPortuguese)
	return p.Sprintf("R$ %d", v)
}

// FormatNumber renders a number with pt-BR separators, dropping a zero fraction.
func FormatNumber(v float64) string {
	p := message.NewPrinter(language.BrazilianPortuguese)
	if v == math.Trunc(v) {
		return p.Sprintf("%d", int64(v))
	}
	return p.Sprintf("%.2f", v)
}
