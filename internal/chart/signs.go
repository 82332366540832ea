package chart

import "math"

// Element is the classical element of a zodiac sign.
type Element string

const (
	ElementFire  Element = "fire"
	ElementEarth Element = "earth"
	ElementAir   Element = "air"
	ElementWater Element = "water"
)

// SignInfo contains metadata about a zodiac sign.
type SignInfo struct {
	Name    string
	Glyph   rune
	Abbrev  string
	Element Element
	Start   float64 // longitude where the sign begins
}

// Signs lists the twelve signs in zodiacal order starting at 0° Aries.
var Signs = [12]SignInfo{
	{Name: "Aries", Glyph: '♈', Abbrev: "Ari", Element: ElementFire, Start: 0},
	{Name: "Taurus", Glyph: '♉', Abbrev: "Tau", Element: ElementEarth, Start: 30},
	{Name: "Gemini", Glyph: '♊', Abbrev: "Gem", Element: ElementAir, Start: 60},
	{Name: "Cancer", Glyph: '♋', Abbrev: "Can", Element: ElementWater, Start: 90},
	{Name: "Leo", Glyph: '♌', Abbrev: "Leo", Element: ElementFire, Start: 120},
	{Name: "Virgo", Glyph: '♍', Abbrev: "Vir", Element: ElementEarth, Start: 150},
	{Name: "Libra", Glyph: '♎', Abbrev: "Lib", Element: ElementAir, Start: 180},
	{Name: "Scorpio", Glyph: '♏', Abbrev: "Sco", Element: ElementWater, Start: 210},
	{Name: "Sagittarius", Glyph: '♐', Abbrev: "Sag", Element: ElementFire, Start: 240},
	{Name: "Capricorn", Glyph: '♑', Abbrev: "Cap", Element: ElementEarth, Start: 270},
	{Name: "Aquarius", Glyph: '♒', Abbrev: "Aqu", Element: ElementAir, Start: 300},
	{Name: "Pisces", Glyph: '♓', Abbrev: "Pis", Element: ElementWater, Start: 330},
}

// PlanetGlyphs maps planet names to their astronomical symbols.
var PlanetGlyphs = map[string]rune{
	"Sun":        '☉',
	"Moon":       '☽',
	"Mercury":    '☿',
	"Venus":      '♀',
	"Mars":       '♂',
	"Jupiter":    '♃',
	"Saturn":     '♄',
	"Uranus":     '♅',
	"Neptune":    '♆',
	"Pluto":      '♇',
	"North Node": '☊',
	"South Node": '☋',
	"Chiron":     '⚷',
	"Lilith":     '⚸',
}

// PlanetGlyph returns the symbol for a planet, falling back to its initial.
func PlanetGlyph(name string) rune {
	if g, ok := PlanetGlyphs[name]; ok {
		return g
	}
	for _, r := range name {
		return r
	}
	return '?'
}

// Normalize wraps a longitude into [0, 360).
func Normalize(lon float64) float64 {
	if math.IsNaN(lon) || math.IsInf(lon, 0) {
		return 0
	}
	lon = math.Mod(lon, 360)
	if lon < 0 {
		lon += 360
	}
	// math.Mod of a tiny negative can round back up to 360
	if lon >= 360 {
		lon = 0
	}
	return lon
}

// SignIndex returns the 0-11 index of the sign containing lon.
func SignIndex(lon float64) int {
	return int(Normalize(lon)/30) % 12
}

// SignOf returns the sign containing lon.
func SignOf(lon float64) SignInfo {
	return Signs[SignIndex(lon)]
}

// SplitDegrees returns the sign-relative degree, minute and second of lon.
func SplitDegrees(lon float64) (deg, min, sec int) {
	rel := math.Mod(Normalize(lon), 30)
	total := int(math.Floor(rel*3600 + 1e-6))
	deg = total / 3600
	min = (total % 3600) / 60
	sec = total % 60
	if deg >= 30 {
		deg = 29
		min, sec = 59, 59
	}
	return deg, min, sec
}

// FormatPosition renders lon as "10°04'30\" Aries".
func FormatPosition(lon float64) string {
	d, m, s := SplitDegrees(lon)
	return formatDMS(d, m, s) + " " + SignOf(lon).Name
}
