package chart

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
)

// ErrEmptyPayload is returned when the payload carries no chart data.
var ErrEmptyPayload = errors.New("empty chart payload")

// rawHouse accepts both "house" and "number" for the cusp index.
type rawHouse struct {
	House     *int    `json:"house"`
	Number    *int    `json:"number"`
	Longitude float64 `json:"longitude"`
	Sign      string  `json:"sign"`
	Degree    *int    `json:"degree"`
	Minute    *int    `json:"minute"`
	Second    *int    `json:"second"`
}

// rawPlanet tracks which optional fields were present in the payload.
type rawPlanet struct {
	Name       string          `json:"name"`
	Longitude  float64         `json:"longitude"`
	Latitude   float64         `json:"latitude"`
	Speed      float64         `json:"speed"`
	Sign       string          `json:"sign"`
	Degree     *int            `json:"degree"`
	Minute     *int            `json:"minute"`
	Second     *int            `json:"second"`
	House      int             `json:"house"`
	Retrograde *bool           `json:"retrograde"`
	Dignities  json.RawMessage `json:"dignities"`
}

type rawChart struct {
	Name      string      `json:"name"`
	Planets   []rawPlanet `json:"planets"`
	Houses    []rawHouse  `json:"houses"`
	Aspects   []Aspect    `json:"aspects"`
	Ascendant float64     `json:"ascendant"`
	Midheaven float64     `json:"midheaven"`
}

// Decode reads a backend chart payload and normalizes it.
func Decode(r io.Reader) (*Chart, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read chart payload: %w", err)
	}
	return DecodeBytes(data)
}

// DecodeBytes parses a backend chart payload and normalizes it.
func DecodeBytes(data []byte) (*Chart, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyPayload
	}

	var raw rawChart
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode chart JSON: %w", err)
	}

	c := &Chart{
		Name:      raw.Name,
		Aspects:   raw.Aspects,
		Ascendant: raw.Ascendant,
		Midheaven: raw.Midheaven,
	}

	for _, rp := range raw.Planets {
		p := Planet{
			Name:      rp.Name,
			Longitude: rp.Longitude,
			Latitude:  rp.Latitude,
			Speed:     rp.Speed,
			Sign:      rp.Sign,
			House:     rp.House,
			Dignities: rp.Dignities,
		}
		if rp.Retrograde != nil {
			p.Retrograde = *rp.Retrograde
		} else {
			p.Retrograde = rp.Speed < 0
		}
		if rp.Degree != nil && rp.Minute != nil && rp.Second != nil {
			p.Degree, p.Minute, p.Second = *rp.Degree, *rp.Minute, *rp.Second
		} else {
			p.Degree, p.Minute, p.Second = SplitDegrees(rp.Longitude)
		}
		c.Planets = append(c.Planets, p)
	}

	for i, rh := range raw.Houses {
		h := House{
			Longitude: rh.Longitude,
			Sign:      rh.Sign,
		}
		switch {
		case rh.House != nil:
			h.Number = *rh.House
		case rh.Number != nil:
			h.Number = *rh.Number
		default:
			h.Number = i + 1
		}
		if rh.Degree != nil && rh.Minute != nil && rh.Second != nil {
			h.Degree, h.Minute, h.Second = *rh.Degree, *rh.Minute, *rh.Second
		} else {
			h.Degree, h.Minute, h.Second = SplitDegrees(rh.Longitude)
		}
		c.Houses = append(c.Houses, h)
	}

	if c.IsEmpty() {
		return nil, ErrEmptyPayload
	}

	c.Normalize()
	return c, nil
}

// Normalize wraps longitudes into [0, 360), fills missing sign names and
// makes orbs non-negative. The applying flag is left as supplied.
func (c *Chart) Normalize() {
	if c == nil {
		return
	}
	c.Ascendant = Normalize(c.Ascendant)
	c.Midheaven = Normalize(c.Midheaven)

	for i := range c.Planets {
		p := &c.Planets[i]
		p.Longitude = Normalize(p.Longitude)
		if p.Sign == "" {
			p.Sign = SignOf(p.Longitude).Name
		}
	}

	for i := range c.Houses {
		h := &c.Houses[i]
		h.Longitude = Normalize(h.Longitude)
		if h.Sign == "" {
			h.Sign = SignOf(h.Longitude).Name
		}
	}

	for i := range c.Aspects {
		a := &c.Aspects[i]
		a.Orb = math.Abs(a.Orb)
	}
}
