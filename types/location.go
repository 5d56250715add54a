package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
)

// Location is a WGS84 point. It accepts several JSON shapes:
//
//	{"lat": 42.3, "lng": -83.0}
//	{"latitude": 42.3, "longitude": -83.0}
//	{"type": "Point", "coordinates": [-83.0, 42.3]}
//	"POINT(-83.0 42.3)"
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

var wktPoint = regexp.MustCompile(`(?i)^\s*(?:SRID=\d+;)?POINT\s*\(\s*(-?[\d.]+)\s+(-?[\d.]+)\s*\)\s*$`)

func (l *Location) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return fmt.Errorf("location is null")
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		return l.parseWKT(s)
	}

	var raw struct {
		Lat         *float64  `json:"lat"`
		Lng         *float64  `json:"lng"`
		Lon         *float64  `json:"lon"`
		Latitude    *float64  `json:"latitude"`
		Longitude   *float64  `json:"longitude"`
		Type        string    `json:"type"`
		Coordinates []float64 `json:"coordinates"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("location: %w", err)
	}

	switch {
	case len(raw.Coordinates) == 2:
		l.Longitude, l.Latitude = raw.Coordinates[0], raw.Coordinates[1]
	case raw.Lat != nil && (raw.Lng != nil || raw.Lon != nil):
		l.Latitude = *raw.Lat
		if raw.Lng != nil {
			l.Longitude = *raw.Lng
		} else {
			l.Longitude = *raw.Lon
		}
	case raw.Latitude != nil && raw.Longitude != nil:
		l.Latitude, l.Longitude = *raw.Latitude, *raw.Longitude
	default:
		return fmt.Errorf("location: missing coordinates")
	}
	return l.check()
}

func (l *Location) parseWKT(s string) error {
	m := wktPoint.FindStringSubmatch(s)
	if m == nil {
		return fmt.Errorf("location: unrecognized point %q", s)
	}
	lng, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return fmt.Errorf("location: %w", err)
	}
	lat, err := strconv.ParseFloat(m[2], 64)
	if err != nil {
		return fmt.Errorf("location: %w", err)
	}
	l.Latitude, l.Longitude = lat, lng
	return l.check()
}

func (l *Location) check() error {
	if l.Latitude < -90 || l.Latitude > 90 || l.Longitude < -180 || l.Longitude > 180 {
		return fmt.Errorf("location: coordinates out of range (%g, %g)", l.Latitude, l.Longitude)
	}
	return nil
}
