package filter

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Duration constants.
const (
	Day   = 24 * time.Hour
	Week  = 7 * Day
	Month = 30 * Day
	Year  = 365 * Day
)

var (
	// ErrInvalidDuration indicates that the duration string could not be parsed.
	ErrInvalidDuration = errors.New("invalid duration format")

	// ErrNegativeValue indicates that a negative value was provided.
	ErrNegativeValue = errors.New("value cannot be negative")

	// ErrInvalidCriterion indicates a malformed or unknown search criterion.
	ErrInvalidCriterion = errors.New("invalid search criterion")

	// ErrInvalidDimensions indicates a dimensions value not of the form WxH.
	ErrInvalidDimensions = errors.New("invalid dimensions")
)

var durationPattern = regexp.MustCompile(`(?i)^\s*([0-9]+(?:\.[0-9]+)?)\s*(d|w|mo|y)\s*$`)

// ParseDuration parses "30d", "2w", "3mo" and "1y" in addition to
// everything time.ParseDuration accepts.
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty string", ErrInvalidDuration)
	}
	if strings.HasPrefix(s, "-") {
		return 0, ErrNegativeValue
	}

	matches := durationPattern.FindStringSubmatch(s)
	if matches == nil {
		d, err := time.ParseDuration(s)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, s)
		}
		return d, nil
	}

	value, err := strconv.ParseFloat(matches[1], 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, s)
	}

	var multiplier time.Duration
	switch strings.ToLower(matches[2]) {
	case "d":
		multiplier = Day
	case "w":
		multiplier = Week
	case "mo":
		multiplier = Month
	default:
		multiplier = Year
	}

	return time.Duration(value * float64(multiplier)), nil
}

// Criteria are the search terms accepted as key=value arguments.
type Criteria struct {
	Name   string
	Year   int
	Width  int
	Height int
}

// Empty reports whether no criterion is set.
func (c Criteria) Empty() bool {
	return c == Criteria{}
}

// ParseCriteria parses arguments of the form name=<text>, date=<yyyy>
// (alias year) and dimensions=<W>x<H>. Later keys override earlier ones.
func ParseCriteria(args []string) (Criteria, error) {
	var c Criteria
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok {
			return Criteria{}, fmt.Errorf("%w: %q is not key=value", ErrInvalidCriterion, arg)
		}
		value = strings.TrimSpace(value)

		switch strings.ToLower(strings.TrimSpace(key)) {
		case "name":
			c.Name = value
		case "date", "year":
			year, err := strconv.Atoi(value)
			if err != nil || year <= 0 || len(value) != 4 {
				return Criteria{}, fmt.Errorf("%w: year %q", ErrInvalidCriterion, value)
			}
			c.Year = year
		case "dimensions", "dim":
			w, h, err := ParseDimensions(value)
			if err != nil {
				return Criteria{}, err
			}
			c.Width, c.Height = w, h
		default:
			return Criteria{}, fmt.Errorf("%w: unknown key %q", ErrInvalidCriterion, key)
		}
	}
	return c, nil
}

// ParseDimensions parses "1920x1080". The separator may be x, X or ×, with
// optional spaces around the numbers.
func ParseDimensions(s string) (width, height int, err error) {
	normalized := strings.NewReplacer("X", "x", "×", "x").Replace(s)
	ws, hs, ok := strings.Cut(normalized, "x")
	if !ok {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidDimensions, s)
	}

	width, err = strconv.Atoi(strings.TrimSpace(ws))
	if err != nil || width <= 0 {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidDimensions, s)
	}
	height, err = strconv.Atoi(strings.TrimSpace(hs))
	if err != nil || height <= 0 {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidDimensions, s)
	}
	return width, height, nil
}
