package utils

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

const (
	maxIDLength    = 100
	maxRouteIDs    = 20
	dateParamStyle = "2006-01-02"
)

var (
	// alphanumeric, underscore, hyphen, dot and colon, as found in GTFS and TransXChange IDs
	validIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_.:-]+$`)

	htmlTagPattern = regexp.MustCompile(`<[^>]*>`)
)

// ValidateID checks that an ID is non-empty, short and made of safe characters.
func ValidateID(id string) error {
	if id == "" {
		return errors.New("id cannot be empty")
	}
	if len(id) > maxIDLength {
		return fmt.Errorf("id too long (max %d characters)", maxIDLength)
	}
	if strings.Contains(id, "..") || !validIDPattern.MatchString(id) {
		return errors.New("id contains invalid characters")
	}
	return nil
}

// ValidateRouteIDs splits a comma-separated list of route IDs, dropping
// repeats, and validates each one.
func ValidateRouteIDs(raw string) ([]string, error) {
	var ids []string
	seen := map[string]bool{}
	for _, id := range strings.Split(raw, ",") {
		id = strings.TrimSpace(id)
		if err := ValidateID(id); err != nil {
			return nil, err
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	if len(ids) > maxRouteIDs {
		return nil, fmt.Errorf("too many routes (max %d)", maxRouteIDs)
	}
	return ids, nil
}

// ValidateDate validates date strings in YYYY-MM-DD format. Empty is allowed.
func ValidateDate(date string) error {
	if date == "" {
		return nil
	}
	if _, err := time.Parse(dateParamStyle, date); err != nil {
		return errors.New("invalid date format, use YYYY-MM-DD")
	}
	return nil
}

// ParseDate parses a YYYY-MM-DD date at midnight UTC. Empty gives nil.
func ParseDate(date string) (*time.Time, error) {
	if err := ValidateDate(date); err != nil || date == "" {
		return nil, err
	}
	t, _ := time.Parse(dateParamStyle, date)
	return &t, nil
}

// SanitizeInput removes HTML tags and surrounding whitespace.
func SanitizeInput(input string) string {
	return strings.TrimSpace(htmlTagPattern.ReplaceAllString(input, ""))
}
