package model

import (
	"math"
	"regexp"
	"strings"
)

var (
	slugPattern  = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)
	colorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)
)

// ValidSlug reports whether s is a usable identifier for a game, map or category.
func ValidSlug(s string) bool {
	return slugPattern.MatchString(s)
}

// ValidColor reports whether s is a #RRGGBB hex color.
func ValidColor(s string) bool {
	return colorPattern.MatchString(s)
}

func checkRequired(record, path, value string) error {
	if strings.TrimSpace(value) == "" {
		return fieldErr(record, path, nil, "is required")
	}
	return nil
}

func checkSlug(record, path, value string) error {
	if err := checkRequired(record, path, value); err != nil {
		return err
	}
	if !ValidSlug(value) {
		return fieldErr(record, path, value, "must match %s", slugPattern.String())
	}
	return nil
}

func checkColor(record, path, value string) error {
	if err := checkRequired(record, path, value); err != nil {
		return err
	}
	if !ValidColor(value) {
		return fieldErr(record, path, value, "must be a #RRGGBB color")
	}
	return nil
}

// checkFraction accepts values in [0, 1]. NaN fails the comparison and is rejected.
func checkFraction(record, path string, value float64) error {
	if !(value >= 0 && value <= 1) {
		return fieldErr(record, path, value, "must be between 0.0 and 1.0")
	}
	return nil
}

func checkPositiveFloat(record, path string, value float64) error {
	if !(value > 0) || math.IsInf(value, 1) {
		return fieldErr(record, path, value, "must be a positive number")
	}
	return nil
}

func checkPositiveInt(record, path string, value int) error {
	if value <= 0 {
		return fieldErr(record, path, value, "must be a positive integer")
	}
	return nil
}
