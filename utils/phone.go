package utils

import (
	"errors"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/width"
)

var (
	ErrInvalidPhone = errors.New("phone number must be in international format, e.g. +97412345678")

	phonePattern = regexp.MustCompile(`^\+[1-9]\d{7,14}$`)
)

// NormalizePhone folds full-width and Arabic-Indic digits to ASCII, drops
// common separators, turns a leading 00 into + and validates the E.164 shape.
func NormalizePhone(raw string) (string, error) {
	t := transform.Chain(
		width.Fold,
		runes.Map(foldArabicDigit),
		runes.Remove(runes.Predicate(isPhoneSeparator)),
	)
	phone, _, err := transform.String(t, strings.TrimSpace(raw))
	if err != nil {
		return "", ErrInvalidPhone
	}

	if strings.HasPrefix(phone, "00") {
		phone = "+" + phone[2:]
	}
	if !phonePattern.MatchString(phone) {
		return "", ErrInvalidPhone
	}
	return phone, nil
}

// MaskPhone keeps the country prefix and last four digits: +974****5678.
func MaskPhone(phone string) string {
	if len(phone) <= 8 {
		return phone
	}
	return phone[:4] + strings.Repeat("*", len(phone)-8) + phone[len(phone)-4:]
}

func foldArabicDigit(r rune) rune {
	switch {
	case r >= '٠' && r <= '٩':
		return '0' + (r - '٠')
	case r >= '۰' && r <= '۹':
		return '0' + (r - '۰')
	}
	return r
}

func isPhoneSeparator(r rune) bool {
	switch r {
	case '-', '(', ')', '.', '/':
		return true
	}
	return unicode.IsSpace(r)
}
