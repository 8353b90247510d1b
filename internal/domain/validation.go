package domain

import (
	"regexp"
	"strings"
)

var emailRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

func ValidEmail(s string) bool {
	return emailRe.MatchString(s)
}

// Пароль: только наличие и минимальная длина, остальное — на стороне формы
func ValidPassword(s string) bool {
	return len(s) >= 6
}

func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
