package models

import (
	"sort"
	"strings"
	"unicode"
)

// Student is a roster entry.
type Student struct {
	ID         string `json:"_id"`
	RollNumber string `json:"rollNumber"`
	Name       string `json:"name"`
}

// SortStudents orders students by roll number in place. Rolls are compared by
// the number formed from their digits, digit-less rolls sort last, and ties
// fall back to a plain string comparison. The sort is stable.
func SortStudents(students []Student) {
	sort.SliceStable(students, func(i, j int) bool {
		return CompareRollNumbers(students[i].RollNumber, students[j].RollNumber) < 0
	})
}

// CompareRollNumbers returns -1, 0 or 1.
func CompareRollNumbers(a, b string) int {
	ad, aok := rollDigits(a)
	bd, bok := rollDigits(b)
	switch {
	case aok && bok:
		if c := compareDigits(ad, bd); c != 0 {
			return c
		}
	case aok:
		return -1
	case bok:
		return 1
	}
	return strings.Compare(a, b)
}

// rollDigits extracts the ASCII digits of a roll without leading zeros. The
// result is compared as a decimal string so long rolls never overflow.
func rollDigits(roll string) (string, bool) {
	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) && r < unicode.MaxASCII {
			return r
		}
		return -1
	}, roll)
	if digits == "" {
		return "", false
	}
	return strings.TrimLeft(digits, "0"), true
}

func compareDigits(a, b string) int {
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	return strings.Compare(a, b)
}
