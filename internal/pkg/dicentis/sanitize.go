package dicentis

import "strings"

// sanitizeIdentifier maps a free-text device name onto a stable key
// fragment: every rune outside [A-Za-z0-9] becomes an underscore, case is
// preserved. Deterministic and total; two names may collide, which the
// store resolves last-write-wins.
func sanitizeIdentifier(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

func seatKey(name, screenLine string) string {
	return sanitizeIdentifier(name) + "_" + sanitizeIdentifier(screenLine)
}

func interpreterKey(boothNumber, deskNumber string) string {
	return boothNumber + "_" + deskNumber
}

// naturalCompare orders strings with embedded numbers the way an operator
// expects: Seat 2 before Seat 10. Digit runs compare by value, everything
// else byte-wise.
func naturalCompare(a, b string) int {
	for a != "" && b != "" {
		aRun, aNum, aRest := nextRun(a)
		bRun, bNum, bRest := nextRun(b)
		if aNum && bNum {
			at, bt := strings.TrimLeft(aRun, "0"), strings.TrimLeft(bRun, "0")
			if len(at) != len(bt) {
				if len(at) < len(bt) {
					return -1
				}
				return 1
			}
			if at != bt {
				if at < bt {
					return -1
				}
				return 1
			}
		} else if aRun != bRun {
			if aRun < bRun {
				return -1
			}
			return 1
		}
		a, b = aRest, bRest
	}
	switch {
	case a == "" && b == "":
		return 0
	case a == "":
		return -1
	default:
		return 1
	}
}

// nextRun splits off the leading run of digits or non-digits.
func nextRun(s string) (run string, isNum bool, rest string) {
	isNum = s[0] >= '0' && s[0] <= '9'
	for i := 0; i < len(s); i++ {
		digit := s[i] >= '0' && s[i] <= '9'
		if digit != isNum {
			return s[:i], isNum, s[i:]
		}
	}
	return s, isNum, ""
}
