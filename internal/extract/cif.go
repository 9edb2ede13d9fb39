package extract

import (
	"regexp"
	"strings"
)

// cifShape matches a normalized CIF: organization letter, seven digits,
// control character.
var cifShape = regexp.MustCompile(`^[ABCDEFGHJKLMNPQRSUVW]\d{7}[0-9A-J]$`)

// control letters indexed by control digit.
const cifControlLetters = "JABCDEFGHI"

// NormalizeCIF strips separators and uppercases a raw CIF token.
func NormalizeCIF(raw string) string {
	s := strings.ToUpper(strings.TrimSpace(raw))
	s = strings.NewReplacer("-", "", ".", "", " ", "").Replace(s)
	return s
}

// ValidateCIF verifies the control character of a Spanish CIF.
//
// The checksum sums the even-position digits plus the decimal digits of the
// doubled odd-position digits; the control is (10 - sum%10) % 10, expressed
// as a digit or as a letter depending on the organization class.
func ValidateCIF(raw string) bool {
	cif := NormalizeCIF(raw)
	if !cifShape.MatchString(cif) {
		return false
	}

	sum := 0
	for i := 1; i <= 7; i++ {
		d := int(cif[i] - '0')
		if i%2 == 1 {
			d *= 2
			sum += d/10 + d%10
		} else {
			sum += d
		}
	}
	digit := (10 - sum%10) % 10
	letter := cifControlLetters[digit]
	ctrl := cif[8]

	switch cif[0] {
	case 'K', 'N', 'P', 'Q', 'R', 'S', 'W':
		// these organization classes always use a letter control
		return ctrl == letter
	case 'A', 'B', 'E', 'H':
		// these always use a digit control
		return ctrl == byte('0'+digit)
	default:
		return ctrl == byte('0'+digit) || ctrl == letter
	}
}
