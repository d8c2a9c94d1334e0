package applicant

import (
	"crypto/rand"
	"math/big"
)

// Ambiguous characters (I, l, O, 0) are excluded.
var passwordCharsets = []string{
	"ABCDEFGHJKMNPQRSTUVWXYZ",
	"abcdefghjkmnopqrstuvwxyz",
	"123456789",
}

// GenerateStrongPassword returns a random password of the given length with
// at least one character from each charset, shuffled.
func GenerateStrongPassword(length int) (string, error) {
	if length < len(passwordCharsets) {
		length = len(passwordCharsets)
	}

	pwd := make([]byte, 0, length)
	for _, charset := range passwordCharsets {
		c, err := randByte(charset)
		if err != nil {
			return "", err
		}
		pwd = append(pwd, c)
	}

	all := passwordCharsets[0] + passwordCharsets[1] + passwordCharsets[2]
	for i := len(passwordCharsets); i < length; i++ {
		c, err := randByte(all)
		if err != nil {
			return "", err
		}
		pwd = append(pwd, c)
	}

	// Fisher-Yates shuffle so the guaranteed characters are not positional
	for i := len(pwd) - 1; i > 0; i-- {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return "", err
		}
		j := n.Int64()
		pwd[i], pwd[j] = pwd[j], pwd[i]
	}
	return string(pwd), nil
}

func randByte(charset string) (byte, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
	if err != nil {
		return 0, err
	}
	return charset[n.Int64()], nil
}
