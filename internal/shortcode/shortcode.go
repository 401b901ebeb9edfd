// Package shortcode generates the random identifiers that stand in for
// shortened URLs.
package shortcode

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// Alphabet is the set of symbols a short code is drawn from.
const Alphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// Length is the number of symbols in every generated code.
const Length = 7

// Generate draws Length independent uniform symbols from Alphabet and
// concatenates them in draw order. It guarantees length and alphabet
// membership only; uniqueness against already stored codes is enforced at the
// persistence boundary, not here.
func Generate() (string, error) {
	result := make([]byte, Length)
	for i := range result {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(Alphabet))))
		if err != nil {
			return "", fmt.Errorf("shortcode: %w", err)
		}
		result[i] = Alphabet[num.Int64()]
	}

	return string(result), nil
}
