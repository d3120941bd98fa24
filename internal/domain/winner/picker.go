package winner

import (
	"crypto/rand"
	"errors"
	"math/big"
)

// Picker returns an index in [0, n).
type Picker interface {
	Pick(n int) (int, error)
}

// CryptoPicker draws with crypto/rand so outcomes cannot be predicted.
type CryptoPicker struct{}

// Pick returns a uniform index in [0, n).
func (CryptoPicker) Pick(n int) (int, error) {
	if n <= 0 {
		return 0, errors.New("pick from empty set")
	}
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, err
	}
	return int(v.Int64()), nil
}
