package randstr

import (
	"crypto/rand"
	"math/big"
)

type Generator struct {
	alphabet []byte
}

func New(alphabet []byte) *Generator {
	return &Generator{alphabet: alphabet}
}

func (g Generator) GenerateRandomString(length int) string {
	max := big.NewInt(int64(len(g.alphabet)))

	b := make([]byte, length)
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand failing means the platform entropy source is broken
			panic(err)
		}
		b[i] = g.alphabet[n.Int64()]
	}

	return string(b)
}
