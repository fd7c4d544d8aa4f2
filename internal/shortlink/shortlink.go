// Package shortlink derives the compact share codes assigned to recipes.
//
// Two strategies exist. HashGenerator is deterministic: the code is
// reproducible from the recipe id and a server-held secret. RandomGenerator
// draws a fixed-length alphanumeric code from crypto/rand. Whichever is
// configured, uniqueness is enforced by the database and a collision makes
// the recipe write fail; codes are never regenerated.
package shortlink

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

// Strategy names accepted by New.
const (
	StrategyHash   = "hash"
	StrategyRandom = "random"
)

// RandomLength is the length of codes produced by RandomGenerator.
const RandomLength = 8

const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// Generator produces the share code for a persisted recipe.
type Generator interface {
	// Code returns the code for recipe id. Implementations panic when id is
	// zero: a code must never be derived before the row exists.
	Code(id uint) string
}

// New returns the generator for the given strategy.
func New(strategy, secret string) (Generator, error) {
	switch strings.ToLower(strings.TrimSpace(strategy)) {
	case "", StrategyHash:
		if secret == "" {
			return nil, fmt.Errorf("shortlink: hash strategy requires a secret")
		}
		return HashGenerator{Secret: secret}, nil
	case StrategyRandom:
		return RandomGenerator{}, nil
	default:
		return nil, fmt.Errorf("shortlink: unknown strategy %q", strategy)
	}
}

// HashGenerator derives codes as the unpadded URL-safe base64 of the first
// six bytes of sha256(secret + decimal id). Output is always 8 characters.
type HashGenerator struct {
	Secret string
}

// Code implements Generator.
func (g HashGenerator) Code(id uint) string {
	mustHaveID(id)
	sum := sha256.Sum256([]byte(g.Secret + strconv.FormatUint(uint64(id), 10)))
	return strings.TrimRight(base64.URLEncoding.EncodeToString(sum[:6]), "=")
}

// RandomGenerator produces RandomLength alphanumeric characters.
type RandomGenerator struct{}

// Code implements Generator. The id only guards against use before insert.
func (RandomGenerator) Code(id uint) string {
	mustHaveID(id)
	var b strings.Builder
	b.Grow(RandomLength)
	max := big.NewInt(int64(len(alphabet)))
	for i := 0; i < RandomLength; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			panic(fmt.Sprintf("shortlink: read random: %v", err))
		}
		b.WriteByte(alphabet[n.Int64()])
	}
	return b.String()
}

func mustHaveID(id uint) {
	if id == 0 {
		panic("shortlink: code requested for a recipe without an id")
	}
}
