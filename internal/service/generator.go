package service

import (
	"crypto/rand"
	"fmt"
)

const (
	ShortCodeLength = 6

	// URL-safe alphabet of 64 symbols, so every random byte maps evenly.
	shortCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789_-"
)

// CodeGenerator produces candidate short codes. Uniqueness is left to
// the store.
type CodeGenerator interface {
	Generate() (string, error)
}

type RandomCodeGenerator struct{}

func (RandomCodeGenerator) Generate() (string, error) {
	buf := make([]byte, ShortCodeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("rand read: %w", err)
	}

	for i, b := range buf {
		buf[i] = shortCodeAlphabet[int(b)&(len(shortCodeAlphabet)-1)]
	}

	return string(buf), nil
}
