package service

import (
	"crypto/rand"
	"math/big"
)

const (
	slugAlphabet    = "abcdefghijkmnopqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	slugLength      = 7
	slugMaxAttempts = 6
)

func randomSlug(length int) (string, error) {
	max := big.NewInt(int64(len(slugAlphabet)))
	buf := make([]byte, length)
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		buf[i] = slugAlphabet[n.Int64()]
	}
	return string(buf), nil
}

// generateSlug 生成全局唯一 slug，冲突时重试
func (s *LinkService) generateSlug() (string, error) {
	for i := 0; i < slugMaxAttempts; i++ {
		slug, err := randomSlug(slugLength)
		if err != nil {
			return "", err
		}
		exists, err := s.linkRepo.SlugExists(slug)
		if err != nil {
			return "", err
		}
		if !exists {
			return slug, nil
		}
	}
	return "", ErrSlugExhausted
}
