package service

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	tokenIssuer        = "earnko"
	adminTokenAudience = "earnko-admin"
	tokenLeeway        = 30 * time.Second
)

// ErrTokenInvalid 令牌签名、有效期或声明不合法
var ErrTokenInvalid = errors.New("token invalid")

func newRegisteredClaims(subject, audience string, ttl time.Duration, now time.Time) jwt.RegisteredClaims {
	rc := jwt.RegisteredClaims{
		Issuer:    tokenIssuer,
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
	}
	if audience != "" {
		rc.Audience = jwt.ClaimStrings{audience}
	}
	return rc
}

func signHS256(claims jwt.Claims, secret string) (string, error) {
	if secret == "" {
		return "", errors.New("jwt secret is empty")
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// parseHS256 只接受 HS256；audience/issuer 为空时不校验对应声明
func parseHS256(raw, secret, audience, issuer string, claims jwt.Claims) error {
	if secret == "" || raw == "" {
		return ErrTokenInvalid
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(tokenLeeway),
		jwt.WithExpirationRequired(),
	}
	if audience != "" {
		opts = append(opts, jwt.WithAudience(audience))
	}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	token, err := jwt.NewParser(opts...).ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return ErrTokenInvalid
	}
	return nil
}

// ParseAdminToken 校验管理员令牌（固定 issuer 与 audience）
func ParseAdminToken(raw, secret string) (*JWTClaims, error) {
	claims := &JWTClaims{}
	if err := parseHS256(raw, secret, adminTokenAudience, tokenIssuer, claims); err != nil {
		return nil, err
	}
	if claims.AdminID == 0 {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// ParseUserToken 校验用户令牌，audience 为空时兼容上游签发的令牌
func ParseUserToken(raw, secret, audience string) (*UserJWTClaims, error) {
	claims := &UserJWTClaims{}
	if err := parseHS256(raw, secret, audience, "", claims); err != nil {
		return nil, err
	}
	if claims.UserID == 0 {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

func subjectID(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
