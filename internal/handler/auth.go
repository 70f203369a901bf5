package handler

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/kmate129/timetable-ga/internal/domain"
)

type AuthClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// GenerateToken 签发访问排课接口所需的令牌
// 本服务不管理用户，令牌由 seed 命令或上游的用户系统使用同一个密钥签发
func GenerateToken(secret, subject string, role domain.Role, expiration time.Duration) (string, error) {
	now := time.Now()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, AuthClaims{
		Role: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(expiration)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Subject:   subject,
		},
	})

	return token.SignedString([]byte(secret))
}
