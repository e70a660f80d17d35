/**
 * 工具类:JWT工具
 * @author: sun977
 * @date: 2025.10.15
 * @description: HS256 访问令牌的签发与校验；权限中间件只信任令牌里的用户 id 和密码版本
 * @func:
 * 	1.签发访问令牌
 * 	2.校验访问令牌
 * 	3.提取 Bearer 令牌
 */
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"accesscore/internal/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims 访问令牌声明
type Claims struct {
	UserID    uint64 `json:"user_id"`
	Username  string `json:"username"`
	PasswordV int64  `json:"password_v"` // 密码版本号，改密后旧令牌失效
	jwt.RegisteredClaims
}

// TokenManager 令牌管理器
type TokenManager struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

// NewTokenManager 按安全配置创建令牌管理器
func NewTokenManager(cfg config.JWTConfig) *TokenManager {
	ttl := cfg.AccessTokenExpire
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &TokenManager{secret: []byte(cfg.Secret), issuer: cfg.Issuer, ttl: ttl}
}

// Issue 签发访问令牌，返回令牌与过期时间
func (m *TokenManager) Issue(userID uint64, username string, passwordV int64) (string, time.Time, error) {
	now := time.Now()
	expires := now.Add(m.ttl)
	claims := &Claims{
		UserID:    userID,
		Username:  username,
		PasswordV: passwordV,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   strconv.FormatUint(userID, 10),
			ExpiresAt: jwt.NewNumericDate(expires),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expires, nil
}

// Parse 校验签名、签发者与有效期
func (m *TokenManager) Parse(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired()}
	if m.issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(*jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == 0 {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// ExtractBearer 从 Authorization 头中提取令牌
func ExtractBearer(header string) string {
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}
