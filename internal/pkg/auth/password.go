/**
 * 工具类:密码工具
 * @author: sun977
 * @date: 2025.08.29
 * @description: argon2id 密码哈希，编码格式 $argon2id$v=19$m=..,t=..,p=..$salt$hash
 * @func:
 * 	1.哈希密码
 * 	2.验证密码
 * 	3.密码强度检查
 */
package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"accesscore/internal/config"

	"golang.org/x/crypto/argon2"
)

// ErrInvalidHash 哈希格式错误
var ErrInvalidHash = errors.New("invalid password hash")

// PasswordHasher 密码哈希器
type PasswordHasher struct {
	params config.PasswordConfig
}

// NewPasswordHasher 未配置的参数使用默认值(64MB, 3 次, 并行 2)
func NewPasswordHasher(cfg config.PasswordConfig) *PasswordHasher {
	if cfg.Memory == 0 {
		cfg.Memory = 64 * 1024
	}
	if cfg.Iterations == 0 {
		cfg.Iterations = 3
	}
	if cfg.Parallelism == 0 {
		cfg.Parallelism = 2
	}
	if cfg.SaltLength == 0 {
		cfg.SaltLength = 16
	}
	if cfg.KeyLength == 0 {
		cfg.KeyLength = 32
	}
	return &PasswordHasher{params: cfg}
}

// Hash 哈希密码
func (h *PasswordHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", errors.New("password cannot be empty")
	}
	salt := make([]byte, h.params.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}
	key := argon2.IDKey([]byte(password), salt, h.params.Iterations, h.params.Memory, h.params.Parallelism, h.params.KeyLength)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		h.params.Memory,
		h.params.Iterations,
		h.params.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify 使用哈希中记录的参数重新计算并常量时间比较
func (h *PasswordHasher) Verify(password, encoded string) (bool, error) {
	params, salt, key, err := decode(encoded)
	if err != nil {
		return false, err
	}
	other := argon2.IDKey([]byte(password), salt, params.Iterations, params.Memory, params.Parallelism, uint32(len(key)))
	return subtle.ConstantTimeCompare(key, other) == 1, nil
}

// NeedsRehash 哈希参数与当前配置不一致
func (h *PasswordHasher) NeedsRehash(encoded string) bool {
	params, _, key, err := decode(encoded)
	if err != nil {
		return true
	}
	return params.Memory != h.params.Memory ||
		params.Iterations != h.params.Iterations ||
		params.Parallelism != h.params.Parallelism ||
		uint32(len(key)) != h.params.KeyLength
}

func decode(encoded string) (config.PasswordConfig, []byte, []byte, error) {
	var params config.PasswordConfig
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return params, nil, nil, ErrInvalidHash
	}
	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return params, nil, nil, ErrInvalidHash
	}
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &params.Memory, &params.Iterations, &params.Parallelism); err != nil {
		return params, nil, nil, ErrInvalidHash
	}
	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return params, nil, nil, ErrInvalidHash
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(key) == 0 {
		return params, nil, nil, ErrInvalidHash
	}
	return params, salt, key, nil
}

// ValidateStrength 密码长度 8-128，至少包含字母和数字
func ValidateStrength(password string) error {
	if len(password) < 8 {
		return errors.New("password must be at least 8 characters long")
	}
	if len(password) > 128 {
		return errors.New("password must be no more than 128 characters long")
	}
	var hasLetter, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasLetter || !hasDigit {
		return errors.New("password must contain both letters and digits")
	}
	return nil
}
