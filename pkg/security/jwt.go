package security

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/lk2023060901/lendhub/pkg/config"
)

// JWTConfig 会话 token 配置
type JWTConfig struct {
	// 签名密钥（HS 系列）
	SecretKey string `mapstructure:"secret_key" json:"secret_key"`

	// 公钥/私钥文件（RS、ES 系列）
	PublicKeyFile  string `mapstructure:"public_key_file" json:"public_key_file"`
	PrivateKeyFile string `mapstructure:"private_key_file" json:"private_key_file"`

	// 签名算法，默认 HS256
	Algorithm string `mapstructure:"algorithm" json:"algorithm" validate:"oneof=HS256 HS384 HS512 RS256 RS384 RS512 ES256 ES384 ES512"`

	// 会话有效期，默认 12 小时
	ExpiresIn time.Duration `mapstructure:"expires_in" json:"expires_in" validate:"gt=0"`

	Issuer string `mapstructure:"issuer" json:"issuer"`

	// TokenPrefix 校验前剥离的前缀，默认 "Bearer "
	TokenPrefix string `mapstructure:"token_prefix" json:"token_prefix"`
}

// DefaultJWTConfig 返回默认配置
func DefaultJWTConfig() *JWTConfig {
	return &JWTConfig{
		Algorithm:   "HS256",
		ExpiresIn:   12 * time.Hour,
		Issuer:      "lendhub",
		TokenPrefix: "Bearer ",
	}
}

// Claims 会话 claims，Subject 为用户 ID
type Claims struct {
	jwt.RegisteredClaims

	Role string `json:"role,omitempty"`

	// Payload 附加载荷，由调用方决定内容
	Payload map[string]any `json:"payload,omitempty"`
}

// UserID 返回 Subject
func (c *Claims) UserID() string {
	return c.Subject
}

// JWTManager 签发与校验会话 token
type JWTManager struct {
	config    *JWTConfig
	method    jwt.SigningMethod
	signKey   any
	verifyKey any
}

// NewJWTManager 创建 JWT 管理器
func NewJWTManager(cfg *JWTConfig) (*JWTManager, error) {
	merged, err := config.MergeConfig(DefaultJWTConfig(), cfg)
	if err != nil {
		return nil, err
	}
	merged.Algorithm = strings.ToUpper(merged.Algorithm)
	if err := config.Validate(merged); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAlgorithmInvalid, err)
	}

	m := &JWTManager{
		config: merged,
		method: jwt.GetSigningMethod(merged.Algorithm),
	}
	if m.method == nil {
		return nil, ErrAlgorithmInvalid
	}
	if err := m.loadKeys(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *JWTManager) loadKeys() error {
	alg := m.config.Algorithm

	if strings.HasPrefix(alg, "HS") {
		if m.config.SecretKey == "" {
			return ErrSecretKeyEmpty
		}
		m.signKey = []byte(m.config.SecretKey)
		m.verifyKey = m.signKey
		return nil
	}

	if m.config.PublicKeyFile != "" {
		data, err := os.ReadFile(m.config.PublicKeyFile)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrPublicKeyLoad, err)
		}
		if strings.HasPrefix(alg, "RS") {
			m.verifyKey, err = jwt.ParseRSAPublicKeyFromPEM(data)
		} else {
			m.verifyKey, err = jwt.ParseECPublicKeyFromPEM(data)
		}
		if err != nil {
			return fmt.Errorf("%w: %v", ErrPublicKeyLoad, err)
		}
	}

	if m.config.PrivateKeyFile != "" {
		data, err := os.ReadFile(m.config.PrivateKeyFile)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrPrivateKeyLoad, err)
		}
		if strings.HasPrefix(alg, "RS") {
			m.signKey, err = jwt.ParseRSAPrivateKeyFromPEM(data)
		} else {
			m.signKey, err = jwt.ParseECPrivateKeyFromPEM(data)
		}
		if err != nil {
			return fmt.Errorf("%w: %v", ErrPrivateKeyLoad, err)
		}
	}
	return nil
}

// Issue 为用户签发会话 token
func (m *JWTManager) Issue(userID, role string, payload map[string]any) (string, error) {
	if userID == "" {
		return "", ErrSubjectMissing
	}
	return m.Sign(&Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: userID},
		Role:             role,
		Payload:          payload,
	})
}

// Sign 补全时间字段后签名，ExpiresAt 已设置时保持不变
func (m *JWTManager) Sign(claims *Claims) (string, error) {
	now := time.Now()
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.NotBefore = jwt.NewNumericDate(now)
	if claims.ExpiresAt == nil {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(m.config.ExpiresIn))
	}
	if claims.Issuer == "" {
		claims.Issuer = m.config.Issuer
	}

	return jwt.NewWithClaims(m.method, claims).SignedString(m.signKey)
}

// Verify 校验 token，可带 "Bearer " 前缀
func (m *JWTManager) Verify(token string) (*Claims, error) {
	token = m.StripPrefix(token)
	if token == "" {
		return nil, ErrTokenMissing
	}

	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != m.config.Algorithm {
			return nil, ErrAlgorithmMismatch
		}
		return m.verifyKey, nil
	})
	if err != nil {
		return nil, wrapError(err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrTokenInvalid
	}
	if claims.Subject == "" {
		return nil, ErrSubjectMissing
	}
	return claims, nil
}

// Refresh 为未过期或刚过期的 token 换发新 token
func (m *JWTManager) Refresh(token string) (string, error) {
	claims, err := m.Verify(token)
	if err != nil {
		if !errors.Is(err, ErrTokenExpired) {
			return "", err
		}
		// 过期 token 只校验签名
		claims = &Claims{}
		parser := jwt.NewParser(jwt.WithoutClaimsValidation())
		if _, perr := parser.ParseWithClaims(m.StripPrefix(token), claims, func(*jwt.Token) (any, error) {
			return m.verifyKey, nil
		}); perr != nil {
			return "", wrapError(perr)
		}
	}

	claims.ExpiresAt = nil
	return m.Sign(claims)
}

// StripPrefix 去掉 token 前缀
func (m *JWTManager) StripPrefix(token string) string {
	token = strings.TrimSpace(token)
	if m.config.TokenPrefix != "" {
		token = strings.TrimPrefix(token, m.config.TokenPrefix)
	}
	return token
}

// Config 返回生效配置
func (m *JWTManager) Config() *JWTConfig {
	return m.config
}

func wrapError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenNotValidYet):
		return ErrTokenNotValidYet
	case errors.Is(err, jwt.ErrTokenMalformed):
		return ErrTokenMalformed
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrSignatureInvalid
	case errors.Is(err, ErrAlgorithmMismatch):
		return ErrAlgorithmMismatch
	default:
		return fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
}

type contextKey struct{}

// ContextWithClaims 将 claims 存入 context
func ContextWithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, contextKey{}, claims)
}

// ClaimsFromContext 从 context 取出 claims
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(contextKey{}).(*Claims)
	return claims, ok
}

// Unmarshal 将 Payload 解析到 v
func (c *Claims) Unmarshal(v any) error {
	if c.Payload == nil {
		return nil
	}
	return mapstructure.Decode(c.Payload, v)
}

// Get 读取 Payload，支持 "a.b.c" 形式的嵌套 key
func (c *Claims) Get(key string) any {
	var current any = c.Payload
	for _, k := range strings.Split(key, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return nil
		}
		current = m[k]
	}
	return current
}
