package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/lk2023060901/lendhub/pkg/security"
)

// ClaimsKey Context 中存储 Claims 的 key
const ClaimsKey = "jwt_claims"

// AuthConfig 认证配置
type AuthConfig struct {
	// JWTManager JWT 管理器
	JWTManager *security.JWTManager
	// SkipPaths 跳过验证的路径
	SkipPaths []string
	// QueryParam 非空时允许从查询参数取 token
	QueryParam string
	// ErrorHandler 自定义错误处理
	ErrorHandler func(*gin.Context, error)
}

// Auth JWT 认证中间件
func Auth(cfg *AuthConfig) gin.HandlerFunc {
	skipPaths := make(map[string]struct{}, len(cfg.SkipPaths))
	for _, path := range cfg.SkipPaths {
		skipPaths[path] = struct{}{}
	}

	return func(c *gin.Context) {
		if _, skip := skipPaths[c.Request.URL.Path]; skip {
			c.Next()
			return
		}

		token := extractToken(c, cfg)
		if token == "" {
			handleAuthError(c, cfg, security.ErrTokenMissing)
			return
		}

		claims, err := cfg.JWTManager.Verify(token)
		if err != nil {
			handleAuthError(c, cfg, err)
			return
		}

		c.Set(ClaimsKey, claims)
		c.Request = c.Request.WithContext(security.ContextWithClaims(c.Request.Context(), claims))
		c.Next()
	}
}

// extractToken 依次从 Authorization 头与查询参数提取 token
func extractToken(c *gin.Context, cfg *AuthConfig) string {
	if header := strings.TrimSpace(c.GetHeader("Authorization")); header != "" {
		return cfg.JWTManager.StripPrefix(header)
	}
	if cfg.QueryParam != "" {
		return c.Query(cfg.QueryParam)
	}
	return ""
}

func handleAuthError(c *gin.Context, cfg *AuthConfig, err error) {
	if cfg.ErrorHandler != nil {
		cfg.ErrorHandler(c, err)
		return
	}
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"code":    40002,
		"message": err.Error(),
		"data":    nil,
	})
}

// RequireRoles 角色检查中间件，满足任意一个角色即可
func RequireRoles(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		claims, ok := GetClaims(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":    40002,
				"message": "unauthorized",
				"data":    nil,
			})
			return
		}
		if _, ok := allowed[claims.Role]; !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"code":    40003,
				"message": "forbidden: insufficient role",
				"data":    nil,
			})
			return
		}
		c.Next()
	}
}

// GetClaims 从 Context 获取 Claims
func GetClaims(c *gin.Context) (*security.Claims, bool) {
	v, exists := c.Get(ClaimsKey)
	if !exists {
		return nil, false
	}
	claims, ok := v.(*security.Claims)
	return claims, ok
}

// GetUserID 从 Context 获取用户 ID
func GetUserID(c *gin.Context) string {
	if claims, ok := GetClaims(c); ok {
		return claims.UserID()
	}
	return ""
}
