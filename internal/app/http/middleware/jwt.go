package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"storefront-customizer/internal/customizer"
	"storefront-customizer/internal/domain/layout"
	"storefront-customizer/internal/infra/logger"
)

const (
	StoreIDKey = "store_id"
	UserIDKey  = "user_id"
)

// JWTResolver accepts HMAC-signed bearer tokens carrying store_id and user_id claims.
type JWTResolver struct {
	secret []byte
}

func NewJWTResolver(secret string) *JWTResolver {
	return &JWTResolver{secret: []byte(secret)}
}

func (r *JWTResolver) Resolve(req *http.Request) (customizer.Identity, error) {
	const op = "resolve jwt"
	if len(r.secret) == 0 {
		return customizer.Identity{}, layout.E(layout.CodeUnauthorized, op, fmt.Errorf("jwt secret not configured"))
	}
	raw, err := bearerToken(req)
	if err != nil {
		return customizer.Identity{}, layout.E(layout.CodeUnauthorized, op, err)
	}

	token, err := jwt.Parse(raw, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return r.secret, nil
	})
	if err != nil || !token.Valid {
		return customizer.Identity{}, layout.E(layout.CodeUnauthorized, op, fmt.Errorf("invalid or expired token: %w", err))
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return customizer.Identity{}, layout.E(layout.CodeUnauthorized, op, fmt.Errorf("invalid token claims"))
	}
	return identityFromClaims(op, claims["store_id"], claims["user_id"])
}

// AuthMiddleware resolves the editor identity and stores it on the context.
func AuthMiddleware(resolver customizer.AuthResolver, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := resolver.Resolve(c.Request)
		if err != nil {
			log.Warn("request not authenticated", "path", c.FullPath(), "error", err)
			lang := customizer.LanguageFromHeader(c.GetHeader("Accept-Language"))
			c.AbortWithStatusJSON(http.StatusUnauthorized, customizer.Result[any]{
				Error: &customizer.ResultError{
					Code:    layout.CodeUnauthorized,
					Message: customizer.Message(layout.CodeUnauthorized, lang),
				},
			})
			return
		}
		c.Set(StoreIDKey, id.StoreID)
		c.Set(UserIDKey, id.UserID)
		c.Next()
	}
}

// IdentityFrom reads what AuthMiddleware stored. A zero StoreID means the
// request was not authenticated.
func IdentityFrom(c *gin.Context) customizer.Identity {
	return customizer.Identity{StoreID: c.GetUint(StoreIDKey), UserID: c.GetUint(UserIDKey)}
}

func bearerToken(req *http.Request) (string, error) {
	h := req.Header.Get("Authorization")
	if h == "" {
		return "", fmt.Errorf("authorization header missing")
	}
	tok := strings.TrimPrefix(h, "Bearer ")
	if tok == h || strings.TrimSpace(tok) == "" {
		return "", fmt.Errorf("bearer token malformed")
	}
	return strings.TrimSpace(tok), nil
}

func identityFromClaims(op string, storeClaim, userClaim any) (customizer.Identity, error) {
	storeID, ok := claimUint(storeClaim)
	if !ok || storeID == 0 {
		return customizer.Identity{}, layout.E(layout.CodeUnauthorized, op, fmt.Errorf("token has no store_id"))
	}
	userID, _ := claimUint(userClaim)
	return customizer.Identity{StoreID: storeID, UserID: userID}, nil
}

func claimUint(v any) (uint, bool) {
	switch n := v.(type) {
	case float64:
		if n < 0 {
			return 0, false
		}
		return uint(n), true
	case uint:
		return n, true
	case int:
		if n < 0 {
			return 0, false
		}
		return uint(n), true
	}
	return 0, false
}
