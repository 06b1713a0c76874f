package middleware

import (
	"context"
	"fmt"
	"net/http"

	"github.com/coreos/go-oidc/v3/oidc"

	"storefront-customizer/internal/customizer"
	"storefront-customizer/internal/domain/layout"
)

// OIDCResolver verifies bearer ID tokens against an OpenID provider.
type OIDCResolver struct {
	verifier *oidc.IDTokenVerifier
}

type editorClaims struct {
	Sub     string  `json:"sub"`
	StoreID float64 `json:"store_id"`
	UserID  float64 `json:"user_id"`
}

// NewOIDCResolver discovers the provider's keys once at startup.
func NewOIDCResolver(ctx context.Context, issuer, clientID string) (*OIDCResolver, error) {
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("init oidc provider: %w", err)
	}
	return NewOIDCResolverWithVerifier(provider.Verifier(&oidc.Config{ClientID: clientID})), nil
}

func NewOIDCResolverWithVerifier(v *oidc.IDTokenVerifier) *OIDCResolver {
	return &OIDCResolver{verifier: v}
}

func (r *OIDCResolver) Resolve(req *http.Request) (customizer.Identity, error) {
	const op = "resolve oidc"
	raw, err := bearerToken(req)
	if err != nil {
		return customizer.Identity{}, layout.E(layout.CodeUnauthorized, op, err)
	}
	idToken, err := r.verifier.Verify(req.Context(), raw)
	if err != nil {
		return customizer.Identity{}, layout.E(layout.CodeUnauthorized, op, fmt.Errorf("invalid id_token: %w", err))
	}
	var claims editorClaims
	if err := idToken.Claims(&claims); err != nil {
		return customizer.Identity{}, layout.E(layout.CodeUnauthorized, op, fmt.Errorf("decode token claims: %w", err))
	}
	return identityFromClaims(op, claims.StoreID, claims.UserID)
}
