package identity

import (
	"context"
	"fmt"

	"github.com/persistorai/auditdesk/internal/models"
)

// Provider is the token side of the identity provider: it issues, verifies
// and revokes session tokens.
type Provider struct {
	issuer   *Issuer
	denylist Denylist
}

// NewProvider combines an issuer with a revocation denylist.
func NewProvider(issuer *Issuer, denylist Denylist) *Provider {
	return &Provider{issuer: issuer, denylist: denylist}
}

// Issue signs a new session token.
func (p *Provider) Issue(user *models.User) (*models.Session, error) {
	token, expiresAt, err := p.issuer.Issue(user.ID, user.Email)
	if err != nil {
		return nil, err
	}

	return &models.Session{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

// VerifyToken parses the token and rejects revoked ones. The returned
// identity has no role; callers resolve it.
func (p *Provider) VerifyToken(ctx context.Context, token string) (*models.Identity, error) {
	ident, err := p.issuer.Parse(token)
	if err != nil {
		return nil, err
	}

	revoked, err := p.denylist.IsRevoked(ctx, ident.TokenID)
	if err != nil {
		return nil, fmt.Errorf("verifying token: %w", err)
	}

	if revoked {
		return nil, models.ErrInvalidToken
	}

	return ident, nil
}

// Revoke denylists the identity's token until it expires.
func (p *Provider) Revoke(ctx context.Context, ident models.Identity) error {
	return p.denylist.Revoke(ctx, ident.TokenID, ident.ExpiresAt)
}
