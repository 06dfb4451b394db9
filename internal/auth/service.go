package auth

import (
	"context"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"github.com/atelier-web/atelier/internal/gate"
	"github.com/atelier-web/atelier/internal/shared"
)

// Service wraps authentication business rules: credential checks, token
// issuance and out-of-band revocation on logout.
type Service struct {
	repo        Repository
	signer      *gate.Signer
	revocations *RevocationList
	logger      *slog.Logger
}

// NewService constructs a new Service.
func NewService(repo Repository, signer *gate.Signer, revocations *RevocationList, logger *slog.Logger) *Service {
	return &Service{repo: repo, signer: signer, revocations: revocations, logger: logger}
}

// Login validates credentials and issues a session token. Every failure
// collapses into ErrInvalidCredentials so callers cannot probe accounts.
func (s *Service) Login(ctx context.Context, email, password, ip, ua string) (string, *gate.Identity, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return "", nil, shared.ErrInvalidCredentials
	}
	if !user.IsActive {
		return "", nil, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, shared.ErrInvalidCredentials
	}

	token, ident, err := s.signer.Issue(user.Principal())
	if err != nil {
		return "", nil, err
	}
	if err := s.repo.RecordLogin(ctx, ident.TokenID, user.ID, ident.ExpiresAt, ip, ua); err != nil && s.logger != nil {
		s.logger.Warn("record login session", slog.Any("error", err))
	}
	return token, ident, nil
}

// Logout revokes the presented token. An unverifiable token is a no-op;
// there is nothing to revoke.
func (s *Service) Logout(ctx context.Context, rawToken string) {
	ident, err := s.signer.Verify(rawToken)
	if err != nil {
		return
	}
	if err := s.revocations.Revoke(ctx, ident.TokenID, ident.ExpiresAt); err != nil && s.logger != nil {
		s.logger.Warn("revoke token", slog.Any("error", err))
	}
	if err := s.repo.RecordLogout(ctx, ident.TokenID); err != nil && s.logger != nil {
		s.logger.Warn("record logout", slog.Any("error", err))
	}
}
