package account

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"

	"golang.org/x/crypto/bcrypt"

	"go.uber.org/zap"

	"github.com/campuskit/registrar/internal/account/entity"
	accountrepo "github.com/campuskit/registrar/internal/account/repo"
	"github.com/campuskit/registrar/internal/cache"
)

// PasswordHasher defines minimal hashing interface (abstract so we can swap to argon2 later).
type PasswordHasher interface {
	Hash(pw string) (hash string, err error)
	Verify(hash, pw string) bool
}

// BcryptHasher implementation.
type BcryptHasher struct{ Cost int }

func (b BcryptHasher) Hash(pw string) (string, error) {
	cost := b.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	h, err := bcrypt.GenerateFromPassword([]byte(pw), cost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

func (b BcryptHasher) Verify(hash, pw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}

// DefaultPassword is assigned when provisioning omits a password; such
// accounts are flagged need_password_change.
func DefaultPassword() string {
	if v := os.Getenv("DEFAULT_PASSWORD"); v != "" {
		return v
	}
	return "univ-default-1"
}

var (
	ErrNotFound      = errors.New("account not found")
	ErrInvalidStatus = errors.New("invalid account status")
)

// ProfileFinder resolves a role profile by the account's business
// identifier. A sql.ErrNoRows from the store means no profile document.
type ProfileFinder interface {
	FindByPublicID(ctx context.Context, publicID string) (any, error)
}

// ProfileFinderFunc adapts a lookup function to ProfileFinder.
type ProfileFinderFunc func(ctx context.Context, publicID string) (any, error)

func (f ProfileFinderFunc) FindByPublicID(ctx context.Context, publicID string) (any, error) {
	return f(ctx, publicID)
}

// ProfileView is the self-lookup result: the caller's role profile plus the
// account it hangs off.
type ProfileView struct {
	Profile any             `json:"profile"`
	Account *entity.Account `json:"account"`
}

// Service orchestrates account lifecycle flows shared across roles.
type Service struct {
	repo    *accountrepo.Repo
	finders map[entity.Role]ProfileFinder
	cache   *cache.ProfileCache
	logger  *zap.SugaredLogger
}

func NewService(repo *accountrepo.Repo, pc *cache.ProfileCache, logger *zap.SugaredLogger) *Service {
	return &Service{
		repo:    repo,
		finders: map[entity.Role]ProfileFinder{},
		cache:   pc,
		logger:  logger,
	}
}

// RegisterFinder wires the profile lookup for one role. superAdmin shares
// the admin collection.
func (s *Service) RegisterFinder(role entity.Role, f ProfileFinder) {
	s.finders[role] = f
}

func (s *Service) Repo() *accountrepo.Repo { return s.repo }

// Me resolves the caller's own profile from token claims. An unknown role or
// a missing profile document yields a nil view without error, matching the
// lenient self-lookup contract.
func (s *Service) Me(ctx context.Context, publicID string, role entity.Role) (*ProfileView, error) {
	var view ProfileView
	if s.cache.Get(ctx, publicID, &view) {
		return &view, nil
	}

	finder, ok := s.finders[role]
	if !ok {
		return nil, nil
	}
	profile, err := finder.FindByPublicID(ctx, publicID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	acct, err := s.repo.GetByPublicID(ctx, publicID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	view = ProfileView{Profile: profile, Account: acct}
	s.cache.Set(ctx, publicID, &view)
	return &view, nil
}

// ChangeStatus moves an account between lifecycle statuses.
func (s *Service) ChangeStatus(ctx context.Context, ref string, status entity.Status) (*entity.Account, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	acct, err := s.repo.UpdateStatus(ctx, ref, status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	s.cache.Invalidate(ctx, acct.PublicID)
	s.logger.Infow("account status changed", "ref", ref, "status", status)
	return acct, nil
}
