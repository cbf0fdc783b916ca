package account

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kingrea/pickapad/internal/session"
	"github.com/kingrea/pickapad/internal/signup"
)

var (
	// ErrUnavailable is returned when the service is (simulated to be) down.
	ErrUnavailable = errors.New("account: service unavailable")
	// ErrDuplicateAccount is returned when the email is already registered.
	ErrDuplicateAccount = errors.New("account: an account with this email already exists")
	// ErrInvalidCredentials is returned by Login on any mismatch.
	ErrInvalidCredentials = errors.New("account: invalid email or password")
)

// Demo credentials seeded into fresh databases.
const (
	DemoEmail    = "test@pap.com"
	DemoPassword = "7890poiU@"
)

// DefaultDelay mirrors the latency of the hosted signup endpoint.
const DefaultDelay = time.Second

// User is a stored account without its secret.
type User struct {
	ID           string
	Email        string
	Name         string
	Organization string
	Role         string
	AccountType  string
	Verified     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Profile converts the user into the cached session profile.
func (u User) Profile() session.Profile {
	return session.Profile{
		ID:           u.ID,
		Email:        u.Email,
		Name:         u.Name,
		Organization: u.Organization,
		Role:         u.Role,
		AccountType:  u.AccountType,
		Verified:     u.Verified,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

// Result is returned by Create and Login.
type Result struct {
	User  User
	Token string
}

// Option customizes a Service.
type Option func(*Service)

// WithDelay sets the simulated latency applied to Create and Login.
func WithDelay(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.delay = d
		}
	}
}

// WithFailure makes every Create return ErrUnavailable while fail returns true.
func WithFailure(fail func() bool) Option {
	return func(s *Service) {
		s.fail = fail
	}
}

// WithClock injects a deterministic clock (primarily for tests).
func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithLogger attaches a structured logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Service creates and authenticates accounts.
type Service struct {
	repo   *Repository
	delay  time.Duration
	fail   func() bool
	clock  func() time.Time
	logger *zap.Logger
}

// NewService wraps repo.
func NewService(repo *Repository, opts ...Option) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("account: repository is required")
	}
	s := &Service{
		repo:   repo,
		delay:  DefaultDelay,
		clock:  time.Now,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Create registers the account described by payload and issues a token.
func (s *Service) Create(ctx context.Context, payload signup.Payload) (Result, error) {
	if payload == nil {
		return Result{}, fmt.Errorf("account: payload is required")
	}
	if err := s.wait(ctx); err != nil {
		return Result{}, err
	}
	if s.fail != nil && s.fail() {
		s.logger.Warn("simulated outage", zap.String("account_type", string(payload.AccountType())))
		return Result{}, ErrUnavailable
	}
	email := normalizeEmail(payload.Email())
	if email == "" {
		return Result{}, fmt.Errorf("account: payload has no email")
	}
	details, err := describe(payload)
	if err != nil {
		return Result{}, err
	}
	hash, salt, err := hashSecret(payload.Secret())
	if err != nil {
		return Result{}, err
	}
	now := s.clock().UTC()
	rec := record{
		User: User{
			ID:           uuid.NewString(),
			Email:        email,
			Name:         strings.TrimSpace(payload.DisplayName()),
			Organization: strings.TrimSpace(payload.Organization()),
			Role:         "user",
			AccountType:  string(payload.AccountType()),
			Verified:     true,
			CreatedAt:    now,
			UpdatedAt:    now,
		},
		Hash:    hash,
		Salt:    salt,
		Details: details,
	}
	if err := s.repo.insert(ctx, rec); err != nil {
		if errors.Is(err, ErrDuplicateAccount) {
			s.logger.Info("duplicate signup", zap.String("email", email))
		}
		return Result{}, err
	}
	s.logger.Info("account created",
		zap.String("id", rec.ID),
		zap.String("email", email),
		zap.String("account_type", rec.AccountType),
	)
	return Result{User: rec.User, Token: newToken()}, nil
}

// Login checks credentials and issues a token.
func (s *Service) Login(ctx context.Context, email, password string) (Result, error) {
	if err := s.wait(ctx); err != nil {
		return Result{}, err
	}
	rec, err := s.repo.byEmail(ctx, email)
	if err != nil {
		if errors.Is(err, errNoRow) {
			return Result{}, ErrInvalidCredentials
		}
		return Result{}, err
	}
	if !verifySecret(password, rec.Hash, rec.Salt) {
		s.logger.Info("login rejected", zap.String("email", rec.Email))
		return Result{}, ErrInvalidCredentials
	}
	s.logger.Info("login", zap.String("email", rec.Email))
	return Result{User: rec.User, Token: newToken()}, nil
}

// Remove deletes the account with the given id. Removing an unknown id is a
// no-op.
func (s *Service) Remove(ctx context.Context, id string) error {
	if err := s.repo.delete(ctx, id); err != nil {
		if errors.Is(err, errNoRow) {
			return nil
		}
		return err
	}
	s.logger.Debug("account removed", zap.String("id", id))
	return nil
}

// SeedDemo inserts the demo administrator if it is not already present.
func (s *Service) SeedDemo(ctx context.Context) error {
	if _, err := s.repo.byEmail(ctx, DemoEmail); err == nil {
		return nil
	} else if !errors.Is(err, errNoRow) {
		return err
	}
	hash, salt, err := hashSecret(DemoPassword)
	if err != nil {
		return err
	}
	now := s.clock().UTC()
	err = s.repo.insert(ctx, record{
		User: User{
			ID:           uuid.NewString(),
			Email:        DemoEmail,
			Name:         "John Doe",
			Organization: "PAP Technologies",
			Role:         "admin",
			AccountType:  string(signup.Company),
			Verified:     true,
			CreatedAt:    now,
			UpdatedAt:    now,
		},
		Hash:    hash,
		Salt:    salt,
		Details: "{}",
	})
	if err != nil && !errors.Is(err, ErrDuplicateAccount) {
		return err
	}
	s.logger.Debug("demo account ready", zap.String("email", DemoEmail))
	return nil
}

func (s *Service) wait(ctx context.Context) error {
	if s.delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(s.delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// describe serializes the flow-specific fields without the secret.
func describe(payload signup.Payload) (string, error) {
	var details any
	switch p := payload.(type) {
	case signup.CompanyPayload:
		p.Password = ""
		details = p
	case signup.ContractorPayload:
		p.Password = ""
		details = p
	case signup.RetailerPayload:
		p.Password = ""
		details = p
	default:
		return "", fmt.Errorf("account: unsupported payload %T", payload)
	}
	encoded, err := json.Marshal(details)
	if err != nil {
		return "", fmt.Errorf("account: encode details: %w", err)
	}
	return string(encoded), nil
}

func newToken() string {
	return "pap_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}
