// Package auth registers users, checks PINs and issues signed session tokens.
package auth

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/TobiSchelling/studydeck/internal/database"
	"github.com/TobiSchelling/studydeck/internal/logger"
	"github.com/TobiSchelling/studydeck/internal/models"
)

const (
	hashCost   = 10
	issuer     = "studydeck"
	minSecret  = 16
	DefaultTTL = 7 * 24 * time.Hour
)

var (
	ErrInvalidCredentials = errors.New("Invalid username or password")
	ErrUsernameTaken      = errors.New("Username already exists")
	ErrInvalidSession     = errors.New("invalid or expired session")
)

// InputError is a registration or login request that breaks the account rules.
type InputError struct {
	Message string
}

func (e *InputError) Error() string { return e.Message }

var (
	usernamePattern = regexp.MustCompile(`^[a-z0-9_.-]{3,32}$`)
	pinPattern      = regexp.MustCompile(`^\d{4}$`)
)

// Store is the user storage the service needs.
type Store interface {
	CreateUser(username, pinHash string) (*models.User, error)
	GetCredentials(username string) (*database.Credentials, error)
	GetUser(id string) (*models.User, error)
	UpdateLastLogin(id string, at time.Time) error
}

// Service authenticates users against a Store.
type Service struct {
	store  Store
	secret []byte
	ttl    time.Duration
	log    *logger.Logger
	now    func() time.Time
}

// NewService creates a Service. The secret signs session tokens.
func NewService(store Store, secret []byte, ttl time.Duration, log *logger.Logger) (*Service, error) {
	if len(secret) < minSecret {
		return nil, fmt.Errorf("session secret must be at least %d bytes", minSecret)
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Service{store: store, secret: secret, ttl: ttl, log: log, now: time.Now}, nil
}

// NormalizeUsername lower-cases and trims a username.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

func validate(username, pin string) error {
	if username == "" || pin == "" {
		return &InputError{"Username and PIN are required"}
	}
	if len(username) < 3 {
		return &InputError{"Username must be at least 3 characters long"}
	}
	if !usernamePattern.MatchString(username) {
		return &InputError{"Username must be 3-32 characters of a-z, 0-9, '.', '_' or '-'"}
	}
	if !pinPattern.MatchString(pin) {
		return &InputError{"PIN must be exactly 4 digits"}
	}
	return nil
}

// Register creates an account and returns the new user.
func (s *Service) Register(username, pin string) (*models.User, error) {
	username = NormalizeUsername(username)
	if err := validate(username, pin); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(pin), hashCost)
	if err != nil {
		return nil, fmt.Errorf("hashing pin: %w", err)
	}

	u, err := s.store.CreateUser(username, string(hash))
	if err != nil {
		if errors.Is(err, database.ErrUsernameTaken) {
			return nil, ErrUsernameTaken
		}
		return nil, err
	}
	s.log.Info("registered user", "username", username)
	return u, nil
}

// Login checks a username and PIN and returns the user with a session token.
func (s *Service) Login(username, pin string) (*models.User, string, error) {
	username = NormalizeUsername(username)
	if username == "" || pin == "" {
		return nil, "", &InputError{"Username and PIN are required"}
	}
	if !pinPattern.MatchString(pin) {
		return nil, "", &InputError{"PIN must be exactly 4 digits"}
	}

	creds, err := s.store.GetCredentials(username)
	if err != nil {
		return nil, "", err
	}
	if creds == nil {
		return nil, "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(creds.PINHash), []byte(pin)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	now := s.now().UTC()
	if err := s.store.UpdateLastLogin(creds.User.ID, now); err != nil {
		s.log.Warn("could not record last login", "user", creds.User.ID, "error", err)
	}
	user := creds.User
	user.LastLogin = now

	token, err := s.issue(&user, now)
	if err != nil {
		return nil, "", err
	}
	return &user, token, nil
}

type sessionClaims struct {
	jwt.RegisteredClaims
	Username string `json:"username"`
}

func (s *Service) issue(u *models.User, now time.Time) (string, error) {
	claims := &sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
		Username: u.Username,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("signing session: %w", err)
	}
	return signed, nil
}

// ValidateSession verifies a session token and loads its user.
func (s *Service) ValidateSession(tokenStr string) (*models.User, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &sessionClaims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithIssuer(issuer), jwt.WithTimeFunc(s.now))
	if err != nil {
		s.log.Debug("rejected session", "error", err)
		return nil, ErrInvalidSession
	}
	claims, ok := token.Claims.(*sessionClaims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidSession
	}

	u, err := s.store.GetUser(claims.Subject)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrInvalidSession
	}
	return u, nil
}

type userKey struct{}

// WithUser returns a context carrying the authenticated user.
func WithUser(ctx context.Context, u *models.User) context.Context {
	return context.WithValue(ctx, userKey{}, u)
}

// CurrentUser returns the authenticated user stored by WithUser.
func CurrentUser(ctx context.Context) (*models.User, bool) {
	u, ok := ctx.Value(userKey{}).(*models.User)
	return u, ok && u != nil
}
