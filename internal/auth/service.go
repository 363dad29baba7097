package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/kelime-arena/internal/auth/jwt"
)

var ErrInvalidUsername = errors.New("invalid username")

// Service issues and validates guest tokens. Guests are not persisted;
// the token is the identity.
type Service struct {
	tokens        *jwt.Manager
	validUsername func(string) bool
	logger        zerolog.Logger
}

// ServiceOptions configures the auth service.
type ServiceOptions struct {
	Tokens jwt.TokenConfig
	// ValidUsername overrides the default rule (1 to 12 characters after trimming).
	ValidUsername func(string) bool
}

// NewService creates the auth service.
func NewService(opts ServiceOptions, logger zerolog.Logger) *Service {
	valid := opts.ValidUsername
	if valid == nil {
		valid = func(name string) bool {
			n := utf8.RuneCountInString(name)
			return n >= 1 && n <= 12
		}
	}
	return &Service{
		tokens:        jwt.NewManager(opts.Tokens),
		validUsername: valid,
		logger:        logger.With().Str("component", "auth").Logger(),
	}
}

// CreateGuest mints a new guest identity with a fresh player ID.
func (s *Service) CreateGuest(ctx context.Context, req GuestRequest) (*Guest, *TokenPair, error) {
	username := strings.TrimSpace(req.Username)
	if !s.validUsername(username) {
		return nil, nil, ErrInvalidUsername
	}

	guest := &Guest{ID: uuid.NewString(), Username: username}
	tokens, err := s.generateTokenPair(*guest)
	if err != nil {
		return nil, nil, fmt.Errorf("generate tokens: %w", err)
	}

	s.logger.Info().Str("player_id", guest.ID).Msg("guest created")
	return guest, tokens, nil
}

// RefreshToken exchanges a refresh token for a new pair.
func (s *Service) RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.tokens.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, err
	}
	return s.generateTokenPair(Guest{ID: claims.PlayerID, Username: claims.Username})
}

// ValidateToken validates an access token.
func (s *Service) ValidateToken(tokenString string) (*jwt.Claims, error) {
	return s.tokens.ValidateAccessToken(tokenString)
}

func (s *Service) generateTokenPair(g Guest) (*TokenPair, error) {
	player := jwt.Player{ID: g.ID, Username: g.Username}

	access, err := s.tokens.GenerateAccessToken(player)
	if err != nil {
		return nil, err
	}
	refresh, err := s.tokens.GenerateRefreshToken(player)
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.tokens.AccessTTL().Seconds()),
	}, nil
}
