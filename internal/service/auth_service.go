package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"net/mail"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/Koomefranklin/kise-results-backend/config"
	"github.com/Koomefranklin/kise-results-backend/internal/dto"
	"github.com/Koomefranklin/kise-results-backend/internal/model"
	"github.com/Koomefranklin/kise-results-backend/internal/repository"
	"github.com/Koomefranklin/kise-results-backend/pkg/jwt"
	"github.com/Koomefranklin/kise-results-backend/pkg/mailer"
	"github.com/Koomefranklin/kise-results-backend/pkg/redis"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUserInactive       = errors.New("account is disabled")
	ErrUserNotFound       = errors.New("user not found")
	ErrWrongPassword      = errors.New("current password is incorrect")
	ErrSamePassword       = errors.New("new password must differ from the current one")
	ErrInvalidOTP         = errors.New("invalid or expired code")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

// AuthService authentication
type AuthService interface {
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error)
	Refresh(ctx context.Context, req *dto.RefreshTokenRequest) (*dto.TokenResponse, error)
	Logout(ctx context.Context, jti string, expiresAt time.Time) error
	ChangePassword(ctx context.Context, userID string, req *dto.ChangePasswordRequest) error
	RequestOTP(ctx context.Context, req *dto.OTPRequest) error
	VerifyOTP(ctx context.Context, req *dto.OTPVerifyRequest) error
	Me(ctx context.Context, caller Caller) (*dto.UserDetailResponse, error)
}

type authService struct {
	cfg    *config.Config
	repo   *repository.Repository
	jwtMgr *jwt.Manager
	store  TokenStore
	mail   mailer.Mailer
	logger *zap.Logger
}

// NewAuthService creates an AuthService
func NewAuthService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	store TokenStore,
	mail mailer.Mailer,
	logger *zap.Logger,
) AuthService {
	return &authService{
		cfg:    cfg,
		repo:   repo,
		jwtMgr: jwtMgr,
		store:  store,
		mail:   mail,
		logger: logger,
	}
}

// ────────────────────── Login ──────────────────────

func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error) {
	user, err := s.repo.User.GetByUsername(ctx, strings.TrimSpace(req.Username))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		s.logger.Error("failed to load user", zap.Error(err))
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}

	now := timeNow()
	user.LastLoginAt = &now
	if err := s.repo.User.Update(ctx, user); err != nil {
		// a failed stamp must not block the login
		s.logger.Warn("failed to record last login", zap.String("user_id", user.UserID), zap.Error(err))
	}

	return s.issue(ctx, user, req.RememberMe)
}

// ────────────────────── Refresh ──────────────────────

func (s *authService) Refresh(ctx context.Context, req *dto.RefreshTokenRequest) (*dto.TokenResponse, error) {
	claims, err := s.jwtMgr.ParseToken(req.RefreshToken)
	if err != nil || claims.TokenType != "refresh" {
		return nil, ErrInvalidToken
	}

	revoked, err := s.store.IsBlacklisted(ctx, claims.ID)
	if err != nil {
		s.logger.Error("failed to check token blacklist", zap.Error(err))
		return nil, err
	}
	if revoked {
		return nil, ErrInvalidToken
	}

	user, err := s.repo.User.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}

	if err := s.store.BlacklistToken(ctx, claims.ID, remaining(claims.ExpiresAt.Time)); err != nil {
		s.logger.Error("failed to revoke refresh token", zap.Error(err))
		return nil, err
	}

	return s.issue(ctx, user, claims.RememberMe)
}

// ────────────────────── Logout ──────────────────────

func (s *authService) Logout(ctx context.Context, jti string, expiresAt time.Time) error {
	if err := s.store.BlacklistToken(ctx, jti, remaining(expiresAt)); err != nil {
		s.logger.Error("failed to revoke access token", zap.Error(err))
		return err
	}
	return nil
}

// ────────────────────── ChangePassword ──────────────────────

func (s *authService) ChangePassword(ctx context.Context, userID string, req *dto.ChangePasswordRequest) error {
	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.OldPassword)); err != nil {
		return ErrWrongPassword
	}
	if req.OldPassword == req.NewPassword {
		return ErrSamePassword
	}

	return s.setPassword(ctx, user, req.NewPassword)
}

// ────────────────────── OTP ──────────────────────

// RequestOTP always succeeds from the caller's point of view so the
// endpoint cannot be used to discover registered emails.
func (s *authService) RequestOTP(ctx context.Context, req *dto.OTPRequest) error {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	user, err := s.repo.User.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Error("failed to look up otp email", zap.Error(err))
		}
		return nil
	}
	if !user.IsActive {
		return nil
	}

	code, err := generateOTP()
	if err != nil {
		s.logger.Error("failed to generate otp", zap.Error(err))
		return nil
	}
	if err := s.store.StoreOTP(ctx, email, code, s.cfg.Auth.OTPTTL); err != nil {
		s.logger.Error("failed to store otp", zap.Error(err))
		return nil
	}

	msg := &mailer.Message{
		To:       []mail.Address{{Name: user.FullName(), Address: user.Email}},
		Subject:  "Password reset code",
		Template: "otp",
		Data: map[string]string{
			"Name":      user.FullName(),
			"Code":      code,
			"ExpiresIn": humanDuration(s.cfg.Auth.OTPTTL),
		},
	}
	if err := s.mail.Send(ctx, msg); err != nil {
		s.logger.Warn("failed to mail otp", zap.String("user_id", user.UserID), zap.Error(err))
	}
	return nil
}

func (s *authService) VerifyOTP(ctx context.Context, req *dto.OTPVerifyRequest) error {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	ok, err := s.store.VerifyOTP(ctx, email, req.OTP, s.cfg.Auth.OTPMaxAttempts)
	if err != nil {
		if errors.Is(err, redis.ErrOTPNotFound) {
			return ErrInvalidOTP
		}
		s.logger.Error("failed to verify otp", zap.Error(err))
		return err
	}
	if !ok {
		return ErrInvalidOTP
	}

	user, err := s.repo.User.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvalidOTP
		}
		return err
	}
	return s.setPassword(ctx, user, req.NewPassword)
}

// ────────────────────── Me ──────────────────────

func (s *authService) Me(ctx context.Context, caller Caller) (*dto.UserDetailResponse, error) {
	user, err := s.repo.User.GetByID(ctx, caller.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	out := &dto.UserDetailResponse{
		UserResponse:     *toUserResponse(user),
		SpecializationID: caller.SpecializationID,
		IsHoD:            caller.IsHoD,
	}

	access := NewTPAccess(s.repo)
	if out.IsTPAdmin, err = access.IsTPAdmin(ctx, caller); err != nil {
		return nil, err
	}
	if out.Zones, err = s.repo.ZonalLeader.ZonesByAssessor(ctx, caller.UserID); err != nil {
		return nil, err
	}
	return out, nil
}

// ────────────────────── helpers ──────────────────────

// subject resolves the specialization and HoD flag carried in tokens
func (s *authService) subject(ctx context.Context, user *model.User) (jwt.Subject, error) {
	sub := jwt.Subject{UserID: user.UserID, Role: user.Role}

	switch user.Role {
	case model.RoleLecturer:
		lec, err := s.repo.Lecturer.GetByUserID(ctx, user.UserID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return sub, err
		}
		if lec != nil {
			sub.SpecializationID = lec.SpecializationID
		}
		specs, err := s.repo.Specialization.ListHoDSpecializations(ctx, user.UserID)
		if err != nil {
			return sub, err
		}
		if len(specs) > 0 {
			sub.IsHoD = true
			if sub.SpecializationID == "" {
				sub.SpecializationID = specs[0]
			}
		}
	case model.RoleStudent:
		st, err := s.repo.Student.GetByUserID(ctx, user.UserID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return sub, err
		}
		if st != nil {
			sub.SpecializationID = st.SpecializationID
		}
	}
	return sub, nil
}

func (s *authService) issue(ctx context.Context, user *model.User, rememberMe bool) (*dto.TokenResponse, error) {
	sub, err := s.subject(ctx, user)
	if err != nil {
		s.logger.Error("failed to resolve token subject", zap.String("user_id", user.UserID), zap.Error(err))
		return nil, err
	}

	accessToken, err := s.jwtMgr.GenerateAccessToken(sub)
	if err != nil {
		s.logger.Error("failed to sign access token", zap.Error(err))
		return nil, err
	}
	refreshToken, err := s.jwtMgr.GenerateRefreshToken(sub, rememberMe)
	if err != nil {
		s.logger.Error("failed to sign refresh token", zap.Error(err))
		return nil, err
	}

	return &dto.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int(s.jwtMgr.AccessTokenTTL().Seconds()),
		User:         *toUserResponse(user),
	}, nil
}

func (s *authService) setPassword(ctx context.Context, user *model.User, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("failed to hash password", zap.Error(err))
		return err
	}
	user.PasswordHash = string(hash)
	user.MustChangePassword = false
	user.UpdatedBy = &user.UserID

	if err := s.repo.User.Update(ctx, user); err != nil {
		s.logger.Error("failed to update password", zap.String("user_id", user.UserID), zap.Error(err))
		return err
	}
	return nil
}

// generateOTP six random digits
func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// remaining lifetime of a token, at least one second so redis keeps the key
func remaining(expiresAt time.Time) time.Duration {
	d := time.Until(expiresAt)
	if d < time.Second {
		return time.Second
	}
	return d
}

func humanDuration(d time.Duration) string {
	if d%time.Hour == 0 && d >= time.Hour {
		return fmt.Sprintf("%d hours", int(d.Hours()))
	}
	return fmt.Sprintf("%d minutes", int(d.Minutes()))
}
