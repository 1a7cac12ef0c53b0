package service

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/Koomefranklin/kise-results-backend/config"
	"github.com/Koomefranklin/kise-results-backend/internal/dto"
	"github.com/Koomefranklin/kise-results-backend/internal/model"
	"github.com/Koomefranklin/kise-results-backend/pkg/jwt"
	"github.com/Koomefranklin/kise-results-backend/pkg/mailer"
)

// ── test mailer ──

type recordingMailer struct {
	mu   sync.Mutex
	sent []*mailer.Message
	err  error
}

func (m *recordingMailer) Send(_ context.Context, msg *mailer.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *recordingMailer) last() *mailer.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		return nil
	}
	return m.sent[len(m.sent)-1]
}

// ── helpers ──

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{BaseURL: "http://localhost:8080"},
		Auth: config.AuthConfig{
			JWTSecret:               "test-secret-key-for-unit-testing-2026",
			AccessTokenTTL:          15 * time.Minute,
			RefreshTokenTTLDefault:  24 * time.Hour,
			RefreshTokenTTLRemember: 7 * 24 * time.Hour,
			OTPTTL:                  10 * time.Minute,
			OTPMaxAttempts:          5,
		},
		Mail: config.MailConfig{AdminEmail: "tp-office@kise.ac.ke"},
		Report: config.ReportConfig{
			Institution: "Kenya Institute of Special Education",
			Title:       "Teaching Practice Assessment",
		},
		TP: config.TPConfig{
			ClassStart:      "08:00",
			ClassEnd:        "17:00",
			LetterReuseDays: 4,
			Location:        "Africa/Nairobi",
		},
	}
}

type authFixture struct {
	svc    AuthService
	repos  *testRepos
	store  *mockTokenStore
	mail   *recordingMailer
	jwtMgr *jwt.Manager
}

func setupTestAuthService() *authFixture {
	cfg := testConfig()
	f := &authFixture{
		repos:  newTestRepos(),
		store:  newMockTokenStore(),
		mail:   &recordingMailer{},
		jwtMgr: jwt.NewManager(&cfg.Auth),
	}
	f.svc = NewAuthService(cfg, f.repos.repo, f.jwtMgr, f.store, f.mail, zap.NewNop())
	return f
}

func createTestUser(repos *testRepos, username, password, role string) *model.User {
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	user := &model.User{
		UserID:       "user-" + username,
		Username:     username,
		Surname:      "Wanjiku",
		OtherNames:   "Grace",
		Email:        username + "@kise.ac.ke",
		PasswordHash: string(hash),
		Role:         role,
		IsActive:     true,
	}
	repos.users.users[user.UserID] = user
	return user
}

// ── Login ──

func TestLogin_Success(t *testing.T) {
	f := setupTestAuthService()
	createTestUser(f.repos, "kise001", "password123", model.RoleStudent)

	result, err := f.svc.Login(context.Background(), &dto.LoginRequest{Username: "kise001", Password: "password123"})
	if err != nil {
		t.Fatalf("Login should succeed, got: %v", err)
	}
	if result.AccessToken == "" || result.RefreshToken == "" {
		t.Error("tokens must not be empty")
	}
	if result.User.Username != "kise001" {
		t.Errorf("expected username kise001, got %s", result.User.Username)
	}
	if result.ExpiresIn != 900 {
		t.Errorf("expected ExpiresIn=900, got %d", result.ExpiresIn)
	}
	if f.repos.users.users["user-kise001"].LastLoginAt == nil {
		t.Error("last login should be recorded")
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	f := setupTestAuthService()
	createTestUser(f.repos, "kise001", "password123", model.RoleStudent)

	_, err := f.svc.Login(context.Background(), &dto.LoginRequest{Username: "kise001", Password: "wrong_password"})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials, got: %v", err)
	}
}

func TestLogin_UserNotFound(t *testing.T) {
	f := setupTestAuthService()

	_, err := f.svc.Login(context.Background(), &dto.LoginRequest{Username: "nobody", Password: "password123"})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials, got: %v", err)
	}
}

func TestLogin_InactiveUser(t *testing.T) {
	f := setupTestAuthService()
	u := createTestUser(f.repos, "kise001", "password123", model.RoleStudent)
	u.IsActive = false

	_, err := f.svc.Login(context.Background(), &dto.LoginRequest{Username: "kise001", Password: "password123"})
	if !errors.Is(err, ErrUserInactive) {
		t.Errorf("expected ErrUserInactive, got: %v", err)
	}
}

func TestLogin_LecturerClaims(t *testing.T) {
	f := setupTestAuthService()
	u := createTestUser(f.repos, "lec01", "password123", model.RoleLecturer)
	f.repos.lecturers.lecturers["lec-1"] = &model.Lecturer{LecturerID: "lec-1", UserID: u.UserID, SpecializationID: "spec-hi"}
	f.repos.specs.hods["spec-hi"] = u.UserID

	result, err := f.svc.Login(context.Background(), &dto.LoginRequest{Username: "lec01", Password: "password123"})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	claims, err := f.jwtMgr.ParseToken(result.AccessToken)
	if err != nil {
		t.Fatalf("ParseToken failed: %v", err)
	}
	if claims.SpecializationID != "spec-hi" {
		t.Errorf("expected specialization spec-hi, got %q", claims.SpecializationID)
	}
	if !claims.IsHoD {
		t.Error("expected the HoD flag")
	}
	if claims.Role != model.RoleLecturer {
		t.Errorf("expected role lecturer, got %s", claims.Role)
	}
}

func TestLogin_StudentClaims(t *testing.T) {
	f := setupTestAuthService()
	u := createTestUser(f.repos, "DSNE/001/24", "password123", model.RoleStudent)
	f.repos.students.students["st-1"] = &model.Student{StudentID: "st-1", UserID: u.UserID, Admission: "DSNE/001/24", SpecializationID: "spec-vi"}

	result, err := f.svc.Login(context.Background(), &dto.LoginRequest{Username: "DSNE/001/24", Password: "password123"})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	claims, _ := f.jwtMgr.ParseToken(result.AccessToken)
	if claims.SpecializationID != "spec-vi" || claims.IsHoD {
		t.Errorf("unexpected claims: specialization=%q hod=%v", claims.SpecializationID, claims.IsHoD)
	}
}

// ── Refresh ──

func TestRefresh_RotatesToken(t *testing.T) {
	f := setupTestAuthService()
	createTestUser(f.repos, "kise001", "password123", model.RoleStudent)

	login, err := f.svc.Login(context.Background(), &dto.LoginRequest{Username: "kise001", Password: "password123"})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	refreshed, err := f.svc.Refresh(context.Background(), &dto.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	if err != nil {
		t.Fatalf("Refresh should succeed: %v", err)
	}
	if refreshed.AccessToken == "" || refreshed.RefreshToken == login.RefreshToken {
		t.Error("refresh should issue a new token pair")
	}

	// the old refresh token is spent
	_, err = f.svc.Refresh(context.Background(), &dto.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	if !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken on reuse, got: %v", err)
	}
}

func TestRefresh_InvalidToken(t *testing.T) {
	f := setupTestAuthService()

	_, err := f.svc.Refresh(context.Background(), &dto.RefreshTokenRequest{RefreshToken: "invalid.token.string"})
	if !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got: %v", err)
	}
}

func TestRefresh_AccessTokenNotAllowed(t *testing.T) {
	f := setupTestAuthService()
	createTestUser(f.repos, "kise001", "password123", model.RoleStudent)

	login, _ := f.svc.Login(context.Background(), &dto.LoginRequest{Username: "kise001", Password: "password123"})

	_, err := f.svc.Refresh(context.Background(), &dto.RefreshTokenRequest{RefreshToken: login.AccessToken})
	if !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken for an access token, got: %v", err)
	}
}

// ── Logout ──

func TestLogout_RevokesToken(t *testing.T) {
	f := setupTestAuthService()
	createTestUser(f.repos, "kise001", "password123", model.RoleStudent)

	login, _ := f.svc.Login(context.Background(), &dto.LoginRequest{Username: "kise001", Password: "password123"})
	claims, err := f.jwtMgr.ParseToken(login.AccessToken)
	if err != nil {
		t.Fatalf("ParseToken failed: %v", err)
	}

	if err := f.svc.Logout(context.Background(), claims.ID, claims.ExpiresAt.Time); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	revoked, _ := f.store.IsBlacklisted(context.Background(), claims.ID)
	if !revoked {
		t.Error("access token should be blacklisted after logout")
	}
	if ttl := f.store.revoked[claims.ID]; ttl <= 0 || ttl > 15*time.Minute {
		t.Errorf("blacklist ttl should be the remaining lifetime, got %v", ttl)
	}
}

// ── ChangePassword ──

func TestChangePassword_Success(t *testing.T) {
	f := setupTestAuthService()
	u := createTestUser(f.repos, "kise001", "password123", model.RoleStudent)
	u.MustChangePassword = true

	err := f.svc.ChangePassword(context.Background(), u.UserID, &dto.ChangePasswordRequest{
		OldPassword: "password123",
		NewPassword: "newpass456",
	})
	if err != nil {
		t.Fatalf("ChangePassword should succeed: %v", err)
	}
	if u.MustChangePassword {
		t.Error("first login flag should be cleared")
	}

	if _, err := f.svc.Login(context.Background(), &dto.LoginRequest{Username: "kise001", Password: "newpass456"}); err != nil {
		t.Fatalf("login with the new password should work: %v", err)
	}
}

func TestChangePassword_WrongOldPassword(t *testing.T) {
	f := setupTestAuthService()
	u := createTestUser(f.repos, "kise001", "password123", model.RoleStudent)

	err := f.svc.ChangePassword(context.Background(), u.UserID, &dto.ChangePasswordRequest{
		OldPassword: "wrong_old",
		NewPassword: "newpass456",
	})
	if !errors.Is(err, ErrWrongPassword) {
		t.Errorf("expected ErrWrongPassword, got: %v", err)
	}
}

func TestChangePassword_SamePassword(t *testing.T) {
	f := setupTestAuthService()
	u := createTestUser(f.repos, "kise001", "password123", model.RoleStudent)

	err := f.svc.ChangePassword(context.Background(), u.UserID, &dto.ChangePasswordRequest{
		OldPassword: "password123",
		NewPassword: "password123",
	})
	if !errors.Is(err, ErrSamePassword) {
		t.Errorf("expected ErrSamePassword, got: %v", err)
	}
}

// ── OTP ──

func TestRequestOTP_UnknownEmailIsSilent(t *testing.T) {
	f := setupTestAuthService()

	if err := f.svc.RequestOTP(context.Background(), &dto.OTPRequest{Email: "ghost@kise.ac.ke"}); err != nil {
		t.Fatalf("RequestOTP must not reveal unknown emails: %v", err)
	}
	if f.mail.last() != nil {
		t.Error("no mail should be sent for an unknown email")
	}
}

func TestOTP_ResetsPassword(t *testing.T) {
	f := setupTestAuthService()
	createTestUser(f.repos, "kise001", "password123", model.RoleLecturer)

	if err := f.svc.RequestOTP(context.Background(), &dto.OTPRequest{Email: "KISE001@kise.ac.ke"}); err != nil {
		t.Fatalf("RequestOTP failed: %v", err)
	}
	msg := f.mail.last()
	if msg == nil {
		t.Fatal("expected an otp mail")
	}
	if msg.Template != "otp" {
		t.Errorf("expected the otp template, got %q", msg.Template)
	}
	code := msg.Data.(map[string]string)["Code"]
	if !regexp.MustCompile(`^\d{6}$`).MatchString(code) {
		t.Fatalf("expected a six digit code, got %q", code)
	}

	err := f.svc.VerifyOTP(context.Background(), &dto.OTPVerifyRequest{
		Email:       "kise001@kise.ac.ke",
		OTP:         code,
		NewPassword: "resetpass789",
	})
	if err != nil {
		t.Fatalf("VerifyOTP failed: %v", err)
	}
	if _, err := f.svc.Login(context.Background(), &dto.LoginRequest{Username: "kise001", Password: "resetpass789"}); err != nil {
		t.Fatalf("login with the reset password should work: %v", err)
	}

	// codes are single use
	err = f.svc.VerifyOTP(context.Background(), &dto.OTPVerifyRequest{Email: "kise001@kise.ac.ke", OTP: code, NewPassword: "another123"})
	if !errors.Is(err, ErrInvalidOTP) {
		t.Errorf("expected ErrInvalidOTP on reuse, got: %v", err)
	}
}

func TestVerifyOTP_WrongCode(t *testing.T) {
	f := setupTestAuthService()
	createTestUser(f.repos, "kise001", "password123", model.RoleLecturer)
	f.store.otps["kise001@kise.ac.ke"] = "123456"

	err := f.svc.VerifyOTP(context.Background(), &dto.OTPVerifyRequest{
		Email:       "kise001@kise.ac.ke",
		OTP:         "654321",
		NewPassword: "resetpass789",
	})
	if !errors.Is(err, ErrInvalidOTP) {
		t.Errorf("expected ErrInvalidOTP, got: %v", err)
	}
}

// ── Me ──

func TestMe_ReportsTPRoles(t *testing.T) {
	f := setupTestAuthService()
	u := createTestUser(f.repos, "lec01", "password123", model.RoleLecturer)
	f.repos.types.admins["type-sne"] = []string{u.UserID}
	f.repos.zonalLeader.zones[u.UserID] = []string{"Nairobi"}

	me, err := f.svc.Me(context.Background(), Caller{UserID: u.UserID, Role: model.RoleLecturer, SpecializationID: "spec-hi"})
	if err != nil {
		t.Fatalf("Me failed: %v", err)
	}
	if !me.IsTPAdmin {
		t.Error("expected the TP admin flag")
	}
	if len(me.Zones) != 1 || me.Zones[0] != "Nairobi" {
		t.Errorf("expected zone Nairobi, got %v", me.Zones)
	}
	if me.SpecializationID != "spec-hi" {
		t.Errorf("expected specialization spec-hi, got %q", me.SpecializationID)
	}
}

func TestMe_NotFound(t *testing.T) {
	f := setupTestAuthService()

	_, err := f.svc.Me(context.Background(), Caller{UserID: "nonexistent", Role: model.RoleStudent})
	if !errors.Is(err, ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got: %v", err)
	}
}
