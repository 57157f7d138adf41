package service

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"feedra/config"
	"feedra/internal/auth"
	"feedra/internal/domain"
	"feedra/internal/models"
	"feedra/internal/repository"
	"feedra/pkg/mailer"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testDBSeq int64

func testConfig() *config.Config {
	return &config.Config{
		JWT: config.JWTConfig{
			AccessSecret:  "test-access",
			RefreshSecret: "test-refresh",
			ResetSecret:   "test-reset",
			AccessExpiry:  15 * time.Minute,
			RefreshExpiry: time.Hour,
			ResetExpiry:   30 * time.Minute,
			Issuer:        "feedra",
		},
		Mail: config.MailConfig{FromName: "Feedra Team", WelcomeGrace: time.Minute},
	}
}

func newAuthFixture(t *testing.T) (*AuthService, *repository.UserRepository, *mailer.StubProvider, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:svc%d?mode=memory&cache=shared", atomic.AddInt64(&testDBSeq, 1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(&models.User{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	userRepo := repository.NewUserRepository(db)
	stub := &mailer.StubProvider{}
	svc := NewAuthService(testConfig(), userRepo, NewMailService(stub, "Feedra Team"))
	return svc, userRepo, stub, db
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _, stub, _ := newAuthFixture(t)

	u, access, refresh, err := svc.Register("dana@example.com", "hunter2hunter2", "Dana", domain.RoleDonor)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if u.ID == 0 || access == "" || refresh == "" {
		t.Fatalf("incomplete registration result: id=%d access=%q refresh=%q", u.ID, access, refresh)
	}
	if stub.SentCount() != 1 {
		t.Errorf("welcome mails = %d, want 1", stub.SentCount())
	}

	if _, _, _, err := svc.Register("dana@example.com", "hunter2hunter2", "Dana", domain.RoleDonor); err != ErrEmailExists {
		t.Errorf("duplicate register = %v, want ErrEmailExists", err)
	}
	if _, _, _, err := svc.Register("x@example.com", "hunter2hunter2", "X", "admin"); err != ErrInvalidRole {
		t.Errorf("admin self-signup = %v, want ErrInvalidRole", err)
	}

	if _, _, _, err := svc.Login("dana@example.com", "wrong"); err != ErrInvalidCreds {
		t.Errorf("bad password = %v, want ErrInvalidCreds", err)
	}
	if _, _, _, err := svc.Login("nobody@example.com", "hunter2hunter2"); err != ErrInvalidCreds {
		t.Errorf("unknown email = %v, want ErrInvalidCreds", err)
	}
	lu, access2, _, err := svc.Login("dana@example.com", "hunter2hunter2")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if lu.ID != u.ID || access2 == "" {
		t.Errorf("login result: id=%d access=%q", lu.ID, access2)
	}
	// Welcome already sent; login must not resend.
	if stub.SentCount() != 1 {
		t.Errorf("welcome mails after login = %d, want 1", stub.SentCount())
	}
}

func TestWelcomeGraceWindow(t *testing.T) {
	svc, userRepo, stub, db := newAuthFixture(t)

	u := &models.User{Email: "late@example.com", DisplayName: "Late", Role: domain.RoleVolunteer}
	if err := userRepo.Create(u); err != nil {
		t.Fatal(err)
	}
	// Age the account past the grace window.
	old := time.Now().Add(-2 * time.Minute)
	db.Model(&models.User{}).Where("id = ?", u.ID).Update("created_at", old)
	u.CreatedAt = old

	svc.WelcomeIfNew(u)
	if stub.SentCount() != 0 {
		t.Errorf("welcome sent outside grace window: %d", stub.SentCount())
	}

	fresh := &models.User{Email: "new@example.com", DisplayName: "New", Role: domain.RoleVolunteer}
	if err := userRepo.Create(fresh); err != nil {
		t.Fatal(err)
	}
	svc.WelcomeIfNew(fresh)
	if stub.SentCount() != 1 {
		t.Fatalf("welcome inside grace window not sent: %d", stub.SentCount())
	}
	if !fresh.WelcomeEmailSent {
		t.Error("sent flag not recorded")
	}
	svc.WelcomeIfNew(fresh)
	if stub.SentCount() != 1 {
		t.Errorf("welcome resent: %d", stub.SentCount())
	}
}

func TestWelcomeFailureRetriesNextLogin(t *testing.T) {
	svc, userRepo, stub, _ := newAuthFixture(t)
	stub.Fail = fmt.Errorf("transport down")

	u := &models.User{Email: "retry@example.com", DisplayName: "Retry", Role: domain.RoleDonor}
	if err := userRepo.Create(u); err != nil {
		t.Fatal(err)
	}
	svc.WelcomeIfNew(u)
	if u.WelcomeEmailSent {
		t.Fatal("failed send must not set the sent flag")
	}

	stub.Fail = nil
	svc.WelcomeIfNew(u)
	if stub.SentCount() != 1 || !u.WelcomeEmailSent {
		t.Errorf("retry inside window: sent=%d flag=%v", stub.SentCount(), u.WelcomeEmailSent)
	}
}

func TestRefresh(t *testing.T) {
	svc, _, _, _ := newAuthFixture(t)
	u, _, refresh, err := svc.Register("dana@example.com", "hunter2hunter2", "Dana", domain.RoleNGO)
	if err != nil {
		t.Fatal(err)
	}
	ru, access, err := svc.Refresh(refresh)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if ru.ID != u.ID || access == "" {
		t.Errorf("refresh result: id=%d access=%q", ru.ID, access)
	}
	if _, _, err := svc.Refresh("not-a-token"); err == nil {
		t.Error("garbage refresh token accepted")
	}
}

func TestPasswordResetRoundTrip(t *testing.T) {
	svc, _, _, _ := newAuthFixture(t)
	u, _, _, err := svc.Register("dana@example.com", "hunter2hunter2", "Dana", domain.RoleDonor)
	if err != nil {
		t.Fatal(err)
	}
	token, err := auth.GenerateResetToken(&testConfig().JWT, u.ID, u.Email)
	if err != nil {
		t.Fatal(err)
	}
	if err := svc.CompletePasswordReset(token, "newpassword123"); err != nil {
		t.Fatalf("complete reset: %v", err)
	}
	if _, _, _, err := svc.Login("dana@example.com", "hunter2hunter2"); err != ErrInvalidCreds {
		t.Error("old password still valid after reset")
	}
	if _, _, _, err := svc.Login("dana@example.com", "newpassword123"); err != nil {
		t.Errorf("new password rejected: %v", err)
	}
	if err := svc.CompletePasswordReset("bogus", "whatever123"); err == nil {
		t.Error("bogus reset token accepted")
	}
}

func TestLoginWithGoogle(t *testing.T) {
	svc, userRepo, _, _ := newAuthFixture(t)

	u, access, refresh, isNew, err := svc.LoginWithGoogle("g-123", "dana@example.com", "Dana", "http://pic")
	if err != nil {
		t.Fatalf("first google login: %v", err)
	}
	if !isNew || access == "" || refresh == "" {
		t.Fatalf("first login: isNew=%v access=%q", isNew, access)
	}
	if u.Role != domain.RoleVolunteer {
		t.Errorf("google signup role = %q, want volunteer", u.Role)
	}

	again, _, _, isNew, err := svc.LoginWithGoogle("g-123", "dana@example.com", "Dana", "")
	if err != nil || isNew || again.ID != u.ID {
		t.Errorf("repeat login: id=%d isNew=%v err=%v", again.ID, isNew, err)
	}

	// An existing email account gets linked rather than duplicated.
	mail := &models.User{Email: "link@example.com", DisplayName: "Link", Role: domain.RoleDonor}
	if err := userRepo.Create(mail); err != nil {
		t.Fatal(err)
	}
	linked, _, _, isNew, err := svc.LoginWithGoogle("g-456", "link@example.com", "Link", "")
	if err != nil || isNew {
		t.Fatalf("link login: isNew=%v err=%v", isNew, err)
	}
	if linked.ID != mail.ID || linked.GoogleID == nil || *linked.GoogleID != "g-456" {
		t.Errorf("account not linked: %+v", linked)
	}
	if linked.Role != domain.RoleDonor {
		t.Errorf("linking changed the role to %q", linked.Role)
	}
}
