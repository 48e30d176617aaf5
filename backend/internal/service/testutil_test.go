package service

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"college-jump/backend/config"
	"college-jump/backend/internal/model"
	"college-jump/backend/internal/repository"
	"college-jump/backend/pkg/database"
	"college-jump/backend/pkg/jwt"
)

const testSetupKey = "setup-key-for-tests"

func testConfig() *config.Config {
	return &config.Config{
		Database: config.DatabaseConfig{Driver: config.DriverSQLite, Path: ":memory:"},
		Auth: config.AuthConfig{
			JWTSecret:       "test-secret-at-least-16",
			AccessTokenTTL:  15 * time.Minute,
			RefreshTokenTTL: time.Hour,
			BcryptCost:      bcrypt.MinCost,
			SetupKey:        testSetupKey,
		},
		Backup: config.BackupConfig{MaxArchiveMB: 8},
	}
}

// newTestService 每个测试使用独立的内存 SQLite 数据库
func newTestService(t *testing.T) (*Service, *repository.Repository) {
	t.Helper()
	svc, repo, _ := newTestServiceDB(t)
	return svc, repo
}

func newTestServiceDB(t *testing.T) (*Service, *repository.Repository, *gorm.DB) {
	t.Helper()
	cfg := testConfig()
	db, err := database.NewDB(&cfg.Database, zap.NewNop())
	if err != nil {
		t.Fatalf("打开测试数据库失败: %v", err)
	}
	if err := database.Migrate(db, cfg.Database.Driver, zap.NewNop()); err != nil {
		t.Fatalf("迁移失败: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	repo := repository.NewRepository(db)
	return NewService(cfg, repo, jwt.NewManager(&cfg.Auth), nil, zap.NewNop()), repo, db
}

func mustUser(t *testing.T, repo *repository.Repository, name string, admin bool) *model.User {
	t.Helper()
	u := &model.User{Name: name, Email: name + "@example.com", IsAdmin: admin}
	if err := u.SetPassword("password-"+name, bcrypt.MinCost); err != nil {
		t.Fatalf("设置密码失败: %v", err)
	}
	if err := repo.User.Create(context.Background(), u); err != nil {
		t.Fatalf("创建用户 %s 失败: %v", name, err)
	}
	return u
}

func mustSemester(t *testing.T, repo *repository.Repository, name string, order int) *model.Semester {
	t.Helper()
	s := &model.Semester{Name: name, Order: order}
	if err := repo.Semester.Create(context.Background(), s); err != nil {
		t.Fatalf("创建学期 %s 失败: %v", name, err)
	}
	return s
}

func mustEnroll(t *testing.T, repo *repository.Repository, user *model.User, semesters ...*model.Semester) {
	t.Helper()
	for _, s := range semesters {
		if err := repo.Enrollment.Enroll(context.Background(), user.ID, s.ID); err != nil {
			t.Fatalf("注册学期失败: %v", err)
		}
	}
}

func mustMentor(t *testing.T, repo *repository.Repository, mentee *model.User, mentors ...*model.User) {
	t.Helper()
	ids := make([]string, 0, len(mentors))
	for _, m := range mentors {
		ids = append(ids, m.ID)
	}
	if err := repo.Mentorship.ReplaceMentors(context.Background(), mentee.ID, ids); err != nil {
		t.Fatalf("设置导师失败: %v", err)
	}
}

func semesterIDs(list []model.Semester) []string {
	out := make([]string, 0, len(list))
	for _, s := range list {
		out = append(out, s.ID)
	}
	return out
}

func equalIDs(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}
