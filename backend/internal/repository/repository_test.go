package repository_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"college-jump/backend/config"
	"college-jump/backend/internal/model"
	"college-jump/backend/internal/repository"
	"college-jump/backend/pkg/database"
	apperrors "college-jump/backend/pkg/errors"
)

// newTestRepo 每个测试使用独立的内存 SQLite 数据库
func newTestRepo(t *testing.T) (*repository.Repository, *gorm.DB) {
	t.Helper()
	cfg := &config.DatabaseConfig{Driver: config.DriverSQLite, Path: ":memory:"}
	db, err := database.NewDB(cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("打开测试数据库失败: %v", err)
	}
	if err := database.Migrate(db, cfg.Driver, zap.NewNop()); err != nil {
		t.Fatalf("迁移失败: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return repository.NewRepository(db), db
}

func mustUser(t *testing.T, repo *repository.Repository, name string) *model.User {
	t.Helper()
	u := &model.User{Name: name, Email: name + "@example.com", PasswordHash: "x"}
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

// ── User ──

func TestUserRepo_GetByEmail_CaseInsensitive(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	u := &model.User{Name: "Ann", Email: "A@X.com", PasswordHash: "x"}
	if err := repo.User.Create(ctx, u); err != nil {
		t.Fatalf("创建用户应成功: %v", err)
	}
	if u.Email != "a@x.com" {
		t.Errorf("邮箱应被规范化，实际 %q", u.Email)
	}

	got, err := repo.User.GetByEmail(ctx, "a@X.COM ")
	if err != nil {
		t.Fatalf("大小写不同的邮箱应能查到用户: %v", err)
	}
	if got.ID != u.ID {
		t.Errorf("ID 不匹配: %s vs %s", got.ID, u.ID)
	}

	dup := &model.User{Name: "Ann2", Email: "a@x.COM", PasswordHash: "x"}
	if err := repo.User.Create(ctx, dup); err == nil {
		t.Error("大小写不同的重复邮箱应违反唯一约束")
	}
}

func TestUserRepo_GetByEmail_NotFound(t *testing.T) {
	repo, _ := newTestRepo(t)
	_, err := repo.User.GetByEmail(context.Background(), "nobody@example.com")
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("期望 ErrRecordNotFound，实际 %v", err)
	}
}

func TestUserRepo_GetByEmail_Ambiguous(t *testing.T) {
	repo, db := newTestRepo(t)
	ctx := context.Background()

	// 以无约束的副本替换 users 表，模拟历史脏数据
	for _, stmt := range []string{
		"CREATE TABLE users_tmp AS SELECT * FROM users",
		"DROP TABLE users",
		"ALTER TABLE users_tmp RENAME TO users",
	} {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("执行 %q 失败: %v", stmt, err)
		}
	}
	for i := 0; i < 2; i++ {
		err := db.Exec("INSERT INTO users (id, name, email, password_hash, is_admin) VALUES (?, ?, ?, ?, ?)",
			fmt.Sprintf("00000000-0000-0000-0000-00000000000%d", i), "dup", "dup@example.com", "x", false).Error
		if err != nil {
			t.Fatalf("插入重复数据失败: %v", err)
		}
	}

	_, err := repo.User.GetByEmail(ctx, "dup@example.com")
	if !errors.Is(err, apperrors.ErrDataIntegrity) {
		t.Errorf("期望 ErrDataIntegrity，实际 %v", err)
	}
}

func TestUserRepo_Delete_Cascades(t *testing.T) {
	repo, db := newTestRepo(t)
	ctx := context.Background()

	mentor := mustUser(t, repo, "mentor")
	mentee := mustUser(t, repo, "mentee")
	sem := mustSemester(t, repo, "Fall", 1)

	if err := repo.Mentorship.ReplaceMentors(ctx, mentee.ID, []string{mentor.ID}); err != nil {
		t.Fatalf("设置导师失败: %v", err)
	}
	if err := repo.Enrollment.Enroll(ctx, mentor.ID, sem.ID); err != nil {
		t.Fatalf("注册学期失败: %v", err)
	}
	ann := &model.Announcement{Title: "hi", Content: "x", AuthorID: &mentor.ID}
	if err := repo.Announcement.Create(ctx, ann); err != nil {
		t.Fatalf("创建公告失败: %v", err)
	}

	if err := repo.User.Delete(ctx, mentor.ID); err != nil {
		t.Fatalf("删除用户应成功: %v", err)
	}

	var count int64
	db.Model(&model.Mentorship{}).Count(&count)
	if count != 0 {
		t.Errorf("导师关系应被删除，剩余 %d", count)
	}
	db.Model(&model.Enrollment{}).Count(&count)
	if count != 0 {
		t.Errorf("注册记录应被删除，剩余 %d", count)
	}

	got, err := repo.Announcement.GetByID(ctx, ann.ID)
	if err != nil {
		t.Fatalf("公告应保留: %v", err)
	}
	if got.AuthorID != nil {
		t.Errorf("公告作者应置空，实际 %v", *got.AuthorID)
	}

	if err := repo.User.Delete(ctx, mentor.ID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("重复删除应返回 ErrRecordNotFound，实际 %v", err)
	}
}

func TestMentorshipRepo_RejectsSelf(t *testing.T) {
	repo, _ := newTestRepo(t)
	u := mustUser(t, repo, "solo")

	err := repo.Mentorship.ReplaceMentors(context.Background(), u.ID, []string{u.ID})
	if !errors.Is(err, model.ErrSelfMentorship) {
		t.Errorf("期望 ErrSelfMentorship，实际 %v", err)
	}
}

// ── Semester ──

func TestSemesterRepo_OrderUnique(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()
	s := mustSemester(t, repo, "Fall", 3)

	taken, err := repo.Semester.OrderTaken(ctx, 3, "")
	if err != nil || !taken {
		t.Errorf("order=3 应已被占用: taken=%v err=%v", taken, err)
	}
	taken, _ = repo.Semester.OrderTaken(ctx, 3, s.ID)
	if taken {
		t.Error("排除自身后 order=3 不应视为占用")
	}

	if err := repo.Semester.Create(ctx, &model.Semester{Name: "Spring", Order: 3}); err == nil {
		t.Error("重复 order 应违反唯一约束")
	}
}

func TestSemesterRepo_ListEnrolled(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	a := mustUser(t, repo, "a")
	b := mustUser(t, repo, "b")
	s1 := mustSemester(t, repo, "S1", 1)
	s2 := mustSemester(t, repo, "S2", 2)
	mustSemester(t, repo, "S3", 3)

	_ = repo.Enrollment.Enroll(ctx, a.ID, s1.ID)
	_ = repo.Enrollment.Enroll(ctx, b.ID, s1.ID)
	_ = repo.Enrollment.Enroll(ctx, b.ID, s2.ID)

	list, err := repo.Semester.ListEnrolled(ctx, []string{a.ID, b.ID})
	if err != nil {
		t.Fatalf("ListEnrolled 应成功: %v", err)
	}
	if len(list) != 2 || list[0].ID != s2.ID || list[1].ID != s1.ID {
		t.Errorf("期望 [S2 S1]，实际 %+v", list)
	}
}

func TestSemesterRepo_Delete_CascadesWeeks(t *testing.T) {
	repo, db := newTestRepo(t)
	ctx := context.Background()
	s := mustSemester(t, repo, "Fall", 1)
	u := mustUser(t, repo, "u")
	_ = repo.Enrollment.Enroll(ctx, u.ID, s.ID)

	w := &model.Week{SemesterID: s.ID, WeekNum: 1, Header: "W1"}
	if err := repo.Week.Create(ctx, w); err != nil {
		t.Fatalf("创建教学周失败: %v", err)
	}
	doc := &model.Document{Name: "notes.pdf", Data: []byte("pdf")}
	_ = repo.Document.Create(ctx, doc)
	_ = repo.Week.AttachDocument(ctx, w.ID, doc.ID)

	if err := repo.Semester.Delete(ctx, s.ID); err != nil {
		t.Fatalf("删除学期应成功: %v", err)
	}

	var count int64
	db.Model(&model.Week{}).Count(&count)
	if count != 0 {
		t.Errorf("教学周应被删除，剩余 %d", count)
	}
	db.Model(&model.Document{}).Count(&count)
	if count != 0 {
		t.Errorf("孤立资料应被删除，剩余 %d", count)
	}
	db.Model(&model.Enrollment{}).Count(&count)
	if count != 0 {
		t.Errorf("注册记录应被删除，剩余 %d", count)
	}
}

// ── Week ──

func TestWeekRepo_Delete_Renumbers(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()
	s := mustSemester(t, repo, "Fall", 1)

	for i := 1; i <= 5; i++ {
		w := &model.Week{SemesterID: s.ID, WeekNum: i, Header: fmt.Sprintf("W%d", i)}
		if err := repo.Week.Create(ctx, w); err != nil {
			t.Fatalf("创建第 %d 周失败: %v", i, err)
		}
	}

	if err := repo.Week.Delete(ctx, s.ID, 2); err != nil {
		t.Fatalf("删除第 2 周应成功: %v", err)
	}

	weeks, err := repo.Week.ListBySemester(ctx, s.ID)
	if err != nil {
		t.Fatalf("ListBySemester 失败: %v", err)
	}
	wantHeaders := []string{"W1", "W3", "W4", "W5"}
	if len(weeks) != len(wantHeaders) {
		t.Fatalf("期望 %d 周，实际 %d", len(wantHeaders), len(weeks))
	}
	for i, w := range weeks {
		if w.WeekNum != i+1 {
			t.Errorf("第 %d 个教学周编号应为 %d，实际 %d", i, i+1, w.WeekNum)
		}
		if w.Header != wantHeaders[i] {
			t.Errorf("第 %d 周内容应为 %s，实际 %s", i+1, wantHeaders[i], w.Header)
		}
	}

	max, _ := repo.Week.MaxWeekNum(ctx, s.ID)
	if max != 4 {
		t.Errorf("MaxWeekNum 期望 4，实际 %d", max)
	}
}

func TestWeekRepo_Delete_NotFound(t *testing.T) {
	repo, _ := newTestRepo(t)
	s := mustSemester(t, repo, "Fall", 1)
	err := repo.Week.Delete(context.Background(), s.ID, 9)
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("期望 ErrRecordNotFound，实际 %v", err)
	}
}

func TestWeekRepo_SemesterIDsOfAssignment(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()
	s := mustSemester(t, repo, "Fall", 1)
	w := &model.Week{SemesterID: s.ID, WeekNum: 1, Header: "W1"}
	_ = repo.Week.Create(ctx, w)
	a := &model.Assignment{Name: "hw1"}
	_ = repo.Assignment.Create(ctx, a)
	_ = repo.Week.AttachAssignment(ctx, w.ID, a.ID)
	_ = repo.Week.AttachAssignment(ctx, w.ID, a.ID) // 重复关联应忽略

	ids, err := repo.Week.SemesterIDsOfAssignment(ctx, a.ID)
	if err != nil {
		t.Fatalf("查询失败: %v", err)
	}
	if len(ids) != 1 || ids[0] != s.ID {
		t.Errorf("期望 [%s]，实际 %v", s.ID, ids)
	}

	list, _ := repo.Week.Assignments(ctx, w.ID)
	if len(list) != 1 {
		t.Errorf("期望 1 个作业，实际 %d", len(list))
	}
}

// ── Transaction ──

func TestRepository_Transaction_Rollback(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	sentinel := errors.New("boom")
	var createdID string
	err := repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		s := &model.Semester{Name: "Tx", Order: 42}
		if err := txRepo.Semester.Create(ctx, s); err != nil {
			return err
		}
		createdID = s.ID
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("期望返回 sentinel，实际 %v", err)
	}
	if _, err := repo.Semester.GetByID(ctx, createdID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("回滚后不应查到学期，实际 err=%v", err)
	}
}
