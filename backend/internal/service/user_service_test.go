package service

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/xuri/excelize/v2"

	"college-jump/backend/internal/dto"
	"college-jump/backend/internal/model"
	apperrors "college-jump/backend/pkg/errors"
)

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

// ── Create ──

func TestUserService_Create_Success(t *testing.T) {
	svc, repo := newTestService(t)
	mentor := mustUser(t, repo, "mentor", false)
	sem := mustSemester(t, repo, "2024 春", 1)

	resp, err := svc.User.Create(context.Background(), &dto.CreateUserRequest{
		Name:        "张三",
		Email:       " ZhangSan@Example.com ",
		Password:    "password123",
		MentorIDs:   []string{mentor.ID},
		SemesterIDs: []string{sem.ID},
	})
	if err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}
	if resp.Email != "zhangsan@example.com" {
		t.Errorf("邮箱应被规范化，实际 %q", resp.Email)
	}
	if !equalIDs(resp.MentorIDs, []string{mentor.ID}) {
		t.Errorf("导师列表不符: %v", resp.MentorIDs)
	}
	if !equalIDs(resp.SemesterIDs, []string{sem.ID}) {
		t.Errorf("学期列表不符: %v", resp.SemesterIDs)
	}

	stored, err := repo.User.GetByID(context.Background(), resp.ID)
	if err != nil {
		t.Fatalf("查询新用户失败: %v", err)
	}
	if !stored.CheckPassword("password123") {
		t.Error("新用户密码应可验证")
	}
}

func TestUserService_Create_DuplicateEmail(t *testing.T) {
	svc, repo := newTestService(t)
	mustUser(t, repo, "ann", false)

	_, err := svc.User.Create(context.Background(), &dto.CreateUserRequest{
		Name: "Ann", Email: "ANN@example.com", Password: "password123",
	})
	var ve *apperrors.ValidationError
	if !errors.As(err, &ve) || ve.Field != "email" || ve.Rule != "unique" {
		t.Fatalf("期望 email/unique 校验错误，实际: %v", err)
	}
}

func TestUserService_Create_UnknownMentor(t *testing.T) {
	svc, repo := newTestService(t)

	_, err := svc.User.Create(context.Background(), &dto.CreateUserRequest{
		Name: "Bob", Email: "bob@example.com", Password: "password123",
		MentorIDs: []string{"00000000-0000-0000-0000-000000000000"},
	})
	var ve *apperrors.ValidationError
	if !errors.As(err, &ve) || ve.Field != "mentor_ids" {
		t.Fatalf("期望 mentor_ids 校验错误，实际: %v", err)
	}
	if _, err := repo.User.GetByEmail(context.Background(), "bob@example.com"); err == nil {
		t.Error("校验失败时不应留下用户记录")
	}
}

// ── GetByID ──

func TestUserService_GetByID_Permission(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	admin := mustUser(t, repo, "admin", true)
	alice := mustUser(t, repo, "alice", false)
	bob := mustUser(t, repo, "bob", false)

	if _, err := svc.User.GetByID(ctx, alice, alice.ID); err != nil {
		t.Errorf("本人查看应成功: %v", err)
	}
	if _, err := svc.User.GetByID(ctx, admin, alice.ID); err != nil {
		t.Errorf("管理员查看应成功: %v", err)
	}
	if _, err := svc.User.GetByID(ctx, bob, alice.ID); !errors.Is(err, apperrors.ErrPermissionDenied) {
		t.Errorf("期望 ErrPermissionDenied，实际: %v", err)
	}
	if _, err := svc.User.GetByID(ctx, admin, "nonexistent"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("期望 ErrUserNotFound，实际: %v", err)
	}
}

// ── Edit ──

func TestUserService_Edit_Self(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	alice := mustUser(t, repo, "alice", false)

	resp, err := svc.User.Edit(ctx, alice, alice.ID, &dto.SelfEdit{
		Name:     strPtr("Alice Liddell"),
		Password: strPtr("new-password"),
	})
	if err != nil {
		t.Fatalf("本人编辑应成功: %v", err)
	}
	if resp.Name != "Alice Liddell" {
		t.Errorf("姓名未更新: %s", resp.Name)
	}
	stored, _ := repo.User.GetByID(ctx, alice.ID)
	if !stored.CheckPassword("new-password") || stored.CheckPassword("password-alice") {
		t.Error("密码应被替换")
	}
}

func TestUserService_Edit_SelfFormOnOtherUser(t *testing.T) {
	svc, repo := newTestService(t)
	alice := mustUser(t, repo, "alice", false)
	bob := mustUser(t, repo, "bob", false)

	_, err := svc.User.Edit(context.Background(), alice, bob.ID, &dto.SelfEdit{Name: strPtr("x")})
	if !errors.Is(err, apperrors.ErrPermissionDenied) {
		t.Errorf("期望 ErrPermissionDenied，实际: %v", err)
	}
}

func TestUserService_Edit_AdminFormRequiresAdmin(t *testing.T) {
	svc, repo := newTestService(t)
	alice := mustUser(t, repo, "alice", false)

	_, err := svc.User.Edit(context.Background(), alice, alice.ID, &dto.AdminEdit{IsAdmin: boolPtr(true)})
	if !errors.Is(err, apperrors.ErrPermissionDenied) {
		t.Errorf("非管理员不能使用管理员表单，实际: %v", err)
	}
}

func TestUserService_Edit_SelfMentorRejected(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	admin := mustUser(t, repo, "admin", true)
	alice := mustUser(t, repo, "alice", false)
	mentor := mustUser(t, repo, "mentor", false)
	mustMentor(t, repo, alice, mentor)

	ids := []string{mentor.ID, alice.ID}
	_, err := svc.User.Edit(ctx, admin, alice.ID, &dto.AdminEdit{MentorIDs: &ids})
	if !errors.Is(err, model.ErrSelfMentorship) {
		t.Fatalf("期望 ErrSelfMentorship，实际: %v", err)
	}

	// 事务回滚，原有导师关系保持不变
	mentors, _ := repo.Mentorship.MentorIDs(ctx, alice.ID)
	if !equalIDs(mentors, []string{mentor.ID}) {
		t.Errorf("导师关系不应被修改: %v", mentors)
	}
}

func TestUserService_Edit_AdminChangesEverything(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	admin := mustUser(t, repo, "admin", true)
	alice := mustUser(t, repo, "alice", false)
	mentor := mustUser(t, repo, "mentor", false)
	sem := mustSemester(t, repo, "2024 春", 1)

	mentors := []string{mentor.ID}
	semesters := []string{sem.ID}
	resp, err := svc.User.Edit(ctx, admin, alice.ID, &dto.AdminEdit{
		Email:       strPtr("Alice@New.example.com"),
		IsAdmin:     boolPtr(true),
		MentorIDs:   &mentors,
		SemesterIDs: &semesters,
	})
	if err != nil {
		t.Fatalf("管理员编辑应成功: %v", err)
	}
	if resp.Email != "alice@new.example.com" || !resp.IsAdmin {
		t.Errorf("邮箱或管理员标志未更新: %+v", resp)
	}
	if !equalIDs(resp.MentorIDs, mentors) || !equalIDs(resp.SemesterIDs, semesters) {
		t.Errorf("关联未更新: %+v", resp)
	}
}

func TestUserService_Edit_EmailTakenByOther(t *testing.T) {
	svc, repo := newTestService(t)
	admin := mustUser(t, repo, "admin", true)
	alice := mustUser(t, repo, "alice", false)
	mustUser(t, repo, "bob", false)

	_, err := svc.User.Edit(context.Background(), admin, alice.ID, &dto.AdminEdit{Email: strPtr("BOB@example.com")})
	var ve *apperrors.ValidationError
	if !errors.As(err, &ve) || ve.Rule != "unique" {
		t.Errorf("期望唯一性校验错误，实际: %v", err)
	}
}

func TestUserService_Edit_AdminCannotDemoteSelf(t *testing.T) {
	svc, repo := newTestService(t)
	admin := mustUser(t, repo, "admin", true)

	_, err := svc.User.Edit(context.Background(), admin, admin.ID, &dto.AdminEdit{IsAdmin: boolPtr(false)})
	if !errors.Is(err, ErrUserSelfDemote) {
		t.Errorf("期望 ErrUserSelfDemote，实际: %v", err)
	}
}

// ── Delete ──

func TestUserService_Delete(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	admin := mustUser(t, repo, "admin", true)
	alice := mustUser(t, repo, "alice", false)

	if err := svc.User.Delete(ctx, admin, admin.ID); !errors.Is(err, ErrUserSelfDelete) {
		t.Errorf("期望 ErrUserSelfDelete，实际: %v", err)
	}
	if err := svc.User.Delete(ctx, alice, admin.ID); !errors.Is(err, apperrors.ErrPermissionDenied) {
		t.Errorf("期望 ErrPermissionDenied，实际: %v", err)
	}
	if err := svc.User.Delete(ctx, admin, alice.ID); err != nil {
		t.Fatalf("删除应成功: %v", err)
	}
	if err := svc.User.Delete(ctx, admin, alice.ID); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("重复删除期望 ErrUserNotFound，实际: %v", err)
	}
}

// ── 花名册导入 ──

func buildRosterXLSX(t *testing.T, rows [][]string) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		for j, v := range row {
			f.SetCellValue("Sheet1", cell(colName(j), i+1), v)
		}
	}
	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		t.Fatalf("生成测试 Excel 失败: %v", err)
	}
	return buf
}

func TestUserService_ParseImportFile(t *testing.T) {
	svc, _ := newTestService(t)

	buf := buildRosterXLSX(t, [][]string{
		{"邮箱", "姓名", "管理员"},
		{"a@example.com", "甲", "是"},
		{"", "", ""},
		{"b@example.com", "乙", ""},
	})
	rows, err := svc.User.ParseImportFile(buf)
	if err != nil {
		t.Fatalf("ParseImportFile 应成功: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("空行应被跳过，期望 2 行，实际 %d", len(rows))
	}
	if rows[0].Name != "甲" || rows[0].Email != "a@example.com" || !rows[0].IsAdmin {
		t.Errorf("第一行解析错误: %+v", rows[0])
	}
	if rows[1].IsAdmin || rows[1].Row != 4 {
		t.Errorf("第二行解析错误: %+v", rows[1])
	}
}

func TestUserService_ParseImportFile_BadHeader(t *testing.T) {
	svc, _ := newTestService(t)

	buf := buildRosterXLSX(t, [][]string{{"学号", "电话"}, {"1", "2"}})
	if _, err := svc.User.ParseImportFile(buf); !errors.Is(err, ErrImportBadHeader) {
		t.Errorf("期望 ErrImportBadHeader，实际: %v", err)
	}
}

func TestUserService_ImportUsers(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	mustUser(t, repo, "taken", false)

	resp, err := svc.User.ImportUsers(ctx, []ImportUserRow{
		{Row: 2, Name: "甲", Email: "Jia@Example.com"},
		{Row: 3, Name: "乙", Email: "jia@example.com"},
		{Row: 4, Name: "丙", Email: "taken@example.com"},
		{Row: 5, Name: "", Email: "empty@example.com"},
		{Row: 6, Name: "丁", Email: "not-an-email"},
		{Row: 7, Name: "戊", Email: "wu@example.com", IsAdmin: true},
	})
	if err != nil {
		t.Fatalf("ImportUsers 应成功: %v", err)
	}
	if resp.Total != 6 || resp.Success != 2 || resp.Failed != 4 {
		t.Fatalf("统计不符: %+v", resp)
	}
	if len(resp.Credentials) != 2 {
		t.Fatalf("期望 2 个临时密码，实际 %d", len(resp.Credentials))
	}

	for _, cred := range resp.Credentials {
		u, err := repo.User.GetByEmail(ctx, cred.Email)
		if err != nil {
			t.Fatalf("导入的用户 %s 应存在: %v", cred.Email, err)
		}
		if !u.CheckPassword(cred.TempPassword) {
			t.Errorf("用户 %s 的临时密码无法验证", cred.Email)
		}
	}
	wu, _ := repo.User.GetByEmail(ctx, "wu@example.com")
	if wu == nil || !wu.IsAdmin {
		t.Error("管理员列应生效")
	}
}

func TestGenerateTempPassword(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		p, err := generateTempPassword(12)
		if err != nil {
			t.Fatalf("生成临时密码失败: %v", err)
		}
		if len(p) != 12 {
			t.Errorf("期望长度 12，实际 %d", len(p))
		}
		seen[p] = true
	}
	if len(seen) < 20 {
		t.Error("临时密码不应重复")
	}
}
