package model

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	apperrors "college-jump/backend/pkg/errors"
)

// ── 密码 ──

func TestUser_PasswordRoundTrip(t *testing.T) {
	u := &User{}
	if err := u.SetPassword("hunter2", bcrypt.MinCost); err != nil {
		t.Fatalf("SetPassword 应成功: %v", err)
	}
	if u.PasswordHash == "" || u.PasswordHash == "hunter2" {
		t.Fatalf("PasswordHash 不应为空或明文: %q", u.PasswordHash)
	}
	if !u.CheckPassword("hunter2") {
		t.Error("正确密码应校验通过")
	}
	if u.CheckPassword("hunter3") {
		t.Error("错误密码不应校验通过")
	}
	if u.CheckPassword("") {
		t.Error("空密码不应校验通过")
	}
}

func TestUser_SetPassword_FreshSalt(t *testing.T) {
	a, b := &User{}, &User{}
	_ = a.SetPassword("same", bcrypt.MinCost)
	_ = b.SetPassword("same", bcrypt.MinCost)
	if a.PasswordHash == b.PasswordHash {
		t.Error("相同明文两次哈希结果应不同")
	}
}

func TestUser_CheckPassword_NoHash(t *testing.T) {
	u := &User{}
	if u.CheckPassword("anything") {
		t.Error("未设置密码的用户不应校验通过")
	}
}

// ── 邮箱 ──

func TestNormalizeEmail(t *testing.T) {
	cases := map[string]string{
		"A@X.com":            "a@x.com",
		"  Bob@Example.ORG ": "bob@example.org",
		"c@d.e":              "c@d.e",
	}
	for in, want := range cases {
		got := NormalizeEmail(in)
		if got != want {
			t.Errorf("NormalizeEmail(%q) = %q, want %q", in, got, want)
		}
		if NormalizeEmail(got) != got {
			t.Errorf("NormalizeEmail 应幂等: %q", got)
		}
	}
}

func TestUser_BeforeSave_NormalizesEmail(t *testing.T) {
	u := &User{Name: "Ann", Email: " Ann@Example.COM", PasswordHash: "x"}
	if err := u.BeforeSave(nil); err != nil {
		t.Fatalf("BeforeSave 应成功: %v", err)
	}
	if u.Email != "ann@example.com" {
		t.Errorf("Email = %q, want ann@example.com", u.Email)
	}
}

// ── 字段校验 ──

func TestValidate_LengthCountsRunes(t *testing.T) {
	// 32 个汉字超过 32 字节，但字符数恰好为上限
	s := &Semester{Name: strings.Repeat("学", SemesterNameMaxLength)}
	if err := Validate(s); err != nil {
		t.Fatalf("32 个字符的名称应通过校验: %v", err)
	}

	s.Name += "期"
	err := Validate(s)
	var ve *apperrors.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("超长名称应返回 ValidationError, got %v", err)
	}
	if ve.Field != "name" || ve.Rule != "max" || ve.Param != "32" {
		t.Errorf("ValidationError = %+v", ve)
	}
}

func TestValidate_Required(t *testing.T) {
	err := Validate(&Announcement{Title: ""})
	if !apperrors.IsValidation(err) {
		t.Fatalf("空标题应返回 ValidationError, got %v", err)
	}
}

func TestWeek_WeekNumMustBePositive(t *testing.T) {
	w := &Week{SemesterID: "s1", WeekNum: 0}
	if err := w.BeforeSave(nil); !apperrors.IsValidation(err) {
		t.Fatalf("week_num=0 应返回 ValidationError, got %v", err)
	}
	w.WeekNum = 1
	if err := w.BeforeSave(nil); err != nil {
		t.Fatalf("week_num=1 应通过: %v", err)
	}
}

func TestAssignment_InvalidQuestionsJSON(t *testing.T) {
	a := &Assignment{Name: "hw1", Questions: []byte("{not json")}
	if err := a.BeforeSave(nil); !apperrors.IsValidation(err) {
		t.Fatalf("非法 JSON 应返回 ValidationError, got %v", err)
	}
}

func TestMentorship_RejectsSelf(t *testing.T) {
	m := &Mentorship{MentorID: "u1", MenteeID: "u1"}
	if err := m.BeforeSave(nil); !errors.Is(err, ErrSelfMentorship) {
		t.Fatalf("自我指导应返回 ErrSelfMentorship, got %v", err)
	}
	m.MenteeID = "u2"
	if err := m.BeforeSave(nil); err != nil {
		t.Fatalf("正常导师关系应通过: %v", err)
	}
}

func TestBeforeCreate_KeepsExistingID(t *testing.T) {
	d := &Document{ID: "fixed"}
	_ = d.BeforeCreate(nil)
	if d.ID != "fixed" {
		t.Errorf("已有主键不应被覆盖: %q", d.ID)
	}
	d2 := &Document{}
	_ = d2.BeforeCreate(nil)
	if d2.ID == "" {
		t.Error("应生成主键")
	}
}
