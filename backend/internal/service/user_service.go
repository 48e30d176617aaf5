package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"college-jump/backend/internal/dto"
	"college-jump/backend/internal/model"
	"college-jump/backend/internal/repository"
	apperrors "college-jump/backend/pkg/errors"
)

var (
	ErrUserNotFound   = errors.New("用户不存在")
	ErrUserSelfDelete = errors.New("不能删除自己")
	ErrUserSelfDemote = errors.New("不能取消自己的管理员身份")
)

// UserService 用户业务接口
type UserService interface {
	Create(ctx context.Context, req *dto.CreateUserRequest) (*dto.UserResponse, error)
	// GetByID 本人或管理员可查看
	GetByID(ctx context.Context, caller *model.User, id string) (*dto.UserResponse, error)
	List(ctx context.Context) ([]dto.UserResponse, error)
	// Edit 按请求变体执行：SelfEdit 仅限本人，AdminEdit 仅限管理员
	Edit(ctx context.Context, caller *model.User, id string, req dto.UserEditRequest) (*dto.UserResponse, error)
	Delete(ctx context.Context, caller *model.User, id string) error

	// ParseImportFile 解析花名册 Excel（姓名/邮箱/管理员 三列，第一行为表头）
	ParseImportFile(reader io.Reader) ([]ImportUserRow, error)
	// ImportUsers 批量创建账号并为每个账号生成临时密码
	ImportUsers(ctx context.Context, rows []ImportUserRow) (*dto.ImportUserResponse, error)
}

// ImportUserRow 花名册中的一行
type ImportUserRow struct {
	Row     int
	Name    string
	Email   string
	IsAdmin bool
}

type userService struct {
	repo         *repository.Repository
	passwordCost int
	logger       *zap.Logger
}

// NewUserService 创建 UserService 实例
func NewUserService(repo *repository.Repository, passwordCost int, logger *zap.Logger) UserService {
	return &userService{repo: repo, passwordCost: passwordCost, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *userService) Create(ctx context.Context, req *dto.CreateUserRequest) (*dto.UserResponse, error) {
	user := &model.User{
		Name:    strings.TrimSpace(req.Name),
		Email:   model.NormalizeEmail(req.Email),
		IsAdmin: req.IsAdmin,
	}
	if err := user.SetPassword(req.Password, s.passwordCost); err != nil {
		s.logger.Error("密码哈希失败", zap.Error(err))
		return nil, err
	}

	err := s.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		if err := checkEmailFree(ctx, txRepo, user.Email, ""); err != nil {
			return err
		}
		if err := txRepo.User.Create(ctx, user); err != nil {
			return err
		}
		if len(req.MentorIDs) > 0 {
			if err := replaceMentors(ctx, txRepo, user.ID, req.MentorIDs); err != nil {
				return err
			}
		}
		if len(req.SemesterIDs) > 0 {
			if err := replaceEnrollments(ctx, txRepo, user.ID, req.SemesterIDs); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if !apperrors.IsValidation(err) {
			s.logger.Error("创建用户失败", zap.String("email", user.Email), zap.Error(err))
		}
		return nil, err
	}

	s.logger.Info("用户已创建", zap.String("id", user.ID), zap.Bool("is_admin", user.IsAdmin))
	return s.toUserResponse(ctx, user)
}

// ────────────────────── GetByID / List ──────────────────────

func (s *userService) GetByID(ctx context.Context, caller *model.User, id string) (*dto.UserResponse, error) {
	if !caller.IsAdmin && caller.ID != id {
		return nil, apperrors.ErrPermissionDenied
	}
	user, err := s.repo.User.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("查询用户失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return s.toUserResponse(ctx, user)
}

func (s *userService) List(ctx context.Context) ([]dto.UserResponse, error) {
	users, err := s.repo.User.List(ctx)
	if err != nil {
		s.logger.Error("列出用户失败", zap.Error(err))
		return nil, err
	}
	out := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		resp, err := s.toUserResponse(ctx, &users[i])
		if err != nil {
			return nil, err
		}
		out = append(out, *resp)
	}
	return out, nil
}

// ────────────────────── Edit ──────────────────────

func (s *userService) Edit(ctx context.Context, caller *model.User, id string, req dto.UserEditRequest) (*dto.UserResponse, error) {
	switch r := req.(type) {
	case *dto.SelfEdit:
		if caller.ID != id {
			return nil, apperrors.ErrPermissionDenied
		}
		return s.applyEdit(ctx, id, func(ctx context.Context, txRepo *repository.Repository, user *model.User) error {
			return s.applyCommon(user, r.Name, r.Password)
		})
	case *dto.AdminEdit:
		if !caller.IsAdmin {
			return nil, apperrors.ErrPermissionDenied
		}
		if r.IsAdmin != nil && !*r.IsAdmin && caller.ID == id {
			return nil, ErrUserSelfDemote
		}
		return s.applyEdit(ctx, id, func(ctx context.Context, txRepo *repository.Repository, user *model.User) error {
			if err := s.applyCommon(user, r.Name, r.Password); err != nil {
				return err
			}
			if r.Email != nil {
				email := model.NormalizeEmail(*r.Email)
				if err := checkEmailFree(ctx, txRepo, email, user.ID); err != nil {
					return err
				}
				user.Email = email
			}
			if r.IsAdmin != nil {
				user.IsAdmin = *r.IsAdmin
			}
			if r.MentorIDs != nil {
				if err := replaceMentors(ctx, txRepo, user.ID, *r.MentorIDs); err != nil {
					return err
				}
			}
			if r.SemesterIDs != nil {
				if err := replaceEnrollments(ctx, txRepo, user.ID, *r.SemesterIDs); err != nil {
					return err
				}
			}
			return nil
		})
	default:
		return nil, fmt.Errorf("未知的编辑请求类型 %T", req)
	}
}

func (s *userService) applyCommon(user *model.User, name, password *string) error {
	if name != nil {
		user.Name = strings.TrimSpace(*name)
	}
	if password != nil {
		if err := user.SetPassword(*password, s.passwordCost); err != nil {
			return err
		}
	}
	return nil
}

// applyEdit 在事务中加载用户、执行修改并保存
func (s *userService) applyEdit(
	ctx context.Context,
	id string,
	mutate func(ctx context.Context, txRepo *repository.Repository, user *model.User) error,
) (*dto.UserResponse, error) {
	var user *model.User
	err := s.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		var err error
		user, err = txRepo.User.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := mutate(ctx, txRepo, user); err != nil {
			return err
		}
		return txRepo.User.Update(ctx, user)
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		if !apperrors.IsValidation(err) {
			s.logger.Error("更新用户失败", zap.String("id", id), zap.Error(err))
		}
		return nil, err
	}
	return s.toUserResponse(ctx, user)
}

// ────────────────────── Delete ──────────────────────

func (s *userService) Delete(ctx context.Context, caller *model.User, id string) error {
	if !caller.IsAdmin {
		return apperrors.ErrPermissionDenied
	}
	if caller.ID == id {
		return ErrUserSelfDelete
	}
	if err := s.repo.User.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		s.logger.Error("删除用户失败", zap.String("id", id), zap.Error(err))
		return err
	}
	s.logger.Info("用户已删除", zap.String("id", id), zap.String("by", caller.ID))
	return nil
}

// ────────────────────── ParseImportFile ──────────────────────

const maxImportRows = 1000

var (
	ErrImportNoData      = errors.New("Excel文件无数据行（第一行为表头）")
	ErrImportTooManyRows = fmt.Errorf("数据行数超过上限 %d 行", maxImportRows)
	ErrImportBadHeader   = errors.New("Excel表头缺少必要列（姓名/邮箱）")
)

func (s *userService) ParseImportFile(reader io.Reader) ([]ImportUserRow, error) {
	f, err := excelize.OpenReader(reader)
	if err != nil {
		return nil, fmt.Errorf("无法解析Excel文件: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	excelRows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("读取工作表失败: %w", err)
	}

	if len(excelRows) < 2 {
		return nil, ErrImportNoData
	}

	// 解析表头（支持灵活列序）
	colIndex := parseHeaderIndex(excelRows[0])
	if colIndex["name"] < 0 || colIndex["email"] < 0 {
		return nil, ErrImportBadHeader
	}

	cellAt := func(row []string, key string) string {
		if idx := colIndex[key]; idx >= 0 && idx < len(row) {
			return strings.TrimSpace(row[idx])
		}
		return ""
	}

	var rows []ImportUserRow
	for i := 1; i < len(excelRows); i++ {
		row := excelRows[i]
		item := ImportUserRow{
			Row:     i + 1,
			Name:    cellAt(row, "name"),
			Email:   cellAt(row, "email"),
			IsAdmin: parseYes(cellAt(row, "admin")),
		}

		// 跳过全空行
		if item.Name == "" && item.Email == "" {
			continue
		}

		rows = append(rows, item)
	}

	if len(rows) == 0 {
		return nil, ErrImportNoData
	}
	if len(rows) > maxImportRows {
		return nil, ErrImportTooManyRows
	}

	return rows, nil
}

// parseHeaderIndex 解析 Excel 表头，返回列名 -> 列索引映射
func parseHeaderIndex(header []string) map[string]int {
	idx := map[string]int{
		"name":  -1,
		"email": -1,
		"admin": -1,
	}
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "姓名", "name":
			idx["name"] = i
		case "邮箱", "email":
			idx["email"] = i
		case "管理员", "admin", "is_admin":
			idx["admin"] = i
		}
	}
	return idx
}

func parseYes(v string) bool {
	switch strings.ToLower(v) {
	case "1", "true", "yes", "y", "是":
		return true
	}
	return false
}

// ────────────────────── ImportUsers ──────────────────────

func (s *userService) ImportUsers(ctx context.Context, rows []ImportUserRow) (*dto.ImportUserResponse, error) {
	resp := &dto.ImportUserResponse{Total: len(rows)}

	// 第一阶段：数据预校验（不接触数据库写操作）
	type validatedRow struct {
		user     *model.User
		row      int
		password string
	}
	var validRows []validatedRow
	seen := make(map[string]bool, len(rows))

	fail := func(row int, reason string) {
		resp.Failed++
		resp.Errors = append(resp.Errors, dto.ImportUserError{Row: row, Reason: reason})
	}

	for _, row := range rows {
		if row.Name == "" || row.Email == "" {
			fail(row.Row, "必填字段为空")
			continue
		}

		email := model.NormalizeEmail(row.Email)
		if seen[email] {
			fail(row.Row, fmt.Sprintf("文件中邮箱重复: %s", email))
			continue
		}
		taken, err := s.repo.User.EmailTaken(ctx, email, "")
		if err != nil {
			s.logger.Error("检查邮箱失败", zap.Error(err))
			return nil, err
		}
		if taken {
			fail(row.Row, fmt.Sprintf("邮箱已存在: %s", email))
			continue
		}

		password, err := generateTempPassword(12)
		if err != nil {
			s.logger.Error("生成临时密码失败", zap.Error(err))
			return nil, err
		}
		user := &model.User{Name: row.Name, Email: email, IsAdmin: row.IsAdmin}
		if err := user.SetPassword(password, s.passwordCost); err != nil {
			fail(row.Row, "密码哈希失败")
			continue
		}
		if err := model.Validate(user); err != nil {
			fail(row.Row, err.Error())
			continue
		}

		seen[email] = true
		validRows = append(validRows, validatedRow{user: user, row: row.Row, password: password})
	}

	// 第二阶段：在事务中批量创建所有通过校验的用户
	if len(validRows) > 0 {
		err := s.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
			for _, vr := range validRows {
				if err := txRepo.User.Create(ctx, vr.user); err != nil {
					s.logger.Error("导入用户写入失败，事务回滚", zap.Int("row", vr.row), zap.Error(err))
					return fmt.Errorf("第 %d 行写入数据库失败，已回滚全部导入: %w", vr.row, err)
				}
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		for _, vr := range validRows {
			resp.Success++
			resp.Credentials = append(resp.Credentials, dto.ImportUserCredential{
				Email:        vr.user.Email,
				TempPassword: vr.password,
			})
		}
	}

	s.logger.Info("花名册导入完成",
		zap.Int("total", resp.Total), zap.Int("success", resp.Success), zap.Int("failed", resp.Failed))
	return resp, nil
}

// ── 内部辅助方法 ──

func (s *userService) toUserResponse(ctx context.Context, user *model.User) (*dto.UserResponse, error) {
	resp, err := buildUserResponse(ctx, s.repo, user)
	if err != nil {
		s.logger.Error("加载用户关联失败", zap.String("id", user.ID), zap.Error(err))
		return nil, err
	}
	return resp, nil
}

// buildUserResponse 将 model.User 转换为 dto.UserResponse，附带导师、学员与注册学期
func buildUserResponse(ctx context.Context, repo *repository.Repository, user *model.User) (*dto.UserResponse, error) {
	mentors, err := repo.Mentorship.MentorIDs(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	mentees, err := repo.Mentorship.MenteeIDs(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	semesters, err := repo.Enrollment.SemesterIDs(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return &dto.UserResponse{
		ID:          user.ID,
		Name:        user.Name,
		Email:       user.Email,
		IsAdmin:     user.IsAdmin,
		MentorIDs:   nonNil(mentors),
		MenteeIDs:   nonNil(mentees),
		SemesterIDs: nonNil(semesters),
	}, nil
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}

// checkEmailFree 邮箱唯一性在写入前检查，冲突时返回 ValidationError
func checkEmailFree(ctx context.Context, repo *repository.Repository, email, exceptID string) error {
	taken, err := repo.User.EmailTaken(ctx, email, exceptID)
	if err != nil {
		return err
	}
	if taken {
		return apperrors.NewValidationError("email", "unique")
	}
	return nil
}

// replaceMentors 校验导师存在且不含本人后整体替换
func replaceMentors(ctx context.Context, repo *repository.Repository, userID string, mentorIDs []string) error {
	for _, id := range mentorIDs {
		if id == userID {
			return model.ErrSelfMentorship
		}
	}
	mentors, err := repo.User.ListByIDs(ctx, mentorIDs)
	if err != nil {
		return err
	}
	if len(mentors) != countDistinct(mentorIDs) {
		return apperrors.NewValidationError("mentor_ids", "exists")
	}
	return repo.Mentorship.ReplaceMentors(ctx, userID, mentorIDs)
}

// replaceEnrollments 校验学期存在后整体替换
func replaceEnrollments(ctx context.Context, repo *repository.Repository, userID string, semesterIDs []string) error {
	for _, id := range semesterIDs {
		if _, err := repo.Semester.GetByID(ctx, id); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NewValidationError("semester_ids", "exists")
			}
			return err
		}
	}
	return repo.Enrollment.ReplaceForUser(ctx, userID, semesterIDs)
}

func countDistinct(ids []string) int {
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if id != "" {
			seen[id] = true
		}
	}
	return len(seen)
}

// generateTempPassword 生成指定长度的临时密码（保证包含字母和数字）
func generateTempPassword(length int) (string, error) {
	const letters = "abcdefghijkmnpqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ"
	const digits = "23456789"
	const all = letters + digits

	if length < 8 {
		length = 8
	}

	pick := func(set string) (byte, error) {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(set))))
		if err != nil {
			return 0, err
		}
		return set[n.Int64()], nil
	}

	result := make([]byte, length)
	var err error
	// 保证至少1个字母+1个数字
	if result[0], err = pick(letters); err != nil {
		return "", err
	}
	if result[1], err = pick(digits); err != nil {
		return "", err
	}
	for i := 2; i < length; i++ {
		if result[i], err = pick(all); err != nil {
			return "", err
		}
	}

	// Fisher-Yates 洗牌
	for i := length - 1; i > 0; i-- {
		j, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return "", err
		}
		result[i], result[j.Int64()] = result[j.Int64()], result[i]
	}

	return string(result), nil
}
