package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"college-jump/backend/internal/dto"
	"college-jump/backend/internal/model"
	"college-jump/backend/internal/repository"
	apperrors "college-jump/backend/pkg/errors"
)

var ErrWeekNotFound = errors.New("教学周不存在")

const dateLayout = "2006-01-02"

// WeekService 教学周业务接口，教学周以 (学期, 周次) 定位
type WeekService interface {
	List(ctx context.Context, user *model.User, semesterID string) ([]model.Week, error)
	Get(ctx context.Context, user *model.User, semesterID string, weekNum int) (*dto.WeekDetail, error)
	// Create 新教学周追加到学期末尾
	Create(ctx context.Context, semesterID string, req *dto.CreateWeekRequest) (*model.Week, error)
	Update(ctx context.Context, semesterID string, weekNum int, req *dto.UpdateWeekRequest) (*model.Week, error)
	// Delete 删除第 N 周，其后各周编号依次前移
	Delete(ctx context.Context, semesterID string, weekNum int) error

	AddAssignment(ctx context.Context, semesterID string, weekNum int, req *dto.CreateAssignmentRequest) (*model.Assignment, error)
	AddDocument(ctx context.Context, semesterID string, weekNum int, doc *model.Document) (*model.Document, error)
}

type weekService struct {
	repo       *repository.Repository
	visibility VisibilityService
	logger     *zap.Logger
}

// NewWeekService 创建 WeekService 实例
func NewWeekService(repo *repository.Repository, visibility VisibilityService, logger *zap.Logger) WeekService {
	return &weekService{repo: repo, visibility: visibility, logger: logger}
}

// ────────────────────── 查询 ──────────────────────

func (s *weekService) List(ctx context.Context, user *model.User, semesterID string) ([]model.Week, error) {
	if err := s.checkSemesterVisible(ctx, user, semesterID); err != nil {
		return nil, err
	}
	weeks, err := s.repo.Week.ListBySemester(ctx, semesterID)
	if err != nil {
		s.logger.Error("列出教学周失败", zap.String("semester_id", semesterID), zap.Error(err))
		return nil, err
	}
	if weeks == nil {
		weeks = []model.Week{}
	}
	return weeks, nil
}

func (s *weekService) Get(ctx context.Context, user *model.User, semesterID string, weekNum int) (*dto.WeekDetail, error) {
	if err := s.checkSemesterVisible(ctx, user, semesterID); err != nil {
		return nil, err
	}
	week, err := s.getWeek(ctx, s.repo, semesterID, weekNum)
	if err != nil {
		return nil, err
	}

	assignments, err := s.repo.Week.Assignments(ctx, week.ID)
	if err != nil {
		s.logger.Error("查询周作业失败", zap.String("week_id", week.ID), zap.Error(err))
		return nil, err
	}
	documents, err := s.repo.Week.Documents(ctx, week.ID)
	if err != nil {
		s.logger.Error("查询周资料失败", zap.String("week_id", week.ID), zap.Error(err))
		return nil, err
	}

	detail := &dto.WeekDetail{
		ID:          week.ID,
		SemesterID:  week.SemesterID,
		WeekNum:     week.WeekNum,
		Header:      week.Header,
		Intro:       week.Intro,
		StartsOn:    week.StartsOn,
		Assignments: make([]dto.AssignmentRef, 0, len(assignments)),
		Documents:   make([]dto.DocumentRef, 0, len(documents)),
	}
	for _, a := range assignments {
		detail.Assignments = append(detail.Assignments, dto.AssignmentRef{ID: a.ID, Name: a.Name})
	}
	for _, d := range documents {
		detail.Documents = append(detail.Documents, dto.DocumentRef{ID: d.ID, Name: d.Name, ContentType: d.ContentType})
	}
	return detail, nil
}

// ────────────────────── 增删改 ──────────────────────

func (s *weekService) Create(ctx context.Context, semesterID string, req *dto.CreateWeekRequest) (*model.Week, error) {
	startsOn, err := parseDate(req.StartsOn)
	if err != nil {
		return nil, err
	}
	week := &model.Week{
		SemesterID: semesterID,
		Header:     strings.TrimSpace(req.Header),
		Intro:      req.Intro,
		StartsOn:   startsOn,
	}

	err = s.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		if _, err := txRepo.Semester.GetByID(ctx, semesterID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSemesterNotFound
			}
			return err
		}
		last, err := txRepo.Week.MaxWeekNum(ctx, semesterID)
		if err != nil {
			return err
		}
		week.WeekNum = last + 1
		return txRepo.Week.Create(ctx, week)
	})
	if err != nil {
		if !errors.Is(err, ErrSemesterNotFound) && !apperrors.IsValidation(err) {
			s.logger.Error("创建教学周失败", zap.String("semester_id", semesterID), zap.Error(err))
		}
		return nil, err
	}

	s.logger.Info("教学周已创建", zap.String("semester_id", semesterID), zap.Int("week_num", week.WeekNum))
	return week, nil
}

func (s *weekService) Update(ctx context.Context, semesterID string, weekNum int, req *dto.UpdateWeekRequest) (*model.Week, error) {
	var week *model.Week
	err := s.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		var err error
		week, err = s.getWeek(ctx, txRepo, semesterID, weekNum)
		if err != nil {
			return err
		}
		if req.Header != nil {
			week.Header = strings.TrimSpace(*req.Header)
		}
		if req.Intro != nil {
			week.Intro = *req.Intro
		}
		if req.StartsOn != nil {
			startsOn, err := parseDate(*req.StartsOn)
			if err != nil {
				return err
			}
			week.StartsOn = startsOn
		}
		return txRepo.Week.Update(ctx, week)
	})
	if err != nil {
		if !errors.Is(err, ErrWeekNotFound) && !apperrors.IsValidation(err) {
			s.logger.Error("更新教学周失败", zap.String("semester_id", semesterID), zap.Int("week_num", weekNum), zap.Error(err))
		}
		return nil, err
	}
	return week, nil
}

func (s *weekService) Delete(ctx context.Context, semesterID string, weekNum int) error {
	if err := s.repo.Week.Delete(ctx, semesterID, weekNum); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrWeekNotFound
		}
		s.logger.Error("删除教学周失败", zap.String("semester_id", semesterID), zap.Int("week_num", weekNum), zap.Error(err))
		return err
	}
	s.logger.Info("教学周已删除", zap.String("semester_id", semesterID), zap.Int("week_num", weekNum))
	return nil
}

// ────────────────────── 周内容 ──────────────────────

func (s *weekService) AddAssignment(ctx context.Context, semesterID string, weekNum int, req *dto.CreateAssignmentRequest) (*model.Assignment, error) {
	assignment := &model.Assignment{
		Name:         strings.TrimSpace(req.Name),
		Instructions: req.Instructions,
	}
	if len(req.Questions) > 0 && string(req.Questions) != "null" {
		assignment.Questions = datatypes.JSON(req.Questions)
	}

	err := s.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		week, err := s.getWeek(ctx, txRepo, semesterID, weekNum)
		if err != nil {
			return err
		}
		if err := txRepo.Assignment.Create(ctx, assignment); err != nil {
			return err
		}
		return txRepo.Week.AttachAssignment(ctx, week.ID, assignment.ID)
	})
	if err != nil {
		if !errors.Is(err, ErrWeekNotFound) && !apperrors.IsValidation(err) {
			s.logger.Error("创建作业失败", zap.String("semester_id", semesterID), zap.Int("week_num", weekNum), zap.Error(err))
		}
		return nil, err
	}
	return assignment, nil
}

func (s *weekService) AddDocument(ctx context.Context, semesterID string, weekNum int, doc *model.Document) (*model.Document, error) {
	doc.Name = strings.TrimSpace(doc.Name)

	err := s.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		week, err := s.getWeek(ctx, txRepo, semesterID, weekNum)
		if err != nil {
			return err
		}
		if err := txRepo.Document.Create(ctx, doc); err != nil {
			return err
		}
		return txRepo.Week.AttachDocument(ctx, week.ID, doc.ID)
	})
	if err != nil {
		if !errors.Is(err, ErrWeekNotFound) && !apperrors.IsValidation(err) {
			s.logger.Error("上传资料失败", zap.String("semester_id", semesterID), zap.Int("week_num", weekNum), zap.Error(err))
		}
		return nil, err
	}

	s.logger.Info("资料已上传", zap.String("id", doc.ID), zap.Int("size", len(doc.Data)))
	return doc, nil
}

// ── 内部辅助方法 ──

func (s *weekService) getWeek(ctx context.Context, repo *repository.Repository, semesterID string, weekNum int) (*model.Week, error) {
	week, err := repo.Week.Get(ctx, semesterID, weekNum)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWeekNotFound
		}
		return nil, err
	}
	return week, nil
}

// checkSemesterVisible 学期不存在返回 ErrSemesterNotFound，不可见返回 ErrPermissionDenied
func (s *weekService) checkSemesterVisible(ctx context.Context, user *model.User, semesterID string) error {
	if _, err := s.repo.Semester.GetByID(ctx, semesterID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSemesterNotFound
		}
		s.logger.Error("查询学期失败", zap.String("id", semesterID), zap.Error(err))
		return err
	}
	ok, err := s.visibility.CanViewSemester(ctx, user, semesterID)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.ErrPermissionDenied
	}
	return nil
}

// parseDate 解析 YYYY-MM-DD，空字符串表示无日期
func parseDate(v string) (*time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(dateLayout, v, time.UTC)
	if err != nil {
		return nil, &apperrors.ValidationError{Field: "starts_on", Rule: "datetime", Param: dateLayout}
	}
	return &t, nil
}
