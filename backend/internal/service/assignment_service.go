package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"college-jump/backend/internal/dto"
	"college-jump/backend/internal/model"
	"college-jump/backend/internal/repository"
	apperrors "college-jump/backend/pkg/errors"
)

var (
	ErrAssignmentNotFound = errors.New("作业不存在")
	ErrSubmissionNotFound = errors.New("提交不存在")
)

// AssignmentService 作业、提交与反馈业务接口
type AssignmentService interface {
	Get(ctx context.Context, user *model.User, id string) (*model.Assignment, error)
	Update(ctx context.Context, id string, req *dto.UpdateAssignmentRequest) (*model.Assignment, error)
	// Delete 连同提交、反馈与周关联一并删除
	Delete(ctx context.Context, id string) error

	Submit(ctx context.Context, user *model.User, assignmentID string, req *dto.SubmitRequest) (*dto.SubmissionResponse, error)
	// ListForFeedback 当前用户可反馈的提交，按时间倒序
	ListForFeedback(ctx context.Context, user *model.User, assignmentID string) ([]dto.SubmissionResponse, error)
	// ListFeedback 提交作者与审阅者可查看
	ListFeedback(ctx context.Context, user *model.User, submissionID string) ([]dto.FeedbackResponse, error)
	AddFeedback(ctx context.Context, user *model.User, submissionID string, req *dto.FeedbackRequest) (*dto.FeedbackResponse, error)
}

type assignmentService struct {
	repo       *repository.Repository
	visibility VisibilityService
	logger     *zap.Logger
}

// NewAssignmentService 创建 AssignmentService 实例
func NewAssignmentService(repo *repository.Repository, visibility VisibilityService, logger *zap.Logger) AssignmentService {
	return &assignmentService{repo: repo, visibility: visibility, logger: logger}
}

// ────────────────────── 作业 ──────────────────────

func (s *assignmentService) Get(ctx context.Context, user *model.User, id string) (*model.Assignment, error) {
	assignment, err := s.getAssignment(ctx, id)
	if err != nil {
		return nil, err
	}
	ok, err := s.visibility.CanViewAssignment(ctx, user, id)
	if err != nil {
		s.logger.Error("作业可见性查询失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	if !ok {
		return nil, apperrors.ErrPermissionDenied
	}
	return assignment, nil
}

func (s *assignmentService) Update(ctx context.Context, id string, req *dto.UpdateAssignmentRequest) (*model.Assignment, error) {
	assignment, err := s.getAssignment(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		assignment.Name = strings.TrimSpace(*req.Name)
	}
	if req.Instructions != nil {
		assignment.Instructions = *req.Instructions
	}
	if len(req.Questions) > 0 {
		if string(req.Questions) == "null" {
			assignment.Questions = nil
		} else {
			assignment.Questions = datatypes.JSON(req.Questions)
		}
	}
	if err := s.repo.Assignment.Update(ctx, assignment); err != nil {
		if !apperrors.IsValidation(err) {
			s.logger.Error("更新作业失败", zap.String("id", id), zap.Error(err))
		}
		return nil, err
	}
	return assignment, nil
}

func (s *assignmentService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Assignment.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAssignmentNotFound
		}
		s.logger.Error("删除作业失败", zap.String("id", id), zap.Error(err))
		return err
	}
	s.logger.Info("作业已删除", zap.String("id", id))
	return nil
}

// ────────────────────── 提交 ──────────────────────

func (s *assignmentService) Submit(ctx context.Context, user *model.User, assignmentID string, req *dto.SubmitRequest) (*dto.SubmissionResponse, error) {
	if _, err := s.Get(ctx, user, assignmentID); err != nil {
		return nil, err
	}

	authorID := user.ID
	submission := &model.Submission{
		Text:         req.Text,
		AuthorID:     &authorID,
		AssignmentID: assignmentID,
	}
	if err := s.repo.Submission.Create(ctx, submission); err != nil {
		if !apperrors.IsValidation(err) {
			s.logger.Error("提交作业失败", zap.String("assignment_id", assignmentID), zap.Error(err))
		}
		return nil, err
	}
	submission.Author = user

	resp := toSubmissionResponse(submission)
	return &resp, nil
}

func (s *assignmentService) ListForFeedback(ctx context.Context, user *model.User, assignmentID string) ([]dto.SubmissionResponse, error) {
	if _, err := s.getAssignment(ctx, assignmentID); err != nil {
		return nil, err
	}
	submissions, err := s.visibility.SubmissionsForFeedback(ctx, user, assignmentID)
	if err != nil {
		s.logger.Error("查询待反馈提交失败", zap.String("assignment_id", assignmentID), zap.Error(err))
		return nil, err
	}
	out := make([]dto.SubmissionResponse, 0, len(submissions))
	for i := range submissions {
		out = append(out, toSubmissionResponse(&submissions[i]))
	}
	return out, nil
}

// ────────────────────── 反馈 ──────────────────────

func (s *assignmentService) ListFeedback(ctx context.Context, user *model.User, submissionID string) ([]dto.FeedbackResponse, error) {
	submission, err := s.getSubmission(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	isAuthor := submission.AuthorID != nil && *submission.AuthorID == user.ID
	if !isAuthor {
		if err := s.checkReviewer(ctx, user, submission); err != nil {
			return nil, err
		}
	}

	list, err := s.repo.Feedback.ListBySubmission(ctx, submissionID)
	if err != nil {
		s.logger.Error("查询反馈失败", zap.String("submission_id", submissionID), zap.Error(err))
		return nil, err
	}
	out := make([]dto.FeedbackResponse, 0, len(list))
	for i := range list {
		out = append(out, toFeedbackResponse(&list[i]))
	}
	return out, nil
}

func (s *assignmentService) AddFeedback(ctx context.Context, user *model.User, submissionID string, req *dto.FeedbackRequest) (*dto.FeedbackResponse, error) {
	submission, err := s.getSubmission(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	if err := s.checkReviewer(ctx, user, submission); err != nil {
		return nil, err
	}

	authorID := user.ID
	feedback := &model.Feedback{
		Text:         req.Text,
		AuthorID:     &authorID,
		SubmissionID: submissionID,
	}
	if err := s.repo.Feedback.Create(ctx, feedback); err != nil {
		if !apperrors.IsValidation(err) {
			s.logger.Error("发表反馈失败", zap.String("submission_id", submissionID), zap.Error(err))
		}
		return nil, err
	}
	feedback.Author = user

	resp := toFeedbackResponse(feedback)
	return &resp, nil
}

// ── 内部辅助方法 ──

func (s *assignmentService) getAssignment(ctx context.Context, id string) (*model.Assignment, error) {
	assignment, err := s.repo.Assignment.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAssignmentNotFound
		}
		s.logger.Error("查询作业失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return assignment, nil
}

func (s *assignmentService) getSubmission(ctx context.Context, id string) (*model.Submission, error) {
	submission, err := s.repo.Submission.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubmissionNotFound
		}
		s.logger.Error("查询提交失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return submission, nil
}

func (s *assignmentService) checkReviewer(ctx context.Context, user *model.User, submission *model.Submission) error {
	ok, err := s.visibility.CanReviewSubmission(ctx, user, submission)
	if err != nil {
		s.logger.Error("审阅权限查询失败", zap.String("submission_id", submission.ID), zap.Error(err))
		return err
	}
	if !ok {
		return apperrors.ErrPermissionDenied
	}
	return nil
}

func authorRef(u *model.User) *dto.AuthorRef {
	if u == nil {
		return nil
	}
	return &dto.AuthorRef{ID: u.ID, Name: u.Name}
}

func toSubmissionResponse(sub *model.Submission) dto.SubmissionResponse {
	return dto.SubmissionResponse{
		ID:           sub.ID,
		AssignmentID: sub.AssignmentID,
		Text:         sub.Text,
		CreatedAt:    sub.CreatedAt,
		Author:       authorRef(sub.Author),
	}
}

func toFeedbackResponse(f *model.Feedback) dto.FeedbackResponse {
	return dto.FeedbackResponse{
		ID:           f.ID,
		SubmissionID: f.SubmissionID,
		Text:         f.Text,
		CreatedAt:    f.CreatedAt,
		Author:       authorRef(f.Author),
	}
}
