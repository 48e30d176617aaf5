package service

import (
	"context"

	"go.uber.org/zap"

	"college-jump/backend/internal/model"
	"college-jump/backend/internal/repository"
)

// VisibilityService 可见性与权限查询：纯读取，不做缓存
type VisibilityService interface {
	// InterestedSemesters 用户关注的学期，按 order 降序：
	// 管理员为全部学期；导师为自己与所有学员注册学期的并集；其他用户为自己注册的学期
	InterestedSemesters(ctx context.Context, user *model.User) ([]model.Semester, error)
	// SubmissionsForFeedback 待反馈的提交，按提交时间倒序：
	// 管理员可见该作业的全部提交，其他用户只能看到其学员的提交
	SubmissionsForFeedback(ctx context.Context, user *model.User, assignmentID string) ([]model.Submission, error)

	CanViewSemester(ctx context.Context, user *model.User, semesterID string) (bool, error)
	CanViewAssignment(ctx context.Context, user *model.User, assignmentID string) (bool, error)
	CanViewDocument(ctx context.Context, user *model.User, documentID string) (bool, error)
	// CanReviewSubmission 管理员或提交作者的导师
	CanReviewSubmission(ctx context.Context, user *model.User, submission *model.Submission) (bool, error)
}

type visibilityService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewVisibilityService 创建 VisibilityService 实例
func NewVisibilityService(repo *repository.Repository, logger *zap.Logger) VisibilityService {
	return &visibilityService{repo: repo, logger: logger}
}

func (s *visibilityService) InterestedSemesters(ctx context.Context, user *model.User) ([]model.Semester, error) {
	if user.IsAdmin {
		return s.repo.Semester.List(ctx)
	}

	mentees, err := s.repo.Mentorship.MenteeIDs(ctx, user.ID)
	if err != nil {
		s.logger.Error("查询学员失败", zap.String("user_id", user.ID), zap.Error(err))
		return nil, err
	}

	userIDs := append([]string{user.ID}, mentees...)
	semesters, err := s.repo.Semester.ListEnrolled(ctx, userIDs)
	if err != nil {
		s.logger.Error("查询关注学期失败", zap.String("user_id", user.ID), zap.Error(err))
		return nil, err
	}
	return semesters, nil
}

func (s *visibilityService) SubmissionsForFeedback(ctx context.Context, user *model.User, assignmentID string) ([]model.Submission, error) {
	if user.IsAdmin {
		return s.repo.Submission.ListByAssignment(ctx, assignmentID)
	}

	mentees, err := s.repo.Mentorship.MenteeIDs(ctx, user.ID)
	if err != nil {
		s.logger.Error("查询学员失败", zap.String("user_id", user.ID), zap.Error(err))
		return nil, err
	}
	return s.repo.Submission.ListByAssignmentAuthors(ctx, assignmentID, mentees)
}

func (s *visibilityService) CanViewSemester(ctx context.Context, user *model.User, semesterID string) (bool, error) {
	if user.IsAdmin {
		return true, nil
	}
	return s.anyInterested(ctx, user, []string{semesterID})
}

func (s *visibilityService) CanViewAssignment(ctx context.Context, user *model.User, assignmentID string) (bool, error) {
	if user.IsAdmin {
		return true, nil
	}
	semesterIDs, err := s.repo.Week.SemesterIDsOfAssignment(ctx, assignmentID)
	if err != nil {
		return false, err
	}
	return s.anyInterested(ctx, user, semesterIDs)
}

func (s *visibilityService) CanViewDocument(ctx context.Context, user *model.User, documentID string) (bool, error) {
	if user.IsAdmin {
		return true, nil
	}
	semesterIDs, err := s.repo.Week.SemesterIDsOfDocument(ctx, documentID)
	if err != nil {
		return false, err
	}
	return s.anyInterested(ctx, user, semesterIDs)
}

func (s *visibilityService) CanReviewSubmission(ctx context.Context, user *model.User, submission *model.Submission) (bool, error) {
	if user.IsAdmin {
		return true, nil
	}
	if submission.AuthorID == nil {
		return false, nil
	}
	return s.repo.Mentorship.IsMentorOf(ctx, user.ID, *submission.AuthorID)
}

// anyInterested 判断 semesterIDs 中是否有任一学期在用户的关注集合内
func (s *visibilityService) anyInterested(ctx context.Context, user *model.User, semesterIDs []string) (bool, error) {
	if len(semesterIDs) == 0 {
		return false, nil
	}
	interested, err := s.InterestedSemesters(ctx, user)
	if err != nil {
		return false, err
	}
	want := make(map[string]bool, len(semesterIDs))
	for _, id := range semesterIDs {
		want[id] = true
	}
	for _, sem := range interested {
		if want[sem.ID] {
			return true, nil
		}
	}
	return false, nil
}
