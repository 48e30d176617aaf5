package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"college-jump/backend/internal/model"
)

// WeekRepository 教学周数据访问接口
type WeekRepository interface {
	Create(ctx context.Context, week *model.Week) error
	Get(ctx context.Context, semesterID string, weekNum int) (*model.Week, error)
	ListBySemester(ctx context.Context, semesterID string) ([]model.Week, error)
	// ListDated 给定学期中设置了开始日期的教学周
	ListDated(ctx context.Context, semesterIDs []string) ([]model.Week, error)
	MaxWeekNum(ctx context.Context, semesterID string) (int, error)
	Update(ctx context.Context, week *model.Week) error
	// Delete 删除教学周并将其后各周编号依次减一
	Delete(ctx context.Context, semesterID string, weekNum int) error

	AttachAssignment(ctx context.Context, weekID, assignmentID string) error
	AttachDocument(ctx context.Context, weekID, documentID string) error
	Assignments(ctx context.Context, weekID string) ([]model.Assignment, error)
	// Documents 不加载文件内容
	Documents(ctx context.Context, weekID string) ([]model.Document, error)
	// SemesterIDsOfAssignment 作业所在教学周所属的学期
	SemesterIDsOfAssignment(ctx context.Context, assignmentID string) ([]string, error)
	SemesterIDsOfDocument(ctx context.Context, documentID string) ([]string, error)
}

type weekRepo struct {
	db *gorm.DB
}

// NewWeekRepo 创建 WeekRepository 实例
func NewWeekRepo(db *gorm.DB) WeekRepository {
	return &weekRepo{db: db}
}

func (r *weekRepo) Create(ctx context.Context, week *model.Week) error {
	return r.db.WithContext(ctx).Create(week).Error
}

func (r *weekRepo) Get(ctx context.Context, semesterID string, weekNum int) (*model.Week, error) {
	var week model.Week
	err := r.db.WithContext(ctx).
		Where("semester_id = ? AND week_num = ?", semesterID, weekNum).
		First(&week).Error
	if err != nil {
		return nil, err
	}
	return &week, nil
}

func (r *weekRepo) ListBySemester(ctx context.Context, semesterID string) ([]model.Week, error) {
	var weeks []model.Week
	err := r.db.WithContext(ctx).
		Where("semester_id = ?", semesterID).
		Order("week_num ASC").
		Find(&weeks).Error
	return weeks, err
}

func (r *weekRepo) ListDated(ctx context.Context, semesterIDs []string) ([]model.Week, error) {
	var weeks []model.Week
	if len(semesterIDs) == 0 {
		return weeks, nil
	}
	err := r.db.WithContext(ctx).
		Preload("Semester").
		Where("semester_id IN ? AND starts_on IS NOT NULL", semesterIDs).
		Order("starts_on ASC").
		Find(&weeks).Error
	return weeks, err
}

func (r *weekRepo) MaxWeekNum(ctx context.Context, semesterID string) (int, error) {
	var max int64
	err := r.db.WithContext(ctx).
		Model(&model.Week{}).
		Where("semester_id = ?", semesterID).
		Select("COALESCE(MAX(week_num), 0)").
		Row().Scan(&max)
	return int(max), err
}

func (r *weekRepo) Update(ctx context.Context, week *model.Week) error {
	return r.db.WithContext(ctx).Save(week).Error
}

func (r *weekRepo) Delete(ctx context.Context, semesterID string, weekNum int) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var week model.Week
		if err := tx.Where("semester_id = ? AND week_num = ?", semesterID, weekNum).First(&week).Error; err != nil {
			return err
		}
		if err := deleteWeekRows(tx, []string{week.ID}); err != nil {
			return err
		}

		// 逐行升序前移，每次更新的目标编号都已空出，不违反 (semester_id, week_num) 唯一约束
		var later []model.Week
		if err := tx.Where("semester_id = ? AND week_num > ?", semesterID, weekNum).
			Order("week_num ASC").
			Find(&later).Error; err != nil {
			return err
		}
		for _, w := range later {
			if err := tx.Model(&model.Week{}).
				Where("id = ?", w.ID).
				UpdateColumn("week_num", w.WeekNum-1).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *weekRepo) AttachAssignment(ctx context.Context, weekID, assignmentID string) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&model.WeekAssignment{WeekID: weekID, AssignmentID: assignmentID}).Error
}

func (r *weekRepo) AttachDocument(ctx context.Context, weekID, documentID string) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&model.WeekDocument{WeekID: weekID, DocumentID: documentID}).Error
}

func (r *weekRepo) Assignments(ctx context.Context, weekID string) ([]model.Assignment, error) {
	var assignments []model.Assignment
	sub := r.db.Model(&model.WeekAssignment{}).Select("assignment_id").Where("week_id = ?", weekID)
	err := r.db.WithContext(ctx).
		Where("id IN (?)", sub).
		Order("name ASC").
		Find(&assignments).Error
	return assignments, err
}

func (r *weekRepo) Documents(ctx context.Context, weekID string) ([]model.Document, error) {
	var docs []model.Document
	sub := r.db.Model(&model.WeekDocument{}).Select("document_id").Where("week_id = ?", weekID)
	err := r.db.WithContext(ctx).
		Omit("data").
		Where("id IN (?)", sub).
		Order("name ASC").
		Find(&docs).Error
	return docs, err
}

func (r *weekRepo) SemesterIDsOfAssignment(ctx context.Context, assignmentID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&model.Week{}).
		Distinct("weeks.semester_id").
		Joins("JOIN week_assignments ON week_assignments.week_id = weeks.id").
		Where("week_assignments.assignment_id = ?", assignmentID).
		Pluck("weeks.semester_id", &ids).Error
	return ids, err
}

func (r *weekRepo) SemesterIDsOfDocument(ctx context.Context, documentID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&model.Week{}).
		Distinct("weeks.semester_id").
		Joins("JOIN week_documents ON week_documents.week_id = weeks.id").
		Where("week_documents.document_id = ?", documentID).
		Pluck("weeks.semester_id", &ids).Error
	return ids, err
}

// deleteWeekRows 删除教学周及其关联行；不再被任何周引用的资料文件一并删除，作业保留
func deleteWeekRows(tx *gorm.DB, weekIDs []string) error {
	if len(weekIDs) == 0 {
		return nil
	}
	var docIDs []string
	if err := tx.Model(&model.WeekDocument{}).Where("week_id IN ?", weekIDs).Pluck("document_id", &docIDs).Error; err != nil {
		return err
	}
	if err := tx.Where("week_id IN ?", weekIDs).Delete(&model.WeekDocument{}).Error; err != nil {
		return err
	}
	if err := tx.Where("week_id IN ?", weekIDs).Delete(&model.WeekAssignment{}).Error; err != nil {
		return err
	}
	if len(docIDs) > 0 {
		stillLinked := tx.Model(&model.WeekDocument{}).Select("document_id")
		if err := tx.Where("id IN ? AND id NOT IN (?)", docIDs, stillLinked).Delete(&model.Document{}).Error; err != nil {
			return err
		}
	}
	return tx.Where("id IN ?", weekIDs).Delete(&model.Week{}).Error
}
