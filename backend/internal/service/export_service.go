package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"college-jump/backend/internal/model"
	"college-jump/backend/internal/repository"
)

// ── 导出模块业务错误 ──

var ErrExportGenerateFail = errors.New("生成导出文件失败")

const calendarProductID = "-//College JUMP//Syllabus//ZH"

// ExportService 导出业务接口
//
// 设计说明：
//   - 提交导出为 Excel (.xlsx)，范围与待反馈列表一致
//   - 日历导出为 iCalendar，每个设置了开始日期的教学周对应一个全天事件
//   - 导出以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入 Response
type ExportService interface {
	// SubmissionsXLSX 导出作业的提交列表，返回 buf 与建议文件名
	SubmissionsXLSX(ctx context.Context, user *model.User, assignmentID string) (*bytes.Buffer, string, error)
	// Calendar 导出用户关注学期的教学周日历
	Calendar(ctx context.Context, user *model.User) (*bytes.Buffer, error)
}

type exportService struct {
	repo       *repository.Repository
	visibility VisibilityService
	logger     *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, visibility VisibilityService, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, visibility: visibility, logger: logger}
}

// ═══════════════════════════════════════════════════════════
// SubmissionsXLSX 导出提交为 Excel
// ═══════════════════════════════════════════════════════════
//
// 输出格式：
//   - 标题行：作业名称
//   - 表头：提交时间 | 作者 | 邮箱 | 内容
//   - 数据行按提交时间倒序

func (s *exportService) SubmissionsXLSX(ctx context.Context, user *model.User, assignmentID string) (*bytes.Buffer, string, error) {
	assignment, err := s.repo.Assignment.GetByID(ctx, assignmentID)
	if err != nil {
		if isNotFound(err) {
			return nil, "", ErrAssignmentNotFound
		}
		s.logger.Error("查询作业失败", zap.String("id", assignmentID), zap.Error(err))
		return nil, "", err
	}

	submissions, err := s.visibility.SubmissionsForFeedback(ctx, user, assignmentID)
	if err != nil {
		s.logger.Error("查询待反馈提交失败", zap.String("assignment_id", assignmentID), zap.Error(err))
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "提交"
	idx, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, "", ErrExportGenerateFail
	}
	f.SetActiveSheet(idx)
	// 删除默认 Sheet1
	f.DeleteSheet("Sheet1")

	// 设置列宽
	f.SetColWidth(sheetName, "A", "A", 22)
	f.SetColWidth(sheetName, "B", "B", 16)
	f.SetColWidth(sheetName, "C", "C", 28)
	f.SetColWidth(sheetName, "D", "D", 80)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	wrapStyle, _ := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"},
	})

	// 标题行
	f.SetCellValue(sheetName, "A1", fmt.Sprintf("%s 提交列表", assignment.Name))
	f.MergeCell(sheetName, "A1", "D1")
	f.SetCellStyle(sheetName, "A1", "A1", headerStyle)

	// 表头
	row := 2
	for i, h := range []string{"提交时间", "作者", "邮箱", "内容"} {
		f.SetCellValue(sheetName, cell(colName(i), row), h)
	}
	f.SetCellStyle(sheetName, cell("A", row), cell("D", row), headerStyle)

	// 数据行
	for _, sub := range submissions {
		row++
		author, email := "（已删除）", ""
		if sub.Author != nil {
			author, email = sub.Author.Name, sub.Author.Email
		}
		f.SetCellValue(sheetName, cell("A", row), sub.CreatedAt.UTC().Format("2006-01-02 15:04:05"))
		f.SetCellValue(sheetName, cell("B", row), author)
		f.SetCellValue(sheetName, cell("C", row), email)
		f.SetCellValue(sheetName, cell("D", row), sub.Text)
		f.SetCellStyle(sheetName, cell("D", row), cell("D", row), wrapStyle)
	}

	// 写入 buffer
	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("提交_%s.xlsx", assignment.Name)
	return buf, filename, nil
}

// ═══════════════════════════════════════════════════════════
// Calendar 导出教学周日历
// ═══════════════════════════════════════════════════════════

func (s *exportService) Calendar(ctx context.Context, user *model.User) (*bytes.Buffer, error) {
	semesters, err := s.visibility.InterestedSemesters(ctx, user)
	if err != nil {
		s.logger.Error("查询关注学期失败", zap.String("user_id", user.ID), zap.Error(err))
		return nil, err
	}
	ids := make([]string, 0, len(semesters))
	for _, sem := range semesters {
		ids = append(ids, sem.ID)
	}

	var weeks []model.Week
	if len(ids) > 0 {
		weeks, err = s.repo.Week.ListDated(ctx, ids)
		if err != nil {
			s.logger.Error("查询教学周失败", zap.Error(err))
			return nil, err
		}
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(calendarProductID)
	cal.SetXWRCalName("College JUMP")

	stamp := time.Now().UTC()
	for _, w := range weeks {
		if w.StartsOn == nil {
			continue
		}
		start := w.StartsOn.UTC()

		event := cal.AddEvent(fmt.Sprintf("week-%s@college-jump", w.ID))
		event.SetDtStampTime(stamp)
		event.SetAllDayStartAt(start)
		event.SetAllDayEndAt(start.AddDate(0, 0, 7))
		event.SetSummary(weekSummary(&w))
		if w.Intro != "" {
			event.SetDescription(w.Intro)
		}
	}

	buf := new(bytes.Buffer)
	if err := cal.SerializeTo(buf); err != nil {
		s.logger.Error("生成日历失败", zap.Error(err))
		return nil, ErrExportGenerateFail
	}
	return buf, nil
}

func weekSummary(w *model.Week) string {
	summary := fmt.Sprintf("第%d周 %s", w.WeekNum, w.Header)
	if w.Semester != nil {
		summary = w.Semester.Name + " " + summary
	}
	return summary
}

// ── 辅助函数 ──

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
