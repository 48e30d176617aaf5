//go:build integration

package repository_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"college-jump/backend/internal/model"
	"college-jump/backend/internal/repository"
)

// ═══════════════════════════════════════════════════════════
// PostgreSQL 集成测试：go test -tags integration ./...
// ═══════════════════════════════════════════════════════════

func openPostgres(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		dsn = "host=localhost port=5432 user=postgres password=postgres dbname=collegejump_test sslmode=disable TimeZone=UTC"
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		t.Fatalf("无法连接测试数据库: %v", err)
	}
	if err := db.AutoMigrate(model.AllModels()...); err != nil {
		t.Fatalf("AutoMigrate 失败: %v", err)
	}
	return db
}

func TestPostgres_TransactionRollback(t *testing.T) {
	db := openPostgres(t)
	repo := repository.NewRepository(db)
	ctx := context.Background()

	tx, err := repo.BeginTx(ctx)
	if err != nil {
		t.Fatalf("BeginTx 失败: %v", err)
	}
	txRepo := repo.WithTx(tx)

	s := &model.Semester{Name: "rollback", Order: int(time.Now().UnixNano() % 1_000_000_000)}
	if err := txRepo.Semester.Create(ctx, s); err != nil {
		tx.Rollback()
		t.Fatalf("事务内创建学期失败: %v", err)
	}
	tx.Rollback()

	if _, err := repo.Semester.GetByID(ctx, s.ID); err == nil {
		db.Where("id = ?", s.ID).Delete(&model.Semester{})
		t.Fatal("期望回滚后查不到学期，但实际查到了")
	}
}

func TestPostgres_WeekRenumber(t *testing.T) {
	db := openPostgres(t)
	repo := repository.NewRepository(db)
	ctx := context.Background()

	s := &model.Semester{Name: "renumber", Order: int(time.Now().UnixNano() % 1_000_000_000)}
	if err := repo.Semester.Create(ctx, s); err != nil {
		t.Fatalf("创建学期失败: %v", err)
	}
	defer repo.Semester.Delete(ctx, s.ID)

	for i := 1; i <= 3; i++ {
		if err := repo.Week.Create(ctx, &model.Week{SemesterID: s.ID, WeekNum: i, Header: fmt.Sprintf("W%d", i)}); err != nil {
			t.Fatalf("创建第 %d 周失败: %v", i, err)
		}
	}
	if err := repo.Week.Delete(ctx, s.ID, 1); err != nil {
		t.Fatalf("删除第 1 周失败: %v", err)
	}

	weeks, _ := repo.Week.ListBySemester(ctx, s.ID)
	if len(weeks) != 2 || weeks[0].Header != "W2" || weeks[0].WeekNum != 1 || weeks[1].WeekNum != 2 {
		t.Errorf("重新编号结果不正确: %+v", weeks)
	}
}
