// 命令 admin 提供不经 HTTP 的运维操作：创建账号、学期、公告，整库导入导出与迁移。
//
// 用法：
//
//	admin [-config path] <command> [flags] [args]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"golang.org/x/term"

	"college-jump/backend/internal/app"
	"college-jump/backend/internal/dto"
	"college-jump/backend/internal/model"
	apperrors "college-jump/backend/pkg/errors"
)

type command struct {
	name    string
	usage   string
	migrate bool // 执行前是否迁移数据库
	run     func(ctx context.Context, a *app.App, args []string) error
}

var commands = []command{
	{"migrate", "创建或升级数据库结构", true, runMigrate},
	{"makeadmin", "makeadmin [-name 姓名] <email> [password]  创建管理员账号", true, runMakeUser(true)},
	{"makeuser", "makeuser [-name 姓名] <email> [password]  创建普通账号", true, runMakeUser(false)},
	{"makesemester", "makesemester -name 名称 -order 序号  创建学期", true, runMakeSemester},
	{"announce", "announce -title 标题 [-content 正文] [-author email]  发布公告", true, runAnnounce},
	{"export", "export -o backup.zip  导出整库", false, runExport},
	{"import", "import backup.zip  从归档导入（替换归档中出现的表）", true, runImport},
}

func main() {
	configPath := flag.String("config", "", "配置文件路径")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() == 0 {
		usage()
		os.Exit(2)
	}

	name := flag.Arg(0)
	var cmd *command
	for i := range commands {
		if commands[i].name == name {
			cmd = &commands[i]
			break
		}
	}
	if cmd == nil {
		fmt.Fprintf(os.Stderr, "未知命令: %s\n\n", name)
		usage()
		os.Exit(2)
	}

	a, err := app.New(app.Options{ConfigPath: *configPath, Migrate: cmd.migrate})
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化失败: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	if err := cmd.run(context.Background(), a, flag.Args()[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "%s 失败: %v\n", cmd.name, describe(err))
		a.Close()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "用法: admin [-config path] <command> [flags] [args]\n\n命令:\n")
	for _, c := range commands {
		fmt.Fprintf(os.Stderr, "  %-14s %s\n", c.name, c.usage)
	}
}

// describe 将校验与导入错误展开为可读信息
func describe(err error) string {
	var ve *apperrors.ValidationError
	if errors.As(err, &ve) {
		return fmt.Sprintf("字段 %s 不满足 %s %s", ve.Field, ve.Rule, ve.Param)
	}
	var ie *apperrors.ImportFailedError
	if errors.As(err, &ie) {
		return fmt.Sprintf("表 %s 导入失败，数据库未做修改: %v", ie.Table, ie.Err)
	}
	return err.Error()
}

func runMigrate(_ context.Context, a *app.App, _ []string) error {
	fmt.Printf("数据库结构已是最新（%s）\n", a.Config.Database.Driver)
	return nil
}

func runMakeUser(isAdmin bool) func(ctx context.Context, a *app.App, args []string) error {
	return func(ctx context.Context, a *app.App, args []string) error {
		fs := flag.NewFlagSet("makeuser", flag.ContinueOnError)
		name := fs.String("name", "", "姓名（默认取邮箱 @ 前部分）")
		if err := fs.Parse(args); err != nil {
			return err
		}
		if fs.NArg() < 1 || fs.NArg() > 2 {
			return errors.New("需要参数 <email> [password]")
		}

		email := fs.Arg(0)
		if *name == "" {
			*name = strings.SplitN(email, "@", 2)[0]
		}

		password := fs.Arg(1)
		if password == "" {
			var err error
			if password, err = promptPassword(); err != nil {
				return err
			}
		}

		user, err := a.Service.User.Create(ctx, &dto.CreateUserRequest{
			Name:     *name,
			Email:    email,
			Password: password,
			IsAdmin:  isAdmin,
		})
		if err != nil {
			return err
		}
		fmt.Printf("已创建账号 %s <%s> admin=%t\n", user.Name, user.Email, user.IsAdmin)
		return nil
	}
}

func runMakeSemester(ctx context.Context, a *app.App, args []string) error {
	fs := flag.NewFlagSet("makesemester", flag.ContinueOnError)
	name := fs.String("name", "", "学期名称")
	order := fs.Int("order", 0, "排序序号（全局唯一）")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *name == "" {
		return errors.New("-name 不能为空")
	}

	semester, err := a.Service.Semester.Create(ctx, &dto.CreateSemesterRequest{Name: *name, Order: *order})
	if err != nil {
		return err
	}
	fmt.Printf("已创建学期 %s (id=%s, order=%d)\n", semester.Name, semester.ID, semester.Order)
	return nil
}

func runAnnounce(ctx context.Context, a *app.App, args []string) error {
	fs := flag.NewFlagSet("announce", flag.ContinueOnError)
	title := fs.String("title", "", "标题")
	content := fs.String("content", "", "正文，为 - 时从标准输入读取")
	authorEmail := fs.String("author", "", "作者邮箱（可选）")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *title == "" {
		return errors.New("-title 不能为空")
	}

	if *content == "-" {
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("读取正文失败: %w", err)
		}
		*content = string(b)
	}

	var author *model.User
	if *authorEmail != "" {
		u, err := a.Repo.User.GetByEmail(ctx, *authorEmail)
		if err != nil {
			return fmt.Errorf("查找作者 %s 失败: %w", *authorEmail, err)
		}
		author = u
	}

	ann, err := a.Service.Announcement.Create(ctx, author, &dto.CreateAnnouncementRequest{
		Title:   *title,
		Content: *content,
	})
	if err != nil {
		return err
	}
	fmt.Printf("已发布公告 %s (id=%s)\n", ann.Title, ann.ID)
	return nil
}

func runExport(ctx context.Context, a *app.App, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	out := fs.String("o", "", "输出文件（默认 college-jump-<时间>.zip）")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *out == "" {
		*out = fmt.Sprintf("college-jump-%s.zip", time.Now().UTC().Format("20060102-150405"))
	}

	f, err := os.Create(*out)
	if err != nil {
		return fmt.Errorf("创建输出文件失败: %w", err)
	}
	if err := a.Service.Backup.Export(ctx, f); err != nil {
		f.Close()
		os.Remove(*out)
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("写入输出文件失败: %w", err)
	}
	fmt.Printf("已导出到 %s\n", *out)
	return nil
}

func runImport(ctx context.Context, a *app.App, args []string) error {
	if len(args) != 1 {
		return errors.New("需要参数 <archive.zip>")
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("读取归档失败: %w", err)
	}

	result, err := a.Service.Backup.Import(ctx, data)
	if err != nil {
		return err
	}
	for table, n := range result.Tables {
		fmt.Printf("  %-14s %d 行\n", table, n)
	}
	if len(result.Skipped) > 0 {
		fmt.Printf("归档中缺失、未做修改的表: %s\n", strings.Join(result.Skipped, ", "))
	}
	return nil
}

// promptPassword 从终端读取两次密码并确认一致
func promptPassword() (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.New("标准输入不是终端，请在参数中提供密码")
	}

	fmt.Fprint(os.Stderr, "密码: ")
	first, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("读取密码失败: %w", err)
	}

	fmt.Fprint(os.Stderr, "确认密码: ")
	second, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("读取密码失败: %w", err)
	}

	if string(first) != string(second) {
		return "", errors.New("两次输入的密码不一致")
	}
	if len(first) < 8 {
		return "", errors.New("密码长度不能少于 8 位")
	}
	return string(first), nil
}
