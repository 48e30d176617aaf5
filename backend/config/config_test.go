package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const testSecret = "test-secret-key-for-unit-testing-2026"

func validConfig() *Config {
	return &Config{
		Server:   ServerConfig{Port: 8088},
		Database: DatabaseConfig{Driver: DriverSQLite, Path: ":memory:"},
		Auth:     AuthConfig{JWTSecret: testSecret, BcryptCost: 12},
		Backup:   BackupConfig{MaxArchiveMB: 64},
	}
}

func TestValidate(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("合法配置校验应成功: %v", err)
	}

	cases := map[string]func(c *Config){
		"空密钥":        func(c *Config) { c.Auth.JWTSecret = "" },
		"密钥过短":       func(c *Config) { c.Auth.JWTSecret = "short" },
		"端口越界":       func(c *Config) { c.Server.Port = 70000 },
		"未知驱动":       func(c *Config) { c.Database.Driver = "mysql" },
		"sqlite 无路径": func(c *Config) { c.Database.Path = "" },
		"bcrypt 过低":  func(c *Config) { c.Auth.BcryptCost = 3 },
		"归档上限为 0":    func(c *Config) { c.Backup.MaxArchiveMB = 0 },
	}
	for name, mutate := range cases {
		c := validConfig()
		mutate(c)
		if err := c.Validate(); err == nil {
			t.Errorf("%s: 校验应失败", name)
		}
	}
}

func TestLoad_DefaultsAndEnv(t *testing.T) {
	t.Setenv("CJ_AUTH_JWT_SECRET", testSecret)
	t.Setenv("CJ_SERVER_PORT", "9000")
	t.Setenv("CJ_BACKUP_MAX_ARCHIVE_MB", "8")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("加载配置应成功: %v", err)
	}

	if cfg.Server.Port != 9000 {
		t.Errorf("环境变量应覆盖端口, got %d", cfg.Server.Port)
	}
	if cfg.Auth.JWTSecret != testSecret {
		t.Errorf("应从环境变量读取 jwt_secret")
	}
	if cfg.Database.Driver != DriverSQLite || cfg.Database.Path != "local.db" {
		t.Errorf("默认应使用 sqlite local.db, got %s %s", cfg.Database.Driver, cfg.Database.Path)
	}
	if cfg.Auth.AccessTokenTTL != 30*time.Minute {
		t.Errorf("默认 access token 有效期应为 30m, got %s", cfg.Auth.AccessTokenTTL)
	}
	if cfg.Backup.MaxArchiveBytes() != 8<<20 {
		t.Errorf("归档上限应为 8MB, got %d", cfg.Backup.MaxArchiveBytes())
	}
}

func TestLoad_MissingSecret(t *testing.T) {
	t.Setenv("CJ_AUTH_JWT_SECRET", "")

	if _, err := Load(""); err == nil {
		t.Fatal("缺少 jwt_secret 时加载应失败")
	}
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
server:
  port: 8181
db:
  driver: postgres
  host: db.internal
  name: jump
auth:
  jwt_secret: ` + testSecret + `
  bcrypt_cost: 10
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("写入配置文件应成功: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("加载配置应成功: %v", err)
	}
	if cfg.Server.Port != 8181 || cfg.Database.Driver != DriverPostgres || cfg.Auth.BcryptCost != 10 {
		t.Errorf("配置文件内容未生效: %+v", cfg)
	}
	if dsn := cfg.Database.DSN(); dsn != "host=db.internal port=5432 user=postgres password= dbname=jump sslmode=disable TimeZone=UTC" {
		t.Errorf("unexpected DSN %q", dsn)
	}
}

func TestDSN_SQLiteEnablesForeignKeys(t *testing.T) {
	c := DatabaseConfig{Driver: DriverSQLite, Path: "test.db"}
	if got := c.DSN(); got != "test.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)" {
		t.Errorf("unexpected DSN %q", got)
	}
}
