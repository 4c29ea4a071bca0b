package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("写入配置文件失败: %v", err)
	}
	return path
}

func TestLoad_DefaultsAndFile(t *testing.T) {
	path := writeConfig(t, `
auth:
  jwt_secret: "a-very-long-test-secret"
monitor:
  timezone: "Europe/Moscow"
  interval: "1m"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load 应成功: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("期望默认端口 8080，实际=%d", cfg.Server.Port)
	}
	if cfg.Monitor.Interval != time.Minute {
		t.Errorf("期望 interval=1m，实际=%s", cfg.Monitor.Interval)
	}
	if cfg.Monitor.CompanyTimeout != 30*time.Second {
		t.Errorf("期望 company_timeout=30s，实际=%s", cfg.Monitor.CompanyTimeout)
	}
	loc, err := cfg.Monitor.Location()
	if err != nil || loc.String() != "Europe/Moscow" {
		t.Errorf("期望时区 Europe/Moscow，实际=%v err=%v", loc, err)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
auth:
  jwt_secret: "a-very-long-test-secret"
`)
	t.Setenv("SHIFT_SERVER_PORT", "9090")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load 应成功: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("期望环境变量覆盖端口为 9090，实际=%d", cfg.Server.Port)
	}
}

func TestLoad_MissingSecret(t *testing.T) {
	path := writeConfig(t, "log:\n  level: debug\n")

	if _, err := Load(path); err == nil {
		t.Fatal("缺少 jwt_secret 时应返回错误")
	}
}

func TestValidate_MonitorSettings(t *testing.T) {
	base := func() *Config {
		return &Config{
			Server: ServerConfig{Port: 8080},
			Auth:   AuthConfig{JWTSecret: "a-very-long-test-secret"},
			Monitor: MonitorConfig{
				Interval:             time.Minute,
				CompanyTimeout:       30 * time.Second,
				LockTTL:              time.Minute,
				Timezone:             "UTC",
				DefaultShiftDuration: 8 * time.Hour,
			},
		}
	}

	if err := base().Validate(); err != nil {
		t.Fatalf("合法配置不应报错: %v", err)
	}

	cfg := base()
	cfg.Monitor.LockTTL = time.Second
	if err := cfg.Validate(); err == nil {
		t.Error("lock_ttl 小于 company_timeout 时应报错")
	}

	cfg = base()
	cfg.Monitor.Timezone = "Mars/Olympus"
	if err := cfg.Validate(); err == nil {
		t.Error("无效时区应报错")
	}

	cfg = base()
	cfg.Monitor.Interval = 0
	if err := cfg.Validate(); err == nil {
		t.Error("interval 为 0 时应报错")
	}
}
