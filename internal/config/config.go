package config

import (
	"fmt"
	"os"
)

const (
	StorageDriverPostgres = "postgres"
	StorageDriverFile     = "file"
)

// Configはアプリ全体の設定
type Config struct {
	Port string // サーバーポート（8080）

	StorageDriver string // postgres / file
	DataDir       string // fileドライバのJSON置き場

	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresHost     string
	PostgresPort     string
	PostgresSSLMode  string

	JWTSecret string // JWT署名シークレット

	StaticDir string // 静的ページ置き場

	// 管理者のステータス更新に遷移チェックを課すか（既定は無し）
	StrictOrderTransitions bool
}

// Loadは環境変数から設定を組み立てる
func Load() (Config, error) {
	cfg := Config{
		Port: getenv("PORT", "8080"),

		StorageDriver: getenv("STORAGE_DRIVER", StorageDriverPostgres),
		DataDir:       getenv("DATA_DIR", "data"),

		PostgresUser:     getenv("POSTGRES_USER", "postgres"),
		PostgresPassword: getenv("POSTGRES_PASSWORD", "postgres"),
		PostgresDB:       getenv("POSTGRES_DB", "shop"),
		PostgresHost:     getenv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getenv("POSTGRES_PORT", "5432"),
		PostgresSSLMode:  getenv("POSTGRES_SSLMODE", "disable"),

		JWTSecret: os.Getenv("JWT_SECRET"),

		StaticDir: getenv("STATIC_DIR", "public"),

		StrictOrderTransitions: getenv("ORDER_STRICT_TRANSITIONS", "") == "true",
	}

	//必須チェック
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required")
	}

	switch cfg.StorageDriver {
	case StorageDriverPostgres, StorageDriverFile:
	default:
		return Config{}, fmt.Errorf("STORAGE_DRIVER must be %q or %q", StorageDriverPostgres, StorageDriverFile)
	}

	return cfg, nil
}

func getenv(key string, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}
