package config

import (
	"strings"
	"testing"
	"time"

	. "github.com/onsi/gomega"
)

func TestLoadFromEnv(t *testing.T) {
	g := NewWithT(t)
	t.Setenv("AUTH_JWT_SECRET", "s3cret")
	t.Setenv("DB_PORT", "5433")
	t.Setenv("S3_USE_SSL", "true")
	t.Setenv("AUTH_ACCESS_TTL", "5m")

	cfg, err := LoadFromEnv()
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(cfg.DBPort).To(Equal(5433))
	g.Expect(cfg.S3UseSSL).To(BeTrue())
	g.Expect(cfg.AuthAccessTTL).To(Equal(5 * time.Minute))
	g.Expect(cfg.AuthRefreshTTL).To(Equal(168 * time.Hour))
	g.Expect(cfg.AppPort).To(Equal(":3001"))
	g.Expect(cfg.AppStorage).To(Equal(StoragePostgres))
	g.Expect(cfg.String()).NotTo(ContainSubstring("s3cret"))
	g.Expect(cfg.String()).To(ContainSubstring("AuthJWTSecret: ********"))
}

func TestLoadFromEnvRequiresSecret(t *testing.T) {
	g := NewWithT(t)
	t.Setenv("AUTH_JWT_SECRET", "")
	_, err := LoadFromEnv()
	g.Expect(err).To(MatchError(ContainSubstring("AUTH_JWT_SECRET")))
}

func TestLoadFromEnvRejectsUnknownStorage(t *testing.T) {
	g := NewWithT(t)
	t.Setenv("AUTH_JWT_SECRET", "s3cret")
	t.Setenv("APP_STORAGE", "sqlite")
	_, err := LoadFromEnv()
	g.Expect(err).To(MatchError(ContainSubstring("APP_STORAGE")))
}

func TestGetDSNSetsSearchPath(t *testing.T) {
	g := NewWithT(t)
	cfg := Config{DBUser: "u", DBPassword: "p", DBHost: "db", DBPort: 5432, DBName: "app", DBScheme: "community"}
	g.Expect(cfg.GetDSN()).To(Equal("postgres://u:p@db:5432/app?sslmode=disable&search_path=community"))

	cfg.DBScheme = ""
	g.Expect(cfg.GetDSN()).To(Equal("postgres://u:p@db:5432/app?sslmode=disable"))
}

func TestLoadClientFromEnv(t *testing.T) {
	g := NewWithT(t)
	t.Setenv("API_URL", "http://api.local/v1/")
	t.Setenv("API_TIMEOUT", "3s")
	t.Setenv("CREDENTIALS_FILE", "/tmp/creds.json")

	cfg, err := LoadClientFromEnv()
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(cfg.APIURL).To(Equal("http://api.local/v1"))
	g.Expect(cfg.APITimeout).To(Equal(3 * time.Second))
	g.Expect(cfg.CredentialsFile).To(Equal("/tmp/creds.json"))
	g.Expect(cfg.CacheStaleAfter).To(Equal(2 * time.Minute))
	g.Expect(strings.Contains(cfg.String(), "APIURL")).To(BeTrue())
}
