package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
app:
  name: gram-test
  port: 9090
database:
  driver: postgres
  host: db.local
  port: 5432
  username: gram
  password: secret
  database: gram
feed:
  trending_limit: 3
`

func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(sampleYAML), 0o644))
	return dir
}

func TestInitReadsYamlAndDefaults(t *testing.T) {
	require.NoError(t, Init(writeConfig(t)))

	cfg := GetConfig()
	assert.Equal(t, "gram-test", cfg.App.Name)
	assert.Equal(t, 9090, cfg.App.Port)
	assert.Equal(t, 3, cfg.Feed.TrendingLimit)
	// 未配置的字段使用默认值
	assert.Equal(t, 6, cfg.Feed.SuggestionLimit)
	assert.Equal(t, 10, cfg.Feed.SlugLength)
	assert.Equal(t, "local", cfg.Storage.Type)
}

func TestInitEnvOverride(t *testing.T) {
	t.Setenv("DATABASE_HOST", "env.host")
	require.NoError(t, Init(writeConfig(t)))

	assert.Equal(t, "env.host", GetConfig().Database.Host)
}

func TestInitMissingFile(t *testing.T) {
	err := Init(t.TempDir())
	assert.Error(t, err)
}

func TestDatabaseDSN(t *testing.T) {
	mysqlCfg := DatabaseConfig{Driver: "mysql", Host: "h", Port: 3306, Username: "u", Password: "p", Database: "d"}
	assert.Equal(t, "u:p@tcp(h:3306)/d?charset=utf8mb4&parseTime=True&loc=Local", mysqlCfg.DSN())

	pgCfg := DatabaseConfig{Driver: "postgres", Host: "h", Port: 5432, Username: "u", Password: "p", Database: "d"}
	assert.Equal(t, "host=h port=5432 user=u password=p dbname=d sslmode=disable TimeZone=UTC", pgCfg.DSN())
}
