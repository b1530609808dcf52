package shared

import (
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Database struct {
		Driver string `yaml:"driver"` // "sqlite" (default)
		DSN    string `yaml:"dsn"`    // "./dockscout.db"
	} `yaml:"database"`

	Triage struct {
		Sources     []string `yaml:"sources"`      // local roots of checked-out repos
		GitHubToken string   `yaml:"github_token"` // optional, raises rate limits
		GitHubAPI   string   `yaml:"github_api"`   // override for tests/enterprise
		CacheSize   int      `yaml:"cache_size"`   // content-fetch LRU entries
		CatalogFile string   `yaml:"catalog_file"` // optional heuristics override
	} `yaml:"triage"`

	Reporting struct {
		OutDir string `yaml:"out_dir"` // "./reports"
	} `yaml:"reporting"`

	API struct {
		Addr           string   `yaml:"addr"`
		AllowedOrigins []string `yaml:"allowed_origins"`
		SessionHours   int      `yaml:"session_hours"`
	} `yaml:"api"`

	Logging struct {
		Format string `yaml:"format"` // "json"|"text"
		Level  string `yaml:"level"`  // "info"|"debug"|"warn"|"error"
	} `yaml:"logging"`
}

func DefaultConfig() Config {
	var c Config
	c.Database.Driver = "sqlite"
	c.Database.DSN = "./dockscout.db"
	c.Triage.GitHubAPI = "https://api.github.com"
	c.Triage.CacheSize = 512
	c.Reporting.OutDir = "./reports"
	c.API.Addr = ":8080"
	c.API.SessionHours = 12
	c.Logging.Format = "json"
	c.Logging.Level = "info"
	return c
}

func LoadConfig(path string) (Config, error) {
	c := DefaultConfig()
	if path != "" {
		if b, err := os.ReadFile(path); err == nil {
			_ = yaml.Unmarshal(b, &c)
		}
	}
	// Env overrides (simple, explicit)
	if v := os.Getenv("DOCKSCOUT_DB_DSN"); v != "" {
		c.Database.DSN = v
	}
	if v := os.Getenv("GITHUB_TOKEN"); v != "" {
		c.Triage.GitHubToken = v
	}
	if v := os.Getenv("DOCKSCOUT_GITHUB_API"); v != "" {
		c.Triage.GitHubAPI = v
	}
	if v := os.Getenv("DOCKSCOUT_CACHE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Triage.CacheSize = n
		}
	}
	if v := os.Getenv("DOCKSCOUT_OUT_DIR"); v != "" {
		c.Reporting.OutDir = v
	}
	if v := os.Getenv("DOCKSCOUT_API_ADDR"); v != "" {
		c.API.Addr = v
	}
	if v := os.Getenv("DOCKSCOUT_LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}
	if v := os.Getenv("DOCKSCOUT_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	return c, nil
}
