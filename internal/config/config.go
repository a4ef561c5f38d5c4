package config

import (
	"os"
	"path"
	"time"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Public  Public
	private Private
}

type Public struct {
	Port            int           `yaml:"port"`
	LogLevel        string        `yaml:"log_level"`
	LogJSON         bool          `yaml:"log_json"`
	CorsOrigins     []string      `yaml:"cors_origins"`
	Media           Media         `yaml:"media"`
	CleanupQueue    string        `yaml:"cleanup_queue"`    // "redis" or "memory"
	CleanupInterval time.Duration `yaml:"cleanup_interval"` // media cleanup retry cadence
}

type Media struct {
	Backend string `yaml:"backend"` // "fs" or "s3"
	Root    string `yaml:"root"`    // fs: directory holding capsule images
	Bucket  string `yaml:"bucket"`  // s3
	Region  string `yaml:"region"`  // s3
	// Endpoint overrides the S3 endpoint, e.g. for localstack.
	Endpoint string `yaml:"endpoint"`
}

type Pg struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Dbname   string `yaml:"dbname"`
}

type Redis struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type Private struct {
	Pg     Pg     `yaml:"pg"`
	Redis  Redis  `yaml:"redis"`
	JwtKey string `yaml:"jwt_key"`
}

func (c *Config) Pg() Pg {
	return c.private.Pg
}

func (c *Config) Redis() Redis {
	return c.private.Redis
}

func (c *Config) JwtKey() string {
	return c.private.JwtKey
}

func mustLoadPath(configPath string, output interface{}) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("config file does not exist: " + configPath)
	}
	configFile, err := os.ReadFile(configPath)
	if err != nil {
		panic("can't read config file")
	}

	if err := yaml.Unmarshal(configFile, output); err != nil {
		panic("can't unmarshal config file")
	}
}

func MustLoad(configFolder string) *Config {
	var public Public
	mustLoadPath(path.Join(configFolder, "public.yaml"), &public)

	var private Private
	mustLoadPath(path.Join(configFolder, "private.yaml"), &private)

	return &Config{public, private}
}

// New builds a config directly from its halves, mostly for tests.
func New(public Public, private Private) *Config {
	return &Config{public, private}
}
