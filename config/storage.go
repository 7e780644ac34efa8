package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// StorageSettings points at the bucket holding the candidate index.
type StorageSettings struct {
	Endpoint        string        `json:"endpoint"`
	Region          string        `json:"region"`
	Bucket          string        `json:"bucket"`
	IndexFile       string        `json:"index_file"`
	AccessKeyID     string        `json:"-"`
	SecretAccessKey string        `json:"-"`
	Timeout         time.Duration `json:"timeout"`
}

// ServerSettings configures the HTTP server.
type ServerSettings struct {
	Port           string `json:"port"`
	DataDir        string `json:"data_dir"`
	MaxRequestSize int64  `json:"max_request_size"`
}

// Settings is the complete service configuration.
type Settings struct {
	Matcher  MatcherSettings  `json:"matcher"`
	Grouping GroupingSettings `json:"grouping"`
	Storage  StorageSettings  `json:"storage"`
	Server   ServerSettings   `json:"server"`
}

// Environment variables read by LoadFromEnv.
const (
	EnvEndpoint     = "CANDIDATES_S3_ENDPOINT"
	EnvRegion       = "CANDIDATES_S3_REGION"
	EnvBucket       = "CANDIDATES_S3_BUCKET"
	EnvIndexFile    = "CANDIDATES_INDEX_FILE"
	EnvAccessKey    = "CANDIDATES_S3_ACCESS_KEY"
	EnvSecretKey    = "CANDIDATES_S3_SECRET_KEY"
	EnvFetchTimeout = "CANDIDATES_FETCH_TIMEOUT"
	EnvSortKeys     = "CANDIDATES_SORT_KEYS"
	EnvPort         = "PORT"
	EnvDataDir      = "DATA_DIR"
)

// ApplyDefaults fills unset storage values with the local MinIO defaults
func (s *StorageSettings) ApplyDefaults() {
	if s.Endpoint == "" {
		s.Endpoint = "http://localhost:9000"
	}
	if s.Region == "" {
		s.Region = "us-east-1"
	}
	if s.Bucket == "" {
		s.Bucket = "candidates2"
	}
	if s.IndexFile == "" {
		s.IndexFile = "fuse-index.json"
	}
	if s.Timeout == 0 {
		s.Timeout = 30 * time.Second
	}
}

// Validate returns every problem found in the storage settings.
func (s *StorageSettings) Validate() []string {
	var problems []string
	u, err := url.Parse(s.Endpoint)
	if err != nil || u.Scheme == "" || u.Host == "" {
		problems = append(problems, "Endpoint '"+s.Endpoint+"' is not an absolute URL")
	}
	if strings.TrimSpace(s.Bucket) == "" {
		problems = append(problems, "Bucket cannot be empty")
	}
	if strings.TrimSpace(s.IndexFile) == "" {
		problems = append(problems, "Index file cannot be empty")
	}
	if (s.AccessKeyID == "") != (s.SecretAccessKey == "") {
		problems = append(problems, "Access key and secret key must be set together")
	}
	if s.Timeout < 0 {
		problems = append(problems, "Timeout must not be negative")
	}
	return problems
}

// HasCredentials reports whether requests should be signed.
func (s *StorageSettings) HasCredentials() bool {
	return s.AccessKeyID != "" && s.SecretAccessKey != ""
}

// ApplyDefaults fills unset server values
func (s *ServerSettings) ApplyDefaults() {
	if s.Port == "" {
		s.Port = "8080"
	}
	if s.DataDir == "" {
		s.DataDir = "./candidate_data"
	}
	if s.MaxRequestSize == 0 {
		s.MaxRequestSize = 1 << 20
	}
}

// ApplyDefaults applies defaults to every section.
func (s *Settings) ApplyDefaults() {
	s.Matcher.ApplyDefaults()
	s.Storage.ApplyDefaults()
	s.Server.ApplyDefaults()
	if s.Grouping.PerParty == 0 {
		s.Grouping.PerParty = DefaultPerParty
	}
}

// Validate validates every section.
func (s *Settings) Validate() error {
	problems := append(s.Matcher.Validate(), s.Storage.Validate()...)
	if s.Grouping.PerParty < 0 {
		problems = append(problems, "Per party limit must not be negative")
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// LoadFromEnv builds settings from the process environment. Callers that use
// a .env file load it first (godotenv) so its values are visible here.
func LoadFromEnv() (Settings, error) {
	return loadFrom(os.Getenv)
}

func loadFrom(getenv func(string) string) (Settings, error) {
	s := Settings{
		Storage: StorageSettings{
			Endpoint:        getenv(EnvEndpoint),
			Region:          getenv(EnvRegion),
			Bucket:          getenv(EnvBucket),
			IndexFile:       getenv(EnvIndexFile),
			AccessKeyID:     getenv(EnvAccessKey),
			SecretAccessKey: getenv(EnvSecretKey),
		},
		Server: ServerSettings{
			Port:    getenv(EnvPort),
			DataDir: getenv(EnvDataDir),
		},
	}

	if raw := getenv(EnvFetchTimeout); raw != "" {
		timeout, err := time.ParseDuration(raw)
		if err != nil {
			return Settings{}, fmt.Errorf("invalid %s %q: %w", EnvFetchTimeout, raw, err)
		}
		s.Storage.Timeout = timeout
	}
	if raw := getenv(EnvSortKeys); raw != "" {
		sortKeys, err := strconv.ParseBool(raw)
		if err != nil {
			return Settings{}, fmt.Errorf("invalid %s %q: %w", EnvSortKeys, raw, err)
		}
		s.Grouping.SortKeys = sortKeys
	}

	s.ApplyDefaults()
	return s, nil
}
