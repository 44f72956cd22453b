package cnf

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds the raw key=value options loaded at startup.
var Config map[string]string

// AppConfig is the typed view of the configuration passed to components.
type AppConfig struct {
	DBEngine string
	DBPath   string
	DBHost   string
	DBPort   string
	DBUser   string
	DBPass   string
	DBName   string

	DataDir   string
	SecretKey string
	Port      string
	LogLevel  string
	Env       string

	UploadMaxMB       int
	UploadAllowedMime string

	BackupEndpoint  string
	BackupRegion    string
	BackupBucket    string
	BackupPrefix    string
	BackupAccessKey string
	BackupSecretKey string
	BackupOnStart   bool
}

// Keys that may be overridden from the process environment. The config file
// is the base; the environment wins so deployments can inject secrets.
var envKeys = []string{
	"DB_ENGINE", "DB_PATH", "DB_HOST", "DB_PORT", "DB_USR", "DB_PASS", "DB_NAME",
	"DATA_DIR", "SECRET_KEY", "PORT", "LOG_LEVEL", "ENVIRONMENT",
	"UPLOAD_MAX_MB", "UPLOAD_ALLOWED_MIME",
	"BACKUP_S3_ENDPOINT", "BACKUP_S3_REGION", "BACKUP_S3_BUCKET", "BACKUP_S3_PREFIX",
	"BACKUP_S3_ACCESS_KEY", "BACKUP_S3_SECRET_KEY", "BACKUP_ON_START",
}

// LoadConfig reads a key=value file, ignoring blank lines and comments.
// A missing file is not an error: the environment alone can configure the app.
func LoadConfig(path string) (map[string]string, error) {
	config := make(map[string]string)

	file, err := os.Open(path)
	if err == nil {
		defer file.Close()
		scanner := bufio.NewScanner(file)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";") {
				continue
			}
			if !strings.Contains(line, "=") {
				continue
			}
			parts := strings.SplitN(line, "=", 2)
			key := strings.TrimSpace(parts[0])
			value := strings.TrimSpace(parts[1])
			if value != "" {
				commentIdx := -1
				for _, marker := range []string{" #", "\t#", " ;", "\t;"} {
					if idx := strings.Index(value, marker); idx >= 0 && (commentIdx == -1 || idx < commentIdx) {
						commentIdx = idx
					}
				}
				if commentIdx >= 0 {
					value = strings.TrimSpace(value[:commentIdx])
				}
			}
			config[key] = value
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("cannot open config file: %w", err)
	}

	for _, key := range envKeys {
		if v := os.Getenv(key); v != "" {
			config[key] = v
		}
	}

	Config = config
	return config, nil
}

// ParseConfig turns the raw map into an AppConfig with defaults applied.
func ParseConfig(cfg map[string]string) (AppConfig, error) {
	ac := AppConfig{
		DBEngine: strings.TrimSpace(cfg["DB_ENGINE"]),
		DBPath:   cfg["DB_PATH"],
		DBHost:   cfg["DB_HOST"],
		DBPort:   cfg["DB_PORT"],
		DBUser:   cfg["DB_USR"],
		DBPass:   cfg["DB_PASS"],
		DBName:   cfg["DB_NAME"],

		DataDir:   strings.TrimSpace(cfg["DATA_DIR"]),
		SecretKey: cfg["SECRET_KEY"],
		Port:      strings.TrimSpace(cfg["PORT"]),
		LogLevel:  strings.TrimSpace(cfg["LOG_LEVEL"]),
		Env:       strings.TrimSpace(cfg["ENVIRONMENT"]),

		UploadAllowedMime: strings.TrimSpace(cfg["UPLOAD_ALLOWED_MIME"]),

		BackupEndpoint:  strings.TrimSpace(cfg["BACKUP_S3_ENDPOINT"]),
		BackupRegion:    strings.TrimSpace(cfg["BACKUP_S3_REGION"]),
		BackupBucket:    strings.TrimSpace(cfg["BACKUP_S3_BUCKET"]),
		BackupPrefix:    strings.TrimSpace(cfg["BACKUP_S3_PREFIX"]),
		BackupAccessKey: cfg["BACKUP_S3_ACCESS_KEY"],
		BackupSecretKey: cfg["BACKUP_S3_SECRET_KEY"],
	}

	if ac.DBEngine == "" {
		ac.DBEngine = "sqlite"
	}
	if ac.DataDir == "" {
		ac.DataDir = "./data"
	}
	if ac.DBPath == "" {
		ac.DBPath = ac.DataDir + "/wellatlas.db"
	}
	if ac.SecretKey == "" {
		ac.SecretKey = "wellatlas-secret"
	}
	if ac.Port == "" {
		ac.Port = "8080"
	}
	if ac.LogLevel == "" {
		ac.LogLevel = "info"
	}
	if ac.Env == "" {
		ac.Env = "development"
	}

	ac.UploadMaxMB = 200
	if v, ok := cfg["UPLOAD_MAX_MB"]; ok && strings.TrimSpace(v) != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil || n <= 0 {
			return ac, fmt.Errorf("invalid UPLOAD_MAX_MB: %q", v)
		}
		ac.UploadMaxMB = n
	}

	if v, ok := cfg["BACKUP_ON_START"]; ok {
		ac.BackupOnStart, _ = strconv.ParseBool(strings.ToLower(strings.TrimSpace(v)))
	}

	return ac, nil
}

// BackupConfigured reports whether every credential needed for cloud backup
// is present. A partial configuration counts as not configured.
func (ac AppConfig) BackupConfigured() bool {
	return ac.BackupBucket != "" && ac.BackupRegion != "" &&
		ac.BackupAccessKey != "" && ac.BackupSecretKey != ""
}
