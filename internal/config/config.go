package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"intake/internal/models"
)

const (
	DefaultAPIURL      = "http://127.0.0.1:7420"
	DefaultDBFileName  = ".intake.db"
	DefaultBlobDirName = ".intake-files"
	DefaultLogLevel    = "debug"
	DefaultTableDriver = "sqlite"
	DefaultSheet       = "Sheet1"
	DefaultBlobDriver  = "local"

	DefaultMaxUploadBytes     int64 = 100 * 1024 * 1024
	DefaultMultipartMaxMemory int64 = 8 * 1024 * 1024

	configFileName           = ".intake.toml"
	configDirEnvKey          = "INTAKE_CONFIG_DIR"
	trustProjectConfigEnvKey = "INTAKE_TRUST_PROJECT_CONFIG"
)

var (
	tableDrivers = []string{"sqlite", "postgres", "memory"}
	blobDrivers  = []string{"local", "s3", "memory"}
)

// TableConfig selects the record table backend.
type TableConfig struct {
	Driver string `toml:"driver"`
	DSN    string `toml:"dsn"`
	Sheet  string `toml:"sheet"`
}

// S3Config configures the s3 blob driver. Credentials come from the AWS
// default chain and are never read from config files.
type S3Config struct {
	Bucket        string `toml:"bucket"`
	Region        string `toml:"region"`
	Endpoint      string `toml:"endpoint"`
	PathStyle     bool   `toml:"path_style"`
	PublicBaseURL string `toml:"public_base_url"`
}

// BlobConfig selects the attachment storage backend and its folders.
type BlobConfig struct {
	Driver          string   `toml:"driver"`
	Root            string   `toml:"root"`
	PhotosFolder    string   `toml:"photos_folder"`
	VideosFolder    string   `toml:"videos_folder"`
	DocumentsFolder string   `toml:"documents_folder"`
	S3              S3Config `toml:"s3"`
}

// Folders returns the configured folder for each category.
func (b BlobConfig) Folders() models.Folders {
	return models.Folders{Photos: b.PhotosFolder, Videos: b.VideosFolder, Documents: b.DocumentsFolder}
}

// UploadConfig bounds request bodies.
type UploadConfig struct {
	MaxUploadBytes     int64 `toml:"max_upload_bytes"`
	MultipartMaxMemory int64 `toml:"multipart_max_memory"`
}

// Config defines runtime configuration for intake.
type Config struct {
	APIURL                   string       `toml:"api_url"`
	PublicURL                string       `toml:"public_url"`
	DBPath                   string       `toml:"db_path"`
	LogLevel                 string       `toml:"log_level"`
	Table                    TableConfig  `toml:"table"`
	Blobs                    BlobConfig   `toml:"blobs"`
	Uploads                  UploadConfig `toml:"uploads"`
	TrustedProjectConfigPath string       `toml:"-"`
}

// Default returns default configuration values.
func Default() Config {
	folders := models.DefaultFolders()
	return Config{
		APIURL:   DefaultAPIURL,
		DBPath:   "",
		LogLevel: DefaultLogLevel,
		Table: TableConfig{
			Driver: DefaultTableDriver,
			Sheet:  DefaultSheet,
		},
		Blobs: BlobConfig{
			Driver:          DefaultBlobDriver,
			PhotosFolder:    folders.Photos,
			VideosFolder:    folders.Videos,
			DocumentsFolder: folders.Documents,
		},
		Uploads: UploadConfig{
			MaxUploadBytes:     DefaultMaxUploadBytes,
			MultipartMaxMemory: DefaultMultipartMaxMemory,
		},
	}
}

// BaseURL is the address clients use to reach the server: PublicURL when
// set, else APIURL.
func (c *Config) BaseURL() string {
	if strings.TrimSpace(c.PublicURL) != "" {
		return strings.TrimRight(strings.TrimSpace(c.PublicURL), "/")
	}
	return strings.TrimRight(strings.TrimSpace(c.APIURL), "/")
}

func loadFile(path string, cfg *Config) error {
	_, err := loadFileIfExists(path, cfg)
	return err
}

func loadFileIfExists(path string, cfg *Config) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if info.IsDir() {
		return false, nil
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return false, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return true, nil
}

func overrideConfigPath() (string, bool) {
	dir := strings.TrimSpace(os.Getenv(configDirEnvKey))
	if dir == "" {
		return "", false
	}
	return filepath.Join(dir, configFileName), true
}

func trustProjectConfig() bool {
	raw := strings.TrimSpace(os.Getenv(trustProjectConfigEnvKey))
	if raw == "" {
		return false
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false
	}
	return value
}

var allowedKeys = []string{
	"api_url",
	"public_url",
	"db_path",
	"log_level",
	"table.driver",
	"table.dsn",
	"table.sheet",
	"blobs.driver",
	"blobs.root",
	"blobs.photos_folder",
	"blobs.videos_folder",
	"blobs.documents_folder",
	"blobs.s3.bucket",
	"blobs.s3.region",
	"blobs.s3.endpoint",
	"blobs.s3.path_style",
	"blobs.s3.public_base_url",
	"uploads.max_upload_bytes",
	"uploads.multipart_max_memory",
}

// AllowedKeys returns the set of valid config keys.
func AllowedKeys() []string {
	return allowedKeys
}

// IsAllowedKey checks if a key is a valid config key.
func IsAllowedKey(key string) bool {
	for _, k := range allowedKeys {
		if k == key {
			return true
		}
	}
	return false
}

// Get returns the value of a config key.
func (c *Config) Get(key string) (string, error) {
	switch key {
	case "api_url":
		return c.APIURL, nil
	case "public_url":
		return c.PublicURL, nil
	case "db_path":
		return c.DBPath, nil
	case "log_level":
		return c.LogLevel, nil
	case "table.driver":
		return c.Table.Driver, nil
	case "table.dsn":
		return c.Table.DSN, nil
	case "table.sheet":
		return c.Table.Sheet, nil
	case "blobs.driver":
		return c.Blobs.Driver, nil
	case "blobs.root":
		return c.Blobs.Root, nil
	case "blobs.photos_folder":
		return c.Blobs.PhotosFolder, nil
	case "blobs.videos_folder":
		return c.Blobs.VideosFolder, nil
	case "blobs.documents_folder":
		return c.Blobs.DocumentsFolder, nil
	case "blobs.s3.bucket":
		return c.Blobs.S3.Bucket, nil
	case "blobs.s3.region":
		return c.Blobs.S3.Region, nil
	case "blobs.s3.endpoint":
		return c.Blobs.S3.Endpoint, nil
	case "blobs.s3.path_style":
		return strconv.FormatBool(c.Blobs.S3.PathStyle), nil
	case "blobs.s3.public_base_url":
		return c.Blobs.S3.PublicBaseURL, nil
	case "uploads.max_upload_bytes":
		return strconv.FormatInt(c.Uploads.MaxUploadBytes, 10), nil
	case "uploads.multipart_max_memory":
		return strconv.FormatInt(c.Uploads.MultipartMaxMemory, 10), nil
	default:
		return "", fmt.Errorf("unknown key: %s", key)
	}
}

// GlobalPath returns the path to the global config file.
func GlobalPath() (string, error) {
	if path, ok := overrideConfigPath(); ok {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, configFileName), nil
}

// ProjectPath returns the path to the project config file.
func ProjectPath() (string, error) {
	if path, ok := overrideConfigPath(); ok {
		return path, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(cwd, configFileName), nil
}

// SetKey reads the TOML file at path, sets key=value, and writes it back.
func SetKey(path, key, value string) error {
	if !IsAllowedKey(key) {
		return fmt.Errorf("unknown key: %s", key)
	}

	data := make(map[string]any)
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, &data); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
	}

	parsedValue, err := parseSetValue(key, value)
	if err != nil {
		return err
	}
	if err := setNestedKey(data, strings.Split(key, "."), parsedValue); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(data)
}

// Load reads config from trusted files and applies env overrides.
func Load() (*Config, error) {
	cfg := Default()

	if overridePath, ok := overrideConfigPath(); ok {
		if err := loadFile(overridePath, &cfg); err != nil {
			return nil, err
		}
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			if err := loadFile(filepath.Join(home, configFileName), &cfg); err != nil {
				return nil, err
			}
		}

		if trustProjectConfig() {
			if cwd, err := os.Getwd(); err == nil {
				projectPath := filepath.Join(cwd, configFileName)
				info, statErr := os.Stat(projectPath)
				switch {
				case statErr == nil && !info.IsDir():
					if err := loadFile(projectPath, &cfg); err != nil {
						return nil, err
					}
					cfg.TrustedProjectConfigPath = projectPath
				case statErr != nil && !os.IsNotExist(statErr):
					return nil, statErr
				}
			}
		}
	}

	if cwd, err := os.Getwd(); err == nil {
		if cfg.DBPath == "" {
			cfg.DBPath = filepath.Join(cwd, DefaultDBFileName)
		}
		if cfg.Blobs.Root == "" {
			cfg.Blobs.Root = filepath.Join(cwd, DefaultBlobDirName)
		}
	}

	applyEnvOverrides(&cfg)
	cfg.normalizeDefaults()

	return &cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	strOverrides := []struct {
		key string
		dst *string
	}{
		{"INTAKE_API_URL", &cfg.APIURL},
		{"INTAKE_PUBLIC_URL", &cfg.PublicURL},
		{"INTAKE_DB", &cfg.DBPath},
		{"INTAKE_TABLE_DRIVER", &cfg.Table.Driver},
		{"INTAKE_TABLE_DSN", &cfg.Table.DSN},
		{"INTAKE_TABLE_SHEET", &cfg.Table.Sheet},
		{"INTAKE_BLOB_DRIVER", &cfg.Blobs.Driver},
		{"INTAKE_BLOB_ROOT", &cfg.Blobs.Root},
		{"INTAKE_S3_BUCKET", &cfg.Blobs.S3.Bucket},
		{"INTAKE_S3_REGION", &cfg.Blobs.S3.Region},
		{"INTAKE_S3_ENDPOINT", &cfg.Blobs.S3.Endpoint},
		{"INTAKE_S3_PUBLIC_BASE_URL", &cfg.Blobs.S3.PublicBaseURL},
	}
	for _, o := range strOverrides {
		if value := strings.TrimSpace(os.Getenv(o.key)); value != "" {
			*o.dst = value
		}
	}
	if raw := strings.TrimSpace(os.Getenv("INTAKE_S3_PATH_STYLE")); raw != "" {
		if parsed, err := strconv.ParseBool(raw); err == nil {
			cfg.Blobs.S3.PathStyle = parsed
		}
	}
}

func parseSetValue(key, value string) (any, error) {
	value = strings.TrimSpace(value)
	switch key {
	case "uploads.max_upload_bytes", "uploads.multipart_max_memory":
		parsed, err := strconv.ParseInt(value, 10, 64)
		if err != nil || parsed <= 0 {
			return nil, fmt.Errorf("%s must be a positive integer", key)
		}
		return parsed, nil
	case "blobs.s3.path_style":
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			return nil, fmt.Errorf("%s must be true or false", key)
		}
		return parsed, nil
	case "table.driver":
		return oneOf(key, strings.ToLower(value), tableDrivers)
	case "blobs.driver":
		return oneOf(key, strings.ToLower(value), blobDrivers)
	default:
		return value, nil
	}
}

func oneOf(key, value string, allowed []string) (any, error) {
	for _, candidate := range allowed {
		if value == candidate {
			return value, nil
		}
	}
	sorted := append([]string(nil), allowed...)
	sort.Strings(sorted)
	return nil, fmt.Errorf("%s must be one of: %s", key, strings.Join(sorted, ", "))
}

func setNestedKey(data map[string]any, parts []string, value any) error {
	if len(parts) == 0 {
		return fmt.Errorf("invalid config key")
	}
	if len(parts) == 1 {
		data[parts[0]] = value
		return nil
	}
	childRaw, ok := data[parts[0]]
	if !ok {
		child := map[string]any{}
		data[parts[0]] = child
		return setNestedKey(child, parts[1:], value)
	}
	child, ok := childRaw.(map[string]any)
	if !ok {
		return fmt.Errorf("cannot set nested key %q", strings.Join(parts, "."))
	}
	return setNestedKey(child, parts[1:], value)
}

func (c *Config) normalizeDefaults() {
	defaults := Default()
	if strings.TrimSpace(c.LogLevel) == "" {
		c.LogLevel = DefaultLogLevel
	}
	if strings.TrimSpace(c.Table.Driver) == "" {
		c.Table.Driver = defaults.Table.Driver
	}
	if strings.TrimSpace(c.Table.Sheet) == "" {
		c.Table.Sheet = defaults.Table.Sheet
	}
	if strings.TrimSpace(c.Blobs.Driver) == "" {
		c.Blobs.Driver = defaults.Blobs.Driver
	}
	if strings.TrimSpace(c.Blobs.PhotosFolder) == "" {
		c.Blobs.PhotosFolder = defaults.Blobs.PhotosFolder
	}
	if strings.TrimSpace(c.Blobs.VideosFolder) == "" {
		c.Blobs.VideosFolder = defaults.Blobs.VideosFolder
	}
	if strings.TrimSpace(c.Blobs.DocumentsFolder) == "" {
		c.Blobs.DocumentsFolder = defaults.Blobs.DocumentsFolder
	}
	if c.Uploads.MaxUploadBytes <= 0 {
		c.Uploads.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if c.Uploads.MultipartMaxMemory <= 0 {
		c.Uploads.MultipartMaxMemory = DefaultMultipartMaxMemory
	}
}
