package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

var (
	ErrConfigFileNotFound    = errors.New("could not find config file in any config path")
	ErrConfigVersionMissing  = errors.New("config file is missing version field")
	ErrConfigVersionMismatch = errors.New("config file version mismatch")
	ErrUnknownStorageDriver  = errors.New("unknown storage driver")
)

// RepositoryVersion is the repository version tag for config file references.
const RepositoryVersion = "v1.0.0"

// CurrentVersion is the current version of the config file.
const CurrentVersion = 1

// FileName is the name of the config file searched for in every config path.
const FileName = "warden.toml"

// EnvPrefix marks environment variables that override config values.
const EnvPrefix = "WARDEN_"

// Storage drivers.
const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

// Config represents the entire application configuration.
type Config struct {
	// Version of the config file.
	Version      int                 `koanf:"version"`
	Debug        Debug               `koanf:"debug"`
	Retry        Retry               `koanf:"retry"`
	Storage      Storage             `koanf:"storage"`
	PostgreSQL   PostgreSQL          `koanf:"postgresql"`
	Redis        Redis               `koanf:"redis"`
	Metrics      Metrics             `koanf:"metrics"`
	Notify       Notify              `koanf:"notify"`
	VPNDetection VPNDetection        `koanf:"vpn_detection"`
	AltDetection AltDetection        `koanf:"alt_detection"`
	Escalation   Escalation          `koanf:"punishment_escalation"`
	Templates    map[string]Template `koanf:"punishment_templates"`
	Messages     Messages            `koanf:"messages"`
	Export       Export              `koanf:"export"`
}

// Debug contains debug-related configuration.
type Debug struct {
	// Log level (debug, info, warn, error).
	LogLevel string `koanf:"log_level"`
	// Maximum log session directories to keep.
	MaxLogsToKeep int `koanf:"max_logs_to_keep"`
	// Maximum lines per log file.
	MaxLogLines int `koanf:"max_log_lines"`
}

// Retry contains database retry configuration.
type Retry struct {
	// Maximum retry attempts.
	MaxRetries uint64 `koanf:"max_retries"`
	// Initial retry delay in milliseconds.
	Delay int `koanf:"delay"`
	// Maximum retry delay in milliseconds.
	MaxDelay int `koanf:"max_delay"`
}

// Storage selects the record store.
type Storage struct {
	// Driver is either "memory" or "postgres".
	Driver string `koanf:"driver"`
}

// PostgreSQL contains database connection configuration.
type PostgreSQL struct {
	// Database hostname.
	Host string `koanf:"host"`
	// Database port.
	Port int `koanf:"port"`
	// Database username.
	User string `koanf:"user"`
	// Database password.
	Password string `koanf:"password"`
	// Database name.
	DBName string `koanf:"db_name"`
	// Maximum open connections.
	MaxOpenConns int `koanf:"max_open_conns"`
	// Maximum idle connections.
	MaxIdleConns int `koanf:"max_idle_conns"`
	// Connection lifetime in minutes.
	MaxLifetime int `koanf:"max_lifetime"`
	// Idle timeout in minutes.
	MaxIdleTime int `koanf:"max_idle_time"`
}

// Redis contains Redis connection configuration.
type Redis struct {
	// Enables the Redis alert channel.
	Enabled bool `koanf:"enabled"`
	// Redis hostname.
	Host string `koanf:"host"`
	// Redis port.
	Port int `koanf:"port"`
	// Redis username.
	Username string `koanf:"username"`
	// Redis password.
	Password string `koanf:"password"`
}

// Metrics contains the prometheus endpoint configuration.
type Metrics struct {
	// Listen address of the metrics endpoint served by "warden serve".
	Address string `koanf:"address"`
}

// Notify contains staff alert delivery configuration.
type Notify struct {
	// Pub/sub channel alerts are published on when Redis is enabled.
	RedisChannel string `koanf:"redis_channel"`
	// Number of alerts buffered before new ones are dropped.
	QueueSize int `koanf:"queue_size"`
	// Notify staff when an appeal is submitted.
	StaffAppeals bool `koanf:"staff_appeals"`
}

// VPNDetection contains the address reputation check configuration.
type VPNDetection struct {
	Enabled bool `koanf:"enabled"`
	// Refuse connections from flagged addresses.
	Block bool `koanf:"block"`
	// IPQualityScore API key. Detection is disabled while empty.
	APIKey string `koanf:"api_key"`
	// Provider endpoint, without the key and address path segments.
	APIURL string `koanf:"api_url"`
	// Lifetime of a cached verdict in minutes.
	CacheMinutes int `koanf:"cache_minutes"`
	// Interval between cache sweeps in minutes.
	SweepMinutes int `koanf:"sweep_minutes"`
	// Lookup timeout in milliseconds.
	TimeoutMs int `koanf:"timeout_ms"`
	// Lookups allowed per second; 0 disables local rate limiting.
	RequestsPerSecond float64 `koanf:"requests_per_second"`
	// Burst size for the rate limiter.
	Burst int `koanf:"burst"`
	// Consecutive failures before the circuit opens.
	BreakerFailures uint32 `koanf:"breaker_failures"`
	// Seconds the circuit stays open.
	BreakerCooldown int `koanf:"breaker_cooldown"`
}

// AltDetection contains the alternate account detection configuration.
type AltDetection struct {
	Enabled bool `koanf:"enabled"`
	// Refuse accounts whose alts are banned.
	Block bool `koanf:"block"`
	// Send staff alerts about potential alts.
	NotifyStaff bool `koanf:"notify_staff"`
	// Trailing window in days for the identifier pattern scan.
	RecentDays int `koanf:"recent_days"`
	// Individual scan toggles.
	Methods AltMethods `koanf:"methods"`
}

// AltMethods toggles individual alt scans.
type AltMethods struct {
	IPMatch        bool `koanf:"ip_match"`
	IDPattern      bool `koanf:"id_pattern"`
	NameSimilarity bool `koanf:"name_similarity"`
	JoinPattern    bool `koanf:"join_pattern"`
}

// Escalation contains the punishment escalation ladders.
type Escalation struct {
	Enabled bool `koanf:"enabled"`
	// Offenses older than this many days are not counted.
	ResetDays int `koanf:"reset_days"`
	// Ladders keyed by category, then by offense level.
	Categories map[string]map[string]Step `koanf:"categories"`
}

// Step is one rung of an escalation ladder.
type Step struct {
	// Punishment type name, for example TEMP_BAN.
	Type string `koanf:"type"`
	// Reason recorded on the punishment.
	Reason string `koanf:"reason"`
	// Duration expression such as "1d 12h", or "permanent".
	Duration string `koanf:"duration"`
}

// Template is a named punishment preset.
type Template struct {
	Type        string `koanf:"type"`
	Reason      string `koanf:"reason"`
	Duration    string `koanf:"duration"`
	DisplayName string `koanf:"display_name"`
	Description string `koanf:"description"`
}

// Messages contains the texts shown to refused accounts.
// Placeholders: %reason%, %staff%, %expires%, %duration%, %date%.
type Messages struct {
	VPNBlocked string `koanf:"vpn_blocked"`
	IPBanned   string `koanf:"ip_banned"`
	AltBlocked string `koanf:"alt_blocked"`
	Banned     string `koanf:"banned"`
	TempBanned string `koanf:"temp_banned"`
	Muted      string `koanf:"muted"`
}

// Export contains the ban list export configuration.
type Export struct {
	// Directory export files are written to.
	OutputDir string `koanf:"output_dir"`
	// Salt mixed into hashed account identifiers.
	Salt string `koanf:"salt"`
	// Hash algorithm, "argon2id" or "sha256".
	HashType string `koanf:"hash_type"`
}

// Defaults returns the configuration used for keys missing from the file.
func Defaults() *Config {
	return &Config{
		Debug: Debug{
			LogLevel:      "info",
			MaxLogsToKeep: 10,
			MaxLogLines:   100000,
		},
		Retry: Retry{
			MaxRetries: 5,
			Delay:      500,
			MaxDelay:   5000,
		},
		Storage: Storage{Driver: StorageMemory},
		PostgreSQL: PostgreSQL{
			Host:         "localhost",
			Port:         5432,
			User:         "postgres",
			DBName:       "warden",
			MaxOpenConns: 20,
			MaxIdleConns: 10,
			MaxLifetime:  30,
			MaxIdleTime:  10,
		},
		Redis: Redis{
			Host: "localhost",
			Port: 6379,
		},
		Metrics: Metrics{Address: ":9120"},
		Notify: Notify{
			RedisChannel: "warden:alerts",
			QueueSize:    256,
			StaffAppeals: true,
		},
		VPNDetection: VPNDetection{
			APIURL:            "https://ipqualityscore.com/api/json/ip",
			CacheMinutes:      60,
			SweepMinutes:      30,
			TimeoutMs:         5000,
			RequestsPerSecond: 5,
			Burst:             10,
			BreakerFailures:   5,
			BreakerCooldown:   30,
		},
		AltDetection: AltDetection{
			RecentDays: 30,
			Methods: AltMethods{
				IPMatch:        true,
				IDPattern:      true,
				NameSimilarity: true,
				JoinPattern:    true,
			},
		},
		Escalation: Escalation{
			Enabled:   true,
			ResetDays: 30,
		},
		Messages: Messages{
			VPNBlocked: "VPN or proxy connections are not allowed on this server.",
			IPBanned:   "Your address is banned from this server.\nReason: %reason%\nBanned by: %staff%\nExpires: %expires%\nDate: %date%",
			AltBlocked: "Your connection matches a banned account.\nIf you believe this is a mistake, please contact staff.",
			Banned:     "You are banned from this server.\nReason: %reason%\nBanned by: %staff%\nDate: %date%",
			TempBanned: "You are temporarily banned from this server.\nReason: %reason%\nBanned by: %staff%\nDuration: %duration%\nExpires: %expires%\nDate: %date%",
			Muted:      "You are muted.\nReason: %reason%\nMuted by: %staff%\nExpires: %expires%",
		},
		Export: Export{
			OutputDir: "exports",
			HashType:  "sha256",
		},
	}
}

// SearchPaths returns the directories searched for the config file, in order.
func SearchPaths() ([]string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}

	return []string{
		".warden",
		homeDir + "/.warden/config",
		"/etc/warden/config",
		"config",
		".",
	}, nil
}

// LoadConfig searches the default paths for the config file and loads it.
// Returns the config along with the used config directory.
func LoadConfig() (*Config, string, error) {
	paths, err := SearchPaths()
	if err != nil {
		return nil, "", err
	}

	for _, path := range paths {
		configPath := fmt.Sprintf("%s/%s", path, FileName)
		if _, err := os.Stat(configPath); err != nil {
			continue
		}

		cfg, err := LoadFile(configPath)
		if err != nil {
			return nil, "", err
		}
		return cfg, path, nil
	}

	return nil, "", fmt.Errorf("%w: %s", ErrConfigFileNotFound, FileName)
}

// LoadFile loads the configuration from a file. Values are layered as
// defaults, then the file, then WARDEN_ environment variables.
func LoadFile(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Defaults(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var config Config
	if err := k.Unmarshal("", &config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := checkConfigVersion(config.Version, CurrentVersion); err != nil {
		return nil, err
	}

	switch config.Storage.Driver {
	case StorageMemory, StoragePostgres:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStorageDriver, config.Storage.Driver)
	}

	return &config, nil
}

// envKeys maps environment variables, without the prefix, to config keys.
var envKeys = map[string]string{
	"LOG_LEVEL":         "debug.log_level",
	"STORAGE_DRIVER":    "storage.driver",
	"POSTGRES_HOST":     "postgresql.host",
	"POSTGRES_PORT":     "postgresql.port",
	"POSTGRES_USER":     "postgresql.user",
	"POSTGRES_PASSWORD": "postgresql.password",
	"POSTGRES_DB":       "postgresql.db_name",
	"REDIS_HOST":        "redis.host",
	"REDIS_PORT":        "redis.port",
	"REDIS_PASSWORD":    "redis.password",
	"METRICS_ADDRESS":   "metrics.address",
	"VPN_API_KEY":       "vpn_detection.api_key",
	"EXPORT_SALT":       "export.salt",
}

// envKey converts WARDEN_POSTGRES_PASSWORD to postgresql.password.
// Unknown variables are ignored.
func envKey(key string) string {
	return envKeys[strings.TrimPrefix(key, EnvPrefix)]
}

// checkConfigVersion checks if the config file version is correct.
func checkConfigVersion(current, expected int) error {
	if current == 0 {
		return fmt.Errorf("%w: %s", ErrConfigVersionMissing, FileName)
	}

	if current != expected {
		return fmt.Errorf(
			"%w: %s (got: %d, expected: %d)\n"+
				"Please update your config file from: https://github.com/robalyx/warden/tree/%s/config/%s",
			ErrConfigVersionMismatch,
			FileName,
			current,
			expected,
			RepositoryVersion,
			FileName,
		)
	}

	return nil
}
