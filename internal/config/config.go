package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

type Config struct {
	Port           string        `mapstructure:"port"`
	Env            string        `mapstructure:"env"`
	BackendURL     string        `mapstructure:"backend_url"`
	TokenHeader    string        `mapstructure:"token_header"`
	SessionCookie  string        `mapstructure:"session_cookie"`
	ClientCookie   string        `mapstructure:"client_cookie"`
	DBDSN          string        `mapstructure:"db_dsn"`
	StorageDriver  string        `mapstructure:"storage_driver"`
	RedisAddr      string        `mapstructure:"redis_addr"`
	RedisPassword  string        `mapstructure:"redis_password"`
	RedisDB        int           `mapstructure:"redis_db"`
	StorageTTL     time.Duration `mapstructure:"storage_ttl"`
	SweepSchedule  string        `mapstructure:"sweep_schedule"`
	FormIdle       time.Duration `mapstructure:"form_idle"`
	LogFile        string        `mapstructure:"log_file"`
	TemplatesDir   string        `mapstructure:"templates_dir"`
	StaticDir      string        `mapstructure:"static_dir"`
	MaxUploadBytes int           `mapstructure:"max_upload_bytes"`
	BidTimezone    string        `mapstructure:"bid_timezone"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	GateRoutes     []string      `mapstructure:"gate_routes"`
	// ImportAdminOnly limits the CSV import page to users flagged isAdmin.
	ImportAdminOnly bool `mapstructure:"import_admin_only"`
}

// DefaultGateRoutes are the paths the route gate evaluates. Everything else bypasses it.
var DefaultGateRoutes = []string{
	"/",
	"/add-to-product",
	"/update-product/:productId*",
	"/login",
	"/signup",
	"/profile",
	"/verifyemail",
	"/get-products",
	"/upload-product-by-csv",
	"/delete-product/:productId",
}

func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("[config] no .env file, using environment")
	}

	v := viper.New()
	v.SetConfigName("shopadmin")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if len(cfg.GateRoutes) == 0 {
		cfg.GateRoutes = DefaultGateRoutes
	}

	log.Printf("[config] PORT=%s ENV=%s BACKEND_URL=%s STORAGE_DRIVER=%s DB_DSN=%s LOG_FILE=%s",
		cfg.Port, cfg.Env, cfg.BackendURL, cfg.StorageDriver, cfg.DBDSN, cfg.LogFile)
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8081")
	v.SetDefault("env", "development")
	v.SetDefault("backend_url", "http://localhost:5000/api")
	v.SetDefault("token_header", "access_token")
	v.SetDefault("session_cookie", "userToken")
	v.SetDefault("client_cookie", "sid")
	v.SetDefault("db_dsn", "shopadmin.db")
	v.SetDefault("storage_driver", "sqlite")
	v.SetDefault("redis_addr", "127.0.0.1:6379")
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)
	v.SetDefault("storage_ttl", "720h")
	v.SetDefault("sweep_schedule", "0 0 3 * * *")
	v.SetDefault("form_idle", "24h")
	v.SetDefault("log_file", "./shopadmin.log")
	v.SetDefault("templates_dir", "./web/templates")
	v.SetDefault("static_dir", "./web/static")
	v.SetDefault("max_upload_bytes", 32<<20)
	v.SetDefault("bid_timezone", "Local")
	v.SetDefault("request_timeout", "30s")
	v.SetDefault("gate_routes", "")
	v.SetDefault("import_admin_only", true)
}

// Location resolves BidTimezone, falling back to the process local zone.
func (c Config) Location() *time.Location {
	if c.BidTimezone == "" || c.BidTimezone == "Local" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.BidTimezone)
	if err != nil {
		log.Printf("[config] unknown BID_TIMEZONE %q, using local time", c.BidTimezone)
		return time.Local
	}
	return loc
}
