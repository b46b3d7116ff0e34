package config

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const defaultMaxUploadBytes = 100 * 1024 * 1024

type Config struct {
	App struct {
		Port string `mapstructure:"port"`
		Env  string `mapstructure:"env"`
	} `mapstructure:"app"`
	DB struct {
		DSN          string        `mapstructure:"dsn"`
		QueryTimeout time.Duration `mapstructure:"query_timeout"`
	} `mapstructure:"db"`
	Redis struct {
		Addr       string        `mapstructure:"addr"`
		Password   string        `mapstructure:"password"`
		GalleryTTL time.Duration `mapstructure:"gallery_ttl"`
	} `mapstructure:"redis"`
	Kafka struct {
		Brokers []string `mapstructure:"brokers"`
	} `mapstructure:"kafka"`
	Auth struct {
		JWTSecret     string        `mapstructure:"jwt_secret"`
		TokenLifespan time.Duration `mapstructure:"token_lifespan"`
	} `mapstructure:"auth"`
	Cloudinary struct {
		CloudName string `mapstructure:"cloud_name"`
		ApiKey    string `mapstructure:"api_key"`
		ApiSecret string `mapstructure:"api_secret"`
	} `mapstructure:"cloudinary"`
	Video struct {
		MaxUploadBytes int64         `mapstructure:"max_upload_bytes"`
		Folder         string        `mapstructure:"folder"`
		UploadPreset   string        `mapstructure:"upload_preset"`
		UploadTimeout  time.Duration `mapstructure:"upload_timeout"`
		DeleteTimeout  time.Duration `mapstructure:"delete_timeout"`
	} `mapstructure:"video"`
	Gallery struct {
		SiteURL string `mapstructure:"site_url"`
	} `mapstructure:"gallery"`
	Jaeger struct {
		OTLPEndpoint string `mapstructure:"otlp_endpoint"`
	} `mapstructure:"jaeger"`
}

// LoadConfig reads config.yaml from the given paths (the working directory
// when none are given) and overlays environment variables and .env.
func LoadConfig(paths ...string) (cfg Config, err error) {
	if len(paths) == 0 {
		paths = []string{"."}
	}

	envFiles := make([]string, 0, len(paths))
	for _, p := range paths {
		envFiles = append(envFiles, strings.TrimSuffix(p, "/")+"/.env")
	}
	if err := godotenv.Load(envFiles...); err != nil {
		log.Println("warning: .env file not found, use environment only.")
	}

	v := viper.New()
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		log.Printf("note: config.yaml not found, read environment only. Error: %v", err)
	}

	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindings := map[string]string{
		"app.port":                 "APP_PORT",
		"app.env":                  "APP_ENV",
		"db.dsn":                   "DB_DSN",
		"db.query_timeout":         "DB_QUERY_TIMEOUT",
		"redis.addr":               "REDIS_ADDR",
		"redis.password":           "REDIS_PASSWORD",
		"redis.gallery_ttl":        "REDIS_GALLERY_TTL",
		"kafka.brokers":            "KAFKA_BROKERS",
		"auth.jwt_secret":          "JWT_SECRET",
		"auth.token_lifespan":      "TOKEN_LIFESPAN",
		"cloudinary.cloud_name":    "CLOUDINARY_CLOUD_NAME",
		"cloudinary.api_key":       "CLOUDINARY_API_KEY",
		"cloudinary.api_secret":    "CLOUDINARY_API_SECRET",
		"video.max_upload_bytes":   "VIDEO_MAX_UPLOAD_BYTES",
		"video.folder":             "VIDEO_FOLDER",
		"video.upload_preset":      "VIDEO_UPLOAD_PRESET",
		"video.upload_timeout":     "VIDEO_UPLOAD_TIMEOUT",
		"video.delete_timeout":     "VIDEO_DELETE_TIMEOUT",
		"gallery.site_url":         "GALLERY_SITE_URL",
		"jaeger.otlp_endpoint":     "JAEGER_OTLP_ENDPOINT",
	}
	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return cfg, err
		}
	}

	err = v.Unmarshal(&cfg)
	if err != nil {
		return cfg, err
	}

	// KAFKA_BROKERS arrives as one comma separated string
	if len(cfg.Kafka.Brokers) == 1 && strings.Contains(cfg.Kafka.Brokers[0], ",") {
		cfg.Kafka.Brokers = strings.Split(cfg.Kafka.Brokers[0], ",")
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.port", "8080")
	v.SetDefault("app.env", "development")
	v.SetDefault("db.query_timeout", 5*time.Second)
	v.SetDefault("redis.gallery_ttl", time.Minute)
	v.SetDefault("auth.token_lifespan", 24*time.Hour)
	v.SetDefault("video.max_upload_bytes", defaultMaxUploadBytes)
	v.SetDefault("video.folder", "video-uploads")
	v.SetDefault("video.upload_timeout", 10*time.Minute)
	v.SetDefault("video.delete_timeout", 30*time.Second)
	v.SetDefault("gallery.site_url", "http://localhost:3000")
	v.SetDefault("jaeger.otlp_endpoint", "localhost:4317")
}

// Validate reports settings the server cannot start without.
func (c Config) Validate() error {
	var errs []error
	if c.DB.DSN == "" {
		errs = append(errs, errors.New("db.dsn is required"))
	}
	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("auth.jwt_secret is required"))
	}
	if c.Cloudinary.CloudName == "" || c.Cloudinary.ApiKey == "" || c.Cloudinary.ApiSecret == "" {
		errs = append(errs, errors.New("cloudinary credentials are required"))
	}
	if c.Video.MaxUploadBytes <= 0 {
		errs = append(errs, errors.New("video.max_upload_bytes must be positive"))
	}
	return errors.Join(errs...)
}
