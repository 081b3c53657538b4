package config

import (
	"errors"
	"flag"
	"net"
	"os"
	"regexp"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr        string
	BaseURL     string
	DBUrl       string
	TokenSecret string
	TokenTTL    time.Duration
	Debug       bool

	// notification emails; empty SMTPAddr disables sending
	SMTPAddr string
	SMTPFrom string
	SMTPUser string
	SMTPPass string

	// uploads go to MinIO when an endpoint is set, a local dir otherwise
	UploadDir     string
	MinioEndpoint string
	MinioKey      string
	MinioSecret   string
	MinioBucket   string
	MinioSecure   bool
}

// ParseFlags reads an optional .env file, then command line flags with
// environment-backed defaults.
func ParseFlags() (cfg Config, err error) {
	godotenv.Load()

	var host string
	flag.StringVar(&host, "host", envOr("HOST", "0.0.0.0"), "listen host name")
	var port uint
	flag.UintVar(&port, "port", envUintOr("PORT", 80), "listen port number")
	flag.StringVar(&cfg.BaseURL, "base-url", envOr("BASE_URL", ""), "public base URL used in links (defaults to the listen address)")
	flag.StringVar(&cfg.DBUrl, "db-url", envOr("DB_URL", "formfold.sqlite"), "path to SQLite3 DB file")
	flag.StringVar(&cfg.TokenSecret, "token-secret", envOr("TOKEN_SECRET", ""), "secret key for token encryption and decryption")
	var ttl uint
	flag.UintVar(&ttl, "token-ttl", envUintOr("TOKEN_TTL", 120), "token TTL in seconds")
	flag.BoolVar(&cfg.Debug, "debug", false, "log at DEBUG level")

	flag.StringVar(&cfg.SMTPAddr, "smtp-addr", envOr("SMTP_ADDR", ""), "SMTP host:port for notification emails (empty disables)")
	flag.StringVar(&cfg.SMTPFrom, "smtp-from", envOr("SMTP_FROM", "noreply@localhost"), "From address for notification emails")
	flag.StringVar(&cfg.SMTPUser, "smtp-user", envOr("SMTP_USER", ""), "SMTP auth username")
	flag.StringVar(&cfg.SMTPPass, "smtp-pass", envOr("SMTP_PASS", ""), "SMTP auth password")

	flag.StringVar(&cfg.UploadDir, "upload-dir", envOr("UPLOAD_DIR", "uploads"), "local directory for uploaded files")
	flag.StringVar(&cfg.MinioEndpoint, "minio-endpoint", envOr("MINIO_ENDPOINT", ""), "MinIO endpoint for uploads (empty uses the local directory)")
	flag.StringVar(&cfg.MinioKey, "minio-key", envOr("MINIO_KEY", ""), "MinIO access key")
	flag.StringVar(&cfg.MinioSecret, "minio-secret", envOr("MINIO_SECRET", ""), "MinIO secret key")
	flag.StringVar(&cfg.MinioBucket, "minio-bucket", envOr("MINIO_BUCKET", "formfold"), "MinIO bucket for uploads")
	flag.BoolVar(&cfg.MinioSecure, "minio-secure", envOr("MINIO_SECURE", "") == "true", "use TLS for MinIO")
	flag.Parse()

	cfg.Addr = net.JoinHostPort(host, strconv.Itoa(int(port)))
	cfg.TokenTTL = time.Duration(ttl) * time.Second
	if cfg.BaseURL == "" {
		cfg.BaseURL = cfg.Url()
	}

	if cfg.TokenSecret == "" {
		err = errors.New("missing parameter -token-secret")
	}

	return
}

func (cfg Config) Url() (url string) {
	url = cfg.Addr
	url = regexp.MustCompile(`^0.0.0.0`).ReplaceAllString(url, "localhost")
	url = "http://" + url
	return
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envUintOr(key string, fallback uint) uint {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseUint(v, 10, 32); err == nil {
			return uint(n)
		}
	}
	return fallback
}
