package config

import (
	"errors"
	"flag"
	"net"
	"regexp"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr            string
	DBUrl           string
	TokenSecret     string
	TokenTTL        time.Duration
	GatewayURL      string
	ReportURL       string
	ReportAPIKey    string
	DeliveryTimeout time.Duration
	ConfirmDelivery bool
	ArchiveLimit    int
	AdminUser       string
	AdminPass       string
	Debug           bool
}

// The placeholder shipped in example env files. A gateway URL equal to this
// (or empty) means "not configured yet": sync operations are skipped.
const PlaceholderGatewayURL = "YOUR_GOOGLE_APPS_SCRIPT_WEB_APP_URL"

const DefaultReportURL = "https://api.anthropic.com/v1/messages"

func ParseFlags() (cfg Config, err error) {
	// optional .env next to the binary, real flags win
	godotenv.Load()

	var host string
	flag.StringVar(&host, "host", "0.0.0.0", "listen host name (default 0.0.0.0)")
	var port uint
	flag.UintVar(&port, "port", 80, "listen port number (default 80)")
	flag.StringVar(&cfg.DBUrl, "db-url", "supervise.sqlite", "path to SQLite3 DB file (default supervise.sqlite)")
	flag.StringVar(&cfg.TokenSecret, "token-secret", "", "secret key for token encryption and decryption")
	var ttl uint
	flag.UintVar(&ttl, "token-ttl", 3600, "token TTL in seconds (default 3600)")
	flag.StringVar(&cfg.GatewayURL, "gateway-url", PlaceholderGatewayURL, "spreadsheet gateway web app URL")
	flag.StringVar(&cfg.ReportURL, "report-url", DefaultReportURL, "text completion endpoint for narrative reports")
	flag.StringVar(&cfg.ReportAPIKey, "report-api-key", "", "API key for narrative report generation")
	var deliveryTimeout uint
	flag.UintVar(&deliveryTimeout, "delivery-timeout", 30, "per-delivery timeout in seconds (default 30)")
	flag.BoolVar(&cfg.ConfirmDelivery, "confirm-delivery", false, "require a 2xx status from the gateway instead of fire-and-forget")
	flag.IntVar(&cfg.ArchiveLimit, "archive-limit", 0, "max submissions kept in the local archive, 0 = unbounded")
	flag.StringVar(&cfg.AdminUser, "admin-user", "admin", "bootstrap supervisor username")
	flag.StringVar(&cfg.AdminPass, "admin-pass", "admin", "bootstrap supervisor password")
	flag.BoolVar(&cfg.Debug, "debug", false, "log at DEBUG level")
	flag.Parse()

	cfg.Addr = net.JoinHostPort(host, strconv.Itoa(int(port)))
	cfg.TokenTTL = time.Duration(ttl) * time.Second
	cfg.DeliveryTimeout = time.Duration(deliveryTimeout) * time.Second

	if cfg.TokenSecret == "" {
		err = errors.New("missing parameter -token-secret")
	}

	return
}

func (cfg Config) GatewayConfigured() bool {
	return cfg.GatewayURL != "" && cfg.GatewayURL != PlaceholderGatewayURL
}

func (cfg Config) Url() (url string) {
	url = cfg.Addr
	url = regexp.MustCompile(`^0.0.0.0`).ReplaceAllString(url, "localhost")
	url = "http://" + url
	return
}
