package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"
)

// Backends accepted by DATA_BACKEND.
const (
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// Config holds runtime configuration sourced from env vars.
type Config struct {
	Port           string
	DataBackend    string
	DatabaseURL    string
	JWTSecret      string
	JWTIssuer      string
	JWTTTL         time.Duration
	CORSOrigins    []string
	LogLevel       string
	LogFormat      string
	RedisURL       string
	LoginRateLimit int
	RequestTimeout time.Duration
	TimeZone       string
	TrustedProxies []string
}

// Load reads configuration from the environment and validates it.
func Load() (Config, error) {
	cfg := Config{
		Port:           fallback(os.Getenv("PORT"), "8080"),
		DataBackend:    strings.ToLower(fallback(os.Getenv("DATA_BACKEND"), BackendPostgres)),
		DatabaseURL:    strings.TrimSpace(os.Getenv("DATABASE_URL")),
		JWTSecret:      strings.TrimSpace(os.Getenv("JWT_SECRET")),
		JWTIssuer:      fallback(os.Getenv("JWT_ISSUER"), "mosque-donations"),
		JWTTTL:         time.Duration(positiveInt(os.Getenv("JWT_TTL_MINUTES"), 24*60)) * time.Minute,
		CORSOrigins:    parseCSV(fallback(os.Getenv("CORS_ALLOWED_ORIGINS"), "*")),
		LogLevel:       fallback(os.Getenv("LOG_LEVEL"), "info"),
		LogFormat:      fallback(os.Getenv("LOG_FORMAT"), "text"),
		RedisURL:       strings.TrimSpace(os.Getenv("REDIS_URL")),
		LoginRateLimit: positiveInt(os.Getenv("LOGIN_RATE_LIMIT"), 10),
		RequestTimeout: duration(os.Getenv("REQUEST_TIMEOUT"), 10*time.Second),
		TimeZone:       fallback(os.Getenv("TZ_REPORTING"), "UTC"),
		TrustedProxies: parseList(os.Getenv("TRUSTED_PROXIES")),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports every configuration problem at once.
func (c Config) Validate() error {
	var problems []string

	if port, err := strconv.Atoi(c.Port); err != nil || port < 1 || port > 65535 {
		problems = append(problems, fmt.Sprintf("invalid PORT %q", c.Port))
	}
	switch c.DataBackend {
	case BackendPostgres:
		if c.DatabaseURL == "" {
			problems = append(problems, "DATABASE_URL is required")
		}
	case BackendMemory:
	default:
		problems = append(problems, fmt.Sprintf("invalid DATA_BACKEND %q: must be postgres or memory", c.DataBackend))
	}
	if c.JWTSecret == "" {
		problems = append(problems, "JWT_SECRET is required")
	}
	if _, err := time.LoadLocation(c.TimeZone); err != nil {
		problems = append(problems, fmt.Sprintf("invalid TZ_REPORTING %q", c.TimeZone))
	}

	for _, proxy := range c.TrustedProxies {
		if _, err := parseNetwork(proxy); err != nil {
			problems = append(problems, fmt.Sprintf("invalid TRUSTED_PROXIES entry %q", proxy))
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(problems, "\n- "))
	}
	return nil
}

// HTTPAddress returns the host:port pair for the HTTP server to bind to.
func (c Config) HTTPAddress() string {
	return fmt.Sprintf(":%s", c.Port)
}

// Location returns the time zone used for reporting windows.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// TrustedNetworks returns the proxies allowed to report client addresses
// through forwarding headers. Invalid entries are skipped; Validate reports them.
func (c Config) TrustedNetworks() []*net.IPNet {
	networks := make([]*net.IPNet, 0, len(c.TrustedProxies))
	for _, proxy := range c.TrustedProxies {
		if network, err := parseNetwork(proxy); err == nil {
			networks = append(networks, network)
		}
	}
	return networks
}

// parseNetwork accepts a CIDR or a bare IP, which is treated as a single host.
func parseNetwork(value string) (*net.IPNet, error) {
	if strings.Contains(value, "/") {
		_, network, err := net.ParseCIDR(value)
		return network, err
	}
	ip := net.ParseIP(value)
	if ip == nil {
		return nil, fmt.Errorf("invalid IP %q", value)
	}
	bits := 128
	if v4 := ip.To4(); v4 != nil {
		ip, bits = v4, 32
	}
	return &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)}, nil
}

func fallback(value, def string) string {
	if strings.TrimSpace(value) == "" {
		return def
	}
	return strings.TrimSpace(value)
}

func positiveInt(value string, def int) int {
	if n, err := strconv.Atoi(strings.TrimSpace(value)); err == nil && n > 0 {
		return n
	}
	return def
}

func duration(value string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(strings.TrimSpace(value)); err == nil && d > 0 {
		return d
	}
	return def
}

func parseCSV(input string) []string {
	out := parseList(input)
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

func parseList(input string) []string {
	var out []string
	for _, part := range strings.Split(input, ",") {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
