// Package config lee la configuración de API y CLI desde variables de entorno.
// Si hay un .env en el directorio actual se carga antes; las variables ya
// definidas en el entorno tienen prioridad.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ErrNoAuth: sin JWT_SIGNING_KEY el login no emite tokens, y con
// AUTH_DEBUG_USERS=false ningún cliente podría identificarse después.
var ErrNoAuth = errors.New("config: JWT_SIGNING_KEY is empty and AUTH_DEBUG_USERS=false; no client could authenticate")

type API struct {
	Port          string
	DSN           string // vacío = repos in-memory
	Migrate       bool
	JWTSigningKey string // vacío = sin tokens (solo X-Debug-User-ID)
	JWTTTL        time.Duration
	DebugUsers    bool
	CORSOrigins   []string
}

type CLI struct {
	APIURL     string
	SessionDir string
	RedisURL   string // si viene, la sesión va a redis en vez de archivo
	Timeout    time.Duration
}

// LoadDotEnv carga los archivos dados (".env" por defecto). Un archivo
// inexistente no es error.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

func LoadAPI() (API, error) {
	ttl, err := duration("JWT_TTL", 24*time.Hour)
	if err != nil {
		return API{}, err
	}
	migrate, err := boolean("DB_MIGRATE", true)
	if err != nil {
		return API{}, err
	}
	key := os.Getenv("JWT_SIGNING_KEY")
	debug, err := boolean("AUTH_DEBUG_USERS", key == "")
	if err != nil {
		return API{}, err
	}
	if key == "" && !debug {
		return API{}, ErrNoAuth
	}

	return API{
		Port:          str("PORT", "8080"),
		DSN:           os.Getenv("DB_DSN"),
		Migrate:       migrate,
		JWTSigningKey: key,
		JWTTTL:        ttl,
		DebugUsers:    debug,
		CORSOrigins:   list("CORS_ORIGINS", []string{"*"}),
	}, nil
}

func LoadCLI() (CLI, error) {
	timeout, err := duration("PETCTL_TIMEOUT", 10*time.Second)
	if err != nil {
		return CLI{}, err
	}

	dir := os.Getenv("PETCTL_SESSION_DIR")
	if dir == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			base = os.TempDir()
		}
		dir = filepath.Join(base, "petctl")
	}

	return CLI{
		APIURL:     str("PETCTL_API_URL", "http://localhost:8080"),
		SessionDir: dir,
		RedisURL:   os.Getenv("PETCTL_REDIS_URL"),
		Timeout:    timeout,
	}, nil
}

func str(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func list(key string, def []string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	out := make([]string, 0)
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func duration(key string, def time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%s: invalid duration %q", key, raw)
	}
	return d, nil
}

func boolean(key string, def bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%s: invalid bool %q", key, raw)
	}
	return b, nil
}
