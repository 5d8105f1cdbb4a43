package core

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Login fallback policies, applied when a successful login response carries no user.
const (
	LoginFallbackStudent = "student"
	LoginFallbackReject  = "reject"
)

type (
	APIConfig struct {
		BaseURL        string
		RequestTimeout time.Duration // 0: http.Client default
	}

	StorageConfig struct {
		Path string
	}

	SessionConfig struct {
		LoginFallback string
	}

	PortalConfig struct {
		FileReleaseDelay time.Duration
		StatusTTL        time.Duration
	}

	ServerConfig struct {
		Host               string
		Address            string
		SecretKey          string
		JWTExpirationDelta time.Duration
		ShutdownTimeout    time.Duration
	}

	Config struct {
		Env          string
		Build        string
		Debug        bool
		TestMode     bool
		AppName      string
		RollbarToken string

		API     APIConfig
		Storage StorageConfig
		Session SessionConfig
		Portal  PortalConfig
		Server  ServerConfig
	}
)

func defaultStoragePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".masomo", "portal.db")
	}
	return filepath.Join(home, ".masomo", "portal.db")
}

// NewConfig reads the configuration from defaults, `config/.env.<env>` (if present) and the environment.
// Environment variables are prefixed with the value of ENV: DEV (local; default), TEST, QA, PROD.
func NewConfig() (*Config, error) {
	conf := viper.New()

	// defaults
	conf.SetTypeByDefaultValue(true)
	conf.SetDefault("debug", true)
	conf.SetDefault("testMode", false)
	conf.SetDefault("appName", "Masomo")
	conf.SetDefault("build", "develop")
	conf.SetDefault("rollbarToken", "")
	conf.SetDefault("apiBaseURL", "http://localhost:4000/api")
	conf.SetDefault("requestTimeout", time.Duration(0))
	conf.SetDefault("storagePath", defaultStoragePath())
	conf.SetDefault("loginFallback", LoginFallbackStudent)
	conf.SetDefault("fileReleaseDelay", 60*time.Second)
	conf.SetDefault("statusTTL", 5*time.Second)
	conf.SetDefault("serverHost", "localhost")
	conf.SetDefault("serverAddress", ":4000")
	conf.SetDefault("secretKey", "poq5-wer)enb$+57=dz&uoxh2(h!x)#*c2(#yg4h^$cegm2emy")
	conf.SetDefault("jwtExpirationDelta", 7*24*time.Hour)
	conf.SetDefault("shutdownTimeout", 5*time.Second)

	env := strings.ToUpper(os.Getenv("ENV"))
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		conf.SetDefault("testMode", true)
	}
	conf.SetEnvPrefix(env)

	// load .env if it exists (ignore if it does not)
	if err := loadDotEnv(env); err != nil {
		return nil, err
	}
	conf.AutomaticEnv()

	fallback := CleanString(conf.GetString("loginFallback"), true /* lower */)
	if fallback != LoginFallbackStudent && fallback != LoginFallbackReject {
		return nil, errors.Errorf("config: unknown loginFallback %q", fallback)
	}

	return &Config{
		Env:          env,
		Build:        conf.GetString("build"),
		Debug:        conf.GetBool("debug"),
		TestMode:     conf.GetBool("testMode"),
		AppName:      conf.GetString("appName"),
		RollbarToken: conf.GetString("rollbarToken"),
		API: APIConfig{
			BaseURL:        strings.TrimRight(conf.GetString("apiBaseURL"), "/"),
			RequestTimeout: conf.GetDuration("requestTimeout"),
		},
		Storage: StorageConfig{
			Path: conf.GetString("storagePath"),
		},
		Session: SessionConfig{
			LoginFallback: fallback,
		},
		Portal: PortalConfig{
			FileReleaseDelay: conf.GetDuration("fileReleaseDelay"),
			StatusTTL:        conf.GetDuration("statusTTL"),
		},
		Server: ServerConfig{
			Host:               conf.GetString("serverHost"),
			Address:            conf.GetString("serverAddress"),
			SecretKey:          conf.GetString("secretKey"),
			JWTExpirationDelta: conf.GetDuration("jwtExpirationDelta"),
			ShutdownTimeout:    conf.GetDuration("shutdownTimeout"),
		},
	}, nil
}

func loadDotEnv(env string) error {
	wd, err := os.Getwd()
	if err != nil {
		return errors.Wrap(err, "config: getting working directory")
	}
	dotEnvPath := filepath.Join(wd, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			return errors.Wrapf(err, "config: loading %s", dotEnvPath)
		}
	} else if !os.IsNotExist(err) {
		return errors.Wrapf(err, "config: stat %s", dotEnvPath)
	}
	return nil
}
