package config

import (
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/pquerna/otp/totp"
	"github.com/spf13/viper"
)

const EnvPrefix = "CCPDNS"

type Config struct {
	Endpoint     string `mapstructure:"endpoint" yaml:"endpoint"`
	Username     string `mapstructure:"username" yaml:"username"`
	Password     string `mapstructure:"password" yaml:"password"`
	TOTPSecret   string `mapstructure:"totp_secret" yaml:"totp_secret"`
	SecondFactor string `mapstructure:"second_factor" yaml:"second_factor"`
	CachePath    string `mapstructure:"cache_path" yaml:"cache_path"`
	LogLevel     string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat    string `mapstructure:"log_format" yaml:"log_format"`
}

var defaults = map[string]string{
	"endpoint":      "https://ccp.netcup.net",
	"username":      "",
	"password":      "",
	"totp_secret":   "",
	"second_factor": "",
	"cache_path":    "",
	"log_level":     "warn",
	"log_format":    "console",
}

// DefaultPath is ~/.config/ccpdns/config.yaml (or the XDG equivalent).
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "ccpdns", "config.yaml")
}

// DefaultCachePath is where the cookie jar lives when caching is switched on without a path.
func DefaultCachePath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "ccpdns-cookies.db"
	}
	return filepath.Join(dir, "ccpdns", "cookies.db")
}

// Load reads path (if it exists) and then CCPDNS_* environment variables, which win.
// A missing file is an error only when required is set.
func Load(path string, required bool) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	for k, d := range defaults {
		v.SetDefault(k, d)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if path != "" {
		_, err := os.Stat(path)
		switch {
		case err == nil:
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return nil, errors.Wrapf(err, "read config %s", path)
			}
		case os.IsNotExist(err) && !required:
		default:
			return nil, errors.Wrapf(err, "config %s", path)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Username == "" {
		return errors.New("username is not set")
	}
	if c.Password == "" {
		return errors.New("password is not set")
	}
	if u, err := url.Parse(c.Endpoint); err != nil || u.Scheme == "" || u.Host == "" {
		return errors.Errorf("endpoint %q is not an absolute url", c.Endpoint)
	}
	switch c.LogFormat {
	case "json", "console":
	default:
		return errors.Errorf("unknown log format %q", c.LogFormat)
	}
	return nil
}

// SecondFactorCode returns the explicit one-time code, or one derived from the
// TOTP secret for the given time, or "" when the account has no second factor.
func (c *Config) SecondFactorCode(now time.Time) (string, error) {
	if c.SecondFactor != "" {
		return c.SecondFactor, nil
	}
	if c.TOTPSecret == "" {
		return "", nil
	}
	code, err := totp.GenerateCode(strings.ToUpper(strings.ReplaceAll(c.TOTPSecret, " ", "")), now)
	if err != nil {
		return "", errors.Wrap(err, "totp")
	}
	return code, nil
}
