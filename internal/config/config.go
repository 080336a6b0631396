package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

type Profile struct {
	Method   string
	Incoterm string
	Account  string
	Comment  string
}

type Config struct {
	App struct {
		Env      string
		Timezone string
	} `mapstructure:"app"`

	Portal struct {
		BaseURL        string        `mapstructure:"base_url"`
		Username       string        `mapstructure:"username"`
		Password       string        `mapstructure:"password"`
		CustomerNumber string        `mapstructure:"customer_number"`
		HomePath       string        `mapstructure:"home_path"`
		LoginTimeout   time.Duration `mapstructure:"login_timeout"`
		WaitTimeout    time.Duration `mapstructure:"wait_timeout"`
		FrameTimeout   time.Duration `mapstructure:"frame_timeout"`
		LineCapacity   int           `mapstructure:"line_capacity"`
		Headless       bool          `mapstructure:"headless"`
		BrowserBin     string        `mapstructure:"browser_bin"`
		ControlURL     string        `mapstructure:"control_url"`
	} `mapstructure:"portal"`

	Shipping struct {
		Phone          string
		Fax            string
		HeavyThreshold float64 `mapstructure:"heavy_threshold"`
		Heavy          Profile
		Light          Profile
	} `mapstructure:"shipping"`

	Telegram struct {
		Token        string
		AdminChatID  int64   `mapstructure:"admin_chat_id"`
		AllowedChats []int64 `mapstructure:"allowed_chats"`
	} `mapstructure:"telegram"`

	HTTP struct {
		Addr string
	} `mapstructure:"http"`

	Postgres struct {
		DSN string
	} `mapstructure:"postgres"`

	Metrics struct {
		Enabled bool
	} `mapstructure:"metrics"`
}

// Load reads the yaml at path. A .env next to the process is loaded first;
// APP_* variables override file values, e.g. APP_PORTAL_PASSWORD.
func Load(path string) (Config, error) {
	if err := gotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	var c Config
	if err := v.ReadInConfig(); err != nil {
		return c, err
	}
	if err := v.Unmarshal(&c); err != nil {
		return c, err
	}
	if err := c.validate(); err != nil {
		return c, err
	}
	return c, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.env", "prod")
	v.SetDefault("app.timezone", "America/New_York")
	v.SetDefault("portal.login_timeout", 15*time.Second)
	v.SetDefault("portal.wait_timeout", 10*time.Second)
	v.SetDefault("portal.frame_timeout", 10*time.Second)
	v.SetDefault("portal.line_capacity", 15)
	v.SetDefault("portal.headless", true)
	v.SetDefault("shipping.heavy_threshold", 70)
	v.SetDefault("shipping.heavy.method", "UPGF")
	v.SetDefault("shipping.heavy.incoterm", "TPC")
	v.SetDefault("shipping.light.method", "FDX003")
	v.SetDefault("shipping.light.incoterm", "TPC")
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("metrics.enabled", true)
	// AutomaticEnv only sees keys viper already knows about
	for _, k := range []string{
		"portal.base_url", "portal.username", "portal.password", "portal.customer_number",
		"telegram.token", "postgres.dsn",
	} {
		v.SetDefault(k, "")
	}
}

func (c Config) validate() error {
	var errs []error
	if c.Portal.BaseURL == "" {
		errs = append(errs, errors.New("portal.base_url is required"))
	}
	if c.Portal.Username == "" {
		errs = append(errs, errors.New("portal.username is required"))
	}
	if c.Portal.CustomerNumber == "" {
		errs = append(errs, errors.New("portal.customer_number is required"))
	}
	return errors.Join(errs...)
}

// Location resolves app.timezone, falling back to UTC.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.App.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
