package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/cvhariharan/go-pub/models"
)

type Config struct {
	Host           string
	Port           int
	Secret         string
	Username       string
	DisplayName    string
	PrivateKeyFile string
	// PrivateKey is inline PEM and wins over PrivateKeyFile.
	PrivateKey  string
	GenerateKey bool
	PublicDir   string

	// AcceptUndoFollow keeps answering Undo(Follow) with an Accept, which
	// is what deployed peers have seen so far. Off turns it into a plain 200.
	AcceptUndoFollow bool

	LogLevel  string
	LogPretty bool
}

func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// binding ties a config key to its flag and environment variable.
type binding struct {
	key  string
	flag string
	env  string
}

var bindings = []binding{
	{"host", "host", "HOSTS"},
	{"port", "port", "PORT"},
	{"secret", "secret", "SECRET"},
	{"username", "username", "GOPUB_USERNAME"},
	{"display_name", "display-name", "GOPUB_DISPLAY_NAME"},
	{"private_key_file", "private-key-file", "PRIVATE_KEY_FILE"},
	{"private_key", "", "PRIVATE_KEY"},
	{"generate_key", "generate-key", "GOPUB_GENERATE_KEY"},
	{"public_dir", "public-dir", "GOPUB_PUBLIC_DIR"},
	{"accept_undo_follow", "accept-undo-follow", "GOPUB_ACCEPT_UNDO_FOLLOW"},
	{"log_level", "log-level", "GOPUB_LOG_LEVEL"},
	{"log_pretty", "log-pretty", "GOPUB_LOG_PRETTY"},
}

// Load reads configuration from args, the environment and an optional
// config file, in that order of precedence.
func Load(args []string) (Config, error) {
	flags := pflag.NewFlagSet("go-pub", pflag.ContinueOnError)
	configFile := flags.String("config", "", "optional config file (yaml, toml or json)")
	flags.String("host", "0.0.0.0", "listen host")
	flags.Int("port", 8000, "listen port")
	flags.String("secret", "", "path secret for the command endpoint")
	flags.String("username", "a", "local actor username")
	flags.String("display-name", "Alice", "local actor display name")
	flags.String("private-key-file", "./private.pem", "PEM encoded RSA private key")
	flags.Bool("generate-key", false, "create the private key file if it does not exist")
	flags.String("public-dir", "public", "directory served under /public/")
	flags.Bool("accept-undo-follow", true, "reply to Undo(Follow) with an Accept")
	flags.String("log-level", "info", "trace, debug, info, warn, error or off")
	flags.Bool("log-pretty", false, "human readable log output")
	if err := flags.Parse(args); err != nil {
		return Config{}, err
	}

	v := viper.New()
	for _, b := range bindings {
		if err := v.BindEnv(b.key, b.env); err != nil {
			return Config{}, err
		}
		if b.flag == "" {
			continue
		}
		if err := v.BindPFlag(b.key, flags.Lookup(b.flag)); err != nil {
			return Config{}, err
		}
	}
	if *configFile != "" {
		v.SetConfigFile(*configFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("config parse failed (%s): %w", *configFile, err)
		}
	}

	cfg := Config{
		Host:             v.GetString("host"),
		Port:             v.GetInt("port"),
		Secret:           v.GetString("secret"),
		Username:         v.GetString("username"),
		DisplayName:      v.GetString("display_name"),
		PrivateKeyFile:   v.GetString("private_key_file"),
		PrivateKey:       v.GetString("private_key"),
		GenerateKey:      v.GetBool("generate_key"),
		PublicDir:        v.GetString("public_dir"),
		AcceptUndoFollow: v.GetBool("accept_undo_follow"),
		LogLevel:         v.GetString("log_level"),
		LogPretty:        v.GetBool("log_pretty"),
	}
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func Validate(cfg Config) error {
	if strings.TrimSpace(cfg.Username) == "" {
		return errors.New("config: username is required")
	}
	if strings.ContainsAny(cfg.Username, "/@: ") {
		return fmt.Errorf("config: invalid username %q", cfg.Username)
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return fmt.Errorf("config: invalid port %d", cfg.Port)
	}
	if cfg.PrivateKey == "" && cfg.PrivateKeyFile == "" {
		return errors.New("config: private key is required")
	}
	return nil
}

// Identity loads the private key and builds the local identity.
func (c Config) Identity() (*models.Identity, error) {
	raw := c.PrivateKey
	if raw == "" {
		data, err := os.ReadFile(c.PrivateKeyFile)
		switch {
		case errors.Is(err, fs.ErrNotExist) && c.GenerateKey:
			_, pemData, genErr := GenerateKey(DefaultKeyBits)
			if genErr != nil {
				return nil, genErr
			}
			if err := os.WriteFile(c.PrivateKeyFile, []byte(pemData), 0o600); err != nil {
				return nil, fmt.Errorf("write private key (%s): %w", c.PrivateKeyFile, err)
			}
			data = []byte(pemData)
		case err != nil:
			return nil, fmt.Errorf("read private key (%s): %w", c.PrivateKeyFile, err)
		}
		raw = string(data)
	}
	key, err := ParsePrivateKey(raw)
	if err != nil {
		return nil, err
	}
	return models.NewIdentity(c.Username, c.DisplayName, key)
}
