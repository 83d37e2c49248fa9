package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DefaultPath is the mail configuration file looked up in the working directory.
const DefaultPath = "config.json"

// EnvPrefix prefixes environment overrides, e.g. FSEN_MAIL_HOST.
const EnvPrefix = "FSEN"

// Configuration keys.
const (
	KeyFromName   = "from_name"
	KeyMailUser   = "mail_user"
	KeyMailHost   = "mail_host"
	KeySMTPPort   = "smtp_port"
	KeyIMAPPort   = "imap_port"
	KeySentFolder = "sent_folder"
	KeySendDelay  = "send_delay"
)

// Mail holds the settings of the mail-merge sender. SMTP and IMAP share the
// account and host.
type Mail struct {
	FromName   string
	User       string
	Host       string
	SMTPPort   int
	IMAPPort   int
	SentFolder string
	SendDelay  time.Duration
}

// SMTPAddr returns host:port of the submission server.
func (m Mail) SMTPAddr() string {
	return net.JoinHostPort(m.Host, strconv.Itoa(m.SMTPPort))
}

// IMAPAddr returns host:port of the IMAP server.
func (m Mail) IMAPAddr() string {
	return net.JoinHostPort(m.Host, strconv.Itoa(m.IMAPPort))
}

// MissingKeyError names a required key that neither the file nor the
// environment provides.
type MissingKeyError struct {
	Key string
}

func (e *MissingKeyError) Error() string {
	return fmt.Sprintf("missing required config key %q (or %s)", e.Key, EnvName(e.Key))
}

// EnvName returns the environment variable overriding key.
func EnvName(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(key)
}

// LoadMail reads the flat JSON file at path and applies FSEN_* environment
// overrides. With an empty path DefaultPath is used and may be absent as long
// as the environment supplies the required keys.
func LoadMail(path string) (Mail, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	v.SetDefault(KeySMTPPort, 587)
	v.SetDefault(KeyIMAPPort, 993)
	v.SetDefault(KeySentFolder, "Sent")
	v.SetDefault(KeySendDelay, "5s")

	if err := v.ReadInConfig(); err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return Mail{}, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	for _, key := range []string{KeyFromName, KeyMailUser, KeyMailHost} {
		if v.GetString(key) == "" {
			return Mail{}, &MissingKeyError{Key: key}
		}
	}

	delay, err := parseDelay(v.Get(KeySendDelay))
	if err != nil {
		return Mail{}, fmt.Errorf("invalid %s: %w", KeySendDelay, err)
	}

	cfg := Mail{
		FromName:   v.GetString(KeyFromName),
		User:       v.GetString(KeyMailUser),
		Host:       v.GetString(KeyMailHost),
		SMTPPort:   v.GetInt(KeySMTPPort),
		IMAPPort:   v.GetInt(KeyIMAPPort),
		SentFolder: v.GetString(KeySentFolder),
		SendDelay:  delay,
	}
	if cfg.SMTPPort <= 0 || cfg.IMAPPort <= 0 {
		return Mail{}, fmt.Errorf("invalid port in config %s", path)
	}
	return cfg, nil
}

// parseDelay accepts Go durations ("5s") and plain numbers of seconds.
func parseDelay(raw any) (time.Duration, error) {
	var d time.Duration
	switch val := raw.(type) {
	case float64:
		d = time.Duration(val * float64(time.Second))
	case int:
		d = time.Duration(val) * time.Second
	case string:
		parsed, err := time.ParseDuration(val)
		if err != nil {
			secs, ferr := strconv.ParseFloat(val, 64)
			if ferr != nil {
				return 0, err
			}
			parsed = time.Duration(secs * float64(time.Second))
		}
		d = parsed
	default:
		return 0, fmt.Errorf("unsupported value %v", raw)
	}
	if d < 0 {
		return 0, fmt.Errorf("must not be negative")
	}
	return d, nil
}
