package core

import (
	"log"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

type (
	Config struct {
		Env      string
		Debug    bool
		TestMode bool
		Build    string
		AppName  string
		WorkDir  string

		DefaultFromEmail mail.Address
		ReportRecipients []string
		SendgridApiKey   string
		RollbarToken     string

		Server struct {
			Host            string
			Port            string
			ShutdownTimeout time.Duration
		}

		Database DatabaseConfig

		Sheets struct {
			// CredentialsFile is the path to a Google service account key (JSON).
			CredentialsFile string
		}

		Sync SyncConfig
	}

	DatabaseConfig struct {
		Engine        string
		Host          string
		Port          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		Name          string
		DisableTLS    bool
	}

	// SyncConfig holds the synchronization pass parameters. It is passed
	// explicitly to the scheduler; persisted overrides live in core/param.
	SyncConfig struct {
		// MaxDaysToEndDate selects "current" courses: those whose end date
		// is no further than this many days in the past.
		MaxDaysToEndDate int
		// MaxDaysSheetUnchanged is the staleness window: a tracked form with
		// no new entries for longer than this is not re-read.
		MaxDaysSheetUnchanged int
	}
)

const (
	DefaultMaxDaysToEndDate      = 35
	DefaultMaxDaysSheetUnchanged = 15
)

func (c DatabaseConfig) Address() string {
	return c.Host + ":" + c.Port
}

func (c SyncConfig) Validate() error {
	if c.MaxDaysToEndDate <= 0 {
		return errors.New("maxDaysToEndDate is not set")
	}
	if c.MaxDaysSheetUnchanged <= 0 {
		return errors.New("maxDaysSheetUnchanged is not set")
	}
	return nil
}

func NewConfig() (*Config, error) {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("appName", "Maoni")
	v.SetDefault("defaultFromEmail", "noreply@localhost")
	v.SetDefault("reportRecipients", []string{})
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", "8000")
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("database.engine", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.name", "maoni")
	v.SetDefault("database.disableTLS", true)
	v.SetDefault("sheets.credentialsFile", "")
	v.SetDefault("sync.maxDaysToEndDate", DefaultMaxDaysToEndDate)
	v.SetDefault("sync.maxDaysSheetUnchanged", DefaultMaxDaysSheetUnchanged)

	env := os.Getenv("ENV") // DEV (local; default), TEST, QA, PROD
	if env == "" {
		env = "DEV"
	}
	v.SetDefault("testMode", env == "TEST")
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	wd := Getwd()

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(wd, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			return nil, errors.Wrapf(err, "loading %s", dotEnvPath)
		}
	} else if !os.IsNotExist(err) {
		return nil, errors.Wrapf(err, "checking %s", dotEnvPath)
	}
	v.AutomaticEnv()

	conf := &Config{
		Env:              env,
		Debug:            v.GetBool("debug"),
		TestMode:         v.GetBool("testMode"),
		Build:            v.GetString("build"),
		AppName:          v.GetString("appName"),
		WorkDir:          wd,
		DefaultFromEmail: mail.Address{Address: v.GetString("defaultFromEmail")},
		ReportRecipients: v.GetStringSlice("reportRecipients"),
		SendgridApiKey:   v.GetString("sendgridApiKey"),
		RollbarToken:     v.GetString("rollbarToken"),
	}
	conf.Server.Host = v.GetString("server.host")
	conf.Server.Port = v.GetString("server.port")
	conf.Server.ShutdownTimeout = v.GetDuration("server.shutdownTimeout")
	conf.Database = DatabaseConfig{
		Engine:        v.GetString("database.engine"),
		Host:          v.GetString("database.host"),
		Port:          v.GetString("database.port"),
		User:          v.GetString("database.user"),
		Password:      v.GetString("database.password"),
		AdminUser:     v.GetString("database.adminUser"),
		AdminPassword: v.GetString("database.adminPassword"),
		Name:          v.GetString("database.name"),
		DisableTLS:    v.GetBool("database.disableTLS"),
	}
	conf.Sheets.CredentialsFile = v.GetString("sheets.credentialsFile")
	conf.Sync = SyncConfig{
		MaxDaysToEndDate:      v.GetInt("sync.maxDaysToEndDate"),
		MaxDaysSheetUnchanged: v.GetInt("sync.maxDaysSheetUnchanged"),
	}
	return conf, nil
}

// Getwd tries to find the project root (the directory holding go.mod).
// go-test changes the working directory to the test package being run during tests... this breaks our code...
// see: https://stackoverflow.com/questions/23847003/golang-tests-and-working-directory
func Getwd() string {
	wd, err := os.Getwd()
	if err != nil {
		log.Fatal(err)
	}
	currDir := wd
	for {
		if _, err := os.Stat(filepath.Join(currDir, "go.mod")); err == nil {
			return currDir
		}
		newDir := filepath.Dir(currDir)
		if newDir == string(os.PathSeparator) || newDir == currDir {
			return wd
		}
		currDir = newDir
	}
}
