package core

import (
	"log"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	ServerConfig struct {
		Host            string
		Address         string
		DebugHost       string
		ShutdownTimeout time.Duration
		DisableReqLogs  bool
	}

	UpstreamConfig struct {
		BaseURL string
		Timeout time.Duration
		Token   string // static token for the admin CLI; the gateway forwards the caller's token
	}

	DatabaseConfig struct {
		Engine     string
		Host       string
		Port       string
		Name       string
		User       string
		Password   string
		DisableTLS bool
	}

	CacheConfig struct {
		TTL       time.Duration
		SweepSpec string // cron spec
	}

	AdmissionConfig struct {
		Location *time.Location
		DraftTTL time.Duration
	}

	FinanceConfig struct {
		NotifyEmail string
	}

	Config struct {
		Env            string
		Build          string
		AppName        string
		Debug          bool
		TestMode       bool
		SecretKey      string
		WorkDir        string
		RollbarToken   string
		SendgridApiKey string
		Server         ServerConfig
		Upstream       UpstreamConfig
		Database       DatabaseConfig
		Cache          CacheConfig
		Admission      AdmissionConfig
		Finance        FinanceConfig

		defaultFromEmail string
	}
)

func (db DatabaseConfig) Address() string {
	return db.Host + ":" + db.Port
}

func (conf *Config) DefaultFromEmail() mail.Address {
	addr, err := mail.ParseAddress(conf.defaultFromEmail)
	if err != nil {
		return mail.Address{Name: conf.AppName, Address: conf.defaultFromEmail}
	}
	if addr.Name == "" {
		addr.Name = conf.AppName
	}
	return *addr
}

// NewConfig loads the configuration from defaults, the optional `config/.env.<env>` file and the environment.
func NewConfig() *Config {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("build", "dev")
	v.SetDefault("appName", "Campusdesk")
	v.SetDefault("secretKey", "k2n!v9$u@o7pq-4w)e8^rz1#t5yx(3m&s6")
	v.SetDefault("defaultFromEmail", "noreply@localhost")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("sendgridApiKey", "")

	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.address", ":8000")
	v.SetDefault("server.debugHost", ":4000")
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("server.disableReqLogs", false)

	v.SetDefault("upstream.baseURL", "http://localhost:5000/api")
	v.SetDefault("upstream.timeout", 15*time.Second)
	v.SetDefault("upstream.token", "")

	v.SetDefault("database.engine", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.name", "campusdesk")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.disableTLS", true)

	v.SetDefault("cache.ttl", 10*time.Minute)
	v.SetDefault("cache.sweepSpec", "@every 5m")

	v.SetDefault("admission.timezone", "Local")
	v.SetDefault("admission.draftTTL", 24*time.Hour)

	v.SetDefault("finance.notifyEmail", "")

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	if env == "" {
		env = "DEV"
	}
	if env == "TEST" {
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	workDir := Getwd()
	dotEnvPath := filepath.Join(workDir, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	loc, err := time.LoadLocation(v.GetString("admission.timezone"))
	if err != nil {
		log.Printf("config: unknown admission.timezone %q, falling back to UTC", v.GetString("admission.timezone"))
		loc = time.UTC
	}

	return &Config{
		Env:            env,
		Build:          v.GetString("build"),
		AppName:        v.GetString("appName"),
		Debug:          v.GetBool("debug"),
		TestMode:       v.GetBool("testMode"),
		SecretKey:      v.GetString("secretKey"),
		WorkDir:        workDir,
		RollbarToken:   v.GetString("rollbarToken"),
		SendgridApiKey: v.GetString("sendgridApiKey"),
		Server: ServerConfig{
			Host:            v.GetString("server.host"),
			Address:         v.GetString("server.address"),
			DebugHost:       v.GetString("server.debugHost"),
			ShutdownTimeout: v.GetDuration("server.shutdownTimeout"),
			DisableReqLogs:  v.GetBool("server.disableReqLogs"),
		},
		Upstream: UpstreamConfig{
			BaseURL: v.GetString("upstream.baseURL"),
			Timeout: v.GetDuration("upstream.timeout"),
			Token:   v.GetString("upstream.token"),
		},
		Database: DatabaseConfig{
			Engine:     v.GetString("database.engine"),
			Host:       v.GetString("database.host"),
			Port:       v.GetString("database.port"),
			Name:       v.GetString("database.name"),
			User:       v.GetString("database.user"),
			Password:   v.GetString("database.password"),
			DisableTLS: v.GetBool("database.disableTLS"),
		},
		Cache: CacheConfig{
			TTL:       v.GetDuration("cache.ttl"),
			SweepSpec: v.GetString("cache.sweepSpec"),
		},
		Admission: AdmissionConfig{
			Location: loc,
			DraftTTL: v.GetDuration("admission.draftTTL"),
		},
		Finance: FinanceConfig{
			NotifyEmail: v.GetString("finance.notifyEmail"),
		},
		defaultFromEmail: v.GetString("defaultFromEmail"),
	}
}
