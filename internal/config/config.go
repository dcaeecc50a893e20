package config

import (
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration (env + Viper).
type Config struct {
	Env                 string
	Version             string
	Port                string
	DatabaseURL         string
	RedisURL            string
	FrontendURLEndsWith string
	DevPassword         string
	AdminAPIKey         string // X-Admin-Key header value required on admin routes
	HealthAdminKey      string
	Location            *time.Location // billing months and lead quotas roll over in this zone

	GracePeriod      time.Duration
	SLAFirstContact  time.Duration
	SLAReassignment  time.Duration
	SchedulerEnabled bool
	ChargesCron      string
	OverdueCron      string
	LeadResetCron    string
}

// Load loads config from env and optional .env file.
func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	_ = viper.ReadInConfig()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	viper.SetDefault("PORT", "8080")
	viper.SetDefault("APP_VERSION", "1.0.0")
	viper.SetDefault("GRACE_PERIOD_DAYS", 7)
	viper.SetDefault("SLA_FIRST_CONTACT_HOURS", 2)
	viper.SetDefault("SLA_REASSIGNMENT_HOURS", 4)
	viper.SetDefault("SCHEDULER_ENABLED", true)
	viper.SetDefault("CHARGES_CRON", "5 0 * * *")
	viper.SetDefault("OVERDUE_CRON", "15 0 * * *")
	viper.SetDefault("LEAD_RESET_CRON", "0 0 1 * *")

	env := viper.GetString("APP_ENV")
	if env == "" {
		env = "development"
	}

	dbURL := viper.GetString("DATABASE_URL_DEV")
	if env == "production" {
		dbURL = viper.GetString("DATABASE_URL_PROD")
	} else if env == "test" {
		dbURL = viper.GetString("DATABASE_URL_TEST")
	}
	if dbURL == "" {
		dbURL = os.Getenv("DATABASE_URL")
	}

	return &Config{
		Env:                 env,
		Version:             viper.GetString("APP_VERSION"),
		Port:                viper.GetString("PORT"),
		DatabaseURL:         dbURL,
		RedisURL:            viper.GetString("REDIS_URL"),
		FrontendURLEndsWith: viper.GetString("FRONTEND_URL_ENDS_WITH"),
		DevPassword:         viper.GetString("DEV_PASSWORD"),
		AdminAPIKey:         viper.GetString("ADMIN_API_KEY"),
		HealthAdminKey:      viper.GetString("HEALTH_ADMIN_KEY"),
		Location:            location(viper.GetString("TIMEZONE")),
		GracePeriod:         time.Duration(viper.GetInt("GRACE_PERIOD_DAYS")) * 24 * time.Hour,
		SLAFirstContact:     time.Duration(viper.GetInt("SLA_FIRST_CONTACT_HOURS")) * time.Hour,
		SLAReassignment:     time.Duration(viper.GetInt("SLA_REASSIGNMENT_HOURS")) * time.Hour,
		SchedulerEnabled:    viper.GetBool("SCHEDULER_ENABLED"),
		ChargesCron:         viper.GetString("CHARGES_CRON"),
		OverdueCron:         viper.GetString("OVERDUE_CRON"),
		LeadResetCron:       viper.GetString("LEAD_RESET_CRON"),
	}, nil
}

// Guatemala does not observe DST; the fixed zone is used when tzdata is missing.
var guatemala = time.FixedZone("CST", -6*60*60)

func location(name string) *time.Location {
	name = strings.TrimSpace(name)
	if name == "" {
		name = "America/Guatemala"
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return guatemala
	}
	return loc
}
