package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds application configuration loaded from environment variables.
type Config struct {
	BotToken      string `envconfig:"BOT_TOKEN" required:"true"`
	DBPath        string `envconfig:"DB_PATH" default:"./data/daysbot.db"`
	OwnerID       int64  `envconfig:"OWNER_ID" required:"true"`
	BackupAdminID int64  `envconfig:"BACKUP_ADMIN_ID"`

	// Civil calendar: fixed UTC offset, no daylight saving.
	UTCOffsetHours int `envconfig:"UTC_OFFSET_HOURS" default:"3"`

	// Daily trigger times, local wall clock, HH:MM.
	BirthdayTime string `envconfig:"BIRTHDAY_TIME" default:"09:00"`
	EventTime    string `envconfig:"EVENT_TIME" default:"10:00"`
	CleanupTime  string `envconfig:"CLEANUP_TIME" default:"03:00"`

	MaxCongratulations  int           `envconfig:"MAX_CONGRATULATIONS" default:"50"`
	MaxEventsPerChat    int           `envconfig:"MAX_EVENTS_PER_CHAT" default:"20"`
	MaxBirthdaysPerChat int           `envconfig:"MAX_BIRTHDAYS_PER_CHAT" default:"200"`
	SentRetentionDays   int           `envconfig:"SENT_RETENTION_DAYS" default:"30"`
	SendPause           time.Duration `envconfig:"SEND_PAUSE" default:"1s"`

	LogLevel string `envconfig:"LOG_LEVEL" default:"info"` // debug|info|warn|error
	HTTPAddr string `envconfig:"HTTP_ADDR" default:":8080"`
}

// Load reads environment variables into Config.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Location returns the fixed-offset civil calendar all scheduling uses.
func (c Config) Location() *time.Location {
	return time.FixedZone(fmt.Sprintf("UTC%+d", c.UTCOffsetHours), c.UTCOffsetHours*3600)
}

// IsOwner reports whether userID is the owner or the backup admin.
func (c Config) IsOwner(userID int64) bool {
	return userID == c.OwnerID || (c.BackupAdminID != 0 && userID == c.BackupAdminID)
}
