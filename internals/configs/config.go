package configs

import (
	"context"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"
	gormLogger "gorm.io/gorm/logger"
	"gorm.io/gorm/utils"
)

// App holds every setting the server reads from the environment.
type App struct {
	Port           string        `envconfig:"PORT" default:"3000"`
	RequestTimeout time.Duration `envconfig:"REQUEST_TIMEOUT" default:"5s"`
	LogLevel       string        `envconfig:"LOG_LEVEL" default:"info"`

	DBUser        string `envconfig:"DB_USER"`
	DBPassword    string `envconfig:"DB_PASSWORD"`
	DBHost        string `envconfig:"DB_HOST" default:"localhost"`
	DBPort        string `envconfig:"DB_PORT" default:"5432"`
	DBName        string `envconfig:"DB_NAME" default:"horseclub"`
	DBSSLMode     string `envconfig:"DB_SSLMODE" default:"require"`
	DBAutoMigrate bool   `envconfig:"DB_AUTO_MIGRATE" default:"false"`

	JWTSecret      string `envconfig:"JWT_SECRET"`
	JWTAccessTTL   int    `envconfig:"JWT_ACCESS_TTL_MIN" default:"720"`
	GoogleClientID string `envconfig:"GOOGLE_CLIENT_ID"`

	RabbitURL      string `envconfig:"RABBIT_URL"`
	RabbitExchange string `envconfig:"RABBIT_EXCHANGE" default:"horseclub.events"`
	RabbitQueue    string `envconfig:"RABBIT_QUEUE" default:"horseclub.notifications"`

	UploadDir    string `envconfig:"UPLOAD_DIR" default:"./uploads"`
	ClubTimezone string `envconfig:"CLUB_TIMEZONE" default:"Europe/Bratislava"`

	DefaultCurrency           string `envconfig:"DEFAULT_CURRENCY" default:"EUR"`
	PricingDefaultAmountCents int64  `envconfig:"PRICING_DEFAULT_AMOUNT_CENTS" default:"0"`

	AuditBuffer int `envconfig:"AUDIT_BUFFER" default:"512"`

	BlacklistTTLDays  int    `envconfig:"TOKEN_BLACKLIST_TTL_DAYS" default:"7"`
	SeedAdminEmail    string `envconfig:"SEED_ADMIN_EMAIL"`
	SeedAdminPassword string `envconfig:"SEED_ADMIN_PASSWORD"`
}

var (
	Cfg       App
	JWTSecret string
	Log       = logrus.New()
)

// =======================
// ENV LOADER
// =======================
func LoadEnv() {
	Log.SetFormatter(&logrus.JSONFormatter{TimestampFormat: "2006-01-02T15:04:05.000Z07:00"})

	if os.Getenv("RAILWAY_ENVIRONMENT") == "" && os.Getenv("APP_ENV") != "production" {
		if err := godotenv.Load(); err != nil {
			Log.Warn("no .env file found, using system environment")
		} else {
			Log.Info(".env file loaded")
		}
	}

	if err := envconfig.Process("", &Cfg); err != nil {
		Log.WithError(err).Fatal("invalid environment configuration")
	}

	if lvl, err := logrus.ParseLevel(Cfg.LogLevel); err == nil {
		Log.SetLevel(lvl)
	}

	JWTSecret = Cfg.JWTSecret
	if JWTSecret == "" {
		Log.Error("JWT_SECRET is not set")
	}
	if Cfg.GoogleClientID == "" {
		Log.Warn("GOOGLE_CLIENT_ID is not set, google login disabled")
	}
}

func GetEnv(key string, defaultValue ...string) string {
	value, exists := os.LookupEnv(key)
	if !exists && len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return value
}

// ClubLocation returns the club's local time zone, falling back to UTC.
func ClubLocation() *time.Location {
	if loc, err := time.LoadLocation(Cfg.ClubTimezone); err == nil {
		return loc
	}
	return time.UTC
}

// =======================
// GORM LOGGER (logrus)
// =======================
type GormLogger struct {
	SlowThreshold time.Duration
	LogLevel      gormLogger.LogLevel
	Entry         *logrus.Entry
}

func NewGormLogger() gormLogger.Interface {
	level := gormLogger.Warn
	if Log.IsLevelEnabled(logrus.DebugLevel) {
		level = gormLogger.Info
	}
	return &GormLogger{
		SlowThreshold: 200 * time.Millisecond,
		LogLevel:      level,
		Entry:         Log.WithField("component", "gorm"),
	}
}

func (l *GormLogger) LogMode(level gormLogger.LogLevel) gormLogger.Interface {
	cp := *l
	cp.LogLevel = level
	return &cp
}

func (l *GormLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= gormLogger.Info {
		l.Entry.Infof(msg, data...)
	}
}

func (l *GormLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= gormLogger.Warn {
		l.Entry.Warnf(msg, data...)
	}
}

func (l *GormLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= gormLogger.Error {
		l.Entry.Errorf(msg, data...)
	}
}

func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.LogLevel <= gormLogger.Silent {
		return
	}
	elapsed := time.Since(begin)
	sql, rows := fc()
	fields := logrus.Fields{
		"file":    utils.FileWithLineNum(),
		"elapsed": elapsed.String(),
		"rows":    rows,
	}

	switch {
	case err != nil && l.LogLevel >= gormLogger.Error && !isNotFound(err):
		l.Entry.WithFields(fields).WithError(err).Error(sql)
	case elapsed > l.SlowThreshold && l.LogLevel >= gormLogger.Warn:
		l.Entry.WithFields(fields).Warn("slow sql: " + sql)
	case l.LogLevel >= gormLogger.Info:
		l.Entry.WithFields(fields).Debug(sql)
	}
}

func isNotFound(err error) bool {
	return err != nil && err.Error() == "record not found"
}
