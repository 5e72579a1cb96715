package config

import (
	"fmt"
	"log"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	_ "github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/uzhavansanthai/marketplace/internal/models"
)

type Config struct {
	Port string `envconfig:"PORT" default:"8080"`

	DBHost     string `envconfig:"DB_HOST" default:"localhost"`
	DBPort     string `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" default:"postgres"`
	DBPassword string `envconfig:"DB_PASSWORD"`
	DBName     string `envconfig:"DB_NAME" default:"uzhavan_santhai"`

	JWTSecret      string `envconfig:"JWT_SECRET" required:"true"`
	RefreshSecret  string `envconfig:"REFRESH_TOKEN_SECRET" required:"true"`
	JWTExpiryHours int    `envconfig:"JWT_EXPIRES_HOURS" default:"168"`
	RefreshHours   int    `envconfig:"REFRESH_EXPIRES_HOURS" default:"720"`

	MLAPIURL string `envconfig:"ML_API_URL"`
	MLAPIKey string `envconfig:"ML_API_KEY"`

	ESURL      string `envconfig:"ES_URL"`
	ESUser     string `envconfig:"ES_USER"`
	ESPassword string `envconfig:"ES_PASSWORD"`

	KafkaAddress string `envconfig:"KAFKA_ADDRESS"`

	RedisAddr     string `envconfig:"REDIS_ADDR"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`

	// PaymentPolicy is "open" (any payment status at any time, the historic
	// behaviour) or "strict" (payment status follows its own transition table).
	PaymentPolicy string `envconfig:"PAYMENT_POLICY" default:"open"`

	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("notice: .env file not found, using environment: %v", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName,
	)
}

func InitDB(cfg *Config) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Crop{},
		&models.Product{},
		&models.Order{},
		&models.PriceHistory{},
		&models.PricePrediction{},
		&models.ChatMessage{},
		&models.Contract{},
	); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}
