package config

import (
	"fmt"
	"log"
	"os"

	"github.com/greenbasket/backend/internal/models"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type Config struct {
	DB_HOST     string
	DB_PORT     string
	DB_USER     string
	DB_PASSWORD string
	DB_NAME     string

	JWT_SECRET     string
	REFRESH_SECRET string

	ES_URL      string
	ES_USER     string
	ES_PASSWORD string

	KAFKA_ADDRESS string

	STRIPE_SECRET_KEY   string
	RAZORPAY_KEY_ID     string
	RAZORPAY_KEY_SECRET string

	DISPATCH_URL     string
	DISPATCH_API_KEY string
	STORE_NAME       string
	STORE_ADDRESS    string

	SMTP_ADDRESS  string
	SMTP_HOST     string
	FROM_EMAIL    string
	FROM_PASSWORD string
}

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Notice: .env file not found: %v. Using system environment variables", err)
	}

	config := &Config{
		DB_HOST:     os.Getenv("DB_HOST"),
		DB_PORT:     os.Getenv("DB_PORT"),
		DB_USER:     os.Getenv("DB_USER"),
		DB_PASSWORD: os.Getenv("DB_PASSWORD"),
		DB_NAME:     os.Getenv("DB_NAME"),

		JWT_SECRET:     os.Getenv("JWT_SECRET"),
		REFRESH_SECRET: os.Getenv("REFRESH_SECRET"),

		ES_URL:      os.Getenv("ES_URL"),
		ES_USER:     os.Getenv("ES_USER"),
		ES_PASSWORD: os.Getenv("ES_PASSWORD"),

		KAFKA_ADDRESS: os.Getenv("KAFKA_ADDRESS"),

		STRIPE_SECRET_KEY:   os.Getenv("STRIPE_SECRET_KEY"),
		RAZORPAY_KEY_ID:     os.Getenv("RAZORPAY_KEY_ID"),
		RAZORPAY_KEY_SECRET: os.Getenv("RAZORPAY_KEY_SECRET"),

		DISPATCH_URL:     os.Getenv("DISPATCH_URL"),
		DISPATCH_API_KEY: os.Getenv("DISPATCH_API_KEY"),
		STORE_NAME:       os.Getenv("STORE_NAME"),
		STORE_ADDRESS:    os.Getenv("STORE_ADDRESS"),

		SMTP_ADDRESS:  os.Getenv("SMTP_ADDRESS"),
		SMTP_HOST:     os.Getenv("SMTP_HOST"),
		FROM_EMAIL:    os.Getenv("FROM_EMAIL"),
		FROM_PASSWORD: os.Getenv("FROM_EMAIL_PASSWORD"),
	}

	return config, nil
}

func InitDB(cfg *Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		cfg.DB_USER, cfg.DB_PASSWORD, cfg.DB_HOST, cfg.DB_PORT, cfg.DB_NAME,
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := Migrate(db); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return db, nil
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.RefreshToken{},
		&models.Address{},
		&models.Category{},
		&models.SubCategory{},
		&models.Product{},
		&models.CartItem{},
		&models.Order{},
	)
}
