package config

import (
	"log"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	DatabaseURL       string `mapstructure:"DATABASE_URL"`
	Env               string `mapstructure:"ENV"`
	JWTSecret         string `mapstructure:"JWT_SECRET"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`

	// Redis configuration.
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisCacheDB  int    `mapstructure:"REDIS_CACHE_DB"`
	RedisAuthDB   int    `mapstructure:"REDIS_AUTH_DB"`
	RedisQueueDB  int    `mapstructure:"REDIS_QUEUE_DB"`

	// Stripe.
	StripeKey          string `mapstructure:"STRIPE_SECRET_KEY"`
	CheckoutSuccessURL string `mapstructure:"CHECKOUT_SUCCESS_URL"`
	CheckoutCancelURL  string `mapstructure:"CHECKOUT_CANCEL_URL"`

	// Resend transactional email.
	ResendAPIKey string `mapstructure:"RESEND_API_KEY"`
	EmailSender  string `mapstructure:"EMAIL_SENDER"`

	// Studio schedule and pricing. Monetary values are integer pence.
	OperatingDays        []string `mapstructure:"OPERATING_DAYS"`  // e.g. ["Tuesday", ..., "Sunday"]
	SessionTimes         []string `mapstructure:"SESSION_TIMES"`   // "15:04" session start times
	ServiceTypes         []string `mapstructure:"SERVICE_TYPES"`   // services offered per session time
	CommunalPricePence   int64    `mapstructure:"COMMUNAL_PRICE_PENCE"`
	PrivatePricePence    int64    `mapstructure:"PRIVATE_PRICE_PENCE"`
	SaunaSurchargePence  int64    `mapstructure:"SAUNA_SURCHARGE_PENCE"`
	PendingBookingTTLMin int      `mapstructure:"PENDING_BOOKING_TTL_MIN"`
}

var AppConfig Config

// LoadConfig reads configuration from the environment (and an optional
// .env file) into AppConfig.
func LoadConfig() {
	viper.SetConfigFile(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	// Automatically use environment variables where available.
	viper.AutomaticEnv()

	// Set default values.
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("MAX_REQUESTS_PER_MIN", 100)
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_CACHE_DB", 0)
	viper.SetDefault("REDIS_AUTH_DB", 1)
	viper.SetDefault("REDIS_QUEUE_DB", 2)
	viper.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	viper.SetDefault("CHECKOUT_SUCCESS_URL", "http://localhost:3000/booking/success")
	viper.SetDefault("CHECKOUT_CANCEL_URL", "http://localhost:3000/booking/cancelled")
	viper.SetDefault("EMAIL_SENDER", "bookings@icehaus.studio")
	viper.SetDefault("OPERATING_DAYS", []string{"Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"})
	viper.SetDefault("SESSION_TIMES", []string{"07:00", "08:00", "09:00", "10:00", "12:00", "16:00", "17:00", "18:00", "19:00"})
	viper.SetDefault("SERVICE_TYPES", []string{"ice_bath", "sauna", "contrast_therapy"})
	viper.SetDefault("COMMUNAL_PRICE_PENCE", 1800)
	viper.SetDefault("PRIVATE_PRICE_PENCE", 9000)
	viper.SetDefault("SAUNA_SURCHARGE_PENCE", 400)
	viper.SetDefault("PENDING_BOOKING_TTL_MIN", 30)

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}
