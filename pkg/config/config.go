package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Channel  ChannelConfig
	OTP      OTPConfig
	Session  SessionConfig
	Logger   LoggerConfig
}

type LoggerConfig struct {
	Level string
}

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type JWTConfig struct {
	SecretKey  string
	Expiration time.Duration
}

// ChannelConfig describes the messaging channel the webhook listens to.
// VerifyToken is the shared secret the provider attaches to every delivery.
type ChannelConfig struct {
	Name        string
	VerifyToken string
}

type OTPConfig struct {
	TTL         time.Duration
	MaxAttempts int
}

type SessionConfig struct {
	Inactivity time.Duration
}

func Load() (*Config, error) {
	// Try to load .env from the current directory or the project root;
	// absent files are fine, plain environment variables still apply.
	envFiles := []string{".env", "../.env", "../../.env"}
	for _, envFile := range envFiles {
		if err := godotenv.Load(envFile); err == nil {
			break
		}
	}

	readTimeout, _ := strconv.Atoi(getEnv("SERVER_READ_TIMEOUT", "30"))
	writeTimeout, _ := strconv.Atoi(getEnv("SERVER_WRITE_TIMEOUT", "30"))
	jwtExp, _ := strconv.Atoi(getEnv("JWT_EXPIRATION_HOURS", "24"))
	otpTTL, _ := strconv.Atoi(getEnv("OTP_TTL_MINUTES", "10"))
	otpAttempts, _ := strconv.Atoi(getEnv("OTP_MAX_ATTEMPTS", "3"))
	inactivity, _ := strconv.Atoi(getEnv("SESSION_INACTIVITY_MINUTES", "5"))

	return &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			ReadTimeout:  time.Duration(readTimeout) * time.Second,
			WriteTimeout: time.Duration(writeTimeout) * time.Second,
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "plata"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		JWT: JWTConfig{
			SecretKey:  getEnv("JWT_SECRET_KEY", "change-me-in-production"),
			Expiration: time.Duration(jwtExp) * time.Hour,
		},
		Channel: ChannelConfig{
			Name:        getEnv("CHANNEL_NAME", "whatsapp"),
			VerifyToken: getEnv("CHANNEL_VERIFY_TOKEN", ""),
		},
		OTP: OTPConfig{
			TTL:         time.Duration(otpTTL) * time.Minute,
			MaxAttempts: otpAttempts,
		},
		Session: SessionConfig{
			Inactivity: time.Duration(inactivity) * time.Minute,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
