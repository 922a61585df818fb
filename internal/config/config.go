package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port          string
	DBDSN         string
	MediaDir      string
	LogFile       string
	WhatsAppPhone string
	CacheSweep    time.Duration
}

func Load() Config {
	// Local .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		dsn = "glowshop.db"
	} // sqlite file in project root
	media := os.Getenv("MEDIA_DIR")
	if media == "" {
		media = "./web/media"
	}
	logFile := os.Getenv("LOG_FILE")
	if logFile == "" {
		logFile = "./glowshop.log" // default log sink in project root
	}
	phone := os.Getenv("WHATSAPP_PHONE")
	if phone == "" {
		phone = "79710328" // store line, digits only for wa.me
	}
	sweep := 15 * time.Minute
	if raw := os.Getenv("CACHE_SWEEP"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil && d > 0 {
			sweep = d
		} else {
			log.Printf("[config] bad CACHE_SWEEP=%q, keeping %s", raw, sweep)
		}
	}

	cfg := Config{Port: port, DBDSN: dsn, MediaDir: media, LogFile: logFile, WhatsAppPhone: phone, CacheSweep: sweep}
	log.Printf("[config] PORT=%s DB_DSN=%s MEDIA_DIR=%s LOG_FILE=%s WHATSAPP_PHONE=%s CACHE_SWEEP=%s",
		cfg.Port, cfg.DBDSN, cfg.MediaDir, cfg.LogFile, cfg.WhatsAppPhone, cfg.CacheSweep)
	return cfg
}
