package main

import (
	"strings"

	"github.com/spf13/viper"
)

// Config is read from the environment (and .env), with command-line flags
// taking precedence where they exist.
type Config struct {
	Port           string
	DatabasePath   string
	CatalogPath    string
	BookingURL     string
	AllowedOrigins []string
	VisitorSalt    string
	Admin          AdminConfig
	SMTP           SMTPConfig
}

type AdminConfig struct {
	Username string
	Password string
}

type SMTPConfig struct {
	Host string
	Port string
	User string
	Pass string
	To   string
}

func newViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("port", "8080")
	v.SetDefault("database_path", "portfolio.db")
	v.SetDefault("catalog_path", "")
	v.SetDefault("booking_url", "#")
	v.SetDefault("allowed_origins", "")
	v.SetDefault("visitor_salt", "")
	v.SetDefault("admin_username", "")
	v.SetDefault("admin_password", "")
	v.SetDefault("smtp_host", "smtp.gmail.com")
	v.SetDefault("smtp_port", "587")
	v.SetDefault("smtp_user", "")
	v.SetDefault("smtp_pass", "")
	v.SetDefault("to_email", "")
	return v
}

func loadConfig(v *viper.Viper) Config {
	return Config{
		Port:           v.GetString("port"),
		DatabasePath:   v.GetString("database_path"),
		CatalogPath:    v.GetString("catalog_path"),
		BookingURL:     v.GetString("booking_url"),
		AllowedOrigins: splitList(v.GetString("allowed_origins")),
		VisitorSalt:    v.GetString("visitor_salt"),
		Admin: AdminConfig{
			Username: v.GetString("admin_username"),
			Password: v.GetString("admin_password"),
		},
		SMTP: SMTPConfig{
			Host: v.GetString("smtp_host"),
			Port: v.GetString("smtp_port"),
			User: v.GetString("smtp_user"),
			Pass: v.GetString("smtp_pass"),
			To:   v.GetString("to_email"),
		},
	}
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
