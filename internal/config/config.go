package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	// Core
	BotToken    string `env:"BOT_TOKEN,required"`
	DatabaseURL string `env:"DATABASE_URL,required"`

	// Server
	Port           int      `env:"PORT" envDefault:"3000"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:","`

	// Admin
	AdminIDs   []int64 `env:"ADMIN_IDS" envSeparator:","`
	AdminToken string  `env:"ADMIN_TOKEN"`

	// Partner offers: AdGem
	AdGemEnabled bool   `env:"ADGEM_ENABLED" envDefault:"false"`
	AdGemAppID   string `env:"ADGEM_APP_ID"`
	AdGemSecret  string `env:"ADGEM_POSTBACK_SECRET"`
	AdGemURL     string `env:"ADGEM_API_URL" envDefault:"https://api.adgem.com/v1"`

	// Partner offers: CPALead
	CPALeadEnabled bool   `env:"CPALEAD_ENABLED" envDefault:"false"`
	CPALeadAppID   string `env:"CPALEAD_APP_ID"`
	CPALeadSecret  string `env:"CPALEAD_POSTBACK_SECRET"`
	CPALeadURL     string `env:"CPALEAD_API_URL" envDefault:"https://www.cpalead.com/api"`

	// Partner offers: AdGate
	AdGateEnabled bool   `env:"ADGATE_ENABLED" envDefault:"false"`
	AdGateWallID  string `env:"ADGATE_WALL_ID"`
	AdGateSecret  string `env:"ADGATE_POSTBACK_SECRET"`
	AdGateURL     string `env:"ADGATE_API_URL" envDefault:"https://wall.adgaterewards.com/apiv1"`

	// Partner offers: UNU
	UNUEnabled bool   `env:"UNU_ENABLED" envDefault:"false"`
	UNUAPIKey  string `env:"UNU_API_KEY"`
	UNUSecret  string `env:"UNU_POSTBACK_SECRET"`
	UNUURL     string `env:"UNU_API_URL" envDefault:"https://unu.im/api"`

	// Offer sync
	SyncOffersOnStart bool `env:"SYNC_OFFERS_ON_START" envDefault:"true"`

	// Telegram event log
	LogTelegramChatID    int64 `env:"LOG_TELEGRAM_CHAT_ID"`
	LogTopicError        int   `env:"LOG_TOPIC_ERROR"`
	LogTopicRegistration int   `env:"LOG_TOPIC_REGISTRATION"`
	LogTopicTaskReward   int   `env:"LOG_TOPIC_TASK_REWARD"`
	LogTopicWithdrawal   int   `env:"LOG_TOPIC_WITHDRAWAL"`
	LogTopicPromo        int   `env:"LOG_TOPIC_PROMO"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

func (c *Config) IsAdmin(telegramID int64) bool {
	for _, id := range c.AdminIDs {
		if id == telegramID {
			return true
		}
	}
	return false
}
