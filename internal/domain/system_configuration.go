package domain

import (
	"time"
)

type AIProvider string

const (
	AIProviderEmergent       AIProvider = "Emergent"
	AIProviderOpenAIPersonal AIProvider = "OpenAIPersonal"
)

// SystemConfiguration is append-only: every update stores a new Version.
type SystemConfiguration struct {
	Version               int64      `gorm:"column:version;primaryKey;autoIncrement:false" json:"version"`
	WhatsappEnabled       bool       `gorm:"column:whatsapp_enabled;not null" json:"whatsapp_enabled"`
	AIProvider            AIProvider `gorm:"column:ai_provider;type:varchar(20);not null" json:"ai_provider"`
	UltramsgInstanceID    string     `gorm:"column:ultramsg_instance_id" json:"ultramsg_instance_id"`
	UltramsgToken         string     `gorm:"column:ultramsg_token" json:"ultramsg_token"`
	UltramsgWebhookSecret string     `gorm:"column:ultramsg_webhook_secret" json:"ultramsg_webhook_secret"`
	OpenAIAPIKey          string     `gorm:"column:openai_api_key" json:"openai_api_key"`
	AIChatPrompt          string     `gorm:"column:ai_chat_prompt" json:"ai_chat_prompt"`
	UpdatedBy             string     `gorm:"column:updated_by" json:"updated_by"`
	CreatedAt             time.Time  `json:"created_at"`
}

func (SystemConfiguration) TableName() string {
	return "system_configurations"
}
