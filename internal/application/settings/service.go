package settings

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"protegeya-backend/internal/domain"
	"protegeya-backend/internal/pkg/validation"

	"gorm.io/gorm"
)

const maskPrefix = "****"

// DefaultChatPrompt is used until an administrator stores a configuration.
const DefaultChatPrompt = "Eres el asistente de ProtegeYa. Ayudas a cotizar seguros de vehículo en Guatemala y a conectar al cliente con un corredor autorizado."

type Service struct {
	DB  *gorm.DB
	Now func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Input is a full configuration write. Secrets sent back masked or empty keep their stored value.
type Input struct {
	WhatsappEnabled       bool              `json:"whatsapp_enabled"`
	AIProvider            domain.AIProvider `json:"ai_provider" validate:"required,oneof=Emergent OpenAIPersonal"`
	UltramsgInstanceID    string            `json:"ultramsg_instance_id"`
	UltramsgToken         string            `json:"ultramsg_token"`
	UltramsgWebhookSecret string            `json:"ultramsg_webhook_secret"`
	OpenAIAPIKey          string            `json:"openai_api_key"`
	AIChatPrompt          string            `json:"ai_chat_prompt" validate:"max=4000"`
}

func defaults() domain.SystemConfiguration {
	return domain.SystemConfiguration{AIProvider: domain.AIProviderEmergent, AIChatPrompt: DefaultChatPrompt}
}

// Current returns the latest configuration with secrets masked.
func (s *Service) Current(ctx context.Context) (*domain.SystemConfiguration, error) {
	cfg, err := latest(s.DB.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	masked := Masked(*cfg)
	return &masked, nil
}

// History lists stored versions, newest first, secrets masked.
func (s *Service) History(ctx context.Context, limit int) ([]domain.SystemConfiguration, error) {
	if limit <= 0 {
		limit = 20
	}
	var out []domain.SystemConfiguration
	if err := s.DB.WithContext(ctx).Order("version DESC").Limit(limit).Find(&out).Error; err != nil {
		return nil, fmt.Errorf("Failed to fetch configuration history: %w", err)
	}
	for i := range out {
		out[i] = Masked(out[i])
	}
	return out, nil
}

// Update validates in against the stored secrets and writes it as the next version.
func (s *Service) Update(ctx context.Context, in Input, updatedBy string) (*domain.SystemConfiguration, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	var saved domain.SystemConfiguration
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		prev, err := latest(tx)
		if err != nil {
			return err
		}
		next := domain.SystemConfiguration{
			Version:               prev.Version + 1,
			WhatsappEnabled:       in.WhatsappEnabled,
			AIProvider:            in.AIProvider,
			UltramsgInstanceID:    strings.TrimSpace(in.UltramsgInstanceID),
			UltramsgToken:         keepSecret(in.UltramsgToken, prev.UltramsgToken),
			UltramsgWebhookSecret: keepSecret(in.UltramsgWebhookSecret, prev.UltramsgWebhookSecret),
			OpenAIAPIKey:          keepSecret(in.OpenAIAPIKey, prev.OpenAIAPIKey),
			AIChatPrompt:          strings.TrimSpace(in.AIChatPrompt),
			UpdatedBy:             updatedBy,
			CreatedAt:             s.now(),
		}
		if next.AIChatPrompt == "" {
			next.AIChatPrompt = prev.AIChatPrompt
		}
		if err := Validate(next); err != nil {
			return err
		}
		if err := tx.Create(&next).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return domain.ErrConcurrentUpdate
			}
			return fmt.Errorf("Failed to save configuration: %w", err)
		}
		saved = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	masked := Masked(saved)
	return &masked, nil
}

// Validate checks cross-field rules of a complete configuration.
func Validate(cfg domain.SystemConfiguration) error {
	errs := validation.Errors{}
	switch cfg.AIProvider {
	case domain.AIProviderEmergent:
	case domain.AIProviderOpenAIPersonal:
		if cfg.OpenAIAPIKey == "" {
			errs.Add("openai_api_key", "is required when ai_provider is OpenAIPersonal")
		}
	default:
		errs.Add("ai_provider", "must be one of: Emergent OpenAIPersonal")
	}
	if cfg.WhatsappEnabled {
		if cfg.UltramsgInstanceID == "" {
			errs.Add("ultramsg_instance_id", "is required when whatsapp_enabled is true")
		}
		if cfg.UltramsgToken == "" {
			errs.Add("ultramsg_token", "is required when whatsapp_enabled is true")
		}
	}
	return errs.OrNil()
}

// Masked hides all but the last four characters of every secret.
func Masked(cfg domain.SystemConfiguration) domain.SystemConfiguration {
	cfg.UltramsgToken = mask(cfg.UltramsgToken)
	cfg.UltramsgWebhookSecret = mask(cfg.UltramsgWebhookSecret)
	cfg.OpenAIAPIKey = mask(cfg.OpenAIAPIKey)
	return cfg
}

func mask(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) <= 4 {
		return maskPrefix
	}
	return maskPrefix + secret[len(secret)-4:]
}

func keepSecret(in, prev string) string {
	in = strings.TrimSpace(in)
	if in == "" || strings.HasPrefix(in, maskPrefix) {
		return prev
	}
	return in
}

func latest(db *gorm.DB) (*domain.SystemConfiguration, error) {
	var cfg domain.SystemConfiguration
	err := db.Order("version DESC").First(&cfg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		d := defaults()
		return &d, nil
	}
	if err != nil {
		return nil, fmt.Errorf("Failed to load configuration: %w", err)
	}
	return &cfg, nil
}
