package settings

import (
	"context"
	"testing"

	"protegeya-backend/internal/domain"
	"protegeya-backend/internal/pkg/validation"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupSettingsTest(t *testing.T) *Service {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.SystemConfiguration{}))
	return &Service{DB: db}
}

func TestCurrent_DefaultsBeforeFirstWrite(t *testing.T) {
	svc := setupSettingsTest(t)
	cfg, err := svc.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), cfg.Version)
	assert.Equal(t, domain.AIProviderEmergent, cfg.AIProvider)
	assert.False(t, cfg.WhatsappEnabled)
	assert.Equal(t, DefaultChatPrompt, cfg.AIChatPrompt)
}

func TestUpdate_VersionsAndMasksSecrets(t *testing.T) {
	svc := setupSettingsTest(t)
	ctx := context.Background()

	v1, err := svc.Update(ctx, Input{
		WhatsappEnabled:    true,
		AIProvider:         domain.AIProviderOpenAIPersonal,
		UltramsgInstanceID: "instance123",
		UltramsgToken:      "tok-abcdef-9876",
		OpenAIAPIKey:       "sk-live-1234567890",
	}, "admin@protegeya.com")
	require.NoError(t, err)
	assert.Equal(t, int64(1), v1.Version)
	assert.Equal(t, "****9876", v1.UltramsgToken)
	assert.Equal(t, "****7890", v1.OpenAIAPIKey)

	// the admin screen posts masked secrets back untouched
	v2, err := svc.Update(ctx, Input{
		WhatsappEnabled:    true,
		AIProvider:         domain.AIProviderOpenAIPersonal,
		UltramsgInstanceID: "instance123",
		UltramsgToken:      v1.UltramsgToken,
		OpenAIAPIKey:       v1.OpenAIAPIKey,
		AIChatPrompt:       "Hola",
	}, "admin@protegeya.com")
	require.NoError(t, err)
	assert.Equal(t, int64(2), v2.Version)

	var stored domain.SystemConfiguration
	require.NoError(t, svc.DB.Where("version = ?", 2).First(&stored).Error)
	assert.Equal(t, "tok-abcdef-9876", stored.UltramsgToken)
	assert.Equal(t, "sk-live-1234567890", stored.OpenAIAPIKey)
	assert.Equal(t, "Hola", stored.AIChatPrompt)

	history, err := svc.History(ctx, 0)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, int64(2), history[0].Version)
	assert.Equal(t, "****7890", history[1].OpenAIAPIKey)
}

func TestUpdate_Validation(t *testing.T) {
	svc := setupSettingsTest(t)
	ctx := context.Background()

	_, err := svc.Update(ctx, Input{AIProvider: "Claude"}, "")
	fields, ok := validation.AsErrors(err)
	require.True(t, ok)
	assert.Contains(t, fields, "ai_provider")

	_, err = svc.Update(ctx, Input{AIProvider: domain.AIProviderOpenAIPersonal, WhatsappEnabled: true}, "")
	fields, ok = validation.AsErrors(err)
	require.True(t, ok)
	assert.Contains(t, fields, "openai_api_key")
	assert.Contains(t, fields, "ultramsg_instance_id")
	assert.Contains(t, fields, "ultramsg_token")

	var count int64
	svc.DB.Model(&domain.SystemConfiguration{}).Count(&count)
	assert.Zero(t, count)
}
