package analysis

import (
	"time"

	"optical-franchise/internal/common/config"
)

type Config struct {
	APIKey          string
	Model           string
	VisionModel     string
	Timeout         time.Duration
	Temperature     float32
	MaxOutputTokens int32
	// MaxImageBytes bounds the decoded selfie accepted by AnalyzeImageWithAI.
	MaxImageBytes int
	// MaxImageSide is the longest edge sent to the model after resizing.
	MaxImageSide int
}

func NewConfig(cfg config.GenAIConfig) *Config {
	return &Config{
		APIKey:          cfg.APIKey,
		Model:           cfg.Model,
		VisionModel:     cfg.VisionModel,
		Timeout:         config.GetDuration(cfg.Timeout),
		Temperature:     cfg.Temperature,
		MaxOutputTokens: cfg.MaxOutputTokens,
		MaxImageBytes:   8 << 20,
		MaxImageSide:    1024,
	}
}
