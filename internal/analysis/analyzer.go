package analysis

import (
	"context"
	"time"

	"optical-franchise/internal/common/logger"
	"optical-franchise/internal/common/metrics"
	"optical-franchise/internal/common/observability"
)

// Service is what HTTP handlers depend on. Neither method returns an error:
// any failure degrades to the static fallback.
type Service interface {
	AnalyzeOpticalMeasurements(ctx context.Context, input MeasurementInput) AnalysisResult
	AnalyzeImageWithAI(ctx context.Context, imageBase64 string) ImageQualityResult
}

type Analyzer struct {
	config    *Config
	generator Generator
	recorder  observability.Recorder
	logger    logger.Logger
}

// NewAnalyzer builds the proxy. A nil generator means the model is not
// configured and every call returns the fallback.
func NewAnalyzer(config *Config, generator Generator, recorder observability.Recorder, log logger.Logger) *Analyzer {
	return &Analyzer{
		config:    config,
		generator: generator,
		recorder:  recorder,
		logger:    log,
	}
}

func (a *Analyzer) AnalyzeOpticalMeasurements(ctx context.Context, input MeasurementInput) AnalysisResult {
	start := time.Now()

	result, err := a.analyzeMeasurements(ctx, input)
	if err != nil {
		a.logger.Warn("Measurement analysis unavailable, using fallback", map[string]interface{}{
			"error":             err.Error(),
			"pupillaryDistance": input.PupillaryDistance,
		})
		result = FallbackAnalysis(input.PupillaryDistance)
	}

	a.record(ctx, KindMeasurement, result.Source, time.Since(start))
	a.logger.Info("Measurement analysis completed", map[string]interface{}{
		"source":       result.Source,
		"accuracy":     result.Accuracy,
		"qualityScore": result.QualityScore,
		"duration_ms":  time.Since(start).Milliseconds(),
	})
	return result
}

func (a *Analyzer) AnalyzeImageWithAI(ctx context.Context, imageBase64 string) ImageQualityResult {
	start := time.Now()

	result, err := a.analyzeImage(ctx, imageBase64)
	if err != nil {
		a.logger.Warn("Image analysis unavailable, using fallback", map[string]interface{}{
			"error": err.Error(),
		})
		result = FallbackImageQuality()
	}

	a.record(ctx, KindImage, result.Source, time.Since(start))
	return result
}

func (a *Analyzer) analyzeMeasurements(ctx context.Context, input MeasurementInput) (AnalysisResult, error) {
	if a.generator == nil {
		return AnalysisResult{}, ErrMissingAPIKey
	}

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	raw, err := a.generator.GenerateJSON(ctx, GenerateRequest{
		Model:        a.config.Model,
		SystemPrompt: measurementSystemPrompt,
		Prompt:       buildMeasurementPrompt(input),
	})
	if err != nil {
		return AnalysisResult{}, err
	}

	return decodeMeasurementReply(raw)
}

func (a *Analyzer) analyzeImage(ctx context.Context, imageBase64 string) (ImageQualityResult, error) {
	if a.generator == nil {
		return ImageQualityResult{}, ErrMissingAPIKey
	}

	img, err := prepareImage(imageBase64, a.config.MaxImageBytes, a.config.MaxImageSide)
	if err != nil {
		return ImageQualityResult{}, err
	}

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	model := a.config.VisionModel
	if model == "" {
		model = a.config.Model
	}

	raw, err := a.generator.GenerateJSON(ctx, GenerateRequest{
		Model:        model,
		SystemPrompt: imageSystemPrompt,
		Prompt:       imagePrompt,
		Image:        img,
	})
	if err != nil {
		return ImageQualityResult{}, err
	}

	return decodeImageReply(raw)
}

func (a *Analyzer) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.config.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, a.config.Timeout)
}

func (a *Analyzer) record(ctx context.Context, kind, source string, duration time.Duration) {
	metrics.AnalysisResults.WithLabelValues(kind, source).Inc()
	if a.recorder != nil {
		a.recorder.RecordAnalysis(ctx, kind, source, duration)
	}
}
