package analysis

// Plausible adult pupillary distance range in millimetres.
const (
	MinPlausiblePD = 55.0
	MaxPlausiblePD = 75.0
)

const (
	fallbackAccuracy     = 75
	fallbackQualityScore = 70

	FallbackRecommendationPrefix = "Medições capturadas com sucesso"
)

// FallbackAnalysis is the deterministic result used whenever the model cannot
// be reached or its reply cannot be trusted.
func FallbackAnalysis(pupillaryDistance float64) AnalysisResult {
	warnings := []string{}
	if pupillaryDistance < MinPlausiblePD || pupillaryDistance > MaxPlausiblePD {
		warnings = append(warnings,
			"Distância pupilar fora da faixa típica (55-75 mm). Recomenda-se repetir a medição ou conferir com pupilômetro.")
	}

	return AnalysisResult{
		Accuracy:     fallbackAccuracy,
		QualityScore: fallbackQualityScore,
		Recommendations: []string{
			FallbackRecommendationPrefix + ". Recomenda-se validação presencial por um óptico antes da confecção das lentes.",
			"Confira a altura de montagem com a armação escolhida já ajustada ao rosto.",
		},
		ProfessionalInsights: "Análise automática indisponível no momento. As medidas foram registradas e podem ser revisadas por um profissional.",
		Warnings:             warnings,
		FrameRecommendations: []string{
			"Prefira armações cuja distância entre centros dos aros seja próxima da distância pupilar medida.",
			"Modelos com plaquetas ajustáveis facilitam o posicionamento correto da altura de montagem.",
		},
		Source: SourceFallback,
	}
}

// FallbackImageQuality is returned when the capture photo cannot be scored.
func FallbackImageQuality() ImageQualityResult {
	return ImageQualityResult{
		FaceQuality:          70,
		EyeDetectionAccuracy: 70,
		LightingQuality:      70,
		Suggestions: []string{
			"Mantenha o rosto centralizado e olhe diretamente para a câmera.",
			"Use iluminação frontal e uniforme, sem sombras ou reflexos nas lentes.",
		},
		Source: SourceFallback,
	}
}
