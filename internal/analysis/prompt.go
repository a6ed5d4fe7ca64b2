package analysis

import (
	"fmt"
	"strings"
)

const notInformed = "não informado"

const measurementSystemPrompt = `Você é um óptico especialista em montagem de lentes oftálmicas.
Avalie as medidas recebidas e responda somente com um objeto JSON com os campos:
"accuracy" (número de 0 a 100), "qualityScore" (número de 0 a 100),
"recommendations" (lista de textos), "professionalInsights" (texto),
"warnings" (lista de textos) e "frameRecommendations" (lista de textos).
Responda em português do Brasil.`

const imageSystemPrompt = `Você avalia fotos usadas para medição óptica facial.
Responda somente com um objeto JSON com os campos:
"faceQuality", "eyeDetectionAccuracy" e "lightingQuality" (números de 0 a 100)
e "suggestions" (lista de textos em português do Brasil).`

const imagePrompt = "Avalie se esta foto é adequada para medir distância pupilar e altura de montagem."

func buildMeasurementPrompt(input MeasurementInput) string {
	var parts []string

	parts = append(parts, "Medidas ópticas do cliente (mm, graus quando indicado):")
	parts = append(parts, fmt.Sprintf("- Distância pupilar (DP) binocular: %s", formatMM(input.PupillaryDistance)))
	parts = append(parts, fmt.Sprintf("- DP nasal esquerda/direita: %s / %s", formatOptional(input.NasalPDLeft), formatOptional(input.NasalPDRight)))
	parts = append(parts, fmt.Sprintf("- DP temporal esquerda/direita: %s / %s", formatOptional(input.TemporalPDLeft), formatOptional(input.TemporalPDRight)))
	parts = append(parts, fmt.Sprintf("- Altura de montagem esquerda/direita: %s / %s", formatOptional(input.SegmentHeightLeft), formatOptional(input.SegmentHeightRight)))
	parts = append(parts, fmt.Sprintf("- Ponte: %s", formatOptional(input.BridgeWidth)))
	parts = append(parts, fmt.Sprintf("- Largura/altura da lente: %s / %s", formatOptional(input.LensWidth), formatOptional(input.LensHeight)))
	parts = append(parts, fmt.Sprintf("- Largura da armação: %s", formatOptional(input.FrameWidth)))
	parts = append(parts, fmt.Sprintf("- Comprimento da haste: %s", formatOptional(input.TempleLength)))
	parts = append(parts, fmt.Sprintf("- Ângulo pantoscópico (graus): %s", formatOptional(input.PantoscopicTilt)))
	parts = append(parts, fmt.Sprintf("- Ângulo de curvatura (graus): %s", formatOptional(input.WrapAngle)))
	parts = append(parts, fmt.Sprintf("- Distância vértice: %s", formatOptional(input.VertexDistance)))
	parts = append(parts, fmt.Sprintf("- Largura do rosto: %s", formatOptional(input.FaceWidth)))
	parts = append(parts, fmt.Sprintf("- Centro óptico esquerdo: %s", formatPoint(input.OpticalCenterLeft)))
	parts = append(parts, fmt.Sprintf("- Centro óptico direito: %s", formatPoint(input.OpticalCenterRight)))

	if input.MeasurementType != "" {
		parts = append(parts, fmt.Sprintf("Tipo de medição: %s", input.MeasurementType))
	}
	if input.Method != "" {
		parts = append(parts, fmt.Sprintf("Método de captura: %s", input.Method))
	}

	parts = append(parts, "")
	parts = append(parts, "Indique a precisão estimada, a qualidade geral e quaisquer inconsistências entre as medidas.")

	return strings.Join(parts, "\n")
}

func formatMM(v float64) string {
	return fmt.Sprintf("%.1f", v)
}

func formatOptional(v *float64) string {
	if v == nil {
		return notInformed
	}
	return formatMM(*v)
}

func formatPoint(p *Point) string {
	if p == nil {
		return notInformed
	}
	return fmt.Sprintf("(%.1f, %.1f)", p.X, p.Y)
}
