package analysis

import (
	"encoding/json"
	"fmt"
	"strings"

	"optical-franchise/internal/common/validation"
)

var measurementReplySchema = validation.MustCompile(`{
	"type": "object",
	"required": ["accuracy", "qualityScore"],
	"properties": {
		"accuracy": {"type": "number"},
		"qualityScore": {"type": "number"},
		"professionalInsights": {"type": "string"}
	}
}`)

var imageReplySchema = validation.MustCompile(`{
	"type": "object",
	"required": ["faceQuality", "eyeDetectionAccuracy", "lightingQuality"],
	"properties": {
		"faceQuality": {"type": "number"},
		"eyeDetectionAccuracy": {"type": "number"},
		"lightingQuality": {"type": "number"}
	}
}`)

func decodeMeasurementReply(raw string) (AnalysisResult, error) {
	doc, err := decodeReply(raw, measurementReplySchema)
	if err != nil {
		return AnalysisResult{}, err
	}

	insights, _ := doc["professionalInsights"].(string)

	return AnalysisResult{
		Accuracy:             clampScore(doc["accuracy"].(float64)),
		QualityScore:         clampScore(doc["qualityScore"].(float64)),
		Recommendations:      stringList(doc["recommendations"]),
		ProfessionalInsights: insights,
		Warnings:             stringList(doc["warnings"]),
		FrameRecommendations: stringList(doc["frameRecommendations"]),
		Source:               SourceAI,
	}, nil
}

func decodeImageReply(raw string) (ImageQualityResult, error) {
	doc, err := decodeReply(raw, imageReplySchema)
	if err != nil {
		return ImageQualityResult{}, err
	}

	return ImageQualityResult{
		FaceQuality:          clampScore(doc["faceQuality"].(float64)),
		EyeDetectionAccuracy: clampScore(doc["eyeDetectionAccuracy"].(float64)),
		LightingQuality:      clampScore(doc["lightingQuality"].(float64)),
		Suggestions:          stringList(doc["suggestions"]),
		Source:               SourceAI,
	}, nil
}

// decodeReply parses a model reply into a generic object and checks it
// against schema. Markdown code fences around the JSON are tolerated.
func decodeReply(raw string, schema *validation.Schema) (map[string]interface{}, error) {
	body := []byte(stripCodeFence(raw))

	result := schema.ValidateBytes(body)
	if !result.Valid {
		return nil, fmt.Errorf("model reply rejected: %s", result.Summary())
	}

	var doc map[string]interface{}
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("decode model reply: %w", err)
	}
	return doc, nil
}

func stripCodeFence(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// stringList keeps the string items of a JSON array. Anything else yields an
// empty, non-nil slice.
func stringList(v interface{}) []string {
	out := []string{}
	items, ok := v.([]interface{})
	if !ok {
		return out
	}
	for _, item := range items {
		if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}
