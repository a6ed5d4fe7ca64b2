package analysis

const (
	SourceAI       = "ai"
	SourceFallback = "fallback"

	KindMeasurement = "measurement"
	KindImage       = "image"
)

// Point is a 2D optical-center coordinate in millimetres from the frame box origin.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// MeasurementInput is the optical record sent for review. Only
// PupillaryDistance is guaranteed; every pointer may be nil.
type MeasurementInput struct {
	PupillaryDistance  float64  `json:"pupillaryDistance"`
	NasalPDLeft        *float64 `json:"nasalPdLeft,omitempty"`
	NasalPDRight       *float64 `json:"nasalPdRight,omitempty"`
	TemporalPDLeft     *float64 `json:"temporalPdLeft,omitempty"`
	TemporalPDRight    *float64 `json:"temporalPdRight,omitempty"`
	SegmentHeightLeft  *float64 `json:"segmentHeightLeft,omitempty"`
	SegmentHeightRight *float64 `json:"segmentHeightRight,omitempty"`
	BridgeWidth        *float64 `json:"bridgeWidth,omitempty"`
	LensWidth          *float64 `json:"lensWidth,omitempty"`
	LensHeight         *float64 `json:"lensHeight,omitempty"`
	FrameWidth         *float64 `json:"frameWidth,omitempty"`
	TempleLength       *float64 `json:"templeLength,omitempty"`
	PantoscopicTilt    *float64 `json:"pantoscopicTilt,omitempty"`
	WrapAngle          *float64 `json:"wrapAngle,omitempty"`
	VertexDistance     *float64 `json:"vertexDistance,omitempty"`
	FaceWidth          *float64 `json:"faceWidth,omitempty"`
	OpticalCenterLeft  *Point   `json:"opticalCenterLeft,omitempty"`
	OpticalCenterRight *Point   `json:"opticalCenterRight,omitempty"`
	MeasurementType    string   `json:"measurementType,omitempty"`
	Method             string   `json:"method,omitempty"`
}

// AnalysisResult is the advisory review of a measurement. Arrays are never nil.
type AnalysisResult struct {
	Accuracy             float64  `json:"accuracy"`
	Recommendations      []string `json:"recommendations"`
	QualityScore         float64  `json:"qualityScore"`
	ProfessionalInsights string   `json:"professionalInsights"`
	Warnings             []string `json:"warnings"`
	FrameRecommendations []string `json:"frameRecommendations"`
	Source               string   `json:"source"`
}

// ImageQualityResult scores a capture photo for measurement suitability.
type ImageQualityResult struct {
	FaceQuality          float64  `json:"faceQuality"`
	EyeDetectionAccuracy float64  `json:"eyeDetectionAccuracy"`
	LightingQuality      float64  `json:"lightingQuality"`
	Suggestions          []string `json:"suggestions"`
	Source               string   `json:"source"`
}

// InlineImage is an encoded image attached to a generation request.
type InlineImage struct {
	MIMEType string
	Data     []byte
}

type GenerateRequest struct {
	Model        string
	SystemPrompt string
	Prompt       string
	Image        *InlineImage
}
