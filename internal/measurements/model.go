package measurements

import (
	"encoding/json"
	"time"

	"optical-franchise/internal/analysis"
)

// Measurement is a persisted optical record. Optical centers are stored as
// separate x/y columns and exposed as points.
type Measurement struct {
	ID                 int64    `db:"id" json:"id"`
	UserID             int64    `db:"user_id" json:"userId"`
	PupillaryDistance  float64  `db:"pupillary_distance" json:"pupillaryDistance"`
	NasalPDLeft        *float64 `db:"nasal_pd_left" json:"nasalPdLeft,omitempty"`
	NasalPDRight       *float64 `db:"nasal_pd_right" json:"nasalPdRight,omitempty"`
	TemporalPDLeft     *float64 `db:"temporal_pd_left" json:"temporalPdLeft,omitempty"`
	TemporalPDRight    *float64 `db:"temporal_pd_right" json:"temporalPdRight,omitempty"`
	SegmentHeightLeft  *float64 `db:"segment_height_left" json:"segmentHeightLeft,omitempty"`
	SegmentHeightRight *float64 `db:"segment_height_right" json:"segmentHeightRight,omitempty"`
	BridgeWidth        *float64 `db:"bridge_width" json:"bridgeWidth,omitempty"`
	LensWidth          *float64 `db:"lens_width" json:"lensWidth,omitempty"`
	LensHeight         *float64 `db:"lens_height" json:"lensHeight,omitempty"`
	FrameWidth         *float64 `db:"frame_width" json:"frameWidth,omitempty"`
	TempleLength       *float64 `db:"temple_length" json:"templeLength,omitempty"`
	PantoscopicTilt    *float64 `db:"pantoscopic_tilt" json:"pantoscopicTilt,omitempty"`
	WrapAngle          *float64 `db:"wrap_angle" json:"wrapAngle,omitempty"`
	VertexDistance     *float64 `db:"vertex_distance" json:"vertexDistance,omitempty"`
	FaceWidth          *float64 `db:"face_width" json:"faceWidth,omitempty"`
	MeasurementType    *string  `db:"measurement_type" json:"measurementType,omitempty"`
	Method             *string  `db:"method" json:"method,omitempty"`
	ImageURL           *string  `db:"image_url" json:"imageUrl,omitempty"`
	QualityScore       *float64 `db:"quality_score" json:"qualityScore,omitempty"`
	Confidence         *float64 `db:"confidence" json:"confidence,omitempty"`

	OpticalCenterLeftX  *float64 `db:"optical_center_left_x" json:"-"`
	OpticalCenterLeftY  *float64 `db:"optical_center_left_y" json:"-"`
	OpticalCenterRightX *float64 `db:"optical_center_right_x" json:"-"`
	OpticalCenterRightY *float64 `db:"optical_center_right_y" json:"-"`
	RawAnalysis         []byte   `db:"ai_analysis" json:"-"`

	OpticalCenterLeft  *analysis.Point          `db:"-" json:"opticalCenterLeft,omitempty"`
	OpticalCenterRight *analysis.Point          `db:"-" json:"opticalCenterRight,omitempty"`
	Analysis           *analysis.AnalysisResult `db:"-" json:"aiAnalysis,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// hydrate fills the JSON-only fields from their column representation.
func (m *Measurement) hydrate() {
	m.OpticalCenterLeft = toPoint(m.OpticalCenterLeftX, m.OpticalCenterLeftY)
	m.OpticalCenterRight = toPoint(m.OpticalCenterRightX, m.OpticalCenterRightY)

	m.Analysis = nil
	if len(m.RawAnalysis) > 0 {
		var result analysis.AnalysisResult
		if err := json.Unmarshal(m.RawAnalysis, &result); err == nil {
			m.Analysis = &result
		}
	}
}

func (m *Measurement) toAnalysisInput() analysis.MeasurementInput {
	return analysis.MeasurementInput{
		PupillaryDistance:  m.PupillaryDistance,
		NasalPDLeft:        m.NasalPDLeft,
		NasalPDRight:       m.NasalPDRight,
		TemporalPDLeft:     m.TemporalPDLeft,
		TemporalPDRight:    m.TemporalPDRight,
		SegmentHeightLeft:  m.SegmentHeightLeft,
		SegmentHeightRight: m.SegmentHeightRight,
		BridgeWidth:        m.BridgeWidth,
		LensWidth:          m.LensWidth,
		LensHeight:         m.LensHeight,
		FrameWidth:         m.FrameWidth,
		TempleLength:       m.TempleLength,
		PantoscopicTilt:    m.PantoscopicTilt,
		WrapAngle:          m.WrapAngle,
		VertexDistance:     m.VertexDistance,
		FaceWidth:          m.FaceWidth,
		OpticalCenterLeft:  m.OpticalCenterLeft,
		OpticalCenterRight: m.OpticalCenterRight,
		MeasurementType:    stringValue(m.MeasurementType),
		Method:             stringValue(m.Method),
	}
}

func toPoint(x, y *float64) *analysis.Point {
	if x == nil || y == nil {
		return nil
	}
	return &analysis.Point{X: *x, Y: *y}
}

func stringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

type CreateMeasurementRequest struct {
	PupillaryDistance  *float64        `json:"pupillaryDistance" binding:"required,gt=0"`
	NasalPDLeft        *float64        `json:"nasalPdLeft" binding:"omitempty,gt=0"`
	NasalPDRight       *float64        `json:"nasalPdRight" binding:"omitempty,gt=0"`
	TemporalPDLeft     *float64        `json:"temporalPdLeft" binding:"omitempty,gt=0"`
	TemporalPDRight    *float64        `json:"temporalPdRight" binding:"omitempty,gt=0"`
	SegmentHeightLeft  *float64        `json:"segmentHeightLeft" binding:"omitempty,gt=0"`
	SegmentHeightRight *float64        `json:"segmentHeightRight" binding:"omitempty,gt=0"`
	BridgeWidth        *float64        `json:"bridgeWidth" binding:"omitempty,gt=0"`
	LensWidth          *float64        `json:"lensWidth" binding:"omitempty,gt=0"`
	LensHeight         *float64        `json:"lensHeight" binding:"omitempty,gt=0"`
	FrameWidth         *float64        `json:"frameWidth" binding:"omitempty,gt=0"`
	TempleLength       *float64        `json:"templeLength" binding:"omitempty,gt=0"`
	PantoscopicTilt    *float64        `json:"pantoscopicTilt"`
	WrapAngle          *float64        `json:"wrapAngle"`
	VertexDistance     *float64        `json:"vertexDistance" binding:"omitempty,gt=0"`
	FaceWidth          *float64        `json:"faceWidth" binding:"omitempty,gt=0"`
	OpticalCenterLeft  *analysis.Point `json:"opticalCenterLeft"`
	OpticalCenterRight *analysis.Point `json:"opticalCenterRight"`
	MeasurementType    *string         `json:"measurementType" binding:"omitempty,max=32"`
	Method             *string         `json:"method" binding:"omitempty,max=32"`
	ImageURL           *string         `json:"imageUrl" binding:"omitempty,url"`
	QualityScore       *float64        `json:"qualityScore" binding:"omitempty,min=0,max=100"`
	Confidence         *float64        `json:"confidence" binding:"omitempty,min=0,max=100"`
	// UserID records on behalf of another user; admins only.
	UserID *int64 `json:"userId" binding:"omitempty,gt=0"`
}

type AnalyzeImageRequest struct {
	ImageBase64 string `json:"imageBase64" binding:"required"`
}

// Submission is the response to a stored or re-analysed measurement.
type Submission struct {
	Measurement *Measurement            `json:"measurement"`
	Analysis    analysis.AnalysisResult `json:"analysis"`
}
