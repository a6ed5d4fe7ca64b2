package measurements

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"optical-franchise/internal/analysis"
	"optical-franchise/internal/common/database"

	"github.com/jmoiron/sqlx"
)

var (
	ErrMeasurementNotFound = errors.New("measurement not found")
	ErrUserNotFound        = errors.New("user does not exist")
)

const measurementColumns = `id, user_id, pupillary_distance, nasal_pd_left, nasal_pd_right,
	temporal_pd_left, temporal_pd_right, segment_height_left, segment_height_right,
	bridge_width, lens_width, lens_height, frame_width, temple_length,
	pantoscopic_tilt, wrap_angle, vertex_distance,
	optical_center_left_x, optical_center_left_y, optical_center_right_x, optical_center_right_y,
	face_width, measurement_type, method, image_url, quality_score, confidence, ai_analysis,
	created_at, updated_at`

type Repository interface {
	Create(ctx context.Context, userID int64, req CreateMeasurementRequest) (*Measurement, error)
	FindByID(ctx context.Context, id int64) (*Measurement, error)
	List(ctx context.Context, userID *int64) ([]Measurement, error)
	SaveAnalysis(ctx context.Context, id int64, result analysis.AnalysisResult) error
}

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, userID int64, req CreateMeasurementRequest) (*Measurement, error) {
	query := `
		INSERT INTO measurements (
			user_id, pupillary_distance, nasal_pd_left, nasal_pd_right,
			temporal_pd_left, temporal_pd_right, segment_height_left, segment_height_right,
			bridge_width, lens_width, lens_height, frame_width, temple_length,
			pantoscopic_tilt, wrap_angle, vertex_distance,
			optical_center_left_x, optical_center_left_y, optical_center_right_x, optical_center_right_y,
			face_width, measurement_type, method, image_url, quality_score, confidence
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13,
			$14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26
		)
		RETURNING ` + measurementColumns

	leftX, leftY := splitPoint(req.OpticalCenterLeft)
	rightX, rightY := splitPoint(req.OpticalCenterRight)

	var m Measurement
	err := r.db.QueryRowxContext(ctx, query,
		userID, *req.PupillaryDistance, req.NasalPDLeft, req.NasalPDRight,
		req.TemporalPDLeft, req.TemporalPDRight, req.SegmentHeightLeft, req.SegmentHeightRight,
		req.BridgeWidth, req.LensWidth, req.LensHeight, req.FrameWidth, req.TempleLength,
		req.PantoscopicTilt, req.WrapAngle, req.VertexDistance,
		leftX, leftY, rightX, rightY,
		req.FaceWidth, req.MeasurementType, req.Method, req.ImageURL, req.QualityScore, req.Confidence,
	).StructScan(&m)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	m.hydrate()
	return &m, nil
}

func (r *repository) FindByID(ctx context.Context, id int64) (*Measurement, error) {
	var m Measurement
	err := r.db.GetContext(ctx, &m, `SELECT `+measurementColumns+` FROM measurements WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMeasurementNotFound
		}
		return nil, err
	}

	m.hydrate()
	return &m, nil
}

func (r *repository) List(ctx context.Context, userID *int64) ([]Measurement, error) {
	f := database.NewFilter()
	if userID != nil {
		f.Add("user_id = ?", *userID)
	}
	query := `SELECT ` + measurementColumns + ` FROM measurements` + f.Where() + ` ORDER BY created_at DESC`

	list := []Measurement{}
	if err := r.db.SelectContext(ctx, &list, query, f.Args()...); err != nil {
		return nil, err
	}
	for i := range list {
		list[i].hydrate()
	}
	return list, nil
}

func (r *repository) SaveAnalysis(ctx context.Context, id int64, result analysis.AnalysisResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE measurements SET ai_analysis = $2, updated_at = NOW() WHERE id = $1`, id, string(payload))
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrMeasurementNotFound
	}
	return nil
}

func splitPoint(p *analysis.Point) (*float64, *float64) {
	if p == nil {
		return nil, nil
	}
	x, y := p.X, p.Y
	return &x, &y
}
