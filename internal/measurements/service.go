package measurements

import (
	"context"
	"errors"

	"optical-franchise/internal/analysis"
	"optical-franchise/internal/api"
	apperrors "optical-franchise/internal/common/errors"
	"optical-franchise/internal/common/logger"
	"optical-franchise/internal/common/metrics"
)

type Service interface {
	Create(ctx context.Context, caller api.Principal, req CreateMeasurementRequest) (*Submission, error)
	Get(ctx context.Context, caller api.Principal, id int64) (*Measurement, error)
	List(ctx context.Context, caller api.Principal, userID *int64) ([]Measurement, error)
	Reanalyze(ctx context.Context, caller api.Principal, id int64) (*Submission, error)
	AnalyzeImage(ctx context.Context, imageBase64 string) analysis.ImageQualityResult
}

type service struct {
	repo     Repository
	analyzer analysis.Service
	logger   logger.Logger
}

func NewService(repo Repository, analyzer analysis.Service, log logger.Logger) Service {
	return &service{repo: repo, analyzer: analyzer, logger: log}
}

// Create stores the measurement first and only then asks for a review, so a
// failed analysis never loses the record.
func (s *service) Create(ctx context.Context, caller api.Principal, req CreateMeasurementRequest) (*Submission, error) {
	if req.PupillaryDistance == nil || *req.PupillaryDistance <= 0 {
		return nil, apperrors.NewValidationError("pupillaryDistance must be greater than zero", "")
	}

	userID := caller.UserID
	if req.UserID != nil && *req.UserID != caller.UserID {
		if !caller.IsAdmin() {
			return nil, apperrors.NewForbiddenError("only admins record measurements for other users")
		}
		userID = *req.UserID
	}

	m, err := s.repo.Create(ctx, userID, req)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, apperrors.NewValidationError("Invalid userId", "user does not exist")
		}
		return nil, apperrors.NewDatabaseQueryFailedError("create measurement", err)
	}
	metrics.MeasurementsSubmitted.Inc()

	s.logger.Info("Measurement stored", map[string]interface{}{
		"measurementId":     m.ID,
		"userId":            m.UserID,
		"pupillaryDistance": m.PupillaryDistance,
	})

	return s.analyze(ctx, m), nil
}

func (s *service) Get(ctx context.Context, caller api.Principal, id int64) (*Measurement, error) {
	m, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrMeasurementNotFound) {
			return nil, apperrors.NewResourceNotFoundError("Measurement", "")
		}
		return nil, apperrors.NewDatabaseQueryFailedError("get measurement", err)
	}
	if !caller.IsAdmin() && m.UserID != caller.UserID {
		return nil, apperrors.NewResourceNotFoundError("Measurement", "")
	}
	return m, nil
}

func (s *service) List(ctx context.Context, caller api.Principal, userID *int64) ([]Measurement, error) {
	if !caller.IsAdmin() {
		if userID != nil && *userID != caller.UserID {
			return nil, apperrors.NewForbiddenError("only admins list other users' measurements")
		}
		userID = &caller.UserID
	}

	list, err := s.repo.List(ctx, userID)
	if err != nil {
		return nil, apperrors.NewDatabaseQueryFailedError("list measurements", err)
	}
	return list, nil
}

func (s *service) Reanalyze(ctx context.Context, caller api.Principal, id int64) (*Submission, error) {
	m, err := s.Get(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	return s.analyze(ctx, m), nil
}

func (s *service) AnalyzeImage(ctx context.Context, imageBase64 string) analysis.ImageQualityResult {
	return s.analyzer.AnalyzeImageWithAI(ctx, imageBase64)
}

// analyze runs the review and attaches it to the stored row. Persisting the
// review is best effort; the caller still receives it.
func (s *service) analyze(ctx context.Context, m *Measurement) *Submission {
	result := s.analyzer.AnalyzeOpticalMeasurements(ctx, m.toAnalysisInput())

	if err := s.repo.SaveAnalysis(ctx, m.ID, result); err != nil {
		s.logger.Warn("Failed to store measurement analysis", map[string]interface{}{
			"measurementId": m.ID,
			"error":         err.Error(),
		})
	} else {
		m.Analysis = &result
	}

	return &Submission{Measurement: m, Analysis: result}
}
