package dashboard

import (
	"context"

	"go.uber.org/zap"

	"studybrain/internal/api"
	"studybrain/pkg/types"
)

// DataAPI is the slice of the REST client the dashboard reads from.
type DataAPI interface {
	GetStudyTime(ctx context.Context, userID string) ([]types.StudyTimeEntry, error)
	GetHomework(ctx context.Context, userID string) ([]types.HomeworkItem, error)
	GetAssessments(ctx context.Context, userID string) ([]types.Assessment, error)
	GetSubscriptionStatus(ctx context.Context, userID string) (*types.SubscriptionStatus, error)
}

// Dashboard is one page load: every widget carries its own data or error,
// so a single failing request degrades only its widget instead of the whole
// page.
type Dashboard struct {
	StudyTime    StudyTimeWidget
	Homework     HomeworkWidget
	Assessments  AssessmentsWidget
	Subscription SubscriptionWidget
}

type StudyTimeWidget struct {
	Entries []types.StudyTimeEntry
	Err     error
}

type HomeworkWidget struct {
	Items []types.HomeworkItem
	Err   error
}

type AssessmentsWidget struct {
	Assessments []types.Assessment
	Err         error
}

type SubscriptionWidget struct {
	Status *types.SubscriptionStatus
	Err    error
}

// Loader issues the dashboard's independent reads in parallel.
type Loader struct {
	api    DataAPI
	logger *zap.Logger
}

// NewLoader builds a dashboard loader.
func NewLoader(dataAPI DataAPI, logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{api: dataAPI, logger: logger}
}

// Load fans the widget requests out and joins them. It never returns an
// error itself; per-widget errors are inspected individually by the caller.
func (l *Loader) Load(ctx context.Context, userID string) *Dashboard {
	d := &Dashboard{}

	outcomes := api.FanOut(ctx,
		api.Call{Name: "studytime", Run: func(ctx context.Context) error {
			entries, err := l.api.GetStudyTime(ctx, userID)
			d.StudyTime.Entries = entries
			return err
		}},
		api.Call{Name: "homework", Run: func(ctx context.Context) error {
			items, err := l.api.GetHomework(ctx, userID)
			d.Homework.Items = items
			return err
		}},
		api.Call{Name: "assessments", Run: func(ctx context.Context) error {
			assessments, err := l.api.GetAssessments(ctx, userID)
			d.Assessments.Assessments = assessments
			return err
		}},
		api.Call{Name: "subscription", Run: func(ctx context.Context) error {
			status, err := l.api.GetSubscriptionStatus(ctx, userID)
			d.Subscription.Status = status
			return err
		}},
	)

	for _, outcome := range outcomes {
		if outcome.Err != nil {
			l.logger.Warn("dashboard widget failed",
				zap.String("widget", outcome.Name), zap.Error(outcome.Err))
		}
		switch outcome.Name {
		case "studytime":
			d.StudyTime.Err = outcome.Err
		case "homework":
			d.Homework.Err = outcome.Err
		case "assessments":
			d.Assessments.Err = outcome.Err
		case "subscription":
			d.Subscription.Err = outcome.Err
		}
	}

	return d
}
