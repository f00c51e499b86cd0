package notification

import (
	"context"
	"errors"

	"github.com/edumon-sync/internal/domain"
	"go.uber.org/zap"
)

// Display renders a notification to the user.
type Display interface {
	Show(ctx context.Context, n domain.LocalNotification) error
}

// LogDisplay writes notifications to the structured log. It is always
// available and is what a headless agent shows by default.
type LogDisplay struct {
	log *zap.Logger
}

func NewLogDisplay(log *zap.Logger) *LogDisplay {
	return &LogDisplay{log: log}
}

func (d *LogDisplay) Show(_ context.Context, n domain.LocalNotification) error {
	d.log.Info("notification",
		zap.String("id", n.ID),
		zap.String("title", n.Title),
		zap.String("subtitle", n.Subtitle),
		zap.String("body", n.Body),
		zap.String("kind", string(n.Kind)),
		zap.String("source", string(n.Source)),
	)
	return nil
}

// MultiDisplay shows a notification on every sink. One failing sink does
// not stop the others.
type MultiDisplay []Display

func (m MultiDisplay) Show(ctx context.Context, n domain.LocalNotification) error {
	var errs []error
	for _, d := range m {
		if err := d.Show(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
