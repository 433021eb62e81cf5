package progress

import (
	"errors"
	"log/slog"
)

// Notifier receives job progress as a percentage in [0, 100].
type Notifier interface {
	Notify(percent int, message string) error
}

// LogNotifier writes progress to the structured log.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(percent int, message string) error {
	n.logger.Info("job.progress", "progress", percent, "message", message)
	return nil
}

// Fanout delivers to every notifier and joins their errors.
type Fanout []Notifier

func (f Fanout) Notify(percent int, message string) error {
	var errs []error
	for _, n := range f {
		if n == nil {
			continue
		}
		if err := n.Notify(percent, message); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
