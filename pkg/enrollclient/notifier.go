package enrollclient

import "go.uber.org/zap"

// Notifier surfaces manager progress to the user.
type Notifier interface {
	Loading(message string)
	Success(message string)
	Error(err error)
}

type nopNotifier struct{}

func (nopNotifier) Loading(string) {}
func (nopNotifier) Success(string) {}
func (nopNotifier) Error(error)    {}

// LogNotifier writes every alert to a zap logger.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier constructs a LogNotifier; a nil logger discards output.
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Loading(message string) { n.logger.Debug(message) }
func (n *LogNotifier) Success(message string) { n.logger.Info(message) }
func (n *LogNotifier) Error(err error)        { n.logger.Error("enrollment request failed", zap.Error(err)) }
