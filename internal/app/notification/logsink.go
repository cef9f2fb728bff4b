package notification

import (
	"context"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
)

// LogSinkSettings configures the log sink.
type LogSinkSettings struct {
	Level string `mapstructure:"level" default:"info" validate:"oneof=debug info warn"`
}

// LogSink writes announcements to the process log.
type LogSink struct {
	level zerolog.Level
}

// NewLogSink creates a log sink.
func NewLogSink(settings LogSinkSettings) *LogSink {
	level, err := zerolog.ParseLevel(settings.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	return &LogSink{level: level}
}

// Name implements Sink.
func (s *LogSink) Name() string {
	return "log"
}

// Send implements Sink.
func (s *LogSink) Send(_ context.Context, a Announcement) error {
	zlog.WithLevel(s.level).
		Str("kind", a.Kind).
		Str("title", a.Title).
		Str("reason", a.Reason).
		Msg("player transition")
	return nil
}
