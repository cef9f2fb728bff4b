package notification

import (
	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"

	"github.com/kutsaratinidor/ctrlvee/internal/infra/config"
)

// NewSinks builds sinks from configuration. Unknown sink types are an
// error so a typo in the config file surfaces at startup.
func NewSinks(cfgs []config.SinkConfig) ([]Sink, error) {
	sinks := make([]Sink, 0, len(cfgs))
	for _, cfg := range cfgs {
		sink, err := newSink(cfg)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to create sink %q", cfg.Type)
		}
		sinks = append(sinks, sink)
	}
	return sinks, nil
}

func newSink(cfg config.SinkConfig) (Sink, error) {
	switch cfg.Type {
	case "log":
		var settings LogSinkSettings
		if err := decodeSettings(cfg.Settings, &settings); err != nil {
			return nil, err
		}
		return NewLogSink(settings), nil
	case "webhook":
		var settings WebhookSinkSettings
		if err := decodeSettings(cfg.Settings, &settings); err != nil {
			return nil, err
		}
		return NewWebhookSink(settings), nil
	default:
		return nil, errors.Newf("unknown sink type: %s", cfg.Type)
	}
}

func decodeSettings(settings map[string]any, out any) error {
	if err := mapstructure.Decode(settings, out); err != nil {
		return errors.Wrap(err, "failed to decode settings")
	}
	if err := defaults.Set(out); err != nil {
		return errors.Wrap(err, "failed to set defaults")
	}
	if err := validator.New().Struct(out); err != nil {
		return errors.Wrap(err, "validation failed")
	}
	return nil
}
