package config

import (
	"reflect"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/v2"

	"github.com/smykla-skalski/gridplug/pkg/config"
)

// CustomDecoderConfig returns a mapstructure decoder config with custom type hooks
// for handling the Duration type.
func CustomDecoderConfig() *mapstructure.DecoderConfig {
	return &mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			stringToDurationHookFunc(),
			mapstructure.StringToTimeDurationHookFunc(),
		),
		WeaklyTypedInput: true,
		Result:           nil, // Set by caller
	}
}

// unmarshal decodes the merged koanf state into a Config.
func unmarshal(k *koanf.Koanf) (*config.Config, error) {
	var cfg config.Config

	decoder := CustomDecoderConfig()
	decoder.Result = &cfg

	conf := koanf.UnmarshalConf{
		Tag:           "koanf",
		FlatPaths:     false,
		DecoderConfig: decoder,
	}

	if err := k.UnmarshalWithConf("", &cfg, conf); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}

	return &cfg, nil
}

// stringToDurationHookFunc returns a decode hook for converting strings to config.Duration.
//
//nolint:ireturn // required by mapstructure.DecodeHookFunc interface
func stringToDurationHookFunc() mapstructure.DecodeHookFunc {
	return func(
		_ reflect.Type,
		t reflect.Type,
		data any,
	) (any, error) {
		if t != reflect.TypeFor[config.Duration]() {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			var d config.Duration
			if err := d.UnmarshalText([]byte(v)); err != nil {
				return nil, err
			}

			return d, nil

		case int64:
			return config.Duration(time.Duration(v)), nil

		case float64:
			return config.Duration(time.Duration(v)), nil

		default:
			return data, nil
		}
	}
}
