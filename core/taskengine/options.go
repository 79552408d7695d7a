package taskengine

import (
	"time"

	"github.com/mitchellh/mapstructure"

	"github.com/AvaProtocol/ap-airdrop/model"
)

// Options tune a single run. Delays are in seconds, zero disables the pause.
type Options struct {
	RandomizeOrder bool    `mapstructure:"randomizeOrder" json:"randomizeOrder"`
	TestnetDelay   float64 `mapstructure:"testnetDelay" json:"testnetDelay"`
	WalletDelay    float64 `mapstructure:"walletDelay" json:"walletDelay"`
	RandomizeGas   bool    `mapstructure:"randomizeGas" json:"randomizeGas"`
}

// DecodeOptions reads run options from a loosely typed map, such as a decoded
// JSON request body or CLI flags, on top of defaults. Strings like "true" or "5"
// are accepted, unknown keys are rejected.
func DecodeOptions(defaults Options, raw map[string]any) (Options, error) {
	opts := defaults
	if len(raw) == 0 {
		return opts, nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &opts,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return opts, model.WrapError(model.ValidationError, InvalidOptionsError, err)
	}

	if err := decoder.Decode(raw); err != nil {
		return opts, model.WrapError(model.ValidationError, InvalidOptionsError, err)
	}

	if opts.TestnetDelay < 0 || opts.WalletDelay < 0 {
		return opts, model.NewValidationError("delays cannot be negative")
	}

	return opts, nil
}

func (o Options) networkPause() time.Duration {
	return seconds(o.TestnetDelay)
}

func (o Options) walletPause() time.Duration {
	return seconds(o.WalletDelay)
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
