package fragment

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/arloliu/wldfrag/errs"
	"github.com/arloliu/wldfrag/field"
	"github.com/arloliu/wldfrag/internal/options"
)

// DefaultMaxCount is the largest repetition count a decoder accepts unless
// configured otherwise with WithMaxCount.
const DefaultMaxCount = 1 << 20

type config struct {
	codecs   *field.Set
	maxCount int64
	logger   *zap.Logger
}

func newConfig() *config {
	return &config{
		maxCount: DefaultMaxCount,
		logger:   zap.NewNop(),
	}
}

// Option configures a compiled Decoder.
type Option = options.Option[*config]

// WithCodecs decodes primitive kinds with set instead of the codec set the
// schema was built with. Every kind of the schema must be present in set.
func WithCodecs(set *field.Set) Option {
	return options.New(func(c *config) error {
		if set == nil {
			return fmt.Errorf("%w: nil codec set", errs.ErrInvalidDecoderParameter)
		}
		c.codecs = set

		return nil
	})
}

// WithMaxCount sets the largest accepted repetition count. Larger counts fail
// with ErrMalformedCount before anything is allocated.
func WithMaxCount(n int64) Option {
	return options.New(func(c *config) error {
		if n <= 0 {
			return fmt.Errorf("%w: max count %d", errs.ErrInvalidDecoderParameter, n)
		}
		c.maxCount = n

		return nil
	})
}

// WithLogger sets the logger used to report failed decodes at debug level.
// The default logger discards everything.
func WithLogger(logger *zap.Logger) Option {
	return options.NoError(func(c *config) {
		if logger == nil {
			logger = zap.NewNop()
		}
		c.logger = logger
	})
}
