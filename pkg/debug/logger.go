package debug

import (
	"context"
	"io"

	"github.com/rs/xid"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// RunID tags every log line of one process.
var RunID = xid.New().String()

type LoggerOptions struct {
	Level string
	// Console writes human readable lines instead of JSON.
	Console   bool
	WithColor bool
	Caller    bool
}

func NewLogger(w io.Writer, opts LoggerOptions) (zerolog.Logger, error) {
	level := zerolog.InfoLevel
	if opts.Level != "" {
		l, err := zerolog.ParseLevel(opts.Level)
		if err != nil {
			return zerolog.Nop(), errors.Errorf("parsing log level: %w", err)
		}
		level = l
	}

	if opts.Console {
		w = zerolog.ConsoleWriter{
			Out:           w,
			NoColor:       !opts.WithColor,
			PartsOrder:    []string{"time", zerolog.LevelFieldName, "caller", zerolog.MessageFieldName},
			FieldsExclude: []string{"time", "caller", "run"},
		}
	}

	logger := zerolog.New(w).Level(level).With().
		Str("run", RunID).
		Logger().
		Hook(CustomTimeHook{WithColor: opts.WithColor && opts.Console})

	if opts.Caller {
		logger = logger.Hook(CustomCallerHook{WithColor: opts.WithColor && opts.Console})
	}

	return logger, nil
}

// WithLogger builds a logger and stores it on ctx.
func WithLogger(ctx context.Context, w io.Writer, opts LoggerOptions) (context.Context, error) {
	logger, err := NewLogger(w, opts)
	if err != nil {
		return ctx, err
	}
	return logger.WithContext(ctx), nil
}
