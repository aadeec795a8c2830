package ai

import (
	"context"
	"time"
	"unicode/utf8"

	"github.com/spigell/ats-scorer/internal/utils"
	"go.uber.org/zap"
)

const defaultMaxLogLength = 200

// ObserveFunc receives the outcome of every generation call.
type ObserveFunc func(generator string, elapsed time.Duration, err error)

type instrumented struct {
	next      Generator
	logger    *zap.Logger
	maxLogLen int
	observe   ObserveFunc
}

// Instrument wraps a generator with debug previews of prompts and responses
// and reports each call to observe, which may be nil.
func Instrument(g Generator, logger *zap.Logger, maxLogLength int, observe ObserveFunc) Generator {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &instrumented{next: g, logger: logger, maxLogLen: maxLogLength, observe: observe}
}

func (i *instrumented) Name() string {
	return i.next.Name()
}

func (i *instrumented) Generate(ctx context.Context, req Request) (string, error) {
	i.logger.Debug("generate content request",
		zap.String("generator", i.next.Name()),
		zap.Int("prompt_length", utf8.RuneCountInString(req.Prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(req.Prompt, i.maxLogLen)),
	)

	start := time.Now()
	raw, err := i.next.Generate(ctx, req)
	elapsed := time.Since(start)

	if i.observe != nil {
		i.observe(i.next.Name(), elapsed, err)
	}

	if err != nil {
		i.logger.Warn("generate content failed",
			zap.String("generator", i.next.Name()),
			zap.Duration("elapsed", elapsed),
			zap.Error(err),
		)
		return "", err
	}

	i.logger.Debug("generate content response",
		zap.String("generator", i.next.Name()),
		zap.Duration("elapsed", elapsed),
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, i.maxLogLen)),
	)

	return raw, nil
}
