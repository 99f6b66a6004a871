package logging

import (
	"testing"

	"github.com/maxatome/go-testdeep/td"
	"go.uber.org/zap/zapcore"
)

func TestNewHonoursLevel(t *testing.T) {
	logger, err := New(zapcore.WarnLevel)
	td.CmpNoError(t, err)

	td.CmpFalse(t, logger.Core().Enabled(zapcore.InfoLevel))
	td.CmpTrue(t, logger.Core().Enabled(zapcore.WarnLevel))
}
