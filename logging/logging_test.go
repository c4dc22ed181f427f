package logging

import (
	"testing"

	"go.uber.org/zap"
	"go.viam.com/test"
)

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger("rscapture", false)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, logger.Desugar().Core().Enabled(zap.DebugLevel), test.ShouldBeFalse)
	test.That(t, logger.Desugar().Core().Enabled(zap.InfoLevel), test.ShouldBeTrue)

	logger, err = NewLogger("rscapture", true)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, logger.Desugar().Core().Enabled(zap.DebugLevel), test.ShouldBeTrue)
}
