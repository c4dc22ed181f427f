//go:build !realsense

package capture

import (
	"errors"
	"testing"

	"go.viam.com/test"

	"essaim.dev/depthcam/config"
)

func TestOpenContextWithoutRealsense(t *testing.T) {
	cfg := smallConfig()
	cfg.Source = config.SourceRealsense

	_, err := OpenContext(cfg)
	test.That(t, errors.Is(err, errors.ErrUnsupported), test.ShouldBeTrue)
}
