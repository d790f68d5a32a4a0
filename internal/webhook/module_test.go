package webhook

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/polkiloo/golightpay/internal/config"
)

func TestNewVerifierUsesConfig(t *testing.T) {
	v := newVerifier(&config.Config{InsecureSkipSignature: true, ReplayWindow: 5 * time.Minute}, discardLogger())
	assert.True(t, v.insecure)
	assert.Equal(t, 5*time.Minute, v.window)

	v = newVerifier(&config.Config{}, discardLogger())
	assert.False(t, v.insecure)
	assert.Zero(t, v.window)
}
