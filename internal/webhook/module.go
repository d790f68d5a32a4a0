package webhook

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/polkiloo/golightpay/internal/config"
)

// Module provides the webhook verifier.
var Module = fx.Provide(newVerifier)

func newVerifier(cfg *config.Config, logger *slog.Logger) *Verifier {
	if cfg.InsecureSkipSignature {
		logger.Warn("webhook signature verification bypass is enabled")
	}
	return NewVerifier(cfg.InsecureSkipSignature, cfg.ReplayWindow, logger)
}
