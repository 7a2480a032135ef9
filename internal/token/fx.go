package token

import (
	"github.com/tollgate-io/tollgate/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("token",
	fx.Provide(func(cfg config.Config, log *zap.Logger) (*Codec, error) {
		return NewCodec(cfg.TokenSecretPhrase, log)
	}),
)
