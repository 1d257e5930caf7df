package core

import (
	"context"

	"github.com/rs/zerolog"

	"hr.backoffice/internal/core/model"
)

// logOutcome writes one line per mutating operation. Caller mistakes log at
// warn, storage failures at error.
func logOutcome(ctx context.Context, op string, err error, fields func(e *zerolog.Event)) {
	logger := zerolog.Ctx(ctx)
	var event *zerolog.Event
	switch kind := model.KindOf(err); kind {
	case "":
		event = logger.Info()
	case model.KindInternal:
		event = logger.Error().Err(err).Str("error_kind", string(kind))
	default:
		event = logger.Warn().Err(err).Str("error_kind", string(kind))
	}
	if fields != nil {
		fields(event)
	}
	event.Str("op", op).Msg(op)
}
