package util

import (
	"time"

	"github.com/rs/zerolog"
)

func TimeTrack(start time.Time, action string, logger *zerolog.Logger) {
	elapsed := time.Since(start)
	logger.Debug().Str("action", action).Float64("ms", float64(elapsed.Microseconds())/1000).Msg("timing")
}
