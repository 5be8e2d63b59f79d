package utils

import "github.com/rs/zerolog/log"

// Must aborts startup on an unrecoverable error.
func Must(err error) {
	if err != nil {
		log.Fatal().Err(err).Msg("startup failed")
	}
}

// LogFor logs a non-fatal error with context.
func LogFor(err error, msg string) {
	if err != nil {
		log.Error().Err(err).Msg(msg)
	}
}
