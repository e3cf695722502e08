package bot

import (
	"time"
)

// BotConfig represents the configuration for the bot
type BotConfig struct {
	// Long polling timeout in seconds
	UpdateTimeout int
	// Updates handled at the same time; updates of one user never overlap
	MaxConcurrentUpdates int
	// Upper bound for handling a single update, including LLM and ffmpeg calls
	HandlerTimeout time.Duration
	// Number of results shown by /results
	ResultsLimit int
	// IsAdmin tells whether a user may run admin commands
	IsAdmin func(userID int64) bool
}

// DefaultConfig returns the default bot configuration
func DefaultConfig() *BotConfig {
	return &BotConfig{
		UpdateTimeout:        60,
		MaxConcurrentUpdates: 32,
		HandlerTimeout:       2 * time.Minute,
		ResultsLimit:         5,
		IsAdmin:              func(int64) bool { return false },
	}
}
