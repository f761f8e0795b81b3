package shopper

// Config is read with the AGENT prefix.
type Config struct {
	MaxSteps     int `envconfig:"MAX_STEPS" split_words:"true" default:"8"`
	HistoryLimit int `envconfig:"HISTORY_LIMIT" split_words:"true" default:"40"`
}

const defaultMaxSteps = 8

func (c Config) maxSteps() int {
	if c.MaxSteps <= 0 {
		return defaultMaxSteps
	}
	return c.MaxSteps
}
