package scheduler

import "errors"

var (
	// ErrInvalidConfig is returned when a job is registered without a name or function
	ErrInvalidConfig = errors.New("invalid scheduler configuration")

	// ErrInvalidCron is returned for a cron expression gocron cannot parse
	ErrInvalidCron = errors.New("invalid cron expression")

	// ErrJobExists is returned when a job name is registered twice
	ErrJobExists = errors.New("job already registered")

	// ErrJobNotFound is returned when a job is not found
	ErrJobNotFound = errors.New("job not found")
)
