package fetch

import "time"

const (
	defaultTimeout = 15 * time.Second
	minTimeout     = 10 * time.Second
	maxTimeout     = 15 * time.Second
	maxBodyBytes   = 1 << 20
	userAgent      = "nba-stables-widgets"
)
