package model

import (
	"time"
)

const (
	DefaultServerPort      = 8080
	DefaultHistorySchedule = "@every 1h"
	DefaultHistoryMaxAge   = 30 * 24 * time.Hour
	DefaultLogMaxSize      = 50 // megabytes
	DefaultLogMaxAge       = 30 // days
	DefaultLogMaxBackups   = 7
	PathRegex              = `^[A-Za-z0-9]+$`
)
