package main

import (
	"context"
	"time"
)

func contextWithTimeout(parent context.Context, timeout time.Duration) (context.Context, func()) {
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, timeout)
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
