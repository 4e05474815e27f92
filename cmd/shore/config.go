package main

import (
	"log"
	"strconv"
	"time"
)

func parseSize(s string, def uint32) uint32 {
	if s == "" {
		return def
	}
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		log.Printf("shore: invalid size %q, using default %d", s, def)
		return def
	}
	return uint32(n)
}

func parseDuration(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		log.Printf("shore: invalid duration %q, using default %s", s, def)
		return def
	}
	return d
}
