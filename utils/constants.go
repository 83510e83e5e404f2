package utils

import (
	"time"
)

// Slug allocation constants
const (
	// SlugMaxLength is the maximum length of a link slug
	SlugMaxLength = 64

	// SlugMaxAttempts is the number of numbered-suffix probes before allocation gives up
	SlugMaxAttempts = 50
)

// Click accounting constants
const (
	// DailySeriesDays is the number of calendar days in the dashboard series
	DailySeriesDays = 30

	// TopLinksLimit is the number of links in the "top by clicks" listing
	TopLinksLimit = 5

	// RecentLinksLimit is the number of links in the "recently created" listing
	RecentLinksLimit = 5
)

// Geolocation constants
const (
	// GeoLookupTimeout bounds a single geolocation call (best-effort enrichment)
	GeoLookupTimeout = 3 * time.Second

	// GeoCacheTTL is how long a resolved country is cached per IP (1 hour)
	GeoCacheTTL = 1 * time.Hour
)

// CORS and security constants
const (
	// CORSMaxAge is the maximum age for CORS preflight requests (24 hours)
	CORSMaxAge = 86400
)
