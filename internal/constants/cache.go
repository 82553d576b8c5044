package constants

import "time"

const (
	FacetCachePrefix = "facets" // CacheBuilder adds colon
	FacetGenresKey   = "genres"
	FacetDecadesKey  = "decades"
	FacetStationsKey = "stations"
	FacetCacheExpiry = 1 * time.Hour
)

const (
	DefaultShowLimit = 6
	MaxShowLimit     = 50
	MaxShowPage      = 1_000_000 // keeps (page-1)*limit well inside int
	ShowLimitAll     = "all"
)
