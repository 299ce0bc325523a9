package values

// MonitorValues holds the defaults applied to a monitoring request
// when the caller omits min_rating or days_period.
type MonitorValues struct {
	RatingThreshold int `koanf:"rating_threshold" validate:"gte=1,lte=5"`
	DaysPeriod      int `koanf:"days_period" validate:"gte=1"`
}
