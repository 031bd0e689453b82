package dto

import "time"

// MetricsSnapshot summarises gateway activity for the health endpoint.
type MetricsSnapshot struct {
	RequestsTotal            uint64    `json:"requestsTotal"`
	AverageRequestDurationMs float64   `json:"averageRequestDurationMs"`
	UpstreamCalls            uint64    `json:"upstreamCalls"`
	UpstreamErrors           uint64    `json:"upstreamErrors"`
	Submissions              uint64    `json:"submissions"`
	ActiveWorkflows          int       `json:"activeWorkflows"`
	SessionCacheHitRatio     float64   `json:"sessionCacheHitRatio"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generatedAt"`
}
