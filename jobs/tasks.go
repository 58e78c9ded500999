// Package jobs holds the background task definitions and the Asynq worker
// wiring: the nightly dashboard cache warmup and the post-ingest cache bump.
package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskDashboardWarmup pre-computes dashboard caches for active sites.
	TaskDashboardWarmup = "dashboard:warmup"
	// TaskCacheBump invalidates dashboard caches after a data load.
	TaskCacheBump = "dashboard:bump"
)

// DashboardWarmupPayload selects what the warmup run covers. An empty
// payload warms the all-sites scope plus every active site.
type DashboardWarmupPayload struct {
	SiteCodes []int `json:"siteCodes,omitempty"`
	Years     []int `json:"years,omitempty"`
}

// NewDashboardWarmupTask constructs the warmup task.
func NewDashboardWarmupTask(payload DashboardWarmupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskDashboardWarmup, data), nil
}

// NewCacheBumpTask constructs the cache invalidation task.
func NewCacheBumpTask() *asynq.Task {
	return asynq.NewTask(TaskCacheBump, nil)
}
