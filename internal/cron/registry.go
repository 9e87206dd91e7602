package cron

import "context"

// Job is a unit of scheduled work owned by the cron worker. The repair pass
// is the only job today; the worker loop stays job-agnostic.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Registry holds the jobs the worker runs each tick, in registration order.
type Registry struct {
	jobs []Job
}

func NewRegistry(jobs ...Job) *Registry {
	r := &Registry{}
	for _, job := range jobs {
		r.Register(job)
	}
	return r
}

// Register appends a job. Nil jobs are ignored.
func (r *Registry) Register(job Job) {
	if job == nil {
		return
	}
	r.jobs = append(r.jobs, job)
}

// Jobs returns a copy so callers cannot reorder the schedule under the worker.
func (r *Registry) Jobs() []Job {
	out := make([]Job, len(r.jobs))
	copy(out, r.jobs)
	return out
}
