package asset

import (
	"context"
	"fmt"
)

// Job is a deferred work item produced while parsing, such as a GPU upload.
type Job struct {
	Name     string
	Priority float64
	Run      func(ctx context.Context) error
}

// JobList is an ordered job queue. Lists are moved between owners with
// Splice, never copied.
type JobList struct {
	jobs []*Job
}

func (l *JobList) Push(j *Job) {
	l.jobs = append(l.jobs, j)
}

func (l *JobList) Len() int {
	return len(l.jobs)
}

func (l *JobList) Clear() {
	l.jobs = nil
}

// Jobs returns the queued jobs in order. The slice must not be modified.
func (l *JobList) Jobs() []*Job {
	return l.jobs
}

// Splice moves every job of src to the end of l and empties src.
func (l *JobList) Splice(src *JobList) {
	if src == nil || src == l {
		return
	}
	l.jobs = append(l.jobs, src.jobs...)
	src.jobs = nil
}

// Run executes and drains the jobs in order, stopping at the first error.
func (l *JobList) Run(ctx context.Context) error {
	for len(l.jobs) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		j := l.jobs[0]
		l.jobs = l.jobs[1:]
		if j.Run == nil {
			continue
		}
		if err := j.Run(ctx); err != nil {
			return fmt.Errorf("job %s: %w", j.Name, err)
		}
	}
	return nil
}
