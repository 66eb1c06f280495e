// Copyright © 2013-2015 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package skelanim

import "sync"

// batch.go is a caller-side convenience for the concurrency jobs already
// allow: distinct Animation/SamplingContext pairs, and BlendingJobs writing
// to disjoint output buffers, may run concurrently. It adapts loader.go's
// goroutine-per-batch fan-out to a blocking call, since there's no async
// completion here to signal back over a channel.

// Job is satisfied by every job struct in this package: SamplingJob,
// BlendingJob, LocalToModelJob, TwoBoneIKJob, AimIKJob.
type Job interface {
	Run() bool
}

// EvaluateBatch runs every job in jobs on its own goroutine and waits for
// all of them to finish, returning each job's Run result in order. Callers
// are responsible for keeping the batch's jobs independent: a
// SamplingContext is exclusive to one concurrent SamplingJob, and output
// buffers must not overlap across jobs in the same batch.
func EvaluateBatch(jobs []Job) []bool {
	results := make([]bool, len(jobs))
	var wg sync.WaitGroup
	wg.Add(len(jobs))
	for i, j := range jobs {
		go func(i int, j Job) {
			defer wg.Done()
			results[i] = j.Run()
		}(i, j)
	}
	wg.Wait()
	return results
}
