// Copyright © 2013-2015 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package skelanim

import (
	"testing"

	"github.com/gazed/skelanim/soa"
)

func TestEvaluateBatchRunsEachJobIndependently(t *testing.T) {
	a := oneTrackAnimation(t, 1, 0, [3]float64{1, 2, 3}, 1, [3]float64{4, 5, 6})
	b := oneTrackAnimation(t, 1, 0, [3]float64{9, 9, 9}, 1, [3]float64{-9, -9, -9})

	jobs := []Job{
		&SamplingJob{Animation: a, Context: NewSamplingContext(a.NumSoaTracks()), Ratio: 0, Output: []*soa.SoaTransform{{}}},
		&SamplingJob{Animation: b, Context: NewSamplingContext(b.NumSoaTracks()), Ratio: 1, Output: []*soa.SoaTransform{{}}},
	}
	results := EvaluateBatch(jobs)
	if len(results) != 2 || !results[0] || !results[1] {
		t.Errorf("got %v, want both jobs to report success", results)
	}

	aOut := jobs[0].(*SamplingJob).Output[0]
	if !almostVec3(translationOf(aOut, 0), [3]float64{1, 2, 3}, 1e-2) {
		t.Errorf("job 0 translation %v, want (1,2,3)", translationOf(aOut, 0))
	}
	bOut := jobs[1].(*SamplingJob).Output[0]
	if !almostVec3(translationOf(bOut, 0), [3]float64{-9, -9, -9}, 1e-2) {
		t.Errorf("job 1 translation %v, want (-9,-9,-9)", translationOf(bOut, 0))
	}
}

func TestEvaluateBatchReportsValidationFailure(t *testing.T) {
	jobs := []Job{&SamplingJob{}}
	results := EvaluateBatch(jobs)
	if len(results) != 1 || results[0] {
		t.Errorf("got %v, want a single false result for an invalid job", results)
	}
}
