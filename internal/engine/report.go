package engine

import (
	"time"

	"fundguard/internal/reserve"
)

type Report struct {
	PassID          string            `json:"pass_id"`
	Epoch           uint64            `json:"epoch"`
	SnapshotVersion uint64            `json:"snapshot_version"`
	StartedAt       time.Time         `json:"started_at"`
	FinishedAt      time.Time         `json:"finished_at"`
	Verdicts        []reserve.Verdict `json:"verdicts"`
	Warnings        []string          `json:"warnings,omitempty"`
	Degraded        bool              `json:"degraded"`
}

func (r *Report) Blocking() bool {
	for _, v := range r.Verdicts {
		if v.Blocking() {
			return true
		}
	}
	return false
}

func (r *Report) Verdict(scope reserve.Scope) (reserve.Verdict, bool) {
	want := scope.String()
	for _, v := range r.Verdicts {
		if v.Scope.String() == want {
			return v, true
		}
	}
	return reserve.Verdict{}, false
}

func (r *Report) Messages() []string {
	var out []string
	for _, v := range r.Verdicts {
		out = append(out, v.Messages()...)
	}
	return out
}
