package payment

import (
	"time"
)

// StageKey identifies one of the four fixed timeline stages
type StageKey string

const (
	StageDocuments   StageKey = "documents"
	StageAwaiting    StageKey = "awaiting"
	StageReceived    StageKey = "received"
	StageDistributed StageKey = "distributed"
)

// StageStatus represents the progress state of a single stage
type StageStatus string

const (
	StageCompleted StageStatus = "completed"
	StageWaiting   StageStatus = "waiting"
	StagePending   StageStatus = "pending"
)

// Stage is one step of the fixed 4-stage progress model
type Stage struct {
	Key            StageKey    `json:"key"`
	Status         StageStatus `json:"status"`
	Timestamp      *time.Time  `json:"timestamp,omitempty"`
	DaysUntilDue   *int        `json:"days_until_due,omitempty"`
	IsOverdue      bool        `json:"is_overdue,omitempty"`
	ActionRequired bool        `json:"action_required,omitempty"`
}

// TimelineView is the derived progress projection of a payment
type TimelineView struct {
	Stages     []Stage `json:"stages"`
	Percentage int     `json:"percentage"`
}

const actionRequiredWindowDays = 3

// Timeline derives the 4-stage progress projection from the payment's
// status and dates at the given instant. It is recomputed on every read
// and never persisted. Cancelled payments fall outside the 4-stage model:
// they report documents completed and everything else pending, and
// callers must check the payment status before trusting the projection.
func (p *Payment) Timeline(now time.Time) TimelineView {
	createdAt := p.CreatedAt
	documents := Stage{
		Key:       StageDocuments,
		Status:    StageCompleted,
		Timestamp: &createdAt,
	}

	var stages []Stage
	if p.Status == StatusCancelled {
		stages = []Stage{
			documents,
			{Key: StageAwaiting, Status: StagePending},
			{Key: StageReceived, Status: StagePending},
			{Key: StageDistributed, Status: StagePending},
		}
	} else {
		awaiting := Stage{Key: StageAwaiting, Status: StageCompleted, Timestamp: p.ActualDate}
		if p.Status == StatusPlanned || p.Status == StatusExpected {
			days := daysUntilDue(p.PlannedDate, now)
			overdue := days < 0
			awaiting = Stage{
				Key:            StageAwaiting,
				Status:         StageWaiting,
				DaysUntilDue:   &days,
				IsOverdue:      overdue,
				ActionRequired: overdue || days < actionRequiredWindowDays,
			}
		}

		received := Stage{Key: StageReceived, Status: StagePending}
		if p.Status == StatusReceived || p.Status == StatusPaidOut {
			received = Stage{Key: StageReceived, Status: StageCompleted, Timestamp: p.ActualDate}
		}

		distributed := Stage{Key: StageDistributed, Status: StagePending}
		if p.Status == StatusPaidOut {
			updatedAt := p.UpdatedAt
			distributed = Stage{Key: StageDistributed, Status: StageCompleted, Timestamp: &updatedAt}
		}

		stages = []Stage{documents, awaiting, received, distributed}
	}

	completed := 0
	for _, s := range stages {
		if s.Status == StageCompleted {
			completed++
		}
	}

	return TimelineView{
		Stages:     stages,
		Percentage: completed * 100 / len(stages),
	}
}

// daysUntilDue computes the whole days remaining until the due date,
// rounding partial days up. Negative when the due date has passed.
func daysUntilDue(due, now time.Time) int {
	diff := due.Sub(now)
	days := int(diff / (24 * time.Hour))
	if diff > 0 && diff%(24*time.Hour) != 0 {
		days++
	}
	return days
}
