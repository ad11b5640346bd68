package justification

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/hrdesk/internal/hrdesk/notify"
	"github.com/aussiebroadwan/hrdesk/pkg/hrsdk"
)

// ErrNoRecord is returned when the backend accepts a justification without
// echoing it back.
var ErrNoRecord = errors.New("justification: backend returned no record")

// Creator posts a payload to the backend. *hrsdk.Session satisfies it.
type Creator interface {
	CreateJustification(ctx context.Context, p hrsdk.JustificationPayload) (*hrsdk.Justification, error)
}

// IdentitySource resolves the signed-in employee and their boss at submit
// time. Zero means unknown.
type IdentitySource interface {
	Identity() (employeeID, bossID int64)
}

// Submitter drives one submission per call: build, post, then either reset
// the draft or keep it and tell the user why.
type Submitter struct {
	creator  Creator
	identity IdentitySource
	notifier notify.Notifier
	logger   *slog.Logger
	now      func() time.Time

	// OnCreated fires after a successful submission. Optional.
	OnCreated func(*hrsdk.Justification)
}

type SubmitterOption func(*Submitter)

func WithClock(now func() time.Time) SubmitterOption {
	return func(s *Submitter) { s.now = now }
}

func WithLogger(l *slog.Logger) SubmitterOption {
	return func(s *Submitter) { s.logger = l }
}

func WithOnCreated(fn func(*hrsdk.Justification)) SubmitterOption {
	return func(s *Submitter) { s.OnCreated = fn }
}

func NewSubmitter(c Creator, id IdentitySource, n notify.Notifier, opts ...SubmitterOption) *Submitter {
	s := &Submitter{
		creator:  c,
		identity: id,
		notifier: n,
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit validates d and posts it. Validation failures never reach the
// network. On any failure d keeps what the user entered (HORAS may lose its
// End, see Build).
func (s *Submitter) Submit(ctx context.Context, d *Draft) (*hrsdk.Justification, error) {
	empID, bossID := s.identity.Identity()

	p, err := Build(Identity{EmployeeID: empID, BossID: bossID}, d, LocalOf(s.now()))
	if err != nil {
		s.notifier.Notify(ctx, notify.Error("Check the justification", hrsdk.FormatError(err)))
		return nil, err
	}

	created, err := s.creator.CreateJustification(ctx, p)
	if err != nil {
		s.logger.WarnContext(ctx, "justification_create_failed",
			"employee_id", empID,
			"type_id", p.JustificationTypeID,
			"error", err,
		)
		s.notifier.Notify(ctx, notify.Error("Could not create justification", hrsdk.FormatError(err)))
		return nil, err
	}
	if created == nil {
		s.logger.WarnContext(ctx, "justification_create_failed",
			"employee_id", empID,
			"type_id", p.JustificationTypeID,
			"error", ErrNoRecord,
		)
		s.notifier.Notify(ctx, notify.Error("Could not create justification",
			"The server did not return the new justification. Please try again."))
		return nil, ErrNoRecord
	}

	s.logger.InfoContext(ctx, "justification_created",
		"justification_id", created.ID,
		"employee_id", empID,
		"type_id", p.JustificationTypeID,
	)

	d.Reset()
	s.notifier.Notify(ctx, notify.Success("Justification created", "Your request is pending approval."))
	if s.OnCreated != nil {
		s.OnCreated(created)
	}
	return created, nil
}
