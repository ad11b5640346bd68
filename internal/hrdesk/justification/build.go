package justification

import (
	"strings"

	"github.com/aussiebroadwan/hrdesk/pkg/hrsdk"
)

// Identity is who files the request and who approves it.
type Identity struct {
	EmployeeID int64
	BossID     int64
}

// Build checks the draft and assembles the create payload. Checks run in a
// fixed order and the first failure is returned:
//
//  1. employee id known
//  2. boss id known
//  3. type selected and recognised
//  4. fields required by the mode
//  5. HORAS start and end on the same day (clears End on failure)
//
// now becomes createdAt.
func Build(id Identity, d *Draft, now Local) (hrsdk.JustificationPayload, error) {
	if id.EmployeeID == 0 {
		return hrsdk.JustificationPayload{}, invalid("employeeId", ErrNoEmployee,
			"Your employee record could not be determined. Sign in again.")
	}
	if id.BossID == 0 {
		return hrsdk.JustificationPayload{}, invalid("bossEmployeeId", ErrNoBoss,
			"No immediate supervisor is assigned to your employee record, contact HR.")
	}

	t, ok := d.Type()
	if !ok {
		return hrsdk.JustificationPayload{}, invalid("type", ErrNoType, "Select a justification type.")
	}
	mode, ok := DeriveMode(t)
	if !ok {
		return hrsdk.JustificationPayload{}, invalid("type", ErrUnknownType,
			"The selected justification type is not supported.")
	}

	p := hrsdk.JustificationPayload{
		EmployeeID:          id.EmployeeID,
		BossEmployeeID:      id.BossID,
		JustificationTypeID: t.ID,
		Reason:              strings.TrimSpace(d.Reason()),
		Status:              hrsdk.JustificationStatusPending,
		CreatedAt:           now.String(),
		CreatedBy:           id.EmployeeID,
	}

	switch mode {
	case ModePicada:
		if d.punchAt.IsZero() {
			return hrsdk.JustificationPayload{}, missingStart(mode)
		}
		p.StartDate = d.punchAt.String()
		p.EndDate = d.MirroredEnd().String()
		p.JustificationDate = d.punchAt.Date().String()

	case ModeHoras:
		if d.start.IsZero() {
			return hrsdk.JustificationPayload{}, missingStart(mode)
		}
		if d.end.IsZero() {
			return hrsdk.JustificationPayload{}, invalid("end", ErrMissingEnd, "Enter the end time.")
		}
		if !d.start.SameDay(d.end) {
			d.end = Local{}
			return hrsdk.JustificationPayload{}, differentDay()
		}
		p.StartDate = d.start.String()
		p.EndDate = d.end.String()
		p.JustificationDate = d.start.Date().String()
		p.HoursRequested = d.start.HoursUntil(d.end)

	case ModeDias:
		if d.startDate.IsZero() {
			return hrsdk.JustificationPayload{}, missingStart(mode)
		}
		last := d.endDate
		if last.IsZero() {
			last = d.startDate
		}
		p.StartDate = d.startDate.Date().String()
		p.EndDate = last.EndOfDay().String()
		p.JustificationDate = d.startDate.Date().String()
	}

	return p, nil
}
