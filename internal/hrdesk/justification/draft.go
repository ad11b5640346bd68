package justification

import (
	"strings"

	"github.com/aussiebroadwan/hrdesk/pkg/hrsdk"
)

// Draft is the in-progress form. The zero value is an empty form.
//
// Which date fields matter depends on the mode: PICADA uses PunchAt, HORAS
// uses Start and End, DIAS uses StartDate and EndDate.
type Draft struct {
	typ    *hrsdk.JustificationType
	reason string

	punchAt Local
	start   Local
	end     Local

	startDate Local
	endDate   Local
}

// SetType selects the justification type. Switching into HORAS re-checks
// the hour range.
func (d *Draft) SetType(t hrsdk.JustificationType) error {
	d.typ = &t
	return d.revalidateHours()
}

// ClearType deselects the type.
func (d *Draft) ClearType() { d.typ = nil }

func (d *Draft) Type() (hrsdk.JustificationType, bool) {
	if d.typ == nil {
		return hrsdk.JustificationType{}, false
	}
	return *d.typ, true
}

func (d *Draft) SetReason(s string) { d.reason = s }
func (d *Draft) Reason() string     { return d.reason }

// SetPunchAt sets the PICADA date-time. Empty clears it.
func (d *Draft) SetPunchAt(raw string) error {
	return setLocal(&d.punchAt, "punchAt", raw)
}

// SetStart sets the HORAS start. When the end ends up on another day it is
// cleared and ErrDifferentDay returned.
func (d *Draft) SetStart(raw string) error {
	if err := setLocal(&d.start, "start", raw); err != nil {
		return err
	}
	return d.revalidateHours()
}

// SetEnd sets the HORAS end with the same same-day rule as SetStart.
func (d *Draft) SetEnd(raw string) error {
	if err := setLocal(&d.end, "end", raw); err != nil {
		return err
	}
	return d.revalidateHours()
}

// SetStartDate sets the first DIAS day. Any time part is dropped.
func (d *Draft) SetStartDate(raw string) error {
	if err := setLocal(&d.startDate, "startDate", raw); err != nil {
		return err
	}
	d.startDate = d.startDate.Date()
	return nil
}

// SetEndDate sets the last DIAS day, empty means same as the start.
func (d *Draft) SetEndDate(raw string) error {
	if err := setLocal(&d.endDate, "endDate", raw); err != nil {
		return err
	}
	d.endDate = d.endDate.Date()
	return nil
}

func (d *Draft) PunchAt() Local   { return d.punchAt }
func (d *Draft) Start() Local     { return d.start }
func (d *Draft) End() Local       { return d.end }
func (d *Draft) StartDate() Local { return d.startDate }
func (d *Draft) EndDate() Local   { return d.endDate }

// Mode derives the mode from the selected type.
func (d *Draft) Mode() (Mode, bool) {
	if d.typ == nil {
		return "", false
	}
	return DeriveMode(*d.typ)
}

// Hours is the requested duration in HORAS mode, zero otherwise.
func (d *Draft) Hours() float64 {
	if m, _ := d.Mode(); m != ModeHoras || d.start.IsZero() || d.end.IsZero() {
		return 0
	}
	return d.start.HoursUntil(d.end)
}

// MirroredEnd is the PICADA end, always identical to the punch.
func (d *Draft) MirroredEnd() Local { return d.punchAt }

// Reset empties the form.
func (d *Draft) Reset() { *d = Draft{} }

// revalidateHours enforces the HORAS same-day rule. End is the field that
// gets cleared, whichever side changed.
func (d *Draft) revalidateHours() error {
	if m, _ := d.Mode(); m != ModeHoras {
		return nil
	}
	if d.start.IsZero() || d.end.IsZero() || d.start.SameDay(d.end) {
		return nil
	}
	d.end = Local{}
	return differentDay()
}

func setLocal(dst *Local, field, raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		*dst = Local{}
		return nil
	}
	l, err := ParseLocal(WithSeconds(raw))
	if err != nil {
		return invalid(field, ErrBadDate, "Enter a valid date.")
	}
	*dst = l
	return nil
}
