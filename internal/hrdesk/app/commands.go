package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/aussiebroadwan/hrdesk/internal/hrdesk/domain"
	"github.com/aussiebroadwan/hrdesk/internal/hrdesk/justification"
	"github.com/aussiebroadwan/hrdesk/internal/hrdesk/session"
	"github.com/aussiebroadwan/hrdesk/pkg/hrsdk"
	"github.com/aussiebroadwan/hrdesk/pkg/slogx"
)

var (
	ErrNotSignedIn  = errors.New("not signed in, run `hrdesk login` or `hrdesk azure` first")
	ErrLoginTimeout = errors.New("timed out waiting for the provider login")
)

// startSession builds a manager, runs the startup check and returns a stop
// func for the caller to defer.
func (app *Application) startSession(ctx context.Context, withPush bool) (*session.Manager, func()) {
	m := app.newManager(withPush)
	m.Start(ctx)
	return m, m.Stop
}

// commandContext carries a logger tagged with the command, so backend
// requests made on its behalf log under it.
func (app *Application) commandContext(ctx context.Context, name string) context.Context {
	return slogx.WithContext(ctx, app.logger.With("command", name))
}

// ============================================================================
// Auth
// ============================================================================

func (app *Application) Login(ctx context.Context, email, password string) error {
	ctx = app.commandContext(ctx, "login")
	m, stop := app.startSession(ctx, false)
	defer stop()

	return m.Login(ctx, email, password)
}

// Azure prints the provider URL and waits up to wait for the login to come
// back over the push channel.
func (app *Application) Azure(ctx context.Context, wait time.Duration) error {
	ctx = app.commandContext(ctx, "azure")
	m, stop := app.startSession(ctx, true)
	defer stop()

	signedIn := make(chan struct{})
	var once sync.Once
	unsubscribe := m.Subscribe(func(s domain.AuthState) {
		if s.IsAuthenticated {
			once.Do(func() { close(signedIn) })
		}
	})
	defer unsubscribe()

	if s := m.State(); s.IsAuthenticated {
		fmt.Fprintf(app.out, "Already signed in as %s.\n", s.User.Email)
		return nil
	}

	link, err := app.client.AzureLoginURL(ctx, app.clientID)
	if err != nil {
		return err
	}
	fmt.Fprintf(app.out, "Open this URL to sign in:\n\n  %s\n\n", link.URL)
	app.logger.InfoContext(ctx, "waiting for provider login", "client_id", app.clientID, "wait", wait.String())

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case <-signedIn:
		return nil
	case <-timer.C:
		return ErrLoginTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (app *Application) Logout(ctx context.Context) error {
	ctx = app.commandContext(ctx, "logout")
	m, stop := app.startSession(ctx, false)
	defer stop()

	if !m.State().IsAuthenticated {
		fmt.Fprintln(app.out, "Not signed in.")
		return nil
	}
	m.Logout(ctx, session.LogoutUser)
	return nil
}

// Status prints who is signed in.
func (app *Application) Status(ctx context.Context) error {
	ctx = app.commandContext(ctx, "status")
	m, stop := app.startSession(ctx, false)
	defer stop()

	s := m.State()
	tw := tabwriter.NewWriter(app.out, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	fmt.Fprintf(tw, "phase\t%s\n", s.Phase)
	if !s.IsAuthenticated {
		return nil
	}
	if s.User != nil {
		fmt.Fprintf(tw, "user\t%s <%s>\n", s.User.DisplayName, s.User.Email)
		if len(s.User.Roles) > 0 {
			fmt.Fprintf(tw, "roles\t%s\n", strings.Join(s.User.Roles, ", "))
		}
	}
	if e := s.Employee; e != nil {
		fmt.Fprintf(tw, "employee\t#%d %s\n", e.EmployeeID, e.FullName())
		fmt.Fprintf(tw, "department\t%s / %s\n", e.Department, e.Faculty)
		if e.ImmediateBossID != 0 {
			fmt.Fprintf(tw, "supervisor\t#%d\n", e.ImmediateBossID)
		}
	} else {
		fmt.Fprintf(tw, "employee\tunknown\n")
	}
	if at := m.LastActivity(); !at.IsZero() {
		fmt.Fprintf(tw, "last activity\t%s\n", at.Local().Format(time.DateTime))
	}
	return nil
}

// ============================================================================
// Justifications
// ============================================================================

// Types lists the justification catalog with the form each type uses.
func (app *Application) Types(ctx context.Context) error {
	ctx = app.commandContext(ctx, "types")
	m, stop := app.startSession(ctx, false)
	defer stop()

	if !m.State().IsAuthenticated {
		return ErrNotSignedIn
	}

	types, err := app.client.WithTokenSource(m.TokenSource()).ListJustificationTypes(ctx)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(app.out, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	fmt.Fprintln(tw, "ID\tCODE\tNAME\tMODE")
	for _, t := range types {
		mode := "-"
		if md, ok := justification.DeriveMode(t); ok {
			mode = string(md)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", t.ID, t.Code, t.Name, mode)
	}
	return nil
}

// JustifyInput is the raw form input. Only the fields the type's mode uses
// need to be set.
type JustifyInput struct {
	Type   string // id, code or name
	Reason string

	At         string // PICADA: the missed punch
	Start, End string // HORAS
	From, To   string // DIAS
}

// Justify fills a draft from in and submits it.
func (app *Application) Justify(ctx context.Context, in JustifyInput) error {
	ctx = app.commandContext(ctx, "justify")
	m, stop := app.startSession(ctx, false)
	defer stop()

	if !m.State().IsAuthenticated {
		return ErrNotSignedIn
	}
	sess := app.client.WithTokenSource(m.TokenSource())

	types, err := sess.ListJustificationTypes(ctx)
	if err != nil {
		return err
	}
	typ, err := resolveType(types, in.Type)
	if err != nil {
		return err
	}

	var d justification.Draft
	if err := d.SetType(typ); err != nil {
		return err
	}
	d.SetReason(in.Reason)

	setters := []struct {
		raw string
		set func(string) error
	}{
		{in.At, d.SetPunchAt},
		{in.Start, d.SetStart},
		{in.End, d.SetEnd},
		{in.From, d.SetStartDate},
		{in.To, d.SetEndDate},
	}
	for _, s := range setters {
		if s.raw == "" {
			continue
		}
		if err := s.set(s.raw); err != nil {
			return err
		}
	}

	if mode, _ := d.Mode(); mode == justification.ModeHoras {
		fmt.Fprintf(app.out, "Requesting %.2f hours.\n", d.Hours())
	}

	sub := justification.NewSubmitter(sess, m, app.notifier,
		justification.WithLogger(app.logger),
		justification.WithOnCreated(func(j *hrsdk.Justification) {
			fmt.Fprintf(app.out, "Created justification #%d.\n", j.ID)
		}),
	)
	_, err = sub.Submit(ctx, &d)
	return err
}

// resolveType matches want against the catalog by id, then code, then name.
func resolveType(types []hrsdk.JustificationType, want string) (hrsdk.JustificationType, error) {
	want = strings.TrimSpace(want)
	if want == "" {
		return hrsdk.JustificationType{}, justification.ErrNoType
	}

	if id, err := strconv.ParseInt(want, 10, 64); err == nil {
		for _, t := range types {
			if t.ID == id {
				return t, nil
			}
		}
	}

	norm := justification.NormalizeTypeCode(want)
	for _, t := range types {
		if justification.NormalizeTypeCode(t.Code) == norm {
			return t, nil
		}
	}
	for _, t := range types {
		if justification.NormalizeTypeCode(t.Name) == norm {
			return t, nil
		}
	}
	return hrsdk.JustificationType{}, fmt.Errorf("unknown justification type %q", want)
}

// ============================================================================
// Daemon
// ============================================================================

// Run keeps the session alive until ctx ends: push logins, token refresh
// and the inactivity timeout. Every line read from in counts as keyboard
// activity.
func (app *Application) Run(ctx context.Context, in io.Reader) error {
	ctx = app.commandContext(ctx, "run")
	m, stop := app.startSession(ctx, true)
	defer stop()

	unsubscribe := m.Subscribe(func(s domain.AuthState) {
		app.logger.InfoContext(ctx, "session state changed",
			"phase", s.Phase.String(),
			"authenticated", s.IsAuthenticated,
		)
	})
	defer unsubscribe()

	if !m.State().IsAuthenticated {
		fmt.Fprintf(app.out, "Not signed in. Provider logins for %s will be picked up.\n", app.clientID)
	}

	if in != nil {
		go func() {
			sc := bufio.NewScanner(in)
			for sc.Scan() {
				m.TouchActivity(ctx, domain.ActivityKeyboard)
			}
		}()
	}

	app.logger.InfoContext(ctx, "hrdesk running", "version", BuildVersion, "client_id", app.clientID)
	<-ctx.Done()
	app.logger.Info("shutdown signal received")
	return nil
}
