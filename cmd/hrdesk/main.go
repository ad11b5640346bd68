package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aussiebroadwan/hrdesk/internal/hrdesk/app"
	"github.com/aussiebroadwan/hrdesk/pkg/hrsdk"
)

const usage = `usage: hrdesk <command> [flags]

commands:
  login    -email -password        sign in with email and password
  azure    [-wait 5m]              sign in with the identity provider
  status                           show the signed-in user
  logout                           sign out and clear the local session
  types                            list justification types
  justify  -type -reason [-at | -start -end | -from -to]
                                   file a justification request
  run                              keep the session alive, stdin lines count as activity
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := app.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	application, err := app.New(cfg)
	if err != nil {
		log.Fatalf("failed to initialize application: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = run(ctx, application, os.Args[1], os.Args[2:])
	stop()
	_ = application.Close()

	if err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintln(os.Stderr, hrsdk.FormatError(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, a *app.Application, cmd string, args []string) error {
	fs := flag.NewFlagSet(cmd, flag.ExitOnError)

	switch cmd {
	case "login":
		email := fs.String("email", "", "account email")
		password := fs.String("password", os.Getenv("HRDESK_PASSWORD"), "account password (default $HRDESK_PASSWORD)")
		_ = fs.Parse(args)
		if *email == "" || *password == "" {
			return errors.New("login needs -email and -password")
		}
		return a.Login(ctx, *email, *password)

	case "azure":
		wait := fs.Duration("wait", 5*time.Minute, "how long to wait for the provider login")
		_ = fs.Parse(args)
		return a.Azure(ctx, *wait)

	case "status":
		_ = fs.Parse(args)
		return a.Status(ctx)

	case "logout":
		_ = fs.Parse(args)
		return a.Logout(ctx)

	case "types":
		_ = fs.Parse(args)
		return a.Types(ctx)

	case "justify":
		var in app.JustifyInput
		fs.StringVar(&in.Type, "type", "", "justification type id, code or name")
		fs.StringVar(&in.Reason, "reason", "", "reason for the request")
		fs.StringVar(&in.At, "at", "", "missed punch, YYYY-MM-DDTHH:MM")
		fs.StringVar(&in.Start, "start", "", "start time, YYYY-MM-DDTHH:MM")
		fs.StringVar(&in.End, "end", "", "end time on the same day, YYYY-MM-DDTHH:MM")
		fs.StringVar(&in.From, "from", "", "first day, YYYY-MM-DD")
		fs.StringVar(&in.To, "to", "", "last day, YYYY-MM-DD (default: same as -from)")
		_ = fs.Parse(args)
		return a.Justify(ctx, in)

	case "run":
		_ = fs.Parse(args)
		return a.Run(ctx, os.Stdin)

	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}
