package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"studybrain/internal/app"
	"studybrain/internal/config"
	"studybrain/internal/planner"
	"studybrain/pkg/types"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	groupID := flag.String("group", "", "study group to open")
	timerDay := flag.String("day", "", "planner day to run a study timer for")
	timerMinutes := flag.Int("minutes", 0, "study timer length in minutes")
	configPath := flag.String("config", os.Getenv("STUDYBRAIN_CONFIG_FILE"), "optional JSON config file")
	flag.Parse()

	// .env is optional; environment and defaults still apply without it.
	_ = godotenv.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer logger.Sync()

	cfg := config.LoadWithPrecedence(*configPath)

	application, err := app.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}
	defer application.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-signalCh
		logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
		cancel()
	}()

	if *timerDay != "" {
		return runTimer(ctx, application, logger, *timerDay, *timerMinutes)
	}
	if *groupID == "" {
		return runDashboard(ctx, application)
	}
	return runCollab(ctx, application, *groupID)
}

// runTimer counts a study period down in the terminal and logs it as study
// time once it completes.
func runTimer(ctx context.Context, application *app.App, logger *zap.Logger, day string, minutes int) error {
	identity, err := application.Identity(ctx)
	if err != nil {
		return err
	}

	timer := planner.NewTimer(logger)
	defer timer.Stop()

	done := make(chan struct{})
	timer.OnComplete = func(day string) {
		fmt.Printf("study session for %s complete\n", day)
		close(done)
	}

	if err := timer.Start(day, minutes*60); err != nil {
		return fmt.Errorf("failed to start timer: %w", err)
	}
	fmt.Printf("studying for %s: %d minutes\n", day, minutes)

	select {
	case <-done:
		entry := &types.StudyTimeEntry{Subject: day, Minutes: minutes, LoggedAt: time.Now()}
		if err := application.API.LogStudyTime(ctx, identity.UserID, entry); err != nil {
			fmt.Printf("! could not log study time: %v\n", err)
		}
		return nil
	case <-ctx.Done():
		state := timer.State()
		fmt.Printf("stopped with %d seconds left\n", state.SecondsLeft)
		return nil
	}
}

// runDashboard loads the dashboard once and prints each widget, degraded
// individually when its request failed.
func runDashboard(ctx context.Context, application *app.App) error {
	identity, err := application.Identity(ctx)
	if err != nil {
		return err
	}

	d := application.Dashboard().Load(ctx, identity.UserID)

	if d.StudyTime.Err != nil {
		fmt.Printf("study time: unavailable (%v)\n", d.StudyTime.Err)
	} else {
		total := 0
		for _, e := range d.StudyTime.Entries {
			total += e.Minutes
		}
		fmt.Printf("study time: %d entries, %d minutes\n", len(d.StudyTime.Entries), total)
	}

	if d.Homework.Err != nil {
		fmt.Printf("homework: unavailable (%v)\n", d.Homework.Err)
	} else {
		fmt.Printf("homework: %d items\n", len(d.Homework.Items))
	}

	if d.Assessments.Err != nil {
		fmt.Printf("assessments: unavailable (%v)\n", d.Assessments.Err)
	} else {
		fmt.Printf("assessments: %d available\n", len(d.Assessments.Assessments))
	}

	if d.Subscription.Err != nil {
		fmt.Printf("subscription: unavailable (%v)\n", d.Subscription.Err)
	} else if d.Subscription.Status != nil {
		fmt.Printf("subscription: %s (active=%v)\n", d.Subscription.Status.Plan, d.Subscription.Status.Active)
	}

	return nil
}

// runCollab opens the group collaboration session and bridges it to the
// terminal: incoming messages and notifications print to stdout, stdin
// lines are sent as chat.
func runCollab(ctx context.Context, application *app.App, groupID string) error {
	collab, err := application.OpenCollab(ctx, groupID)
	if err != nil {
		return fmt.Errorf("failed to open group %s: %w", groupID, err)
	}
	defer collab.Close()

	collab.SetHooks(
		func(text string) { fmt.Printf("* %s\n", text) },
		func(msg types.ChatMessage) { fmt.Printf("[%s] %s\n", msg.Username, msg.Message) },
	)

	grp := collab.Group()
	fmt.Printf("joined room for %q (%d/%d members, you are %s)\n",
		grp.Name, grp.CurrentMembers, grp.MemberLimit, collab.Membership())

	for _, msg := range collab.Messages() {
		fmt.Printf("[%s] %s\n", msg.Username, msg.Message)
	}

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			if line == "/leave" {
				return collab.Leave(ctx, true)
			}
			if err := collab.SendChat(ctx, line); err != nil {
				fmt.Printf("! send failed: %v\n", err)
			}

		case <-ctx.Done():
			return nil
		}
	}
}
