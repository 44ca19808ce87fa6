package cmd

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/hcostelha/scribe/internal/agent"
	"github.com/hcostelha/scribe/internal/events"
	"github.com/hcostelha/scribe/internal/provider"
	"github.com/hcostelha/scribe/internal/pubsub"
	"github.com/hcostelha/scribe/internal/session"
	"github.com/hcostelha/scribe/internal/telemetry"
	"github.com/hcostelha/scribe/internal/tools"
	"github.com/hcostelha/scribe/internal/tracking"
)

const maxTitleLength = 80

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Send a one-shot prompt to the agent",
		Long: `Send a prompt to the agent and stream the response. Every tool
invocation the agent makes is recorded in the session's event log.`,
		RunE: runPrompt,
	}

	cmd.Flags().StringP("prompt", "p", "", "The prompt to send (required)")
	cmd.Flags().String("session", "", "Resume an existing session by ID")
	_ = cmd.MarkFlagRequired("prompt") //nolint:errcheck // Flag is defined above

	return cmd
}

//nolint:gocyclo // Command wiring is linear but branchy
func runPrompt(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	prompt, err := cmd.Flags().GetString("prompt")
	if err != nil {
		return fmt.Errorf("getting prompt flag: %w", err)
	}
	resumeID, err := cmd.Flags().GetString("session")
	if err != nil {
		return fmt.Errorf("getting session flag: %w", err)
	}

	database, err := openDatabase(cmd)
	if err != nil {
		return err
	}
	defer database.Close() //nolint:errcheck // Close error on exit path is ignorable

	hub := pubsub.NewHub()
	defer hub.Shutdown()

	sessionStore := session.NewSQLiteStore(database.Conn())
	eventStore := telemetry.NewSQLiteStore(database.Conn())
	tracker := tracking.NewTracker()
	recorder := telemetry.NewRecorder(eventStore, tracker, hub)

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting working directory: %w", err)
	}

	var sess *session.Session
	if resumeID != "" {
		sess, err = sessionStore.Get(ctx, resumeID)
		if err != nil {
			return fmt.Errorf("resuming session %q: %w", resumeID, err)
		}
		if err := recorder.RestoreSession(ctx, sess.ID); err != nil {
			return fmt.Errorf("restoring session state: %w", err)
		}
	} else {
		sess, err = sessionStore.Create(ctx, uuid.NewString(), sessionTitle(prompt), cwd)
		if err != nil {
			return fmt.Errorf("creating session: %w", err)
		}
		hub.Session.Publish(pubsub.EventCreated,
			events.NewSessionCreatedEvent(sess.ID, sess.Title))
	}
	defer func() {
		recorder.EndSession(sess.ID)
		hub.Session.Publish(pubsub.EventCompleted, events.NewSessionEndedEvent(sess.ID))
	}()

	providerCfg, err := provider.FromEnv()
	if err != nil {
		return err
	}
	model, err := provider.BuildModel(ctx, providerCfg)
	if err != nil {
		return fmt.Errorf("building model: %w", err)
	}

	registry := tools.NewDefaultRegistry(tools.RegistryConfig{
		WorkingDir:    cwd,
		OnFileCreated: recorder.FileCreated,
	})

	ag := agent.New(agent.Config{
		Model:        model,
		SystemPrompt: agent.DefaultSystemPrompt,
		Tools:        registry.All(),
		WorkingDir:   cwd,
		Hub:          hub,
		Recorder:     recorder,
	})
	ag.Sessions().CreateWithID(sess.ID, sess.Title)

	callbacks := agent.StreamCallbacks{
		OnTextDelta: func(text string) error {
			fmt.Print(text)
			return nil
		},
		OnToolCall: func(tc agent.ToolCall) error {
			fmt.Fprintf(os.Stderr, "\n* %s\n", tc.Name)
			return nil
		},
		OnToolResult: func(tr agent.ToolResult) error {
			if tr.IsError {
				fmt.Fprintf(os.Stderr, "  ! %s failed: %s\n", tr.Name, tr.Content)
			}
			return nil
		},
	}

	sendErr := ag.Send(ctx, prompt, agent.SendOptions{SessionID: sess.ID}, callbacks)
	fmt.Println()

	if err := sessionStore.Touch(ctx, sess.ID); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to update session: %v\n", err)
	}

	if sendErr != nil {
		return sendErr
	}

	fmt.Fprintf(os.Stderr, "\nSession: %s (run 'scribe stats %s' for tool usage)\n", sess.ID, sess.ID)
	return nil
}

// sessionTitle derives a session title from the first prompt.
func sessionTitle(prompt string) string {
	if len(prompt) <= maxTitleLength {
		return prompt
	}
	return prompt[:maxTitleLength-3] + "..."
}
