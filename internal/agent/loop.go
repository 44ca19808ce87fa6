package agent

import (
	"context"
	"sync"
	"time"

	"charm.land/fantasy"
	"github.com/google/uuid"

	"github.com/hcostelha/scribe/internal/events"
	"github.com/hcostelha/scribe/internal/pubsub"
	"github.com/hcostelha/scribe/internal/tools"
)

// DefaultAgent implements the Agent interface using Fantasy.
type DefaultAgent struct { //nolint:govet // fieldalignment: preserving logical field order
	model          fantasy.LanguageModel
	systemPrompt   string
	tools          []fantasy.AgentTool
	workingDir     string
	sessions       *SessionStore
	activeRequests map[string]context.CancelFunc
	hub            *pubsub.Hub
	recorder       ToolRecorder
	mu             sync.RWMutex
}

// ToolRecorder is the recording surface the agent drives. Begin is
// called before each tool executes; Complete after its result arrives.
type ToolRecorder interface {
	Begin(ctx context.Context, sessionID, toolName string, input []byte) string
	Complete(ctx context.Context, sessionID, eventID string, success bool, errorMessage string)
}

// New creates a new agent with the given configuration.
func New(cfg Config) *DefaultAgent {
	a := &DefaultAgent{
		model:          cfg.Model,
		systemPrompt:   cfg.SystemPrompt,
		tools:          cfg.Tools,
		workingDir:     cfg.WorkingDir,
		sessions:       NewSessionStore(),
		activeRequests: make(map[string]context.CancelFunc),
		hub:            cfg.Hub,
		recorder:       cfg.Recorder,
	}
	return a
}

// Send sends a prompt and streams the response.
//
//nolint:gocyclo // Complex function handling streaming, tools, and history management
func (a *DefaultAgent) Send(ctx context.Context, prompt string, opts SendOptions, callbacks StreamCallbacks) error {
	if prompt == "" {
		return ErrEmptyPrompt
	}

	sessionID := opts.SessionID
	if sessionID == "" {
		session := a.sessions.Current()
		sessionID = session.ID
	}

	if a.IsBusy(sessionID) {
		return ErrSessionBusy
	}

	ctx, cancel := context.WithCancel(ctx)
	a.setActiveRequest(sessionID, cancel)
	defer func() {
		a.clearActiveRequest(sessionID)
		cancel()
	}()

	// Add context values for tools
	ctx = tools.WithSessionID(ctx, sessionID)
	ctx = tools.WithWorkingDir(ctx, a.workingDir)

	userMsg := Message{
		ID:        uuid.New().String(),
		Role:      RoleUser,
		Content:   prompt,
		CreatedAt: time.Now(),
	}
	a.sessions.AddMessage(sessionID, userMsg)

	fantasyOpts := []fantasy.AgentOption{
		fantasy.WithSystemPrompt(a.systemPrompt),
	}
	if len(a.tools) > 0 {
		fantasyOpts = append(fantasyOpts, fantasy.WithTools(a.tools...))
	}

	fagent := fantasy.NewAgent(a.model, fantasyOpts...)

	streamOpts := fantasy.AgentStreamCall{
		Prompt:   prompt,
		Messages: a.buildHistory(sessionID),
	}

	// Anthropic requires max tokens to be set.
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 8192
	}
	streamOpts.MaxOutputTokens = &maxTokens
	if opts.Temperature != nil {
		streamOpts.Temperature = opts.Temperature
	}

	var currentAssistant *Message
	var assistantContent string
	var pendingToolResults []Message // saved AFTER the assistant message

	var messageID string

	// Maps each tool call to the event the recorder opened for it.
	recorderEvents := make(map[string]string)
	var recorderMu sync.Mutex

	streamOpts.OnTextDelta = func(id, text string) error {
		if currentAssistant == nil {
			messageID = uuid.New().String()
			currentAssistant = &Message{
				ID:        messageID,
				Role:      RoleAssistant,
				CreatedAt: time.Now(),
			}
		}
		assistantContent += text
		currentAssistant.Content = assistantContent

		if a.hub != nil {
			a.hub.Agent.Publish(pubsub.EventProgress,
				events.NewTextDeltaEvent(sessionID, messageID, text))
		}

		if callbacks.OnTextDelta != nil {
			return callbacks.OnTextDelta(text)
		}
		return nil
	}

	streamOpts.OnToolCall = func(tc fantasy.ToolCallContent) error {
		if currentAssistant == nil {
			messageID = uuid.New().String()
			currentAssistant = &Message{
				ID:        messageID,
				Role:      RoleAssistant,
				CreatedAt: time.Now(),
			}
		}

		toolCall := ToolCall{
			ID:    tc.ToolCallID,
			Name:  tc.ToolName,
			Input: tc.Input,
		}
		currentAssistant.ToolCalls = append(currentAssistant.ToolCalls, toolCall)

		// Open the telemetry record before the tool runs. The recorder
		// publishes its own Tool broker events.
		if a.recorder != nil {
			eventID := a.recorder.Begin(ctx, sessionID, tc.ToolName, []byte(tc.Input))
			recorderMu.Lock()
			recorderEvents[tc.ToolCallID] = eventID
			recorderMu.Unlock()
		}

		if a.hub != nil {
			a.hub.Agent.Publish(pubsub.EventProgress,
				events.NewToolCallEvent(sessionID, messageID, events.ToolCallInfo{
					ID:    tc.ToolCallID,
					Name:  tc.ToolName,
					Input: tc.Input,
				}))
		}

		if callbacks.OnToolCall != nil {
			return callbacks.OnToolCall(toolCall)
		}
		return nil
	}

	streamOpts.OnToolResult = func(result fantasy.ToolResultContent) error {
		tr := ToolResult{
			ToolCallID: result.ToolCallID,
			Name:       result.ToolName,
		}

		//nolint:exhaustive // Media type handled by default case
		switch result.Result.GetType() {
		case fantasy.ToolResultContentTypeText:
			if r, ok := fantasy.AsToolResultOutputType[fantasy.ToolResultOutputContentText](result.Result); ok {
				tr.Content = r.Text
			}
		case fantasy.ToolResultContentTypeError:
			if r, ok := fantasy.AsToolResultOutputType[fantasy.ToolResultOutputContentError](result.Result); ok {
				tr.Content = r.Error.Error()
				tr.IsError = true
			}
		default:
			tr.Content = "[Unsupported tool result type]"
		}

		toolMsg := Message{
			ID:          uuid.New().String(),
			Role:        RoleTool,
			ToolResults: []ToolResult{tr},
			CreatedAt:   time.Now(),
		}
		pendingToolResults = append(pendingToolResults, toolMsg)

		// Close out the telemetry record opened in OnToolCall.
		if a.recorder != nil {
			recorderMu.Lock()
			eventID, ok := recorderEvents[result.ToolCallID]
			if ok {
				delete(recorderEvents, result.ToolCallID)
			}
			recorderMu.Unlock()

			if ok {
				errMsg := ""
				if tr.IsError {
					errMsg = tr.Content
				}
				a.recorder.Complete(ctx, sessionID, eventID, !tr.IsError, errMsg)
			}
		}

		if a.hub != nil {
			a.hub.Agent.Publish(pubsub.EventProgress,
				events.NewToolResultEvent(sessionID, messageID, events.ToolResultInfo{
					ToolCallID: tr.ToolCallID,
					Name:       tr.Name,
					Content:    tr.Content,
					IsError:    tr.IsError,
				}))
		}

		if callbacks.OnToolResult != nil {
			return callbacks.OnToolResult(tr)
		}
		return nil
	}

	_, err := fagent.Stream(ctx, streamOpts)

	// Save assistant message FIRST (tool results reference its tool calls)
	if currentAssistant != nil && (currentAssistant.Content != "" || len(currentAssistant.ToolCalls) > 0) {
		a.sessions.AddMessage(sessionID, *currentAssistant)
	}
	for _, toolMsg := range pendingToolResults {
		a.sessions.AddMessage(sessionID, toolMsg)
	}

	if err != nil {
		if a.hub != nil {
			a.hub.Agent.Publish(pubsub.EventFailed,
				events.NewErrorEvent(sessionID, messageID, err))
		}
		if callbacks.OnError != nil {
			callbacks.OnError(err)
		}
		return err
	}

	if a.hub != nil {
		a.hub.Agent.Publish(pubsub.EventCompleted,
			events.NewCompleteEvent(sessionID, messageID))
	}

	if callbacks.OnComplete != nil {
		return callbacks.OnComplete()
	}
	return nil
}

// buildHistory converts session messages to Fantasy messages.
func (a *DefaultAgent) buildHistory(sessionID string) []fantasy.Message {
	messages := a.sessions.GetMessages(sessionID)
	if len(messages) == 0 {
		return nil
	}

	// Don't include the last message (current user input)
	messages = messages[:len(messages)-1]

	var history []fantasy.Message
	for _, msg := range messages {
		switch msg.Role {
		case RoleUser:
			history = append(history, fantasy.NewUserMessage(msg.Content))

		case RoleAssistant:
			var parts []fantasy.MessagePart
			if msg.Content != "" {
				parts = append(parts, fantasy.TextPart{Text: msg.Content})
			}
			for _, tc := range msg.ToolCalls {
				parts = append(parts, fantasy.ToolCallPart{
					ToolCallID: tc.ID,
					ToolName:   tc.Name,
					Input:      tc.Input,
				})
			}
			if len(parts) > 0 {
				history = append(history, fantasy.Message{
					Role:    fantasy.MessageRoleAssistant,
					Content: parts,
				})
			}

		case RoleTool:
			for _, tr := range msg.ToolResults {
				var output fantasy.ToolResultOutputContent
				if tr.IsError {
					output = fantasy.ToolResultOutputContentError{
						Error: NewError(tr.Content),
					}
				} else {
					output = fantasy.ToolResultOutputContentText{
						Text: tr.Content,
					}
				}
				history = append(history, fantasy.Message{
					Role: fantasy.MessageRoleTool,
					Content: []fantasy.MessagePart{
						fantasy.ToolResultPart{
							ToolCallID: tr.ToolCallID,
							Output:     output,
						},
					},
				})
			}

		case RoleSystem:
			// System prompt is set on the fantasy agent, skip in history
		}
	}

	return history
}

// SetSystemPrompt sets the system prompt.
func (a *DefaultAgent) SetSystemPrompt(prompt string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.systemPrompt = prompt
}

// SetTools sets the available tools.
func (a *DefaultAgent) SetTools(toolList []fantasy.AgentTool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.tools = toolList
}

// History returns the conversation history for a session.
func (a *DefaultAgent) History(sessionID string) []Message {
	return a.sessions.GetMessages(sessionID)
}

// Clear clears the conversation history for a session.
func (a *DefaultAgent) Clear(sessionID string) {
	a.sessions.ClearMessages(sessionID)
}

// Cancel cancels any ongoing request for a session.
func (a *DefaultAgent) Cancel(sessionID string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if cancel, ok := a.activeRequests[sessionID]; ok {
		cancel()
		delete(a.activeRequests, sessionID)
	}
}

// IsBusy returns true if the agent is processing a request for the session.
func (a *DefaultAgent) IsBusy(sessionID string) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	_, ok := a.activeRequests[sessionID]
	return ok
}

// Sessions returns the session store.
func (a *DefaultAgent) Sessions() *SessionStore {
	return a.sessions
}

func (a *DefaultAgent) setActiveRequest(sessionID string, cancel context.CancelFunc) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.activeRequests[sessionID] = cancel
}

func (a *DefaultAgent) clearActiveRequest(sessionID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.activeRequests, sessionID)
}
