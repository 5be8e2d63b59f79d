// Package conversation implements the per-chat reminder flow:
// idle -> awaiting text -> awaiting time -> idle.
package conversation

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"telegram-reminder-bot/internal/models"
	"telegram-reminder-bot/internal/timeparse"
)

// Scheduler receives finished flows.
type Scheduler interface {
	Schedule(firesAt time.Time, chatID int64, text string) models.JobHandle
}

// Result tells the transport what to show after a transition.
type Result int

const (
	ResultIgnored   Result = iota // message is not part of a flow
	ResultAskText                 // flow (re)started, ask for reminder text
	ResultEmptyText               // blank reminder text, ask again
	ResultAskTime                 // text stored, ask for time
	ResultRetryTime               // time expression rejected, Err holds the reason
	ResultScheduled               // reminder handed off, Job and Text are set
	ResultCancelled               // in-progress flow abandoned
)

type Outcome struct {
	Result Result
	Text   string
	Job    models.JobHandle
	Err    error
}

// Machine owns every ConversationState. Transitions for the same chat are
// serialized; different chats proceed in parallel.
type Machine struct {
	store  Store
	sched  Scheduler
	parser timeparse.Parser
	locks  *keyLocks
	log    zerolog.Logger
}

func NewMachine(store Store, sched Scheduler, parser timeparse.Parser, log zerolog.Logger) *Machine {
	return &Machine{
		store:  store,
		sched:  sched,
		parser: parser,
		locks:  newKeyLocks(),
		log:    log.With().Str("component", "conversation").Logger(),
	}
}

// Start (re)starts the flow regardless of the current step.
func (m *Machine) Start(chatID int64, now time.Time) (Outcome, error) {
	unlock := m.locks.Lock(chatID)
	defer unlock()

	st := models.ConversationState{ChatID: chatID, Step: models.StepAwaitingText, UpdatedAt: now}
	if err := m.store.Save(st); err != nil {
		return Outcome{}, fmt.Errorf("start flow for chat %d: %w", chatID, err)
	}
	m.log.Debug().Int64("chat_id", chatID).Msg("flow started")
	return Outcome{Result: ResultAskText}, nil
}

// Cancel drops an in-progress flow. Already scheduled reminders are not affected.
func (m *Machine) Cancel(chatID int64) (Outcome, error) {
	unlock := m.locks.Lock(chatID)
	defer unlock()

	st, err := m.load(chatID)
	if err != nil {
		return Outcome{}, err
	}
	if st.Step == models.StepIdle {
		return Outcome{Result: ResultIgnored}, nil
	}
	if err := m.store.Delete(chatID); err != nil {
		return Outcome{}, fmt.Errorf("cancel flow for chat %d: %w", chatID, err)
	}
	return Outcome{Result: ResultCancelled}, nil
}

// Input applies an inbound text message to the chat's flow.
func (m *Machine) Input(chatID int64, text string, now time.Time) (Outcome, error) {
	unlock := m.locks.Lock(chatID)
	defer unlock()

	st, err := m.load(chatID)
	if err != nil {
		return Outcome{}, err
	}

	switch st.Step {
	case models.StepAwaitingText:
		if strings.TrimSpace(text) == "" {
			return Outcome{Result: ResultEmptyText}, nil
		}
		st.Step = models.StepAwaitingTime
		st.PendingText = text
		st.UpdatedAt = now
		if err := m.store.Save(st); err != nil {
			return Outcome{}, fmt.Errorf("store reminder text for chat %d: %w", chatID, err)
		}
		return Outcome{Result: ResultAskTime, Text: text}, nil

	case models.StepAwaitingTime:
		return m.schedule(st, text, now)

	default:
		return Outcome{Result: ResultIgnored}, nil
	}
}

// Pick applies a time chosen from a keyboard. Unlike Input it never fills the
// reminder text: outside of the time step the pick is ignored.
func (m *Machine) Pick(chatID int64, expr string, now time.Time) (Outcome, error) {
	unlock := m.locks.Lock(chatID)
	defer unlock()

	st, err := m.load(chatID)
	if err != nil {
		return Outcome{}, err
	}
	if st.Step != models.StepAwaitingTime {
		return Outcome{Result: ResultIgnored}, nil
	}
	return m.schedule(st, expr, now)
}

func (m *Machine) schedule(st models.ConversationState, expr string, now time.Time) (Outcome, error) {
	chatID := st.ChatID
	firesAt, perr := m.parser.Parse(expr, now)
	if perr != nil {
		st.UpdatedAt = now
		if err := m.store.Save(st); err != nil {
			m.log.Warn().Err(err).Int64("chat_id", chatID).Msg("touch state")
		}
		return Outcome{Result: ResultRetryTime, Text: st.PendingText, Err: perr}, nil
	}
	// Reset first: a job never exists while its flow is still open.
	if err := m.store.Delete(chatID); err != nil {
		return Outcome{}, fmt.Errorf("reset flow for chat %d: %w", chatID, err)
	}
	job := m.sched.Schedule(firesAt, chatID, st.PendingText)
	m.log.Info().
		Int64("chat_id", chatID).
		Str("job_id", job.ID).
		Time("fires_at", job.FiresAt).
		Msg("reminder scheduled")
	return Outcome{Result: ResultScheduled, Text: st.PendingText, Job: job}, nil
}

// State returns a snapshot of the chat's conversation state.
func (m *Machine) State(chatID int64) (models.ConversationState, error) {
	unlock := m.locks.Lock(chatID)
	defer unlock()
	return m.load(chatID)
}

// Sweep evicts states not touched within ttl and returns how many were removed.
func (m *Machine) Sweep(now time.Time, ttl time.Duration) (int, error) {
	all, err := m.store.All()
	if err != nil {
		return 0, fmt.Errorf("list conversations: %w", err)
	}

	removed := 0
	for _, candidate := range all {
		if now.Sub(candidate.UpdatedAt) < ttl {
			continue
		}
		unlock := m.locks.Lock(candidate.ChatID)
		st, ok, err := m.store.Load(candidate.ChatID)
		if err == nil && ok && now.Sub(st.UpdatedAt) >= ttl {
			err = m.store.Delete(candidate.ChatID)
			if err == nil {
				removed++
			}
		}
		unlock()
		if err != nil {
			return removed, fmt.Errorf("evict chat %d: %w", candidate.ChatID, err)
		}
	}
	return removed, nil
}

func (m *Machine) load(chatID int64) (models.ConversationState, error) {
	st, ok, err := m.store.Load(chatID)
	if err != nil {
		return models.ConversationState{}, fmt.Errorf("load state for chat %d: %w", chatID, err)
	}
	if !ok {
		return models.ConversationState{ChatID: chatID, Step: models.StepIdle}, nil
	}
	return st, nil
}
