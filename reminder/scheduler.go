// Package reminder arms one-shot deferred alerts. Tasks live only in process
// memory: a restart drops every pending reminder.
package reminder

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"crm-api/domain"
)

var (
	// ErrInvalidDelay marks a non-positive delay. Callers treat it as a user
	// cancellation and stay silent.
	ErrInvalidDelay = errors.New("reminder delay must be a positive number of minutes")
	// ErrPermissionDenied marks a missing alert permission grant; surfaced to
	// the user, reminder not armed.
	ErrPermissionDenied = errors.New("notification permission denied")
)

// Notifier is the external notification subsystem boundary.
type Notifier interface {
	// PermissionGranted reports whether alerts may be raised for the user.
	PermissionGranted(ctx context.Context, userID string) (bool, error)
	// Raise delivers an alert with the given title and body.
	Raise(ctx context.Context, userID, title, body string) error
}

// Task is one armed reminder.
type Task struct {
	ID     string    `json:"id"`
	UserID string    `json:"-"`
	FireAt time.Time `json:"fireAt"`
	Title  string    `json:"title"`
	Body   string    `json:"body"`
}

// Scheduler arms and fires reminder tasks. Tasks are independent: arming one
// never affects another, and there is no cancel API for a pending task.
type Scheduler struct {
	notifier     Notifier
	logger       *log.Logger
	raiseTimeout time.Duration

	mu      sync.Mutex
	stopped bool
	pending map[string]*time.Timer
}

// New creates a Scheduler over the given notifier.
func New(notifier Notifier, logger *log.Logger) *Scheduler {
	if notifier == nil {
		panic("reminder.New: notifier is nil")
	}
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Scheduler{
		notifier:     notifier,
		logger:       logger,
		raiseTimeout: 30 * time.Second,
		pending:      make(map[string]*time.Timer),
	}
}

// Schedule validates the delay, checks the alert permission and arms a
// one-shot task carrying the client's name, email and phone.
func (s *Scheduler) Schedule(ctx context.Context, userID string, client domain.Client, minutes int) (Task, error) {
	return s.scheduleIn(ctx, userID, client, minutes, time.Duration(minutes)*time.Minute)
}

// maxDelayMinutes keeps the minutes-to-duration conversion from overflowing
// into a negative delay that would fire immediately.
const maxDelayMinutes = math.MaxInt64 / int64(time.Minute)

func (s *Scheduler) scheduleIn(ctx context.Context, userID string, client domain.Client, minutes int, delay time.Duration) (Task, error) {
	if minutes <= 0 || int64(minutes) > maxDelayMinutes {
		return Task{}, ErrInvalidDelay
	}

	granted, err := s.notifier.PermissionGranted(ctx, userID)
	if err != nil {
		// An unavailable permission backend counts as denied.
		s.logger.WithFields(log.Fields{"user": userID, "error": err.Error()}).Warn("reminder.permission.unavailable")
		return Task{}, ErrPermissionDenied
	}
	if !granted {
		return Task{}, ErrPermissionDenied
	}

	task := Task{
		ID:     uuid.NewString(),
		UserID: userID,
		FireAt: time.Now().Add(delay),
		Title:  "Reminder: " + client.DisplayName(),
		Body:   alertBody(client),
	}

	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return Task{}, errors.New("scheduler stopped")
	}
	s.pending[task.ID] = time.AfterFunc(delay, func() { s.fire(task) })
	s.mu.Unlock()

	s.logger.WithFields(log.Fields{
		"user":    userID,
		"task":    task.ID,
		"fire_at": task.FireAt.Format(time.RFC3339),
		"minutes": minutes,
	}).Info("reminder.armed")
	return task, nil
}

func (s *Scheduler) fire(task Task) {
	s.mu.Lock()
	delete(s.pending, task.ID)
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), s.raiseTimeout)
	defer cancel()
	if err := s.notifier.Raise(ctx, task.UserID, task.Title, task.Body); err != nil {
		s.logger.WithFields(log.Fields{"user": task.UserID, "task": task.ID, "error": err.Error()}).Error("reminder.raise.failed")
		return
	}
	s.logger.WithFields(log.Fields{"user": task.UserID, "task": task.ID}).Info("reminder.fired")
}

// Pending reports the number of armed, not yet fired tasks.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Stop drops every pending timer. Armed tasks are lost, matching the
// process-restart semantics.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	for id, timer := range s.pending {
		timer.Stop()
		delete(s.pending, id)
	}
}

func alertBody(client domain.Client) string {
	body := client.Email
	if client.Phone != "" {
		if body != "" {
			body += " - " + client.Phone
		} else {
			body = client.Phone
		}
	}
	return body
}
