package notification

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/edumon-sync/internal/domain"
	"github.com/edumon-sync/internal/pkg/id"
	"go.uber.org/zap"
)

const (
	DefaultInterval = 5 * time.Minute
	DefaultPageSize = 50
)

// DedupPolicy decides which polled notifications count as new.
type DedupPolicy string

const (
	// DedupLastSeen treats every id other than the last-seen one as new.
	DedupLastSeen DedupPolicy = "last-seen"
	// DedupRecent additionally skips ids in the bounded recently-seen list.
	DedupRecent DedupPolicy = "recent"
)

// ParseDedupPolicy falls back to DedupRecent for unknown values.
func ParseDedupPolicy(s string) DedupPolicy {
	if DedupPolicy(strings.ToLower(strings.TrimSpace(s))) == DedupLastSeen {
		return DedupLastSeen
	}
	return DedupRecent
}

// State of the poll loop.
type State string

const (
	StateIdle    State = "idle"
	StatePolling State = "polling"
	StateStopped State = "stopped"
)

type sessionStore interface {
	Token(ctx context.Context) (string, error)
	LastSeenNotificationID(ctx context.Context) (string, error)
	SaveLastSeenNotificationID(ctx context.Context, id string) error
	RecentNotificationIDs(ctx context.Context) ([]string, error)
	RememberNotificationIDs(ctx context.Context, ids ...string) error
	NotificationsEnabled(ctx context.Context) (bool, error)
}

type notificationLister interface {
	ListNotifications(ctx context.Context, token string, page, limit int, unreadOnly bool) (*domain.NotificationPage, error)
}

type EngineConfig struct {
	Interval time.Duration
	PageSize int
	Policy   DedupPolicy
	Metrics  *Metrics
}

// Engine keeps local notifications in step with the backend: a periodic
// poll of unread notifications plus immediate handling of push messages.
type Engine struct {
	store   sessionStore
	api     notificationLister
	display Display
	events  *Events
	log     *zap.Logger
	cfg     EngineConfig
	now     func() time.Time

	mu     sync.Mutex
	state  State
	cancel context.CancelFunc
	done   chan struct{}
}

func NewEngine(store sessionStore, api notificationLister, display Display, events *Events, log *zap.Logger, cfg EngineConfig) *Engine {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}
	if cfg.Policy == "" {
		cfg.Policy = DedupRecent
	}
	if cfg.Metrics == nil {
		cfg.Metrics = NewMetrics(nil)
	}
	if events == nil {
		events = NewEvents()
	}
	return &Engine{
		store:   store,
		api:     api,
		display: display,
		events:  events,
		log:     log,
		cfg:     cfg,
		now:     func() time.Time { return time.Now().UTC() },
		state:   StateIdle,
	}
}

// ── lifecycle ────────────────────────────────────────────────────────────────

// Start launches the poll loop: one cycle right away, then one per interval.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cancel != nil {
		return fmt.Errorf("notification engine already running: %w", domain.ErrConflict)
	}
	if e.state == StateStopped {
		return fmt.Errorf("notification engine stopped: %w", domain.ErrConflict)
	}
	loopCtx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	e.done = make(chan struct{})
	e.state = StateIdle
	go e.run(loopCtx, e.done)
	e.log.Info("notification engine started",
		zap.Duration("interval", e.cfg.Interval),
		zap.String("dedup_policy", string(e.cfg.Policy)),
	)
	return nil
}

// Stop cancels the loop, aborting an in-flight cycle, and waits for it to exit.
// A stopped engine cannot be started again.
func (e *Engine) Stop() {
	e.mu.Lock()
	cancel, done := e.cancel, e.done
	e.cancel, e.done = nil, nil
	e.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
	e.log.Info("notification engine stopped")
}

func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *Engine) setState(s State) {
	e.mu.Lock()
	e.state = s
	e.mu.Unlock()
}

func (e *Engine) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	defer e.setState(StateStopped)

	timer := time.NewTimer(0)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}
		e.cycle(ctx)
		timer.Reset(e.cfg.Interval)
	}
}

func (e *Engine) cycle(ctx context.Context) {
	e.setState(StatePolling)
	defer e.setState(StateIdle)

	shown, err := e.PollOnce(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		e.log.Warn("notification poll failed", zap.Error(err))
		return
	}
	if shown > 0 {
		e.log.Info("notifications displayed", zap.Int("count", shown))
	}
}

// ── poll path ────────────────────────────────────────────────────────────────

// PollOnce runs a single poll cycle and returns how many notifications it
// displayed. Without a stored token it does nothing.
func (e *Engine) PollOnce(ctx context.Context) (int, error) {
	token, err := e.store.Token(ctx)
	if err != nil {
		e.cfg.Metrics.polls.WithLabelValues(pollError).Inc()
		return 0, fmt.Errorf("poll: %w", err)
	}
	if token == "" {
		e.cfg.Metrics.polls.WithLabelValues(pollSkipped).Inc()
		e.log.Debug("poll skipped: no session token")
		return 0, nil
	}
	shown, err := e.poll(ctx, token)
	if err != nil {
		e.cfg.Metrics.polls.WithLabelValues(pollError).Inc()
		return shown, err
	}
	e.cfg.Metrics.polls.WithLabelValues(pollOK).Inc()
	return shown, nil
}

func (e *Engine) poll(ctx context.Context, token string) (int, error) {

	page, err := e.api.ListNotifications(ctx, token, 1, e.cfg.PageSize, true)
	if err != nil {
		return 0, fmt.Errorf("poll: %w", err)
	}
	if len(page.Notifications) == 0 {
		return 0, nil
	}

	lastSeen, err := e.store.LastSeenNotificationID(ctx)
	if err != nil {
		return 0, fmt.Errorf("poll: %w", err)
	}
	recent := map[string]struct{}{}
	if e.cfg.Policy == DedupRecent {
		ids, err := e.store.RecentNotificationIDs(ctx)
		if err != nil {
			return 0, fmt.Errorf("poll: %w", err)
		}
		for _, id := range ids {
			recent[id] = struct{}{}
		}
	}

	now := e.now()
	shown := 0
	listed := make([]string, 0, len(page.Notifications))
	for _, n := range page.Notifications {
		listed = append(listed, n.NotificationID)
		if lastSeen != "" && n.NotificationID == lastSeen {
			continue
		}
		if _, seen := recent[n.NotificationID]; seen {
			continue
		}
		e.show(ctx, domain.FromNotification(n, now))
		shown++
	}

	// A blank id would clear last-seen and re-show everything next cycle.
	if newest := page.Notifications[0].NotificationID; newest != "" {
		if err := e.store.SaveLastSeenNotificationID(ctx, newest); err != nil {
			return shown, fmt.Errorf("poll: %w", err)
		}
	}
	if e.cfg.Policy == DedupRecent {
		// Every listed id is remembered, so one that drops off the last-seen
		// slot is still recognised next cycle.
		if err := e.store.RememberNotificationIDs(ctx, listed...); err != nil {
			return shown, fmt.Errorf("poll: %w", err)
		}
	}
	return shown, nil
}

// ── push path ────────────────────────────────────────────────────────────────

// HandlePush displays an inbound push message. It reports the local form of
// the message and whether it was shown; failures are logged, not returned.
func (e *Engine) HandlePush(ctx context.Context, msg domain.PushMessage) (domain.LocalNotification, bool) {
	enabled, err := e.store.NotificationsEnabled(ctx)
	if err != nil {
		e.log.Warn("push: reading notification setting failed", zap.Error(err))
		enabled = true
	}
	if !enabled {
		e.cfg.Metrics.pushDropped.Inc()
		e.log.Debug("push dropped: notifications disabled")
		return domain.LocalNotification{}, false
	}

	n, backendID := e.normalize(msg)
	e.show(ctx, n)

	if backendID != "" {
		if err := e.store.SaveLastSeenNotificationID(ctx, backendID); err != nil {
			e.log.Warn("push: saving last seen notification failed", zap.String("id", backendID), zap.Error(err))
		}
		if e.cfg.Policy == DedupRecent {
			if err := e.store.RememberNotificationIDs(ctx, backendID); err != nil {
				e.log.Warn("push: remembering notification failed", zap.String("id", backendID), zap.Error(err))
			}
		}
	}
	return n, true
}

// normalize turns a push message into its local form. Data fields win over
// the notification block. The second result is the backend id, if any.
func (e *Engine) normalize(msg domain.PushMessage) (domain.LocalNotification, string) {
	var fallbackTitle, fallbackBody string
	if msg.Notification != nil {
		fallbackTitle, fallbackBody = msg.Notification.Title, msg.Notification.Body
	}
	data := msg.Data
	title := firstNonEmpty(data[domain.PushKeyTitle], fallbackTitle, domain.DefaultPushTitle)
	body := firstNonEmpty(data[domain.PushKeyBody], fallbackBody)
	kind := domain.ParseKind(data[domain.PushKeyKind])
	backendID := data[domain.PushKeyNotificationID]

	displayID := backendID
	if displayID == "" {
		displayID = id.NewLocal()
	}
	return domain.LocalNotification{
		ID:             displayID,
		Title:          title,
		Body:           body,
		Kind:           kind,
		Subtitle:       kind.Subtitle(),
		ReferenceID:    optional(data[domain.PushKeyReferenceID]),
		ReferenceModel: optional(data[domain.PushKeyReferenceModel]),
		Source:         domain.SourcePush,
		ReceivedAt:     e.now(),
	}, backendID
}

// show displays n and publishes it to observers. A display failure is logged.
func (e *Engine) show(ctx context.Context, n domain.LocalNotification) {
	if err := e.display.Show(ctx, n); err != nil {
		e.log.Warn("display notification failed", zap.String("id", n.ID), zap.Error(err))
	}
	e.cfg.Metrics.displayed.WithLabelValues(string(n.Source)).Inc()
	e.events.Publish(n)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
