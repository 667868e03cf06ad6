package alarm

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/borgmon/nudge/pkg/models"
)

const (
	defaultTitle        = "Reminder"
	defaultSoundTimeout = 10 * time.Second
)

// Options configures a Manager. Zero values fall back to defaults; a nil
// Sounder or Notifier disables that channel.
type Options struct {
	Key          string // storage key, defaults to models.DefaultStorageKey
	Title        string // notification title
	Sounder      Sounder
	Notifier     Notifier
	Scheduler    Scheduler
	Now          func() time.Time
	SoundTimeout time.Duration
	OnDelivery   func(Delivery)
}

// Manager manages alarms and their timers
type Manager struct {
	mu sync.Mutex

	storage      Storage
	key          string
	title        string
	sounder      Sounder
	notifier     Notifier
	scheduler    Scheduler
	now          func() time.Time
	soundTimeout time.Duration
	onDelivery   func(Delivery)

	// Map of alarm ID to persisted record, plus insertion order
	alarms map[string]*models.Alarm
	order  []string

	// Map of alarm ID to its armed timer
	live map[string]*liveAlarm

	counter     int
	trigger     func(models.Alarm)
	subscribers map[int]func(models.Alarm)
	nextSub     int
}

// NewManager creates a Manager persisting to storage.
func NewManager(storage Storage, opts Options) *Manager {
	m := &Manager{
		storage:      storage,
		key:          opts.Key,
		title:        opts.Title,
		sounder:      opts.Sounder,
		notifier:     opts.Notifier,
		scheduler:    opts.Scheduler,
		now:          opts.Now,
		soundTimeout: opts.SoundTimeout,
		onDelivery:   opts.OnDelivery,
		alarms:       make(map[string]*models.Alarm),
		live:         make(map[string]*liveAlarm),
		subscribers:  make(map[int]func(models.Alarm)),
	}
	if m.key == "" {
		m.key = models.DefaultStorageKey
	}
	if m.title == "" {
		m.title = defaultTitle
	}
	if m.scheduler == nil {
		m.scheduler = realScheduler{}
	}
	if m.now == nil {
		m.now = time.Now
	}
	if m.soundTimeout <= 0 {
		m.soundTimeout = defaultSoundTimeout
	}
	return m
}

// nextID allocates a new alarm ID. The counter keeps IDs ordered by creation.
func (m *Manager) nextID() string {
	m.counter++
	return fmt.Sprintf("alarm-%d-%s", m.counter, uuid.New().String()[:8])
}

// AddAlarm stores a new active alarm, arms its timer, persists the
// collection and returns the alarm ID.
func (m *Manager) AddAlarm(p models.ParsedAlarm) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if !p.TargetTime.After(now) {
		log.Printf("[ALARM] Rejected %q: target %s is not in the future", p.OriginalText, p.TargetTime.Format(time.RFC3339))
		return "", ErrAlarmInPast
	}

	description := p.Description
	if description == "" {
		description = models.DefaultDescription
	}

	a := &models.Alarm{
		ID:           m.nextID(),
		TargetTime:   p.TargetTime,
		OriginalText: p.OriginalText,
		Description:  description,
		IsActive:     true,
	}
	m.alarms[a.ID] = a
	m.order = append(m.order, a.ID)

	m.armLocked(a, now)
	m.persistLocked()

	log.Printf("[ALARM] Scheduled %s %q for %s", a.ID, a.Description, a.TargetTime.Format("Mon Jan 2, 3:04 PM"))
	return a.ID, nil
}

// armLocked starts the timer for a. Delays that are not strictly positive
// are not scheduled.
func (m *Manager) armLocked(a *models.Alarm, now time.Time) bool {
	delay := a.TargetTime.Sub(now)
	if delay <= 0 {
		log.Printf("[ALARM] Not scheduling %s: delay %v is not positive", a.ID, delay)
		return false
	}

	id := a.ID
	m.live[id] = &liveAlarm{
		id:    id,
		timer: m.scheduler.AfterFunc(delay, func() { m.fire(id) }),
	}
	return true
}

// CancelAlarm stops an active alarm. It returns false if the alarm does not
// exist, is already inactive, or is already firing.
func (m *Manager) CancelAlarm(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.alarms[id]
	if !ok || !a.IsActive {
		return false
	}

	if la, ok := m.live[id]; ok {
		if la.firing {
			return false
		}
		if la.timer != nil {
			la.timer.Stop()
		}
		delete(m.live, id)
	}

	a.IsActive = false
	m.persistLocked()

	log.Printf("[ALARM] Cancelled %s %q", a.ID, a.Description)
	return true
}

// GetAlarm returns a copy of a single alarm.
func (m *Manager) GetAlarm(id string) (models.Alarm, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.alarms[id]
	if !ok {
		return models.Alarm{}, false
	}
	return *a, true
}

// GetActiveAlarms returns the active alarms in insertion order.
func (m *Manager) GetActiveAlarms() []models.Alarm {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.snapshotLocked(true)
}

// GetAllAlarms returns every alarm, active or not, in insertion order.
func (m *Manager) GetAllAlarms() []models.Alarm {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.snapshotLocked(false)
}

func (m *Manager) snapshotLocked(activeOnly bool) []models.Alarm {
	result := make([]models.Alarm, 0, len(m.order))
	for _, id := range m.order {
		a := m.alarms[id]
		if activeOnly && !a.IsActive {
			continue
		}
		result = append(result, *a)
	}
	return result
}

// ClearAllAlarms stops every timer and empties the collection.
func (m *Manager) ClearAllAlarms() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stopTimersLocked()
	m.alarms = make(map[string]*models.Alarm)
	m.order = nil
	m.persistLocked()

	log.Println("[ALARM] Cleared all alarms")
}

// Shutdown stops every timer without touching alarm state, so the next
// LoadFromStorage re-arms them.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stopTimersLocked()
}

func (m *Manager) stopTimersLocked() {
	for id, la := range m.live {
		if la.timer != nil {
			la.timer.Stop()
		}
		delete(m.live, id)
	}
}

// SetAlarmTriggerCallback registers the primary callback run when an alarm
// fires. A later call replaces the earlier callback; nil removes it.
func (m *Manager) SetAlarmTriggerCallback(fn func(models.Alarm)) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.trigger = fn
}

// Subscribe registers an additional fire callback and returns a function
// that removes it.
func (m *Manager) Subscribe(fn func(models.Alarm)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextSub
	m.nextSub++
	m.subscribers[id] = fn

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.subscribers, id)
	}
}

// fire runs the firing sequence for one alarm. Sound and notification are
// best-effort; the callbacks always run and the alarm always ends inactive.
func (m *Manager) fire(id string) {
	m.mu.Lock()
	a, ok := m.alarms[id]
	la := m.live[id]
	if !ok || !a.IsActive || la == nil || la.firing {
		m.mu.Unlock()
		return
	}
	la.firing = true
	la.timer = nil

	snapshot := *a
	trigger := m.trigger
	subscribers := make([]func(models.Alarm), 0, len(m.subscribers))
	for _, fn := range m.subscribers {
		subscribers = append(subscribers, fn)
	}
	m.mu.Unlock()

	log.Printf("[ALARM] Firing %s %q", snapshot.ID, snapshot.Description)
	d := Delivery{AlarmID: id}

	if m.sounder != nil {
		ctx, cancel := context.WithTimeout(context.Background(), m.soundTimeout)
		d.Sound = m.sounder.Play(ctx)
		cancel()
		if d.Sound != nil {
			log.Printf("[ALARM] Sound failed for %s: %v", id, d.Sound)
		}
	}

	if m.notifier != nil {
		d.Notification = m.notifier.Notify(m.title, snapshot.Description)
		if d.Notification != nil {
			log.Printf("[ALARM] Notification failed for %s: %v", id, d.Notification)
		}
	}

	if trigger != nil {
		safeCall(trigger, snapshot)
	}
	for _, fn := range subscribers {
		safeCall(fn, snapshot)
	}

	m.mu.Lock()
	if cur, ok := m.alarms[id]; ok && cur == a {
		a.IsActive = false
		m.persistLocked()
	}
	if cur, ok := m.live[id]; ok && cur == la {
		delete(m.live, id)
	}
	onDelivery := m.onDelivery
	m.mu.Unlock()

	if onDelivery != nil {
		onDelivery(d)
	}
}

// safeCall runs a subscriber, keeping a panic from escaping the timer goroutine.
func safeCall(fn func(models.Alarm), a models.Alarm) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[ALARM] Trigger callback panicked for %s: %v", a.ID, r)
		}
	}()
	fn(a)
}

// persistLocked writes the whole collection under the storage key. Failures
// are logged; memory stays authoritative for the rest of the session.
func (m *Manager) persistLocked() {
	data, err := json.Marshal(m.snapshotLocked(false))
	if err != nil {
		log.Printf("[ALARM] Failed to encode alarms: %v", err)
		return
	}
	if err := m.storage.Set(m.key, string(data)); err != nil {
		log.Printf("[ALARM] Failed to persist alarms: %v", err)
	}
}

// LoadFromStorage replaces the collection with the persisted one. Active
// alarms still in the future get a fresh timer. Everything else is kept as
// inactive history; active alarms whose time passed while the process was
// down are marked inactive.
func (m *Manager) LoadFromStorage() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stopTimersLocked()
	m.alarms = make(map[string]*models.Alarm)
	m.order = nil

	raw, found, err := m.storage.Get(m.key)
	if err != nil {
		return fmt.Errorf("loading alarms: %w", err)
	}
	if !found || raw == "" {
		return nil
	}

	var stored []models.Alarm
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		return fmt.Errorf("decoding alarms: %w", err)
	}

	now := m.now()
	scheduled, missed := 0, 0
	for i := range stored {
		a := stored[i]
		if a.ID == "" {
			continue
		}
		if _, dup := m.alarms[a.ID]; dup {
			continue
		}

		var n int
		if _, err := fmt.Sscanf(a.ID, "alarm-%d-", &n); err == nil && n > m.counter {
			m.counter = n
		}

		m.alarms[a.ID] = &a
		m.order = append(m.order, a.ID)

		if !a.IsActive {
			continue
		}
		if m.armLocked(&a, now) {
			scheduled++
			continue
		}
		a.IsActive = false
		missed++
		log.Printf("[ALARM] Missed %s %q (was due %s)", a.ID, a.Description, a.TargetTime.Format(time.RFC3339))
	}

	if missed > 0 {
		m.persistLocked()
	}

	log.Printf("[ALARM] Restored %d alarms (%d scheduled, %d missed)", len(m.order), scheduled, missed)
	return nil
}
