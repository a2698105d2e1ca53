// Package memory provides thread-safe in-memory implementations of the repository
// interfaces. It backs tests and the offline simulate command. Lookups that miss
// return mongo.ErrNoDocuments so callers behave exactly as against MongoDB.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ArowuTest/subscriber-draw-backend/internal/models"
	"github.com/ArowuTest/subscriber-draw-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

var (
	_ repositories.SubscriberRepository   = (*SubscriberRepository)(nil)
	_ repositories.DrawRepository         = (*DrawRepository)(nil)
	_ repositories.WinnerRepository       = (*WinnerRepository)(nil)
	_ repositories.SystemConfigRepository = (*SystemConfigRepository)(nil)
	_ repositories.NotificationRepository = (*NotificationRepository)(nil)
	_ repositories.AdminUserRepository    = (*AdminUserRepository)(nil)
)

// Store bundles one of each repository
type Store struct {
	Subscribers   *SubscriberRepository
	Draws         *DrawRepository
	Winners       *WinnerRepository
	SystemConfig  *SystemConfigRepository
	Notifications *NotificationRepository
	AdminUsers    *AdminUserRepository
}

// NewStore creates an empty in-memory store
func NewStore() *Store {
	return &Store{
		Subscribers:   NewSubscriberRepository(),
		Draws:         NewDrawRepository(),
		Winners:       NewWinnerRepository(),
		SystemConfig:  NewSystemConfigRepository(),
		Notifications: NewNotificationRepository(),
		AdminUsers:    NewAdminUserRepository(),
	}
}

// Subscribers -----------------------------------------------------------------

// SubscriberRepository keeps subscribers in insertion order
type SubscriberRepository struct {
	mu    sync.RWMutex
	order []primitive.ObjectID
	byID  map[primitive.ObjectID]models.Subscriber
}

// NewSubscriberRepository creates an empty repository
func NewSubscriberRepository() *SubscriberRepository {
	return &SubscriberRepository{byID: make(map[primitive.ObjectID]models.Subscriber)}
}

// Create inserts a new subscriber, assigning an ID when it has none
func (r *SubscriberRepository) Create(_ context.Context, subscriber *models.Subscriber) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if subscriber.ID.IsZero() {
		subscriber.ID = primitive.NewObjectID()
	}
	if _, exists := r.byID[subscriber.ID]; exists {
		return fmt.Errorf("subscriber %s already exists", subscriber.ID.Hex())
	}
	now := time.Now().UTC()
	subscriber.CreatedAt = now
	subscriber.UpdatedAt = now
	r.byID[subscriber.ID] = cloneSubscriber(*subscriber)
	r.order = append(r.order, subscriber.ID)
	return nil
}

// FindByID finds a subscriber by ID
func (r *SubscriberRepository) FindByID(_ context.Context, id primitive.ObjectID) (*models.Subscriber, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byID[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	out := cloneSubscriber(s)
	return &out, nil
}

// FindByEmail finds a subscriber by email
func (r *SubscriberRepository) FindByEmail(_ context.Context, email string) (*models.Subscriber, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, id := range r.order {
		if s := r.byID[id]; s.Email == email {
			out := cloneSubscriber(s)
			return &out, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

// FindAll returns every subscriber in insertion order
func (r *SubscriberRepository) FindAll(_ context.Context) ([]*models.Subscriber, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*models.Subscriber, 0, len(r.order))
	for _, id := range r.order {
		s := cloneSubscriber(r.byID[id])
		out = append(out, &s)
	}
	return out, nil
}

// CountActive counts subscribers that are currently subscribed
func (r *SubscriberRepository) CountActive(_ context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var n int64
	for _, s := range r.byID {
		if s.IsSubscribed {
			n++
		}
	}
	return n, nil
}

// Update replaces a stored subscriber
func (r *SubscriberRepository) Update(_ context.Context, subscriber *models.Subscriber) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[subscriber.ID]; !ok {
		return mongo.ErrNoDocuments
	}
	subscriber.UpdatedAt = time.Now().UTC()
	r.byID[subscriber.ID] = cloneSubscriber(*subscriber)
	return nil
}

// UpdateLastWonAt records when a subscriber last won
func (r *SubscriberRepository) UpdateLastWonAt(_ context.Context, id primitive.ObjectID, wonAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byID[id]
	if !ok {
		return mongo.ErrNoDocuments
	}
	s.LastWonAt = &wonAt
	s.UpdatedAt = time.Now().UTC()
	r.byID[id] = s
	return nil
}

func cloneSubscriber(s models.Subscriber) models.Subscriber {
	if s.LastWonAt != nil {
		t := *s.LastWonAt
		s.LastWonAt = &t
	}
	return s
}

// Draws -----------------------------------------------------------------------

// DrawRepository enforces one draw per cycle like the unique Mongo index
type DrawRepository struct {
	mu    sync.RWMutex
	draws map[primitive.ObjectID]models.Draw
	cycle map[string]primitive.ObjectID
	// CreateErr, when set, is returned by Create
	CreateErr error
}

// NewDrawRepository creates an empty repository
func NewDrawRepository() *DrawRepository {
	return &DrawRepository{
		draws: make(map[primitive.ObjectID]models.Draw),
		cycle: make(map[string]primitive.ObjectID),
	}
}

// EnsureIndexes is a no-op; the cycle map already enforces uniqueness
func (r *DrawRepository) EnsureIndexes(context.Context) error { return nil }

// Create inserts a new draw, rejecting a second draw for the same cycle
func (r *DrawRepository) Create(_ context.Context, draw *models.Draw) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.CreateErr != nil {
		return r.CreateErr
	}
	if _, exists := r.cycle[draw.CycleID]; exists {
		return fmt.Errorf("%w: %s", repositories.ErrDuplicateCycle, draw.CycleID)
	}
	if draw.ID.IsZero() {
		draw.ID = primitive.NewObjectID()
	}
	now := time.Now().UTC()
	draw.CreatedAt = now
	draw.UpdatedAt = now
	r.draws[draw.ID] = cloneDraw(*draw)
	r.cycle[draw.CycleID] = draw.ID
	return nil
}

// FindByID finds a draw by ID
func (r *DrawRepository) FindByID(_ context.Context, id primitive.ObjectID) (*models.Draw, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.draws[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	out := cloneDraw(d)
	return &out, nil
}

// FindByCycleID finds the draw recorded for a cycle
func (r *DrawRepository) FindByCycleID(ctx context.Context, cycleID string) (*models.Draw, error) {
	r.mu.RLock()
	id, ok := r.cycle[cycleID]
	r.mu.RUnlock()
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	return r.FindByID(ctx, id)
}

// FindAll returns a page of draws, newest first
func (r *DrawRepository) FindAll(_ context.Context, page, limit int) ([]*models.Draw, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	all := make([]*models.Draw, 0, len(r.draws))
	for _, d := range r.draws {
		c := cloneDraw(d)
		all = append(all, &c)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].DrawDate.After(all[j].DrawDate) })
	if page > 0 && limit > 0 {
		start := (page - 1) * limit
		if start >= len(all) {
			return []*models.Draw{}, nil
		}
		end := start + limit
		if end > len(all) {
			end = len(all)
		}
		all = all[start:end]
	}
	return all, nil
}

// Count returns the number of stored draws
func (r *DrawRepository) Count(context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.draws)), nil
}

func cloneDraw(d models.Draw) models.Draw {
	d.Allocations = append([]models.DrawAllocation(nil), d.Allocations...)
	d.ExecutionLog = append([]string(nil), d.ExecutionLog...)
	return d
}

// Winners ---------------------------------------------------------------------

// WinnerRepository stores winners in insertion order
type WinnerRepository struct {
	mu      sync.RWMutex
	winners []models.Winner
}

// NewWinnerRepository creates an empty repository
func NewWinnerRepository() *WinnerRepository {
	return &WinnerRepository{}
}

// CreateMany inserts winners in one batch
func (r *WinnerRepository) CreateMany(_ context.Context, winners []*models.Winner) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	for _, w := range winners {
		w.ID = primitive.NewObjectID()
		w.CreatedAt = now
		w.UpdatedAt = now
		r.winners = append(r.winners, *w)
	}
	return nil
}

// FindByDrawID finds the winners of a draw
func (r *WinnerRepository) FindByDrawID(_ context.Context, drawID primitive.ObjectID) ([]*models.Winner, error) {
	return r.filter(func(w models.Winner) bool { return w.DrawID == drawID }), nil
}

// FindBySubscriberID finds every win of a subscriber
func (r *WinnerRepository) FindBySubscriberID(_ context.Context, subscriberID string) ([]*models.Winner, error) {
	return r.filter(func(w models.Winner) bool { return w.SubscriberID == subscriberID }), nil
}

// MarkNotified stamps the notification time on a winner
func (r *WinnerRepository) MarkNotified(_ context.Context, cycleID, subscriberID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.winners {
		if r.winners[i].CycleID == cycleID && r.winners[i].SubscriberID == subscriberID {
			t := at
			r.winners[i].NotifiedAt = &t
		}
	}
	return nil
}

// DeleteByDrawID removes the winners of a draw
func (r *WinnerRepository) DeleteByDrawID(_ context.Context, drawID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.winners[:0]
	for _, w := range r.winners {
		if w.DrawID != drawID {
			kept = append(kept, w)
		}
	}
	r.winners = kept
	return nil
}

func (r *WinnerRepository) filter(keep func(models.Winner) bool) []*models.Winner {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []*models.Winner{}
	for _, w := range r.winners {
		if keep(w) {
			c := w
			out = append(out, &c)
		}
	}
	return out
}

// System config ---------------------------------------------------------------

// SystemConfigRepository keeps config values by key
type SystemConfigRepository struct {
	mu      sync.RWMutex
	configs map[string]models.SystemConfig
}

// NewSystemConfigRepository creates an empty repository
func NewSystemConfigRepository() *SystemConfigRepository {
	return &SystemConfigRepository{configs: make(map[string]models.SystemConfig)}
}

// FindByKey finds a system config by key
func (r *SystemConfigRepository) FindByKey(_ context.Context, key string) (*models.SystemConfig, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.configs[key]
	if !ok {
		return nil, fmt.Errorf("failed to find system config by key %s: %w", key, mongo.ErrNoDocuments)
	}
	return &c, nil
}

// UpsertByKey creates or replaces the value stored under key
func (r *SystemConfigRepository) UpsertByKey(_ context.Context, key string, value interface{}, description string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	c, ok := r.configs[key]
	if !ok {
		c = models.SystemConfig{ID: primitive.NewObjectID(), Key: key, CreatedAt: now}
	}
	c.Value = value
	c.Description = description
	c.UpdatedAt = now
	r.configs[key] = c
	return nil
}

// GetDrawSettings returns the stored draw settings
func (r *SystemConfigRepository) GetDrawSettings(ctx context.Context) (*models.DrawSettings, error) {
	c, err := r.FindByKey(ctx, models.DrawSettingsKey)
	if err != nil {
		return nil, err
	}
	switch v := c.Value.(type) {
	case models.DrawSettings:
		return &v, nil
	case *models.DrawSettings:
		out := *v
		return &out, nil
	}
	return nil, fmt.Errorf("draw settings stored as %T", c.Value)
}

// Notifications ---------------------------------------------------------------

// NotificationRepository stores notifications in insertion order
type NotificationRepository struct {
	mu            sync.RWMutex
	notifications []models.Notification
}

// NewNotificationRepository creates an empty repository
func NewNotificationRepository() *NotificationRepository {
	return &NotificationRepository{}
}

// Create inserts a new notification
func (r *NotificationRepository) Create(_ context.Context, notification *models.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	notification.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	notification.CreatedAt = now
	notification.UpdatedAt = now
	r.notifications = append(r.notifications, *notification)
	return nil
}

// UpdateStatus sets the delivery status of a notification
func (r *NotificationRepository) UpdateStatus(_ context.Context, id primitive.ObjectID, status string, statusMessage string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.notifications {
		if r.notifications[i].ID == id {
			r.notifications[i].Status = status
			r.notifications[i].StatusMessage = statusMessage
			r.notifications[i].UpdatedAt = time.Now().UTC()
			return nil
		}
	}
	return mongo.ErrNoDocuments
}

// FindByCycleID finds the notifications sent for a cycle
func (r *NotificationRepository) FindByCycleID(_ context.Context, cycleID string) ([]*models.Notification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []*models.Notification{}
	for _, n := range r.notifications {
		if n.CycleID == cycleID {
			c := n
			out = append(out, &c)
		}
	}
	return out, nil
}

// All returns every notification recorded so far
func (r *NotificationRepository) All() []models.Notification {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]models.Notification(nil), r.notifications...)
}

// Admin users -----------------------------------------------------------------

// AdminUserRepository keeps admin accounts keyed by id
type AdminUserRepository struct {
	mu    sync.RWMutex
	users map[primitive.ObjectID]models.AdminUser
}

// NewAdminUserRepository creates an empty repository
func NewAdminUserRepository() *AdminUserRepository {
	return &AdminUserRepository{users: make(map[primitive.ObjectID]models.AdminUser)}
}

// Create inserts a new admin user
func (r *AdminUserRepository) Create(_ context.Context, adminUser *models.AdminUser) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	adminUser.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	adminUser.CreatedAt = now
	adminUser.UpdatedAt = now
	r.users[adminUser.ID] = *adminUser
	return nil
}

// FindByEmail finds an admin user by email
func (r *AdminUserRepository) FindByEmail(_ context.Context, email string) (*models.AdminUser, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if u.Email == email {
			c := u
			return &c, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

// FindByID finds an admin user by ID
func (r *AdminUserRepository) FindByID(_ context.Context, id primitive.ObjectID) (*models.AdminUser, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	return &u, nil
}
