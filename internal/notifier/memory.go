package notifier

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/julianstephens/habitlit/internal/models"
)

// MemoryCenter is an in-process Center. It backs dry runs and tests.
type MemoryCenter struct {
	mu         sync.Mutex
	pending    map[string]models.ScheduledNotification
	delivered  map[string]models.Delivery
	authorized bool
}

func NewMemoryCenter() *MemoryCenter {
	return &MemoryCenter{
		pending:    make(map[string]models.ScheduledNotification),
		delivered:  make(map[string]models.Delivery),
		authorized: true,
	}
}

// SetAuthorized controls the answer of RequestAuthorization.
func (c *MemoryCenter) SetAuthorized(ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.authorized = ok
}

func (c *MemoryCenter) Add(ctx context.Context, n models.ScheduledNotification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending[n.Key] = n
	return nil
}

func (c *MemoryCenter) RemovePending(_ context.Context, keys []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.pending, k)
	}
	return nil
}

func (c *MemoryCenter) RemoveDelivered(_ context.Context, keys []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.delivered, k)
	}
	return nil
}

func (c *MemoryCenter) RequestAuthorization(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.authorized, nil
}

// Deliver marks a pending reminder as shown. One-shot reminders leave the
// pending set; repeating ones stay registered.
func (c *MemoryCenter) Deliver(key string, at time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	n, ok := c.pending[key]
	if !ok {
		return false
	}
	c.delivered[key] = models.Delivery{Key: key, HabitID: n.HabitID, DeliveredAt: at}
	if n.Trigger != nil && !n.Trigger.Repeats() {
		delete(c.pending, key)
	}
	return true
}

// Pending returns the registered reminders sorted by key.
func (c *MemoryCenter) Pending() []models.ScheduledNotification {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.ScheduledNotification, 0, len(c.pending))
	for _, n := range c.pending {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// Delivered returns the delivery log sorted by key.
func (c *MemoryCenter) Delivered() []models.Delivery {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.Delivery, 0, len(c.delivered))
	for _, d := range c.delivered {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}
