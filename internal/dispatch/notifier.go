package dispatch

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/greenbasket/backend/internal/models"
	"gorm.io/gorm"
)

// Notifier decouples delivery dispatch from checkout: tasks are queued after
// the order transaction commits and handled by a single worker, so a partner
// outage can only ever affect the delivery_status field, never the order.
type Notifier struct {
	db      *gorm.DB
	creator TaskCreator
	log     *slog.Logger

	tasks chan Task
	wg    sync.WaitGroup
}

func NewNotifier(db *gorm.DB, creator TaskCreator, log *slog.Logger) *Notifier {
	n := &Notifier{
		db:      db,
		creator: creator,
		log:     log,
		tasks:   make(chan Task, 64),
	}
	n.wg.Add(1)
	go n.run()
	return n
}

// Enqueue never blocks checkout: when the queue is full the task is dropped
// and the group keeps its "Assignment Failed" marker.
func (n *Notifier) Enqueue(task Task) {
	select {
	case n.tasks <- task:
	default:
		n.log.Warn("dispatch queue full, dropping task", "order_id", task.OrderGroupID)
		n.markGroup(task.OrderGroupID, models.DeliveryAssignmentFailed, "")
	}
}

// Close stops accepting tasks and waits for the worker to drain the queue.
func (n *Notifier) Close() {
	close(n.tasks)
	n.wg.Wait()
}

func (n *Notifier) run() {
	defer n.wg.Done()
	for task := range n.tasks {
		n.handle(task)
	}
}

func (n *Notifier) handle(task Task) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	taskID, err := n.creator.CreateTask(ctx, task)
	if err != nil {
		n.log.Warn("delivery dispatch failed", "order_id", task.OrderGroupID, "error", err)
		n.markGroup(task.OrderGroupID, models.DeliveryAssignmentFailed, "")
		return
	}

	n.log.Info("delivery task assigned", "order_id", task.OrderGroupID, "task_id", taskID)
	n.markGroup(task.OrderGroupID, models.DeliveryAssigned, taskID)
}

func (n *Notifier) markGroup(groupID, status, taskID string) {
	updates := map[string]interface{}{"delivery_status": status}
	if taskID != "" {
		updates["delivery_task_id"] = taskID
	}
	if err := n.db.Model(&models.Order{}).Where("order_id = ?", groupID).Updates(updates).Error; err != nil {
		n.log.Error("failed to record dispatch outcome", "order_id", groupID, "error", err)
	}
}
