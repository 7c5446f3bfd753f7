package services

import (
	"context"
	"log"
	"sync"
	"time"

	"adaptlyAPI/internal/identity"
	"adaptlyAPI/internal/metrics"
	"adaptlyAPI/internal/notification"
)

type PushNotificationProvider interface {
	SendPush(ctx context.Context, tokens []notification.DeviceToken, title, body string, data map[string]any) error
}

// PushTargetSource resolves where an identity's pushes go.
type PushTargetSource interface {
	PushTargets(ctx context.Context, id identity.Identity) ([]notification.DeviceToken, error)
}

const (
	maxPushAttempts = 3
	queueTimeout    = time.Second
)

// NotificationDispatcher delivers notifications through a worker pool so
// that the request path never waits on a push provider.
type NotificationDispatcher struct {
	targets      PushTargetSource
	pushProvider PushNotificationProvider
	workers      int
	retryDelay   time.Duration
	jobQueue     chan *DispatchJob
	stopChan     chan struct{}
	stopOnce     sync.Once
	wg           sync.WaitGroup
}

type DispatchJob struct {
	Identity     identity.Identity
	Notification *notification.Notification
	Attempt      int
}

func NewNotificationDispatcher(targets PushTargetSource, workers int) *NotificationDispatcher {
	if workers <= 0 {
		workers = 5
	}
	dispatcher := &NotificationDispatcher{
		targets:    targets,
		workers:    workers,
		retryDelay: 30 * time.Second,
		jobQueue:   make(chan *DispatchJob, 100),
		stopChan:   make(chan struct{}),
	}

	dispatcher.startWorkers()
	return dispatcher
}

// SetPushProvider installs the delivery backend. Without one, notifications
// are dropped after being logged.
func (d *NotificationDispatcher) SetPushProvider(provider PushNotificationProvider) {
	d.pushProvider = provider
}

func (d *NotificationDispatcher) startWorkers() {
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.worker(i)
	}
}

func (d *NotificationDispatcher) worker(id int) {
	defer d.wg.Done()
	for {
		select {
		case job := <-d.jobQueue:
			d.processJob(job)
		case <-d.stopChan:
			return
		}
	}
}

func (d *NotificationDispatcher) processJob(job *DispatchJob) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	notif := job.Notification
	if d.pushProvider == nil {
		log.Printf("Skipping push %s: no provider configured", notif.ID)
		metrics.Pushes.WithLabelValues("skipped").Inc()
		return
	}

	tokens, err := d.targets.PushTargets(ctx, job.Identity)
	if err != nil {
		log.Printf("Push targets lookup failed for %s: %v", job.Identity.ID, err)
		d.retry(job)
		return
	}
	if len(tokens) == 0 {
		metrics.Pushes.WithLabelValues("skipped").Inc()
		return
	}

	if err := d.pushProvider.SendPush(ctx, tokens, notif.Title, notif.Body, notif.Data); err != nil {
		log.Printf("Push failed for %s: %v", job.Identity.ID, err)
		d.retry(job)
		return
	}
	metrics.Pushes.WithLabelValues("sent").Inc()
}

// retry requeues a failed job after retryDelay, up to maxPushAttempts.
func (d *NotificationDispatcher) retry(job *DispatchJob) {
	job.Attempt++
	if job.Attempt >= maxPushAttempts {
		log.Printf("Giving up on notification %s after %d attempts", job.Notification.ID, job.Attempt)
		metrics.Pushes.WithLabelValues("failed").Inc()
		return
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		timer := time.NewTimer(d.retryDelay)
		defer timer.Stop()
		select {
		case <-timer.C:
			d.enqueue(job)
		case <-d.stopChan:
		}
	}()
}

// Notify queues n for id. It satisfies Notifier.
func (d *NotificationDispatcher) Notify(ctx context.Context, id identity.Identity, n *notification.Notification) {
	d.enqueue(&DispatchJob{Identity: id, Notification: n})
}

func (d *NotificationDispatcher) enqueue(job *DispatchJob) {
	select {
	case d.jobQueue <- job:
	case <-d.stopChan:
		log.Printf("Dropping notification %s: dispatcher stopped", job.Notification.ID)
	case <-time.After(queueTimeout):
		log.Printf("Failed to queue notification %s: queue full", job.Notification.ID)
		metrics.Pushes.WithLabelValues("dropped").Inc()
	}
}

// Stop the dispatcher gracefully
func (d *NotificationDispatcher) Stop() {
	d.stopOnce.Do(func() {
		log.Println("Stopping notification dispatcher...")
		close(d.stopChan)
		d.wg.Wait()
		log.Println("Notification dispatcher stopped")
	})
}

// LogPushProvider writes pushes to the log instead of delivering them.
type LogPushProvider struct{}

func (LogPushProvider) SendPush(ctx context.Context, tokens []notification.DeviceToken, title, body string, data map[string]any) error {
	log.Printf("PUSH: Sending to %d devices: %s - %s", len(tokens), title, body)
	return nil
}
