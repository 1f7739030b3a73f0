package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/balancesheet/balancesheet/internal/alerts"
	jobmetrics "github.com/balancesheet/balancesheet/internal/jobs"
)

// SeenAlertsKey is the redis set holding the alert ids raised by the previous scan.
const SeenAlertsKey = "alerts:seen"

// InventoryAlerts recomputes the current inventory alerts.
type InventoryAlerts interface {
	Inventory(ctx context.Context) ([]alerts.Alert, error)
}

// ScanResult summarises one scan.
type ScanResult struct {
	Active   int
	Raised   []alerts.Alert
	Resolved int
}

// AlertScanJob runs the inventory alert engine outside the request path and reports
// alerts that were not present in the previous run.
type AlertScanJob struct {
	Alerts  InventoryAlerts
	Redis   *redis.Client
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewAlertScanJob initialises the alert scan handler.
func NewAlertScanJob(source InventoryAlerts, client *redis.Client, logger *slog.Logger, metrics *jobmetrics.Metrics) *AlertScanJob {
	return &AlertScanJob{Alerts: source, Redis: client, Logger: logger, Metrics: metrics}
}

// Handle executes TaskAlertScan.
func (j *AlertScanJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil {
		return errors.New("alert scan: handler not configured")
	}
	payload := AlertScanPayload{NotifyNewOnly: true}
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return fmt.Errorf("alert scan: decode payload: %v: %w", err, asynq.SkipRetry)
		}
	}
	_, err := j.Run(ctx, payload)
	return err
}

// Run performs one scan and replaces the seen set with the current alert ids.
func (j *AlertScanJob) Run(ctx context.Context, payload AlertScanPayload) (result ScanResult, err error) {
	tracker := j.Metrics.Track(TaskAlertScan)
	defer func() { err = tracker.End(err) }()

	start := time.Now()
	logger := j.logger().With(slog.Bool("notify_new_only", payload.NotifyNewOnly))

	if j.Alerts == nil {
		return ScanResult{}, errors.New("alert scan: alert source not configured")
	}
	current, err := j.Alerts.Inventory(ctx)
	if err != nil {
		logger.Error("scan failed", slog.Any("error", err))
		return ScanResult{}, fmt.Errorf("alert scan: compute alerts: %w", err)
	}

	seen, err := j.loadSeen(ctx)
	if err != nil {
		return ScanResult{}, err
	}

	result.Active = len(current)
	currentIDs := make(map[string]struct{}, len(current))
	for _, a := range current {
		currentIDs[a.ID] = struct{}{}
		if _, ok := seen[a.ID]; ok && payload.NotifyNewOnly {
			continue
		}
		result.Raised = append(result.Raised, a)
	}
	for id := range seen {
		if _, ok := currentIDs[id]; !ok {
			result.Resolved++
		}
	}

	for _, a := range result.Raised {
		level := slog.LevelInfo
		if a.Type == alerts.TypeCritical {
			level = slog.LevelWarn
		}
		logger.Log(ctx, level, "inventory alert raised",
			slog.String("alert_id", a.ID),
			slog.String("type", string(a.Type)),
			slog.String("product_id", a.ProductID),
			slog.String("message", a.Message),
		)
	}
	for typ, n := range alerts.CountByType(result.Raised) {
		j.Metrics.AddRaisedAlerts(string(typ), n)
	}
	active := alerts.CountByType(current)
	for _, typ := range []alerts.Type{alerts.TypeCritical, alerts.TypeWarning, alerts.TypeInfo} {
		j.Metrics.SetActiveAlerts(string(typ), active[typ])
	}

	if err := j.storeSeen(ctx, current); err != nil {
		return result, err
	}

	logger.Info("completed alert scan",
		slog.Int("active", result.Active),
		slog.Int("raised", len(result.Raised)),
		slog.Int("resolved", result.Resolved),
		slog.Duration("duration", time.Since(start)),
	)
	return result, nil
}

func (j *AlertScanJob) loadSeen(ctx context.Context) (map[string]struct{}, error) {
	seen := make(map[string]struct{})
	if j.Redis == nil {
		return seen, nil
	}
	ids, err := j.Redis.SMembers(ctx, SeenAlertsKey).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("alert scan: load seen alerts: %w", err)
	}
	for _, id := range ids {
		seen[id] = struct{}{}
	}
	return seen, nil
}

func (j *AlertScanJob) storeSeen(ctx context.Context, current []alerts.Alert) error {
	if j.Redis == nil {
		return nil
	}
	members := make([]any, 0, len(current))
	for _, a := range current {
		members = append(members, a.ID)
	}
	_, err := j.Redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, SeenAlertsKey)
		if len(members) > 0 {
			pipe.SAdd(ctx, SeenAlertsKey, members...)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("alert scan: store seen alerts: %w", err)
	}
	return nil
}

func (j *AlertScanJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
