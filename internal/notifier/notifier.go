// Package notifier manages checkpoint sessions: durable notices in the local
// store, mirrored to the catalog manager as checkin, notice, and checkout
// notifications.
package notifier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"satchel/internal/logging"
	"satchel/internal/registry"
	"satchel/internal/services"
	"satchel/internal/store"
)

// API is the slice of the registry client the notifier sends through.
type API interface {
	PostCheckinArticle(ctx context.Context, article registry.CheckinArticle) (string, error)
	PostCheckin(ctx context.Context, checkin registry.Checkin) (string, error)
	PostNotice(ctx context.Context, notice registry.Notice) error
}

// Factory builds notifiers bound to one attempt and point.
type Factory struct {
	store   *store.Store
	api     API
	enabled bool
	logger  *slog.Logger
}

// NewFactory validates the collaborators up front. The api may only be nil
// when notifications are disabled.
func NewFactory(st *store.Store, api API, enabled bool, logger *slog.Logger) (*Factory, error) {
	if st == nil {
		return nil, services.Wrap(services.ErrConfiguration, "notifier", "new factory",
			"store is required", nil)
	}
	if enabled && api == nil {
		return nil, services.Wrap(services.ErrConfiguration, "notifier", "new factory",
			"registry api is required when notifications are enabled", nil)
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Factory{store: st, api: api, enabled: enabled, logger: logger}, nil
}

// For returns the notifier for an attempt's checkpoint at the given point,
// creating the checkpoint on first use.
func (f *Factory) For(ctx context.Context, attempt *store.Attempt, point store.Point) (*Notifier, error) {
	checkpoint, err := f.store.GetCheckpoint(ctx, attempt.ID, point)
	if errors.Is(err, services.ErrNotFound) {
		checkpoint, err = f.store.CreateCheckpoint(ctx, attempt.ID, point)
	}
	if err != nil {
		return nil, err
	}

	pkg, err := f.store.GetPackage(ctx, attempt.PackageID)
	if err != nil {
		return nil, err
	}

	return &Notifier{
		store:      f.store,
		api:        f.api,
		enabled:    f.enabled,
		logger:     f.logger.With(logging.String(logging.FieldComponent, "notifier")),
		checkpoint: checkpoint,
		attempt:    attempt,
		pkg:        pkg,
	}, nil
}

// Notifier drives one checkpoint session.
type Notifier struct {
	store      *store.Store
	api        API
	enabled    bool
	logger     *slog.Logger
	checkpoint *store.Checkpoint
	attempt    *store.Attempt
	pkg        *store.ArticlePackage
}

// Checkpoint exposes the bound checkpoint.
func (n *Notifier) Checkpoint() *store.Checkpoint {
	return n.checkpoint
}

// Start opens the checkpoint session. Checkin checkpoints additionally
// announce the attempt to the catalog manager, and every point mirrors a
// serv_begin marker to the notice stream.
func (n *Notifier) Start(ctx context.Context) (Delivery, error) {
	if err := n.store.StartCheckpoint(ctx, n.checkpoint); err != nil {
		return DeliverySkipped, err
	}
	delivery := DeliverySkipped
	if n.checkpoint.Point == store.PointCheckin {
		delivery = n.sendCheckin(ctx)
	}
	return combine(delivery, n.mirrorNotice(ctx, "", store.StatusServiceBegin, "")), nil
}

// Tell records a stage outcome under the checkpoint and mirrors it to the
// catalog manager.
func (n *Notifier) Tell(ctx context.Context, stage string, status store.Status, message string) (Delivery, error) {
	if _, err := n.store.AddNotice(ctx, n.checkpoint.ID, stage, status, message); err != nil {
		return DeliverySkipped, err
	}
	return n.mirrorNotice(ctx, stage, status, message), nil
}

// End closes the checkpoint session. Checkout checkpoints additionally send
// the final checkout notification; every point mirrors a serv_end marker.
func (n *Notifier) End(ctx context.Context) (Delivery, error) {
	if err := n.store.EndCheckpoint(ctx, n.checkpoint); err != nil {
		return DeliverySkipped, err
	}
	delivery := DeliverySkipped
	if n.checkpoint.Point == store.PointCheckout {
		delivery = n.mirrorNotice(ctx, "checkout", store.StatusOK, "checkout finished")
	}
	return combine(delivery, n.mirrorNotice(ctx, "", store.StatusServiceEnd, "")), nil
}

// mirrorNotice sends one notice to the catalog manager, best effort. The
// notice references the attempt's checkin, so nothing can be mirrored
// before the checkin phase reported its uri.
func (n *Notifier) mirrorNotice(ctx context.Context, stage string, status store.Status, message string) Delivery {
	if !n.enabled {
		return DeliverySkipped
	}
	if n.attempt.CheckinURI == nil {
		n.logger.Warn("notice not mirrored: attempt has no checkin uri",
			logging.Int64(logging.FieldAttemptID, n.attempt.ID),
			logging.String(logging.FieldStage, stage))
		return DeliveryFailed
	}

	err := n.api.PostNotice(ctx, registry.Notice{
		Checkin:    *n.attempt.CheckinURI,
		Stage:      stage,
		Checkpoint: string(n.checkpoint.Point),
		Message:    message,
		Status:     string(status),
	})
	if err != nil {
		n.logger.Error("mirror notice", logging.Error(err),
			logging.Int64(logging.FieldAttemptID, n.attempt.ID),
			logging.String(logging.FieldStage, stage))
		return DeliveryFailed
	}
	return DeliveryDelivered
}

// combine folds two delivery outcomes into the one the caller reports: a
// failure anywhere wins over a delivery, which wins over a skip.
func combine(a, b Delivery) Delivery {
	if b > a {
		return b
	}
	return a
}

// sendCheckin announces the attempt in two phases: the article identity
// first, then the checkin referencing it. The checkin uri comes back on the
// attempt for later notices.
func (n *Notifier) sendCheckin(ctx context.Context) Delivery {
	if !n.enabled {
		return DeliverySkipped
	}

	articleURI, err := n.api.PostCheckinArticle(ctx, registry.CheckinArticle{
		PackageRef:     fmt.Sprintf("%d", n.pkg.ID),
		ArticleTitle:   n.pkg.ArticleTitle,
		JournalTitle:   n.pkg.JournalTitle,
		IssueLabel:     issueLabel(n.pkg),
		PrintISSN:      n.pkg.PrintISSN,
		ElectronicISSN: n.pkg.ElectronicISSN,
	})
	if err != nil {
		n.logger.Error("register checkin article", logging.Error(err),
			logging.Int64(logging.FieldAttemptID, n.attempt.ID))
		return DeliveryFailed
	}

	checkinURI, err := n.api.PostCheckin(ctx, registry.Checkin{
		AttemptRef:  fmt.Sprintf("%d", n.attempt.ID),
		PackageName: filepath.Base(n.attempt.FilePath),
		UploadedAt:  n.attempt.StartedAt.UTC().Format(time.RFC3339),
		Article:     articleURI,
		Submitter:   n.attempt.Submitter,
	})
	if err != nil {
		n.logger.Error("register checkin", logging.Error(err),
			logging.Int64(logging.FieldAttemptID, n.attempt.ID))
		return DeliveryFailed
	}

	n.attempt.CheckinURI = &checkinURI
	if err := n.store.UpdateAttempt(ctx, n.attempt); err != nil {
		n.logger.Error("persist checkin uri", logging.Error(err),
			logging.Int64(logging.FieldAttemptID, n.attempt.ID))
		return DeliveryFailed
	}
	return DeliveryDelivered
}

func issueLabel(pkg *store.ArticlePackage) string {
	label := ""
	if pkg.Volume != "" {
		label += "v" + pkg.Volume
	}
	if pkg.Number != "" {
		label += "n" + pkg.Number
	}
	if pkg.SupplVolume != "" {
		label += "sv" + pkg.SupplVolume
	}
	if pkg.SupplNumber != "" {
		label += "sn" + pkg.SupplNumber
	}
	return label
}
