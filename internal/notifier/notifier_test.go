package notifier_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"satchel/internal/notifier"
	"satchel/internal/registry"
	"satchel/internal/store"
)

type fakeAPI struct {
	checkinArticles []registry.CheckinArticle
	checkins        []registry.Checkin
	notices         []registry.Notice

	failCheckinArticle bool
	failCheckin        bool
	failNotice         bool
}

func (f *fakeAPI) PostCheckinArticle(_ context.Context, article registry.CheckinArticle) (string, error) {
	if f.failCheckinArticle {
		return "", errors.New("manager down")
	}
	f.checkinArticles = append(f.checkinArticles, article)
	return "/api/v1/checkins_articles/9/", nil
}

func (f *fakeAPI) PostCheckin(_ context.Context, checkin registry.Checkin) (string, error) {
	if f.failCheckin {
		return "", errors.New("manager down")
	}
	f.checkins = append(f.checkins, checkin)
	return "/api/v1/checkins/77/", nil
}

func (f *fakeAPI) PostNotice(_ context.Context, notice registry.Notice) error {
	if f.failNotice {
		return errors.New("manager down")
	}
	f.notices = append(f.notices, notice)
	return nil
}

func openStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.OpenPath(filepath.Join(t.TempDir(), "satchel.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func seedAttempt(t *testing.T, s *store.Store) *store.Attempt {
	t.Helper()
	ctx := context.Background()

	pkg, err := s.FindOrCreatePackage(ctx, store.ArticlePackage{
		ArticleTitle: "On the care of things",
		JournalTitle: "Revista de Saude Publica",
		Year:         "2013",
		Volume:       "29",
		Number:       "3",
		PrintISSN:    "0102-6720",
	})
	require.NoError(t, err)

	attempt := &store.Attempt{
		PackageID: pkg.ID,
		Checksum:  "abc123",
		FilePath:  "/var/spool/satchel/0102-6720-rsp-29-03.zip",
		Submitter: "someone@example.org",
		IsValid:   true,
	}
	require.NoError(t, s.CreateAttempt(ctx, attempt))
	return attempt
}

func newFactory(t *testing.T, s *store.Store, api notifier.API, enabled bool) *notifier.Factory {
	t.Helper()
	factory, err := notifier.NewFactory(s, api, enabled, nil)
	require.NoError(t, err)
	return factory
}

func TestStartOnCheckinSendsTwoPhaseNotification(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	api := &fakeAPI{}
	attempt := seedAttempt(t, s)

	n, err := newFactory(t, s, api, true).For(ctx, attempt, store.PointCheckin)
	require.NoError(t, err)

	delivery, err := n.Start(ctx)
	require.NoError(t, err)
	require.Equal(t, notifier.DeliveryDelivered, delivery)

	require.Len(t, api.checkinArticles, 1)
	require.Equal(t, "On the care of things", api.checkinArticles[0].ArticleTitle)
	require.Equal(t, "v29n3", api.checkinArticles[0].IssueLabel)

	require.Len(t, api.checkins, 1)
	require.Equal(t, "/api/v1/checkins_articles/9/", api.checkins[0].Article)
	require.Equal(t, "0102-6720-rsp-29-03.zip", api.checkins[0].PackageName)
	require.Equal(t, "someone@example.org", api.checkins[0].Submitter)

	got, err := s.GetAttempt(ctx, attempt.ID)
	require.NoError(t, err)
	require.NotNil(t, got.CheckinURI)
	require.Equal(t, "/api/v1/checkins/77/", *got.CheckinURI)

	// the serv_begin marker follows the checkin posts so it can reference
	// the fresh checkin uri
	require.Len(t, api.notices, 1)
	require.Equal(t, registry.Notice{
		Checkin:    "/api/v1/checkins/77/",
		Checkpoint: "checkin",
		Status:     "serv_begin",
	}, api.notices[0])

	cp, err := s.GetCheckpoint(ctx, attempt.ID, store.PointCheckin)
	require.NoError(t, err)
	require.True(t, cp.Active())
}

func TestStartCheckinArticleFailureStopsSecondPhase(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	api := &fakeAPI{failCheckinArticle: true}
	attempt := seedAttempt(t, s)

	n, err := newFactory(t, s, api, true).For(ctx, attempt, store.PointCheckin)
	require.NoError(t, err)

	delivery, err := n.Start(ctx)
	require.NoError(t, err)
	require.Equal(t, notifier.DeliveryFailed, delivery)
	require.Empty(t, api.checkins)
	require.Empty(t, api.notices)

	got, err := s.GetAttempt(ctx, attempt.ID)
	require.NoError(t, err)
	require.Nil(t, got.CheckinURI)

	// the checkpoint itself still started
	cp, err := s.GetCheckpoint(ctx, attempt.ID, store.PointCheckin)
	require.NoError(t, err)
	require.True(t, cp.Active())
}

func TestDisabledNotificationsSkipRemoteButPersistLocally(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	attempt := seedAttempt(t, s)

	n, err := newFactory(t, s, nil, false).For(ctx, attempt, store.PointValidation)
	require.NoError(t, err)

	delivery, err := n.Start(ctx)
	require.NoError(t, err)
	require.Equal(t, notifier.DeliverySkipped, delivery)

	delivery, err = n.Tell(ctx, "journal", store.StatusError, "unknown journal")
	require.NoError(t, err)
	require.Equal(t, notifier.DeliverySkipped, delivery)

	notices, err := s.Notices(ctx, n.Checkpoint().ID)
	require.NoError(t, err)
	require.Len(t, notices, 1)
	require.Equal(t, "journal", notices[0].Stage)
}

func TestTellOnValidationMirrorsNotice(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	api := &fakeAPI{}
	attempt := seedAttempt(t, s)

	uri := "/api/v1/checkins/77/"
	attempt.CheckinURI = &uri
	require.NoError(t, s.UpdateAttempt(ctx, attempt))

	n, err := newFactory(t, s, api, true).For(ctx, attempt, store.PointValidation)
	require.NoError(t, err)

	delivery, err := n.Tell(ctx, "journal", store.StatusWarning, "no funding group")
	require.NoError(t, err)
	require.Equal(t, notifier.DeliveryDelivered, delivery)

	require.Len(t, api.notices, 1)
	require.Equal(t, registry.Notice{
		Checkin:    uri,
		Stage:      "journal",
		Checkpoint: "validation",
		Message:    "no funding group",
		Status:     "warning",
	}, api.notices[0])
}

func TestTellWithoutCheckinURIFailsDeliveryButKeepsNotice(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	api := &fakeAPI{}
	attempt := seedAttempt(t, s)

	n, err := newFactory(t, s, api, true).For(ctx, attempt, store.PointValidation)
	require.NoError(t, err)

	delivery, err := n.Tell(ctx, "journal", store.StatusError, "boom")
	require.NoError(t, err)
	require.Equal(t, notifier.DeliveryFailed, delivery)
	require.Empty(t, api.notices)

	notices, err := s.Notices(ctx, n.Checkpoint().ID)
	require.NoError(t, err)
	require.Len(t, notices, 1)
}

func TestTellOnCheckinMirrorsNotice(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	api := &fakeAPI{}
	attempt := seedAttempt(t, s)

	uri := "/api/v1/checkins/77/"
	attempt.CheckinURI = &uri
	require.NoError(t, s.UpdateAttempt(ctx, attempt))

	n, err := newFactory(t, s, api, true).For(ctx, attempt, store.PointCheckin)
	require.NoError(t, err)

	delivery, err := n.Tell(ctx, "accepted", store.StatusOK, "")
	require.NoError(t, err)
	require.Equal(t, notifier.DeliveryDelivered, delivery)
	require.Len(t, api.notices, 1)
	require.Equal(t, registry.Notice{
		Checkin:    uri,
		Stage:      "accepted",
		Checkpoint: "checkin",
		Status:     "ok",
	}, api.notices[0])
}

func TestEndOnCheckoutSendsFinalNotification(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	api := &fakeAPI{}
	attempt := seedAttempt(t, s)

	uri := "/api/v1/checkins/77/"
	attempt.CheckinURI = &uri
	require.NoError(t, s.UpdateAttempt(ctx, attempt))

	n, err := newFactory(t, s, api, true).For(ctx, attempt, store.PointCheckout)
	require.NoError(t, err)

	_, err = n.Start(ctx)
	require.NoError(t, err)

	delivery, err := n.End(ctx)
	require.NoError(t, err)
	require.Equal(t, notifier.DeliveryDelivered, delivery)

	// serv_begin from Start, then the final notification, then serv_end
	require.Len(t, api.notices, 3)
	require.Equal(t, "serv_begin", api.notices[0].Status)
	require.Equal(t, registry.Notice{
		Checkin:    uri,
		Stage:      "checkout",
		Checkpoint: "checkout",
		Message:    "checkout finished",
		Status:     "ok",
	}, api.notices[1])
	require.Equal(t, "serv_end", api.notices[2].Status)

	cp, err := s.GetCheckpoint(ctx, attempt.ID, store.PointCheckout)
	require.NoError(t, err)
	require.NotNil(t, cp.EndedAt)
}

func TestLifecycleMarkersBracketEveryPoint(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	api := &fakeAPI{}
	attempt := seedAttempt(t, s)

	uri := "/api/v1/checkins/77/"
	attempt.CheckinURI = &uri
	require.NoError(t, s.UpdateAttempt(ctx, attempt))

	n, err := newFactory(t, s, api, true).For(ctx, attempt, store.PointValidation)
	require.NoError(t, err)

	delivery, err := n.Start(ctx)
	require.NoError(t, err)
	require.Equal(t, notifier.DeliveryDelivered, delivery)

	delivery, err = n.End(ctx)
	require.NoError(t, err)
	require.Equal(t, notifier.DeliveryDelivered, delivery)

	require.Len(t, api.notices, 2)
	require.Equal(t, registry.Notice{
		Checkin:    uri,
		Checkpoint: "validation",
		Status:     "serv_begin",
	}, api.notices[0])
	require.Equal(t, registry.Notice{
		Checkin:    uri,
		Checkpoint: "validation",
		Status:     "serv_end",
	}, api.notices[1])

	// the markers live on the notice stream only, not in the local record
	notices, err := s.Notices(ctx, n.Checkpoint().ID)
	require.NoError(t, err)
	require.Empty(t, notices)
}

func TestForReusesExistingCheckpoint(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	attempt := seedAttempt(t, s)
	factory := newFactory(t, s, &fakeAPI{}, true)

	first, err := factory.For(ctx, attempt, store.PointValidation)
	require.NoError(t, err)
	second, err := factory.For(ctx, attempt, store.PointValidation)
	require.NoError(t, err)
	require.Equal(t, first.Checkpoint().ID, second.Checkpoint().ID)
}

func TestNewFactoryRequiresAPIWhenEnabled(t *testing.T) {
	s := openStore(t)
	_, err := notifier.NewFactory(s, nil, true, nil)
	require.Error(t, err)

	_, err = notifier.NewFactory(nil, &fakeAPI{}, false, nil)
	require.Error(t, err)
}
