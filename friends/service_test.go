package friends_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"friendlink/database"
	"friendlink/database/dbtest"
	"friendlink/friends"
	"friendlink/models"
)

// fakeStore fails every call with err and counts how often it was reached.
type fakeStore struct {
	calls   int32
	err     error
	records []models.FriendRecord
	// gate, when set, holds FriendRecords until closed
	gate    chan struct{}
	entered chan struct{}
	// detached counts FriendRecords calls whose context was still live
	// after the gate opened
	detached int32
}

func (f *fakeStore) hit() { atomic.AddInt32(&f.calls, 1) }

func (f *fakeStore) FriendRecord(ctx context.Context, requesterID, targetID int64) (*models.FriendRecord, error) {
	f.hit()
	return nil, f.err
}

func (f *fakeStore) FriendRecords(ctx context.Context, requesterID int64) ([]models.FriendRecord, error) {
	f.hit()
	if f.gate != nil {
		f.entered <- struct{}{}
		<-f.gate
		if ctx.Err() == nil {
			atomic.AddInt32(&f.detached, 1)
		}
	}
	return f.records, f.err
}

func (f *fakeStore) UserExists(ctx context.Context, id int64) (bool, error) {
	f.hit()
	return true, f.err
}

func (f *fakeStore) RequestFriend(ctx context.Context, fromID, toID int64) (database.RequestOutcome, error) {
	f.hit()
	return database.RequestSent, f.err
}

func (f *fakeStore) AcceptFriend(ctx context.Context, accepterID, requesterID int64) error {
	f.hit()
	return f.err
}

func (f *fakeStore) DeclineFriend(ctx context.Context, declinerID, requesterID int64) error {
	f.hit()
	return f.err
}

func (f *fakeStore) IncomingRequests(ctx context.Context, userID int64) ([]models.FriendRequestWithUser, error) {
	f.hit()
	return nil, f.err
}

func (f *fakeStore) CreateUser(ctx context.Context, fullName, phoneNumber string) (*models.User, error) {
	f.hit()
	return nil, f.err
}

func (f *fakeStore) GetUser(ctx context.Context, id int64) (*models.User, error) {
	f.hit()
	return nil, f.err
}

func TestValidationRejectsBeforeStore(t *testing.T) {
	store := &fakeStore{err: errors.New("store must not be reached")}
	svc := friends.NewService(store, zap.NewNop())
	ctx := context.Background()

	cases := map[string]func() error{
		"get friend zero requester":  func() error { _, err := svc.GetFriend(ctx, 0, 1); return err },
		"get friend negative target": func() error { _, err := svc.GetFriend(ctx, 1, -2); return err },
		"get friend self":            func() error { _, err := svc.GetFriend(ctx, 3, 3); return err },
		"get all friends zero":       func() error { _, err := svc.GetAllFriends(ctx, 0); return err },
		"request self":               func() error { _, err := svc.RequestFriend(ctx, 4, 4); return err },
		"accept zero":                func() error { return svc.AcceptFriend(ctx, 1, 0) },
		"decline self":               func() error { return svc.DeclineFriend(ctx, 2, 2) },
		"list requests negative":     func() error { _, err := svc.ListRequests(ctx, -1); return err },
		"create user blank name":     func() error { _, err := svc.CreateUser(ctx, "  ", "+1555"); return err },
		"create user no phone":       func() error { _, err := svc.CreateUser(ctx, "Ada", ""); return err },
		"get user zero":              func() error { _, err := svc.GetUser(ctx, 0); return err },
	}
	for name, call := range cases {
		t.Run(name, func(t *testing.T) {
			err := call()
			require.Error(t, err)
			assert.True(t, friends.IsValidation(err), "got %v", err)
		})
	}
	assert.Zero(t, atomic.LoadInt32(&store.calls))
}

func TestStoreErrorsPassThrough(t *testing.T) {
	boom := errors.New("connection refused")
	svc := friends.NewService(&fakeStore{err: boom}, zap.NewNop())
	ctx := context.Background()

	_, err := svc.GetFriend(ctx, 1, 2)
	assert.ErrorIs(t, err, boom)
	assert.EqualError(t, err, "connection refused")
	assert.NotErrorIs(t, err, friends.ErrNotFound)

	_, err = svc.GetAllFriends(ctx, 1)
	assert.ErrorIs(t, err, boom)

	assert.ErrorIs(t, svc.AcceptFriend(ctx, 1, 2), boom)
}

func TestMalformedRecordIsNotDefaulted(t *testing.T) {
	malformed := errors.Wrap(database.ErrMalformedRecord, "user 7: empty full_name")
	svc := friends.NewService(&fakeStore{err: malformed}, zap.NewNop())

	records, err := svc.GetAllFriends(context.Background(), 1)
	assert.ErrorIs(t, err, database.ErrMalformedRecord)
	assert.Nil(t, records)
}

func TestGetFriendNotFound(t *testing.T) {
	svc, store := newService(t)
	users := dbtest.Users(t, store, "A", "B", "C", "D")
	ctx := context.Background()
	a, b, c, d := users["A"].ID, users["B"].ID, users["C"].ID, users["D"].ID

	_, err := svc.GetFriend(ctx, a, b)
	assert.ErrorIs(t, err, friends.ErrNotFound)

	_, err = svc.RequestFriend(ctx, a, c)
	require.NoError(t, err)
	_, err = svc.GetFriend(ctx, a, c)
	assert.ErrorIs(t, err, friends.ErrNotFound, "requested")
	_, err = svc.GetFriend(ctx, c, a)
	assert.ErrorIs(t, err, friends.ErrNotFound, "reverse of requested")

	_, err = svc.RequestFriend(ctx, a, d)
	require.NoError(t, err)
	require.NoError(t, svc.DeclineFriend(ctx, d, a))
	_, err = svc.GetFriend(ctx, a, d)
	assert.ErrorIs(t, err, friends.ErrNotFound, "declined")

	_, err = svc.GetFriend(ctx, a, 9999)
	assert.ErrorIs(t, err, friends.ErrNotFound, "unknown user")
}

func TestZeroDefault(t *testing.T) {
	svc, store := newService(t)
	users := dbtest.Users(t, store, "A", "B")
	befriend(t, svc, users, [2]string{"A", "B"})

	record, err := svc.GetFriend(context.Background(), users["A"].ID, users["B"].ID)
	require.NoError(t, err)
	assert.Equal(t, models.FriendRecord{
		ID:                users["B"].ID,
		FullName:          "B",
		PhoneNumber:       users["B"].PhoneNumber,
		TotalFriendCount:  1,
		MutualFriendCount: 0,
	}, *record)

	all, err := svc.GetAllFriends(context.Background(), users["B"].ID)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, int64(0), all[0].MutualFriendCount)
}

func TestGetAllFriendsWithoutFriends(t *testing.T) {
	svc, store := newService(t)
	users := dbtest.Users(t, store, "A")

	all, err := svc.GetAllFriends(context.Background(), users["A"].ID)
	require.NoError(t, err)
	assert.NotNil(t, all)
	assert.Empty(t, all)
}

func TestLookupsAreIdempotent(t *testing.T) {
	svc, store := newService(t)
	users := dbtest.Users(t, store, "A", "B", "C", "D")
	befriend(t, svc, users, [2]string{"A", "B"}, [2]string{"A", "C"}, [2]string{"B", "C"}, [2]string{"C", "D"})
	ctx := context.Background()

	first, err := svc.GetAllFriends(ctx, users["C"].ID)
	require.NoError(t, err)
	one, err := svc.GetFriend(ctx, users["C"].ID, users["A"].ID)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		again, err := svc.GetAllFriends(ctx, users["C"].ID)
		require.NoError(t, err)
		assert.Equal(t, first, again)

		oneAgain, err := svc.GetFriend(ctx, users["C"].ID, users["A"].ID)
		require.NoError(t, err)
		assert.Equal(t, one, oneAgain)
	}
}

func TestConcurrentLookupsGetOwnCopies(t *testing.T) {
	store := &fakeStore{
		records: []models.FriendRecord{{ID: 2, FullName: "B", PhoneNumber: "+15550000002", TotalFriendCount: 1}},
		gate:    make(chan struct{}),
		entered: make(chan struct{}, 8),
	}
	svc := friends.NewService(store, zap.NewNop())

	const callers = 8
	results := make([][]models.FriendRecord, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			records, err := svc.GetAllFriends(context.Background(), 1)
			assert.NoError(t, err)
			results[i] = records
		}(i)
	}
	<-store.entered
	time.Sleep(20 * time.Millisecond)
	close(store.gate)
	wg.Wait()

	calls := atomic.LoadInt32(&store.calls)
	assert.GreaterOrEqual(t, calls, int32(1))
	assert.LessOrEqual(t, calls, int32(callers))

	results[0][0].FullName = "changed"
	for i := 1; i < callers; i++ {
		require.Len(t, results[i], 1)
		assert.Equal(t, "B", results[i][0].FullName)
	}
	assert.Equal(t, "B", store.records[0].FullName)
}

func TestRequestLifecycle(t *testing.T) {
	svc, store := newService(t)
	users := dbtest.Users(t, store, "A", "B", "C")
	ctx := context.Background()
	a, b, c := users["A"].ID, users["B"].ID, users["C"].ID

	_, err := svc.RequestFriend(ctx, a, 9999)
	assert.ErrorIs(t, err, friends.ErrUserNotFound)

	outcome, err := svc.RequestFriend(ctx, a, b)
	require.NoError(t, err)
	assert.Equal(t, friends.RequestSent, outcome)

	requests, err := svc.ListRequests(ctx, b)
	require.NoError(t, err)
	require.Len(t, requests, 1)
	assert.Equal(t, a, requests[0].From.ID)
	assert.Equal(t, models.StatusRequested, requests[0].Status)

	assert.ErrorIs(t, svc.AcceptFriend(ctx, a, b), friends.ErrRequestNotFound, "only the addressee accepts")
	require.NoError(t, svc.AcceptFriend(ctx, b, a))
	assert.ErrorIs(t, svc.AcceptFriend(ctx, b, a), friends.ErrRequestNotFound)

	_, err = svc.RequestFriend(ctx, b, a)
	assert.ErrorIs(t, err, friends.ErrAlreadyFriends)

	// crossed requests become a friendship
	_, err = svc.RequestFriend(ctx, c, a)
	require.NoError(t, err)
	outcome, err = svc.RequestFriend(ctx, a, c)
	require.NoError(t, err)
	assert.Equal(t, friends.RequestAccepted, outcome)

	record, err := svc.GetFriend(ctx, b, a)
	require.NoError(t, err)
	assert.Equal(t, int64(2), record.TotalFriendCount)

	assert.ErrorIs(t, svc.DeclineFriend(ctx, b, c), friends.ErrRequestNotFound)
	requests, err = svc.ListRequests(ctx, a)
	require.NoError(t, err)
	assert.Empty(t, requests)
}

func TestUsers(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	u, err := svc.CreateUser(ctx, "  Grace Hopper ", "+15550000009")
	require.NoError(t, err)
	assert.Equal(t, "Grace Hopper", u.FullName)

	got, err := svc.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = svc.GetUser(ctx, u.ID+1)
	assert.ErrorIs(t, err, friends.ErrUserNotFound)
}

func TestRequestFromUnknownUser(t *testing.T) {
	svc, store := newService(t)
	users := dbtest.Users(t, store, "A", "B")
	befriend(t, svc, users, [2]string{"A", "B"})
	ctx := context.Background()
	a, b := users["A"].ID, users["B"].ID

	_, err := svc.RequestFriend(ctx, 999, b)
	assert.ErrorIs(t, err, friends.ErrUserNotFound)
	assert.ErrorIs(t, svc.AcceptFriend(ctx, b, 999), friends.ErrRequestNotFound)

	all, err := svc.GetAllFriends(ctx, b)
	require.NoError(t, err)
	require.Len(t, all, 1)
	one, err := svc.GetFriend(ctx, a, b)
	require.NoError(t, err)
	assert.Equal(t, int64(len(all)), one.TotalFriendCount)
}

func TestCanceledCallerDoesNotFailOthers(t *testing.T) {
	store := &fakeStore{
		records: []models.FriendRecord{{ID: 2, FullName: "B", PhoneNumber: "+15550000002", TotalFriendCount: 1}},
		gate:    make(chan struct{}),
		entered: make(chan struct{}, 4),
	}
	svc := friends.NewService(store, zap.NewNop())

	leaderCtx, cancel := context.WithCancel(context.Background())
	leaderErr := make(chan error, 1)
	go func() {
		_, err := svc.GetAllFriends(leaderCtx, 1)
		leaderErr <- err
	}()
	<-store.entered

	type result struct {
		records []models.FriendRecord
		err     error
	}
	follower := make(chan result, 1)
	go func() {
		records, err := svc.GetAllFriends(context.Background(), 1)
		follower <- result{records, err}
	}()
	time.Sleep(20 * time.Millisecond)

	cancel()
	select {
	case err := <-leaderErr:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("canceled caller kept waiting on the store")
	}

	close(store.gate)
	res := <-follower
	require.NoError(t, res.err)
	assert.Equal(t, store.records, res.records)
	assert.Equal(t, atomic.LoadInt32(&store.calls), atomic.LoadInt32(&store.detached))
}

func TestLookupAfterMutationStartsNewQuery(t *testing.T) {
	store := &fakeStore{
		gate:    make(chan struct{}),
		entered: make(chan struct{}, 4),
	}
	svc := friends.NewService(store, zap.NewNop())
	ctx := context.Background()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, err := svc.GetAllFriends(ctx, 1)
		assert.NoError(t, err)
	}()
	<-store.entered

	// a committed accept between the two lookups
	require.NoError(t, svc.AcceptFriend(ctx, 1, 2))

	go func() {
		defer wg.Done()
		_, err := svc.GetAllFriends(ctx, 1)
		assert.NoError(t, err)
	}()
	select {
	case <-store.entered:
	case <-time.After(time.Second):
		t.Fatal("lookup after the accept joined the older query")
	}
	close(store.gate)
	wg.Wait()
}

func TestLookupsIssueOneStatement(t *testing.T) {
	store, stmts := dbtest.OpenCounting(t)
	svc := friends.NewService(store, zap.NewNop())
	users := dbtest.Users(t, store, "A", "B", "C", "D", "E", "F")
	befriend(t, svc, users,
		[2]string{"A", "B"}, [2]string{"A", "C"}, [2]string{"A", "D"}, [2]string{"A", "E"}, [2]string{"A", "F"},
		[2]string{"B", "C"}, [2]string{"D", "E"},
	)
	ctx := context.Background()

	stmts.Reset()
	all, err := svc.GetAllFriends(ctx, users["A"].ID)
	require.NoError(t, err)
	require.Len(t, all, 5)
	assert.Equal(t, int64(1), stmts.Count(), "GetAllFriends")

	stmts.Reset()
	_, err = svc.GetFriend(ctx, users["A"].ID, users["B"].ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stmts.Count(), "GetFriend")
}
