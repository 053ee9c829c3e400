// Package friends is the friend lookup service: it validates callers' ids,
// runs the composed friend queries against the edge store and classifies
// their failures. It also fronts the edge mutations (request, accept,
// decline) that keep the accepted edges symmetric.
package friends

import (
	"context"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"friendlink/database"
	"friendlink/models"
)

type RequestOutcome = database.RequestOutcome

const (
	RequestSent     = database.RequestSent
	RequestAccepted = database.RequestAccepted
)

type Store interface {
	FriendRecord(ctx context.Context, requesterID, targetID int64) (*models.FriendRecord, error)
	FriendRecords(ctx context.Context, requesterID int64) ([]models.FriendRecord, error)
	UserExists(ctx context.Context, id int64) (bool, error)
	RequestFriend(ctx context.Context, fromID, toID int64) (database.RequestOutcome, error)
	AcceptFriend(ctx context.Context, accepterID, requesterID int64) error
	DeclineFriend(ctx context.Context, declinerID, requesterID int64) error
	IncomingRequests(ctx context.Context, userID int64) ([]models.FriendRequestWithUser, error)
	CreateUser(ctx context.Context, fullName, phoneNumber string) (*models.User, error)
	GetUser(ctx context.Context, id int64) (*models.User, error)
}

type Service struct {
	store  Store
	log    *zap.Logger
	tracer trace.Tracer
	// reads only: concurrent identical lookups share one in-flight query
	reads singleflight.Group
	// bumped after every committed mutation so later lookups never join an
	// older flight
	generation atomic.Uint64
}

func NewService(store Store, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		store:  store,
		log:    log.Named("friends"),
		tracer: otel.Tracer("friendlink/friends"),
	}
}

// GetFriend returns the enriched record for the accepted edge
// (requesterID, targetID), or ErrNotFound.
func (s *Service) GetFriend(ctx context.Context, requesterID, targetID int64) (*models.FriendRecord, error) {
	if err := validatePair("requester_id", requesterID, "user_id", targetID); err != nil {
		return nil, err
	}
	ctx, span := s.tracer.Start(ctx, "friends.GetFriend", trace.WithAttributes(
		attribute.Int64("requester_id", requesterID),
		attribute.Int64("target_id", targetID),
	))
	var err error
	defer func() { endSpan(span, err) }()

	key := "friend:" + strconv.FormatInt(requesterID, 10) + ":" + strconv.FormatInt(targetID, 10)
	v, err := s.coalesce(ctx, key, func(ctx context.Context) (interface{}, error) {
		return s.store.FriendRecord(ctx, requesterID, targetID)
	})
	if err != nil {
		if errors.Is(err, database.ErrNoRecord) {
			err = ErrNotFound
			return nil, err
		}
		s.storeFailure("get friend", err, zap.Int64("requester_id", requesterID), zap.Int64("target_id", targetID))
		return nil, err
	}
	record := *v.(*models.FriendRecord)
	return &record, nil
}

// GetAllFriends returns every accepted friend of requesterID, ordered by id.
func (s *Service) GetAllFriends(ctx context.Context, requesterID int64) ([]models.FriendRecord, error) {
	if err := validateID("requester_id", requesterID); err != nil {
		return nil, err
	}
	ctx, span := s.tracer.Start(ctx, "friends.GetAllFriends", trace.WithAttributes(
		attribute.Int64("requester_id", requesterID),
	))
	var err error
	defer func() { endSpan(span, err) }()

	v, err := s.coalesce(ctx, "friends:"+strconv.FormatInt(requesterID, 10), func(ctx context.Context) (interface{}, error) {
		return s.store.FriendRecords(ctx, requesterID)
	})
	if err != nil {
		s.storeFailure("get all friends", err, zap.Int64("requester_id", requesterID))
		return nil, err
	}
	shared := v.([]models.FriendRecord)
	records := make([]models.FriendRecord, len(shared))
	copy(records, shared)
	span.SetAttributes(attribute.Int("friend_count", len(records)))
	return records, nil
}

// RequestFriend sends fromID's request to toID. When toID has already asked
// fromID, the pair becomes friends and RequestAccepted is returned.
func (s *Service) RequestFriend(ctx context.Context, fromID, toID int64) (RequestOutcome, error) {
	if err := validatePair("requester_id", fromID, "user_id", toID); err != nil {
		return 0, err
	}
	ctx, span := s.tracer.Start(ctx, "friends.RequestFriend", trace.WithAttributes(
		attribute.Int64("requester_id", fromID),
		attribute.Int64("target_id", toID),
	))
	var err error
	defer func() { endSpan(span, err) }()

	for _, id := range []int64{fromID, toID} {
		var exists bool
		if exists, err = s.store.UserExists(ctx, id); err != nil {
			s.storeFailure("request friend", err, zap.Int64("user_id", id))
			return 0, err
		}
		if !exists {
			err = ErrUserNotFound
			return 0, err
		}
	}

	var outcome RequestOutcome
	if outcome, err = s.store.RequestFriend(ctx, fromID, toID); err != nil {
		if errors.Is(err, database.ErrAlreadyAccepted) {
			err = ErrAlreadyFriends
			return 0, err
		}
		s.storeFailure("request friend", err, zap.Int64("requester_id", fromID), zap.Int64("target_id", toID))
		return 0, err
	}
	s.generation.Add(1)
	s.log.Info("friend request",
		zap.Int64("requester_id", fromID),
		zap.Int64("target_id", toID),
		zap.Bool("accepted", outcome == RequestAccepted),
	)
	return outcome, nil
}

// AcceptFriend accepts requesterID's pending request to accepterID.
func (s *Service) AcceptFriend(ctx context.Context, accepterID, requesterID int64) error {
	return s.answer(ctx, "friends.AcceptFriend", accepterID, requesterID, s.store.AcceptFriend)
}

// DeclineFriend declines requesterID's pending request to declinerID.
func (s *Service) DeclineFriend(ctx context.Context, declinerID, requesterID int64) error {
	return s.answer(ctx, "friends.DeclineFriend", declinerID, requesterID, s.store.DeclineFriend)
}

func (s *Service) answer(ctx context.Context, name string, userID, requesterID int64,
	fn func(ctx context.Context, userID, requesterID int64) error) error {
	if err := validatePair("user_id", userID, "requester_id", requesterID); err != nil {
		return err
	}
	ctx, span := s.tracer.Start(ctx, name, trace.WithAttributes(
		attribute.Int64("user_id", userID),
		attribute.Int64("requester_id", requesterID),
	))
	var err error
	defer func() { endSpan(span, err) }()

	if err = fn(ctx, userID, requesterID); err != nil {
		if errors.Is(err, database.ErrNoRecord) {
			err = ErrRequestNotFound
			return err
		}
		s.storeFailure(name, err, zap.Int64("user_id", userID), zap.Int64("requester_id", requesterID))
		return err
	}
	s.generation.Add(1)
	s.log.Info(name, zap.Int64("user_id", userID), zap.Int64("requester_id", requesterID))
	return nil
}

// ListRequests returns the pending requests addressed to userID.
func (s *Service) ListRequests(ctx context.Context, userID int64) ([]models.FriendRequestWithUser, error) {
	if err := validateID("user_id", userID); err != nil {
		return nil, err
	}
	requests, err := s.store.IncomingRequests(ctx, userID)
	if err != nil {
		s.storeFailure("incoming requests", err, zap.Int64("user_id", userID))
		return nil, err
	}
	return requests, nil
}

func (s *Service) CreateUser(ctx context.Context, fullName, phoneNumber string) (*models.User, error) {
	fullName = strings.TrimSpace(fullName)
	phoneNumber = strings.TrimSpace(phoneNumber)
	if err := validateText("full_name", fullName, maxFullName); err != nil {
		return nil, err
	}
	if err := validateText("phone_number", phoneNumber, maxPhoneNumber); err != nil {
		return nil, err
	}
	user, err := s.store.CreateUser(ctx, fullName, phoneNumber)
	if err != nil {
		s.storeFailure("create user", err)
		return nil, err
	}
	s.log.Info("user created", zap.Int64("user_id", user.ID))
	return user, nil
}

func (s *Service) GetUser(ctx context.Context, id int64) (*models.User, error) {
	if err := validateID("user_id", id); err != nil {
		return nil, err
	}
	user, err := s.store.GetUser(ctx, id)
	if err != nil {
		if errors.Is(err, database.ErrNoRecord) {
			return nil, ErrUserNotFound
		}
		s.storeFailure("get user", err, zap.Int64("user_id", id))
		return nil, err
	}
	return user, nil
}

// coalesce shares one store call between identical concurrent lookups.
// The shared call runs detached from any single caller's cancellation, and
// each caller stops waiting when its own context ends.
func (s *Service) coalesce(ctx context.Context, key string, fn func(ctx context.Context) (interface{}, error)) (interface{}, error) {
	key = strconv.FormatUint(s.generation.Load(), 10) + ":" + key
	shared := context.WithoutCancel(ctx)
	ch := s.reads.DoChan(key, func() (interface{}, error) {
		return fn(shared)
	})
	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// storeFailure logs once at the service boundary; the error itself is
// returned to the caller untouched. A caller giving up is not a failure.
func (s *Service) storeFailure(op string, err error, fields ...zap.Field) {
	fields = append(fields, zap.String("op", op), zap.Error(err))
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		s.log.Debug("caller gave up", fields...)
		return
	}
	if errors.Is(err, database.ErrMalformedRecord) {
		s.log.Error("malformed friend record", fields...)
		return
	}
	s.log.Error("edge store failure", fields...)
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
