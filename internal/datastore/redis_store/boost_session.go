package redis_store

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"

	"boostbot/internal/models"
)

func dbKeyBoostSession(userID int64) string {
	return fmt.Sprintf("boost:session:%d", userID)
}

func dbKeyPendingBoostSessions() string {
	return "boost:sessions:pending"
}

// GetBoostSession returns redis.Nil when the user never started a boost.
func GetBoostSession(ctx context.Context, cmd redis.Cmdable, userID int64) (*models.BoostSession, error) {
	b, err := cmd.Get(ctx, dbKeyBoostSession(userID)).Bytes()
	if err != nil {
		return nil, err
	}

	var v models.BoostSession
	if err := msgpack.Unmarshal(b, &v); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrInvalidBoostSession, err)
	}

	if err := v.Validate(); err != nil {
		return nil, err
	}

	return &v, nil
}

// SaveBoostSession writes the whole record and keeps the user in the pending index only while
// the session still needs a sweep. Records themselves are never removed.
func SaveBoostSession(ctx context.Context, cmd redis.Cmdable, v *models.BoostSession) (*models.BoostSession, error) {
	if v == nil || v.UserID == 0 {
		return nil, errors.New("invalid boost session")
	}

	b, err := msgpack.Marshal(v)
	if err != nil {
		return nil, err
	}

	_, err = cmd.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, dbKeyBoostSession(v.UserID), b, 0)
		if v.NeedsSweep() {
			pipe.SAdd(ctx, dbKeyPendingBoostSessions(), v.UserID)
		} else {
			pipe.SRem(ctx, dbKeyPendingBoostSessions(), v.UserID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return v, nil
}

func ListPendingBoostSessionUserIDs(ctx context.Context, cmd redis.Cmdable) ([]int64, error) {
	members, err := cmd.SMembers(ctx, dbKeyPendingBoostSessions()).Result()
	if err != nil {
		return nil, err
	}

	userIDs := make([]int64, 0, len(members))
	for _, m := range members {
		id, err := strconv.ParseInt(m, 10, 64)
		if err != nil {
			continue
		}
		userIDs = append(userIDs, id)
	}

	return userIDs, nil
}
