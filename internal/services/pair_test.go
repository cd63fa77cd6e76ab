package services

import (
	"context"
	"testing"

	"lovebox-backend/internal/apperr"
	"lovebox-backend/internal/permission"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBffRequestAcceptFlow(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, permission.Policy{})
	f.seedUsers(t, 1, 2, 3)

	req, err := f.pairs.SendRequest(ctx, 1, 2, "be my BFF")
	require.NoError(t, err)
	assert.Equal(t, []int64{2}, f.events.last().userIDs)
	assert.Equal(t, EventBffRequestReceived, f.events.last().event.Type)

	_, err = f.pairs.SendRequest(ctx, 2, 1, "no you")
	assert.ErrorIs(t, err, apperr.ErrConflict)

	other, err := f.pairs.SendRequest(ctx, 3, 2, "pick me")
	require.NoError(t, err)

	incoming, err := f.pairs.ListRequests(ctx, 2, DirectionIncoming)
	require.NoError(t, err)
	assert.Len(t, incoming, 2)
	outgoing, err := f.pairs.ListRequests(ctx, 1, DirectionOutgoing)
	require.NoError(t, err)
	assert.Len(t, outgoing, 1)
	_, err = f.pairs.ListRequests(ctx, 1, "sideways")
	assert.ErrorIs(t, err, apperr.ErrBadRequest)

	_, err = f.pairs.AcceptRequest(ctx, 1, req.ID)
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	pair, err := f.pairs.AcceptRequest(ctx, 2, req.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), pair.FirstUserID)
	assert.Equal(t, int64(2), pair.SecondUserID)
	assert.Equal(t, EventBffCreated, f.events.last().event.Type)

	_, err = f.pairs.AcceptRequest(ctx, 2, other.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	got, err := f.pairs.GetPair(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, pair.ID, got.ID)

	linked, err := f.users.GetBffPair(ctx, 2)
	require.NoError(t, err)
	require.NotNil(t, linked)
	assert.Equal(t, pair.ID, linked.ID)
}

func TestSendRequestValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, permission.Policy{})
	f.seedUsers(t, 1, 2, 3)
	f.seedPair(t, 2, 3)

	_, err := f.pairs.SendRequest(ctx, 1, 1, "")
	assert.ErrorIs(t, err, apperr.ErrBadRequest)
	_, err = f.pairs.SendRequest(ctx, 1, 404, "")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = f.pairs.SendRequest(ctx, 1, 2, "")
	assert.ErrorIs(t, err, apperr.ErrConflict)
	_, err = f.pairs.SendRequest(ctx, 3, 1, "")
	assert.ErrorIs(t, err, apperr.ErrConflict)
}

func TestDeclineRequest(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, permission.Policy{})
	f.seedUsers(t, 1, 2, 3)

	req, err := f.pairs.SendRequest(ctx, 1, 2, "")
	require.NoError(t, err)

	assert.ErrorIs(t, f.pairs.DeclineRequest(ctx, 3, req.ID), apperr.ErrForbidden)
	require.NoError(t, f.pairs.DeclineRequest(ctx, 2, req.ID))
	assert.ErrorIs(t, f.pairs.DeclineRequest(ctx, 1, req.ID), apperr.ErrNotFound)
}

func TestBreakUpAndDescription(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, permission.Policy{})
	f.seedUsers(t, 1, 2, 3)
	pair := f.seedPair(t, 1, 2)

	updated, err := f.pairs.UpdateDescription(ctx, 2, "since 2019")
	require.NoError(t, err)
	assert.Equal(t, "since 2019", updated.Description)
	_, err = f.pairs.UpdateDescription(ctx, 3, "nope")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	assert.ErrorIs(t, f.pairs.BreakUp(ctx, 3, pair.ID), apperr.ErrForbidden)
	require.NoError(t, f.pairs.BreakUp(ctx, 1, pair.ID))
	assert.Equal(t, []int64{1, 2}, f.events.last().userIDs)

	_, err = f.pairs.GetPair(ctx, 1)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = f.couple.Ask(ctx, 3, 1, "still together?")
	assert.ErrorIs(t, err, apperr.ErrBadRequest)
}
