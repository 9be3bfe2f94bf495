package visibility

import (
	"context"
	"testing"
	"time"

	"github.com/UkralStul/graphql-timeline-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGuard_PublicPostAlwaysAllowed(t *testing.T) {
	author := premiumUser("author")
	post := publicPost("p1", author, "public", time.Now())

	guard := NewGuard(newGraph())
	assert.NoError(t, guard.Authorize(context.Background(), normalUser("viewer"), post))
	assert.NoError(t, guard.Authorize(context.Background(), premiumUser("viewer"), post))
}

func TestGuard_AuthorAllowedOnOwnGatedPost(t *testing.T) {
	author := premiumUser("author")
	post := gatedPost("p1", author, "secret", time.Now())

	guard := NewGuard(newGraph())
	assert.NoError(t, guard.Authorize(context.Background(), author, post))
}

func TestGuard_SubscriberAllowed(t *testing.T) {
	author := premiumUser("author")
	post := gatedPost("p1", author, "secret", time.Now())

	guard := NewGuard(newGraph([2]string{"viewer", "author"}))
	assert.NoError(t, guard.Authorize(context.Background(), normalUser("viewer"), post))
}

func TestGuard_UnsubscribedDenied(t *testing.T) {
	author := premiumUser("author")
	post := gatedPost("p1", author, "secret", time.Now())
	guard := NewGuard(newGraph())

	// Правило одно для normal и premium: без подписки доступа нет.
	err := guard.Authorize(context.Background(), normalUser("viewer"), post)
	require.ErrorIs(t, err, domain.ErrSubscriptionRequired)

	err = guard.Authorize(context.Background(), premiumUser("viewer"), post)
	require.ErrorIs(t, err, domain.ErrSubscriptionRequired)
}

func TestGuard_ReflectsSubscriptionChangesImmediately(t *testing.T) {
	author := premiumUser("author")
	viewer := normalUser("viewer")
	post := gatedPost("p1", author, "secret", time.Now())

	graph := newGraph()
	guard := NewGuard(graph)

	require.ErrorIs(t, guard.Authorize(context.Background(), viewer, post), domain.ErrSubscriptionRequired)

	// Подписка появилась - следующий же вызов видит ее: кэша нет.
	graph.edges["viewer|author"] = true
	assert.NoError(t, guard.Authorize(context.Background(), viewer, post))
}
