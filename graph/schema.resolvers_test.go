package graph

import (
	"context"
	"testing"

	"github.com/UkralStul/graphql-timeline-service/internal/domain"
	"github.com/UkralStul/graphql-timeline-service/internal/storage/inmemory"
	"github.com/UkralStul/graphql-timeline-service/internal/visibility"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestResolver собирает резолвер поверх in-memory хранилища.
func newTestResolver(t *testing.T) *Resolver {
	store := inmemory.New()
	return &Resolver{
		Storage:  store,
		Engine:   visibility.NewEngine(store),
		Guard:    visibility.NewGuard(store),
		Observer: NewPostObserver(),
	}
}

func createTestUser(t *testing.T, r *Resolver, username string, userType domain.UserType) *domain.User {
	user, err := (&mutationResolver{r}).CreateUser(
		context.Background(), username, username+"@example.com", username, &userType)
	require.NoError(t, err)
	return user
}

func TestTimeline_TeaserBecomesFullAfterSubscribe(t *testing.T) {
	r := newTestResolver(t)
	ctx := context.Background()
	mutations := &mutationResolver{r}
	queries := &queryResolver{r}

	publisher := createTestUser(t, r, "publisher", domain.UserTypePremium)
	viewer := createTestUser(t, r, "viewer", domain.UserTypeNormal)

	gated := true
	image := "data:image/png;base64,AAAA"
	_, err := mutations.CreatePost(ctx, "subscriber-only long form content", &image, &gated, publisher.ID)
	require.NoError(t, err)

	// До подписки: тизер.
	timeline, err := queries.GetTimeline(ctx, viewer.ID)
	require.NoError(t, err)
	require.Len(t, timeline, 1)
	assert.True(t, timeline[0].IsContentTruncated)
	assert.Equal(t, "subscriber...", timeline[0].Content)
	assert.Nil(t, timeline[0].ImageURL)

	subscribed, err := mutations.SubscribeToUser(ctx, viewer.ID, publisher.ID)
	require.NoError(t, err)
	assert.True(t, subscribed)

	// После подписки: полный контент, без повторного запроса на создание.
	timeline, err = queries.GetTimeline(ctx, viewer.ID)
	require.NoError(t, err)
	require.Len(t, timeline, 1)
	assert.False(t, timeline[0].IsContentTruncated)
	assert.Equal(t, "subscriber-only long form content", timeline[0].Content)
	require.NotNil(t, timeline[0].ImageURL)
}

func TestTimeline_ViewerNotFound(t *testing.T) {
	r := newTestResolver(t)

	_, err := (&queryResolver{r}).GetTimeline(context.Background(), "non-existent-id")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestCommentOnPost_RequiresSubscription(t *testing.T) {
	r := newTestResolver(t)
	ctx := context.Background()
	mutations := &mutationResolver{r}

	publisher := createTestUser(t, r, "publisher", domain.UserTypePremium)
	viewer := createTestUser(t, r, "viewer", domain.UserTypeNormal)

	gated := true
	post, err := mutations.CreatePost(ctx, "gated discussion", nil, &gated, publisher.ID)
	require.NoError(t, err)

	_, err = mutations.CommentOnPost(ctx, post.ID, "first!", viewer.ID)
	require.ErrorIs(t, err, domain.ErrSubscriptionRequired)

	_, err = mutations.SubscribeToUser(ctx, viewer.ID, publisher.ID)
	require.NoError(t, err)

	comment, err := mutations.CommentOnPost(ctx, post.ID, "first!", viewer.ID)
	require.NoError(t, err)
	assert.Equal(t, viewer.ID, comment.UserID)
	assert.Equal(t, post.ID, comment.PostID)
	assert.Equal(t, "first!", comment.Content)
}

func TestLikePost_IdempotentSoftBehavior(t *testing.T) {
	r := newTestResolver(t)
	ctx := context.Background()
	mutations := &mutationResolver{r}

	author := createTestUser(t, r, "author", domain.UserTypePremium)
	viewer := createTestUser(t, r, "viewer", domain.UserTypeNormal)
	post, err := mutations.CreatePost(ctx, "likeable", nil, nil, author.ID)
	require.NoError(t, err)

	// Анлайк того, что не лайкали - false, не ошибка.
	ok, err := mutations.UnlikePost(ctx, post.ID, viewer.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = mutations.LikePost(ctx, post.ID, viewer.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	// Повторный лайк - мягкий false, строка остается одна.
	ok, err = mutations.LikePost(ctx, post.ID, viewer.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	stats, err := r.Storage.GetPostStatsByIDs(ctx, []string{post.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, stats[post.ID].Likes)

	ok, err = mutations.UnlikePost(ctx, post.ID, viewer.ID)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLikePost_GatedRequiresSubscription(t *testing.T) {
	r := newTestResolver(t)
	ctx := context.Background()
	mutations := &mutationResolver{r}

	publisher := createTestUser(t, r, "publisher", domain.UserTypePremium)
	viewer := createTestUser(t, r, "viewer", domain.UserTypeNormal)

	gated := true
	post, err := mutations.CreatePost(ctx, "gated", nil, &gated, publisher.ID)
	require.NoError(t, err)

	_, err = mutations.LikePost(ctx, post.ID, viewer.ID)
	assert.ErrorIs(t, err, domain.ErrSubscriptionRequired)

	// Автору свой закрытый пост лайкать можно.
	ok, err := mutations.LikePost(ctx, post.ID, publisher.ID)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCreateRetweet_CollapsesChainToOrigin(t *testing.T) {
	r := newTestResolver(t)
	ctx := context.Background()
	mutations := &mutationResolver{r}

	author := createTestUser(t, r, "author", domain.UserTypePremium)
	first := createTestUser(t, r, "first", domain.UserTypeNormal)
	second := createTestUser(t, r, "second", domain.UserTypeNormal)

	origin, err := mutations.CreatePost(ctx, "the origin", nil, nil, author.ID)
	require.NoError(t, err)

	wrapper, err := mutations.CreateRetweet(ctx, origin.ID, "nice", first.ID)
	require.NoError(t, err)
	require.NotNil(t, wrapper.OriginalPostID)
	assert.Equal(t, origin.ID, *wrapper.OriginalPostID)

	// Ретвит ретвита схлопывается на оригинал, не на обертку.
	chained, err := mutations.CreateRetweet(ctx, wrapper.ID, "me too", second.ID)
	require.NoError(t, err)
	require.NotNil(t, chained.OriginalPostID)
	assert.Equal(t, origin.ID, *chained.OriginalPostID)

	exists, err := r.Storage.RetweetExists(ctx, second.ID, origin.ID)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestCreateRetweet_DuplicateIsConflict(t *testing.T) {
	r := newTestResolver(t)
	ctx := context.Background()
	mutations := &mutationResolver{r}

	author := createTestUser(t, r, "author", domain.UserTypePremium)
	viewer := createTestUser(t, r, "viewer", domain.UserTypeNormal)

	origin, err := mutations.CreatePost(ctx, "the origin", nil, nil, author.ID)
	require.NoError(t, err)

	wrapper, err := mutations.CreateRetweet(ctx, origin.ID, "", viewer.ID)
	require.NoError(t, err)

	// Второй ретвит того же оригинала - конфликт, даже через обертку:
	// уникальность считается по (user, origin).
	_, err = mutations.CreateRetweet(ctx, origin.ID, "", viewer.ID)
	assert.ErrorIs(t, err, domain.ErrAlreadyRetweeted)

	_, err = mutations.CreateRetweet(ctx, wrapper.ID, "", viewer.ID)
	assert.ErrorIs(t, err, domain.ErrAlreadyRetweeted)
}

func TestCreateRetweet_GatedOriginRequiresSubscription(t *testing.T) {
	r := newTestResolver(t)
	ctx := context.Background()
	mutations := &mutationResolver{r}

	publisher := createTestUser(t, r, "publisher", domain.UserTypePremium)
	viewer := createTestUser(t, r, "viewer", domain.UserTypeNormal)

	gated := true
	post, err := mutations.CreatePost(ctx, "gated origin", nil, &gated, publisher.ID)
	require.NoError(t, err)

	_, err = mutations.CreateRetweet(ctx, post.ID, "", viewer.ID)
	require.ErrorIs(t, err, domain.ErrSubscriptionRequired)

	_, err = mutations.SubscribeToUser(ctx, viewer.ID, publisher.ID)
	require.NoError(t, err)

	wrapper, err := mutations.CreateRetweet(ctx, post.ID, "", viewer.ID)
	require.NoError(t, err)
	assert.True(t, wrapper.IsRetweet)
}

func TestCreatePost_PremiumGate(t *testing.T) {
	r := newTestResolver(t)
	ctx := context.Background()
	mutations := &mutationResolver{r}

	viewer := createTestUser(t, r, "viewer", domain.UserTypeNormal)

	gated := true
	_, err := mutations.CreatePost(ctx, "wannabe gated", nil, &gated, viewer.ID)
	assert.ErrorIs(t, err, domain.ErrPremiumRequired)

	// Обычный публичный пост тому же пользователю доступен.
	post, err := mutations.CreatePost(ctx, "public is fine", nil, nil, viewer.ID)
	require.NoError(t, err)
	assert.False(t, post.IsSubscribersOnly)
}

func TestSubscribeToUser_Rules(t *testing.T) {
	r := newTestResolver(t)
	ctx := context.Background()
	mutations := &mutationResolver{r}

	publisher := createTestUser(t, r, "publisher", domain.UserTypePremium)
	viewer := createTestUser(t, r, "viewer", domain.UserTypeNormal)
	other := createTestUser(t, r, "other", domain.UserTypeNormal)

	_, err := mutations.SubscribeToUser(ctx, viewer.ID, viewer.ID)
	assert.ErrorIs(t, err, domain.ErrSelfSubscription)

	// Подписаться можно только на premium пользователя.
	_, err = mutations.SubscribeToUser(ctx, viewer.ID, other.ID)
	assert.ErrorIs(t, err, domain.ErrPublisherNotPremium)

	ok, err := mutations.SubscribeToUser(ctx, viewer.ID, publisher.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	// Дубль подписки - мягкий false.
	ok, err = mutations.SubscribeToUser(ctx, viewer.ID, publisher.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = mutations.UnsubscribeFromUser(ctx, viewer.ID, publisher.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = mutations.UnsubscribeFromUser(ctx, viewer.ID, publisher.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFollowUser_Rules(t *testing.T) {
	r := newTestResolver(t)
	ctx := context.Background()
	mutations := &mutationResolver{r}

	a := createTestUser(t, r, "a", domain.UserTypeNormal)
	b := createTestUser(t, r, "b", domain.UserTypeNormal)

	_, err := mutations.FollowUser(ctx, a.ID, a.ID)
	assert.ErrorIs(t, err, domain.ErrSelfFollow)

	ok, err := mutations.FollowUser(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = mutations.FollowUser(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = mutations.UnfollowUser(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestFollow_DoesNotUnlockGatedContent(t *testing.T) {
	r := newTestResolver(t)
	ctx := context.Background()
	mutations := &mutationResolver{r}
	queries := &queryResolver{r}

	publisher := createTestUser(t, r, "publisher", domain.UserTypePremium)
	viewer := createTestUser(t, r, "viewer", domain.UserTypeNormal)

	gated := true
	_, err := mutations.CreatePost(ctx, "gated long content here", nil, &gated, publisher.ID)
	require.NoError(t, err)

	// Фоллов - чисто социальный граф, контент гейтят только подписки.
	ok, err := mutations.FollowUser(ctx, viewer.ID, publisher.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	timeline, err := queries.GetTimeline(ctx, viewer.ID)
	require.NoError(t, err)
	require.Len(t, timeline, 1)
	assert.True(t, timeline[0].IsContentTruncated)
}

func TestGetAllPosts_PublicOnly(t *testing.T) {
	r := newTestResolver(t)
	ctx := context.Background()
	mutations := &mutationResolver{r}
	queries := &queryResolver{r}

	publisher := createTestUser(t, r, "publisher", domain.UserTypePremium)

	_, err := mutations.CreatePost(ctx, "public", nil, nil, publisher.ID)
	require.NoError(t, err)
	gated := true
	_, err = mutations.CreatePost(ctx, "gated", nil, &gated, publisher.ID)
	require.NoError(t, err)

	posts, err := queries.GetAllPosts(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "public", posts[0].Content)
}

func TestUserPosts_PaginatesPublicPosts(t *testing.T) {
	r := newTestResolver(t)
	ctx := context.Background()
	mutations := &mutationResolver{r}
	queries := &queryResolver{r}

	publisher := createTestUser(t, r, "publisher", domain.UserTypePremium)
	for i := 0; i < 3; i++ {
		_, err := mutations.CreatePost(ctx, "post", nil, nil, publisher.ID)
		require.NoError(t, err)
	}
	gated := true
	_, err := mutations.CreatePost(ctx, "gated", nil, &gated, publisher.ID)
	require.NoError(t, err)

	limit, offset := 2, 0
	posts, err := queries.UserPosts(ctx, "publisher", &limit, &offset)
	require.NoError(t, err)
	assert.Len(t, posts, 2)

	offset = 2
	posts, err = queries.UserPosts(ctx, "publisher", &limit, &offset)
	require.NoError(t, err)
	assert.Len(t, posts, 1)

	_, err = queries.UserPosts(ctx, "nobody", nil, nil)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestPostAdded_BroadcastsOnlyPublicPosts(t *testing.T) {
	r := newTestResolver(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	mutations := &mutationResolver{r}

	publisher := createTestUser(t, r, "publisher", domain.UserTypePremium)

	ch, err := (&subscriptionResolver{r}).PostAdded(ctx)
	require.NoError(t, err)

	gated := true
	_, err = mutations.CreatePost(ctx, "gated never broadcast", nil, &gated, publisher.ID)
	require.NoError(t, err)
	public, err := mutations.CreatePost(ctx, "public broadcast", nil, nil, publisher.ID)
	require.NoError(t, err)

	// Закрытый пост в поток не попал - первым приходит публичный.
	received := <-ch
	assert.Equal(t, public.ID, received.ID)
}
