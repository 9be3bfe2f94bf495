package inmemory

import (
	"context"
	"testing"

	"github.com/UkralStul/graphql-timeline-service/internal/domain"
	"github.com/UkralStul/graphql-timeline-service/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestStore создает хранилище с premium автором и обычным зрителем.
func newTestStore(t *testing.T) (*Store, *domain.User, *domain.User) {
	store := New()
	ctx := context.Background()

	author, err := store.CreateUser(ctx, &domain.User{
		Username:    "author",
		Email:       "author@example.com",
		DisplayName: "Author",
		UserType:    domain.UserTypePremium,
	})
	require.NoError(t, err)

	viewer, err := store.CreateUser(ctx, &domain.User{
		Username:    "viewer",
		Email:       "viewer@example.com",
		DisplayName: "Viewer",
		UserType:    domain.UserTypeNormal,
	})
	require.NoError(t, err)

	return store, author, viewer
}

func createPost(t *testing.T, store *Store, authorID, content string, gated bool) *domain.Post {
	post, err := store.CreatePost(context.Background(), &domain.Post{
		Content:           content,
		AuthorID:          authorID,
		IsSubscribersOnly: gated,
	})
	require.NoError(t, err)
	return post
}

func TestStore_CreateAndGetUser(t *testing.T) {
	store, author, _ := newTestStore(t)
	ctx := context.Background()

	retrieved, err := store.GetUserByID(ctx, author.ID)
	require.NoError(t, err)
	assert.Equal(t, "author", retrieved.Username)

	byName, err := store.GetUserByUsername(ctx, "author")
	require.NoError(t, err)
	assert.Equal(t, author.ID, byName.ID)

	_, err = store.GetUserByID(ctx, "non-existent-id")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestStore_CreatePostAttachesAuthor(t *testing.T) {
	store, author, _ := newTestStore(t)
	ctx := context.Background()

	post := createPost(t, store, author.ID, "hello", false)
	retrieved, err := store.GetPostByID(ctx, post.ID)
	require.NoError(t, err)
	require.NotNil(t, retrieved.Author)
	assert.Equal(t, "author", retrieved.Author.Username)

	_, err = store.GetPostByID(ctx, "non-existent-id")
	assert.ErrorIs(t, err, domain.ErrPostNotFound)
}

func TestStore_GetPublicPostsExcludesGated(t *testing.T) {
	store, author, _ := newTestStore(t)
	ctx := context.Background()

	createPost(t, store, author.ID, "public", false)
	createPost(t, store, author.ID, "gated", true)

	posts, err := store.GetPublicPosts(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "public", posts[0].Content)
}

func TestStore_LikeIdempotency(t *testing.T) {
	store, author, viewer := newTestStore(t)
	ctx := context.Background()
	post := createPost(t, store, author.ID, "post", false)

	// Удаление несуществующего лайка - мягкий false без изменений.
	removed, err := store.DeleteLike(ctx, viewer.ID, post.ID)
	require.NoError(t, err)
	assert.False(t, removed)

	require.NoError(t, store.CreateLike(ctx, viewer.ID, post.ID))
	// Повторная вставка упирается в "уникальный индекс" и не плодит строк.
	require.NoError(t, store.CreateLike(ctx, viewer.ID, post.ID))

	stats, err := store.GetPostStatsByIDs(ctx, []string{post.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, stats[post.ID].Likes)

	removed, err = store.DeleteLike(ctx, viewer.ID, post.ID)
	require.NoError(t, err)
	assert.True(t, removed)
}

func TestStore_CreateRetweet(t *testing.T) {
	store, author, viewer := newTestStore(t)
	ctx := context.Background()
	origin := createPost(t, store, author.ID, "origin", false)

	retweet, err := store.CreateRetweet(ctx, viewer.ID, origin.ID, "check this out")
	require.NoError(t, err)
	assert.True(t, retweet.IsRetweet)
	require.NotNil(t, retweet.OriginalPostID)
	assert.Equal(t, origin.ID, *retweet.OriginalPostID)
	require.NotNil(t, retweet.OriginalPost)
	assert.Equal(t, "origin", retweet.OriginalPost.Content)

	exists, err := store.RetweetExists(ctx, viewer.ID, origin.ID)
	require.NoError(t, err)
	assert.True(t, exists)

	// Повторный ретвит того же оригинала - жесткий конфликт.
	_, err = store.CreateRetweet(ctx, viewer.ID, origin.ID, "again")
	assert.ErrorIs(t, err, domain.ErrAlreadyRetweeted)
}

func TestStore_CreateRetweetMissingOrigin(t *testing.T) {
	store, _, viewer := newTestStore(t)

	_, err := store.CreateRetweet(context.Background(), viewer.ID, "non-existent-id", "")
	assert.ErrorIs(t, err, domain.ErrPostNotFound)
}

func TestStore_TimelineCandidatesForNormalViewer(t *testing.T) {
	store, author, viewer := newTestStore(t)
	ctx := context.Background()

	createPost(t, store, author.ID, "public", false)
	createPost(t, store, author.ID, "gated", true)

	// Normal зритель получает и закрытый пост - урезание случится в движке.
	posts, err := store.GetTimelineCandidates(ctx, viewer)
	require.NoError(t, err)
	assert.Len(t, posts, 2)
}

func TestStore_TimelineCandidatesForPremiumViewer(t *testing.T) {
	store, author, _ := newTestStore(t)
	ctx := context.Background()

	premium, err := store.CreateUser(ctx, &domain.User{
		Username:    "premium-viewer",
		Email:       "pv@example.com",
		DisplayName: "PV",
		UserType:    domain.UserTypePremium,
	})
	require.NoError(t, err)

	createPost(t, store, author.ID, "public", false)
	gated := createPost(t, store, author.ID, "gated", true)
	own := createPost(t, store, premium.ID, "own gated", true)

	// Без подписки: чужой закрытый пост не попадает даже в кандидаты.
	posts, err := store.GetTimelineCandidates(ctx, premium)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	ids := []string{posts[0].ID, posts[1].ID}
	assert.NotContains(t, ids, gated.ID)
	assert.Contains(t, ids, own.ID)

	// С подпиской появляется.
	require.NoError(t, store.CreateSubscription(ctx, premium.ID, author.ID))
	posts, err = store.GetTimelineCandidates(ctx, premium)
	require.NoError(t, err)
	assert.Len(t, posts, 3)
}

func TestStore_TimelineCandidatesOrderedDesc(t *testing.T) {
	store, author, viewer := newTestStore(t)
	ctx := context.Background()

	first := createPost(t, store, author.ID, "first", false)
	second := createPost(t, store, author.ID, "second", true)
	third := createPost(t, store, author.ID, "third", false)

	posts, err := store.GetTimelineCandidates(ctx, viewer)
	require.NoError(t, err)
	require.Len(t, posts, 3)
	assert.Equal(t, third.ID, posts[0].ID)
	assert.Equal(t, second.ID, posts[1].ID)
	assert.Equal(t, first.ID, posts[2].ID)
}

func TestStore_DeletePostCascades(t *testing.T) {
	store, author, viewer := newTestStore(t)
	ctx := context.Background()

	origin := createPost(t, store, author.ID, "origin", false)
	require.NoError(t, store.CreateLike(ctx, viewer.ID, origin.ID))
	_, err := store.CreateComment(ctx, &domain.Comment{Content: "hi", UserID: viewer.ID, PostID: origin.ID})
	require.NoError(t, err)
	wrapper, err := store.CreateRetweet(ctx, viewer.ID, origin.ID, "")
	require.NoError(t, err)

	require.NoError(t, store.DeletePost(ctx, origin.ID))

	_, err = store.GetPostByID(ctx, origin.ID)
	assert.ErrorIs(t, err, domain.ErrPostNotFound)

	// Связи ушли каскадом.
	stats, err := store.GetPostStatsByIDs(ctx, []string{origin.ID})
	require.NoError(t, err)
	assert.Equal(t, domain.PostStats{}, stats[origin.ID])

	// Ссылка ретвита на оригинал обнулилась, сам ретвит жив.
	kept, err := store.GetPostByID(ctx, wrapper.ID)
	require.NoError(t, err)
	assert.True(t, kept.IsRetweet)
	assert.Nil(t, kept.OriginalPostID)
}

func TestStore_SubscriptionGraph(t *testing.T) {
	store, author, viewer := newTestStore(t)
	ctx := context.Background()

	exists, err := store.SubscriptionExists(ctx, viewer.ID, author.ID)
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, store.CreateSubscription(ctx, viewer.ID, author.ID))

	exists, err = store.SubscriptionExists(ctx, viewer.ID, author.ID)
	require.NoError(t, err)
	assert.True(t, exists)

	// Направленность: обратного ребра нет.
	exists, err = store.SubscriptionExists(ctx, author.ID, viewer.ID)
	require.NoError(t, err)
	assert.False(t, exists)

	publishers, err := store.PublishersSubscribedBy(ctx, viewer.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{author.ID}, publishers)

	removed, err := store.DeleteSubscription(ctx, viewer.ID, author.ID)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = store.DeleteSubscription(ctx, viewer.ID, author.ID)
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestStore_Follows(t *testing.T) {
	store, author, viewer := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateFollow(ctx, viewer.ID, author.ID))

	followers, err := store.GetFollowers(ctx, author.ID)
	require.NoError(t, err)
	require.Len(t, followers, 1)
	assert.Equal(t, viewer.ID, followers[0].ID)

	following, err := store.GetFollowing(ctx, viewer.ID)
	require.NoError(t, err)
	require.Len(t, following, 1)
	assert.Equal(t, author.ID, following[0].ID)

	count, err := store.CountFollowers(ctx, author.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	count, err = store.CountFollowing(ctx, author.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestStore_UserPostsPagination(t *testing.T) {
	store, author, _ := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		createPost(t, store, author.ID, "post", false)
	}
	createPost(t, store, author.ID, "gated", true)

	firstPage, err := store.GetPublicPostsByAuthor(ctx, author.ID, storage.PaginationArgs{Limit: 2})
	require.NoError(t, err)
	require.Len(t, firstPage, 2)

	secondPage, err := store.GetPublicPostsByAuthor(ctx, author.ID, storage.PaginationArgs{Limit: 10, Offset: 2})
	require.NoError(t, err)
	// Закрытый пост в публичную выдачу профиля не попадает.
	require.Len(t, secondPage, 3)
	assert.NotEqual(t, firstPage[0].ID, secondPage[0].ID)
}

func TestStore_PostStats(t *testing.T) {
	store, author, viewer := newTestStore(t)
	ctx := context.Background()
	post := createPost(t, store, author.ID, "post", false)

	require.NoError(t, store.CreateLike(ctx, viewer.ID, post.ID))
	require.NoError(t, store.CreateLike(ctx, author.ID, post.ID))
	_, err := store.CreateComment(ctx, &domain.Comment{Content: "one", UserID: viewer.ID, PostID: post.ID})
	require.NoError(t, err)
	_, err = store.CreateRetweet(ctx, viewer.ID, post.ID, "")
	require.NoError(t, err)

	stats, err := store.GetPostStatsByIDs(ctx, []string{post.ID, "missing"})
	require.NoError(t, err)
	assert.Equal(t, domain.PostStats{Likes: 2, Comments: 1, Retweets: 1}, stats[post.ID])
	assert.Equal(t, domain.PostStats{}, stats["missing"])
}
