package visibility

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/UkralStul/graphql-timeline-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubGraph - граф подписок для тестов, без хранилища.
type stubGraph struct {
	edges map[string]bool // map["subscriberID|publisherID"]
}

func (g *stubGraph) SubscriptionExists(ctx context.Context, subscriberID, publisherID string) (bool, error) {
	return g.edges[subscriberID+"|"+publisherID], nil
}

func (g *stubGraph) PublishersSubscribedBy(ctx context.Context, subscriberID string) ([]string, error) {
	var publishers []string
	for key, ok := range g.edges {
		if !ok {
			continue
		}
		sub, pub, found := strings.Cut(key, "|")
		if found && sub == subscriberID {
			publishers = append(publishers, pub)
		}
	}
	return publishers, nil
}

func newGraph(edges ...[2]string) *stubGraph {
	g := &stubGraph{edges: make(map[string]bool)}
	for _, e := range edges {
		g.edges[e[0]+"|"+e[1]] = true
	}
	return g
}

func normalUser(id string) *domain.User {
	return &domain.User{ID: id, Username: id, UserType: domain.UserTypeNormal}
}

func premiumUser(id string) *domain.User {
	return &domain.User{ID: id, Username: id, UserType: domain.UserTypePremium}
}

func gatedPost(id string, author *domain.User, content string, createdAt time.Time) *domain.Post {
	return &domain.Post{
		ID:                id,
		Content:           content,
		IsSubscribersOnly: true,
		AuthorID:          author.ID,
		Author:            author,
		CreatedAt:         createdAt,
	}
}

func publicPost(id string, author *domain.User, content string, createdAt time.Time) *domain.Post {
	return &domain.Post{
		ID:        id,
		Content:   content,
		AuthorID:  author.ID,
		Author:    author,
		CreatedAt: createdAt,
	}
}

func TestDecide(t *testing.T) {
	author := premiumUser("author")
	gated := gatedPost("p1", author, "secret content", time.Now())
	public := publicPost("p2", author, "public content", time.Now())

	tests := []struct {
		name       string
		viewer     *domain.User
		post       *domain.Post
		subscribed bool
		want       Decision
	}{
		{"public post is always full", normalUser("n"), public, false, DecisionFull},
		{"author sees own gated post", author, gated, false, DecisionFull},
		{"subscriber sees gated post", normalUser("n"), gated, true, DecisionFull},
		{"subscribed premium sees gated post", premiumUser("p"), gated, true, DecisionFull},
		{"unsubscribed premium is excluded", premiumUser("p"), gated, false, DecisionExcluded},
		{"unsubscribed normal gets teaser", normalUser("n"), gated, false, DecisionTruncated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Decide(tt.viewer, tt.post, tt.subscribed))
		})
	}
}

func TestCandidateFilter(t *testing.T) {
	author := premiumUser("author")
	viewerPremium := premiumUser("viewer")
	viewerNormal := normalUser("viewer")
	gated := gatedPost("p1", author, "secret", time.Now())
	public := publicPost("p2", author, "public", time.Now())
	ownGated := gatedPost("p3", viewerPremium, "own secret", time.Now())

	assert.True(t, CandidateFilter(viewerNormal, public, nil))
	assert.True(t, CandidateFilter(viewerPremium, public, nil))

	// Normal зритель получает все закрытые посты ради тизера.
	assert.True(t, CandidateFilter(viewerNormal, gated, nil))

	// Premium - только свои и по подписке.
	assert.False(t, CandidateFilter(viewerPremium, gated, nil))
	assert.True(t, CandidateFilter(viewerPremium, gated, map[string]bool{"author": true}))
	assert.True(t, CandidateFilter(viewerPremium, ownGated, nil))
}

func TestProjectTimeline_TruncatesForNormalViewer(t *testing.T) {
	author := premiumUser("author")
	viewer := normalUser("viewer")
	image := "data:image/png;base64,AAAA"
	post := gatedPost("p1", author, "a very long subscriber-only post body", time.Now())
	post.ImageURL = &image

	engine := NewEngine(newGraph())
	result, err := engine.ProjectTimeline(context.Background(), viewer, []*domain.Post{post})
	require.NoError(t, err)
	require.Len(t, result, 1)

	projected := result[0]
	assert.True(t, projected.IsContentTruncated)
	assert.Equal(t, "a very lon...", projected.Content)
	assert.LessOrEqual(t, len([]rune(projected.Content)), 13)
	assert.Nil(t, projected.ImageURL)

	// Исходный пост не мутируется.
	assert.Equal(t, "a very long subscriber-only post body", post.Content)
	assert.NotNil(t, post.ImageURL)
	assert.False(t, post.IsContentTruncated)
}

func TestProjectTimeline_ShortContentTruncation(t *testing.T) {
	author := premiumUser("author")
	viewer := normalUser("viewer")
	post := gatedPost("p1", author, "short", time.Now())

	engine := NewEngine(newGraph())
	result, err := engine.ProjectTimeline(context.Background(), viewer, []*domain.Post{post})
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, "short...", result[0].Content)
}

func TestProjectTimeline_FullForSubscriber(t *testing.T) {
	author := premiumUser("author")
	viewer := normalUser("viewer")
	post := gatedPost("p1", author, "subscriber-only content", time.Now())

	engine := NewEngine(newGraph([2]string{"viewer", "author"}))
	result, err := engine.ProjectTimeline(context.Background(), viewer, []*domain.Post{post})
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.False(t, result[0].IsContentTruncated)
	assert.Equal(t, "subscriber-only content", result[0].Content)
}

func TestProjectTimeline_ExcludesForUnsubscribedPremium(t *testing.T) {
	author := premiumUser("author")
	viewer := premiumUser("viewer")
	gated := gatedPost("p1", author, "secret", time.Now())
	public := publicPost("p2", author, "public", time.Now())
	own := gatedPost("p3", viewer, "own secret", time.Now())

	engine := NewEngine(newGraph())
	result, err := engine.ProjectTimeline(context.Background(), viewer, []*domain.Post{gated, public, own})
	require.NoError(t, err)

	// Чужой закрытый пост исключен целиком, а не урезан.
	require.Len(t, result, 2)
	for _, p := range result {
		assert.NotEqual(t, "p1", p.ID)
		assert.False(t, p.IsContentTruncated)
	}
}

func TestProjectTimeline_DropsAuthorlessPosts(t *testing.T) {
	author := premiumUser("author")
	viewer := normalUser("viewer")
	orphan := publicPost("p1", author, "orphan", time.Now())
	orphan.Author = nil
	ok := publicPost("p2", author, "fine", time.Now())

	engine := NewEngine(newGraph())
	result, err := engine.ProjectTimeline(context.Background(), viewer, []*domain.Post{orphan, ok})
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, "p2", result[0].ID)
}

func TestProjectTimeline_Deduplicates(t *testing.T) {
	author := premiumUser("author")
	viewer := normalUser("viewer")
	post := publicPost("p1", author, "once", time.Now())

	engine := NewEngine(newGraph())
	// Пост удовлетворил двум правилам отбора и пришел дважды.
	result, err := engine.ProjectTimeline(context.Background(), viewer, []*domain.Post{post, post})
	require.NoError(t, err)
	assert.Len(t, result, 1)
}

func TestProjectTimeline_OrdersByCreatedAtDesc(t *testing.T) {
	author := premiumUser("author")
	viewer := normalUser("viewer")
	base := time.Now()

	t1 := publicPost("p1", author, "first", base)
	t2 := gatedPost("p2", author, "second gated post body", base.Add(time.Second))
	t3 := publicPost("p3", author, "third", base.Add(2*time.Second))

	engine := NewEngine(newGraph())
	// Подаем вперемешку: порядок на выходе не должен зависеть от того,
	// какое правило отбора пост прошел.
	result, err := engine.ProjectTimeline(context.Background(), viewer, []*domain.Post{t2, t1, t3})
	require.NoError(t, err)
	require.Len(t, result, 3)
	assert.Equal(t, "p3", result[0].ID)
	assert.Equal(t, "p2", result[1].ID)
	assert.Equal(t, "p1", result[2].ID)
}

func TestProjectTimeline_RetweetUsesWrapperDecisionForOriginal(t *testing.T) {
	author := premiumUser("author")
	viewer := normalUser("viewer")
	image := "data:image/png;base64,BBBB"

	origin := publicPost("origin", author, "the original public post body", time.Now())
	origin.ImageURL = &image

	// Обертка-ретвит закрыта: решение для нее - Truncated, и вложенный
	// оригинал урезается тем же решением, хотя сам он публичный.
	wrapper := gatedPost("wrapper", author, "gated retweet commentary", time.Now().Add(time.Second))
	wrapper.IsRetweet = true
	originID := origin.ID
	wrapper.OriginalPostID = &originID
	wrapper.OriginalPost = origin

	engine := NewEngine(newGraph())
	result, err := engine.ProjectTimeline(context.Background(), viewer, []*domain.Post{wrapper})
	require.NoError(t, err)
	require.Len(t, result, 1)

	projected := result[0]
	assert.True(t, projected.IsContentTruncated)
	require.NotNil(t, projected.OriginalPost)
	assert.Equal(t, "the origin...", projected.OriginalPost.Content)
	assert.Nil(t, projected.OriginalPost.ImageURL)

	// Сам оригинал не мутируется.
	assert.Equal(t, "the original public post body", origin.Content)
	assert.NotNil(t, origin.ImageURL)
}

func TestProjectTimeline_RetweetOriginalFullWhenWrapperFull(t *testing.T) {
	author := premiumUser("author")
	viewer := normalUser("viewer")

	origin := publicPost("origin", author, "the original public post body", time.Now())
	wrapper := publicPost("wrapper", author, "just resharing", time.Now().Add(time.Second))
	wrapper.IsRetweet = true
	originID := origin.ID
	wrapper.OriginalPostID = &originID
	wrapper.OriginalPost = origin

	engine := NewEngine(newGraph())
	result, err := engine.ProjectTimeline(context.Background(), viewer, []*domain.Post{wrapper})
	require.NoError(t, err)
	require.Len(t, result, 1)
	require.NotNil(t, result[0].OriginalPost)
	assert.Equal(t, "the original public post body", result[0].OriginalPost.Content)
	assert.False(t, result[0].OriginalPost.IsContentTruncated)
}
