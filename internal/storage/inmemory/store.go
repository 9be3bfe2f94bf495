package inmemory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/UkralStul/graphql-timeline-service/internal/domain"
	"github.com/UkralStul/graphql-timeline-service/internal/storage"
	"github.com/UkralStul/graphql-timeline-service/internal/visibility"
	"github.com/google/uuid"
)

// Store реализует интерфейс Storage в памяти.
type Store struct {
	mu            sync.RWMutex
	users         map[string]*domain.User
	usersByName   map[string]string // map[username]userID
	posts         map[string]*domain.Post
	likes         map[string]*domain.Like         // map[userID|postID]
	comments      map[string]*domain.Comment      // map[commentID]
	retweets      map[string]*domain.Retweet      // map[userID|originID]
	subscriptions map[string]*domain.Subscription // map[subscriberID|publisherID]
	follows       map[string]*domain.Follow       // map[followerID|followingID]
}

// New создает новый экземпляр in-memory хранилища.
func New() *Store {
	return &Store{
		users:         make(map[string]*domain.User),
		usersByName:   make(map[string]string),
		posts:         make(map[string]*domain.Post),
		likes:         make(map[string]*domain.Like),
		comments:      make(map[string]*domain.Comment),
		retweets:      make(map[string]*domain.Retweet),
		subscriptions: make(map[string]*domain.Subscription),
		follows:       make(map[string]*domain.Follow),
	}
}

// pairKey - ключ для связей, уникальных по паре идентификаторов.
// Эмулирует уникальный индекс реляционного хранилища.
func pairKey(a, b string) string {
	return a + "|" + b
}

// === User Methods ===

func (s *Store) CreateUser(ctx context.Context, user *domain.User) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user.ID = uuid.NewString()
	user.CreatedAt = time.Now().UTC()
	s.users[user.ID] = user
	s.usersByName[user.Username] = user.ID
	return user, nil
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return user, nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.usersByName[username]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return s.users[id], nil
}

func (s *Store) GetUsers(ctx context.Context) ([]*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]*domain.User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool {
		return users[i].CreatedAt.Before(users[j].CreatedAt)
	})
	return users, nil
}

// === Post Methods ===

func (s *Store) CreatePost(ctx context.Context, post *domain.Post) (*domain.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	post.ID = uuid.NewString()
	post.CreatedAt = time.Now().UTC()
	s.posts[post.ID] = post
	return s.withRelations(post), nil
}

func (s *Store) GetPostByID(ctx context.Context, id string) (*domain.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	post, ok := s.posts[id]
	if !ok {
		return nil, domain.ErrPostNotFound
	}
	return s.withRelations(post), nil
}

func (s *Store) GetPublicPosts(ctx context.Context) ([]*domain.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	posts := make([]*domain.Post, 0, len(s.posts))
	for _, p := range s.posts {
		if !p.IsSubscribersOnly {
			posts = append(posts, s.withRelations(p))
		}
	}
	sortPostsByCreatedAtDesc(posts)
	return posts, nil
}

func (s *Store) GetPublicPostsByAuthor(ctx context.Context, authorID string, args storage.PaginationArgs) ([]*domain.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	posts := make([]*domain.Post, 0)
	for _, p := range s.posts {
		if p.AuthorID == authorID && !p.IsSubscribersOnly {
			posts = append(posts, s.withRelations(p))
		}
	}
	sortPostsByCreatedAtDesc(posts)

	start := args.Offset
	if start >= len(posts) {
		return []*domain.Post{}, nil
	}
	end := start + args.Limit
	if end > len(posts) {
		end = len(posts)
	}
	return posts[start:end], nil
}

func (s *Store) GetPostsByAuthor(ctx context.Context, authorID string) ([]*domain.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	posts := make([]*domain.Post, 0)
	for _, p := range s.posts {
		if p.AuthorID == authorID {
			posts = append(posts, s.withRelations(p))
		}
	}
	sortPostsByCreatedAtDesc(posts)
	return posts, nil
}

// GetTimelineCandidates отбирает кандидатов таймлайна, применяя
// visibility.CandidateFilter напрямую - тот же предикат, что postgres
// выражает через WHERE.
func (s *Store) GetTimelineCandidates(ctx context.Context, viewer *domain.User) ([]*domain.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	subscribedTo := make(map[string]bool)
	for _, sub := range s.subscriptions {
		if sub.SubscriberID == viewer.ID {
			subscribedTo[sub.PublisherID] = true
		}
	}

	posts := make([]*domain.Post, 0, len(s.posts))
	for _, p := range s.posts {
		if visibility.CandidateFilter(viewer, p, subscribedTo) {
			posts = append(posts, s.withRelations(p))
		}
	}
	sortPostsByCreatedAtDesc(posts)
	return posts, nil
}

func (s *Store) DeletePost(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.posts[id]; !ok {
		return domain.ErrPostNotFound
	}
	delete(s.posts, id)

	// Каскад: связи удаляемого поста уходят вместе с ним,
	// ссылка originalPostId у ретвитов обнуляется (SET NULL).
	for key, like := range s.likes {
		if like.PostID == id {
			delete(s.likes, key)
		}
	}
	for key, c := range s.comments {
		if c.PostID == id {
			delete(s.comments, key)
		}
	}
	for key, rt := range s.retweets {
		if rt.PostID == id {
			delete(s.retweets, key)
		}
	}
	for _, p := range s.posts {
		if p.OriginalPostID != nil && *p.OriginalPostID == id {
			p.OriginalPostID = nil
		}
	}
	return nil
}

// === Like Methods ===

func (s *Store) LikeExists(ctx context.Context, userID, postID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.likes[pairKey(userID, postID)]
	return ok, nil
}

func (s *Store) CreateLike(ctx context.Context, userID, postID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := pairKey(userID, postID)
	if _, ok := s.likes[key]; ok {
		// Граница записи идемпотентна, как уникальный индекс в БД.
		return nil
	}
	s.likes[key] = &domain.Like{
		ID:        uuid.NewString(),
		UserID:    userID,
		PostID:    postID,
		CreatedAt: time.Now().UTC(),
	}
	return nil
}

func (s *Store) DeleteLike(ctx context.Context, userID, postID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := pairKey(userID, postID)
	if _, ok := s.likes[key]; !ok {
		return false, nil
	}
	delete(s.likes, key)
	return true, nil
}

func (s *Store) GetLikesByPostID(ctx context.Context, postID string) ([]*domain.Like, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	likes := make([]*domain.Like, 0)
	for _, l := range s.likes {
		if l.PostID == postID {
			likes = append(likes, l)
		}
	}
	sort.Slice(likes, func(i, j int) bool {
		return likes[i].CreatedAt.Before(likes[j].CreatedAt)
	})
	return likes, nil
}

// === Comment Methods ===

func (s *Store) CreateComment(ctx context.Context, comment *domain.Comment) (*domain.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	comment.ID = uuid.NewString()
	comment.CreatedAt = time.Now().UTC()
	s.comments[comment.ID] = comment
	return comment, nil
}

func (s *Store) GetCommentsByPostID(ctx context.Context, postID string) ([]*domain.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	comments := make([]*domain.Comment, 0)
	for _, c := range s.comments {
		if c.PostID == postID {
			comments = append(comments, c)
		}
	}
	sort.Slice(comments, func(i, j int) bool {
		return comments[i].CreatedAt.Before(comments[j].CreatedAt)
	})
	return comments, nil
}

func (s *Store) DeleteComment(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.comments[id]; !ok {
		return domain.ErrCommentNotFound
	}
	delete(s.comments, id)
	return nil
}

// === Retweet Methods ===

func (s *Store) RetweetExists(ctx context.Context, userID, originID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.retweets[pairKey(userID, originID)]
	return ok, nil
}

// CreateRetweet создает связь-ретвит и новый пост под одной блокировкой:
// частично примененного ретвита снаружи не видно.
func (s *Store) CreateRetweet(ctx context.Context, userID, originID, content string) (*domain.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.posts[originID]; !ok {
		return nil, domain.ErrPostNotFound
	}
	key := pairKey(userID, originID)
	if _, ok := s.retweets[key]; ok {
		return nil, domain.ErrAlreadyRetweeted
	}

	s.retweets[key] = &domain.Retweet{
		ID:        uuid.NewString(),
		UserID:    userID,
		PostID:    originID,
		CreatedAt: time.Now().UTC(),
	}

	originalPostID := originID
	post := &domain.Post{
		ID:             uuid.NewString(),
		Content:        content,
		AuthorID:       userID,
		IsRetweet:      true,
		OriginalPostID: &originalPostID,
		CreatedAt:      time.Now().UTC(),
	}
	s.posts[post.ID] = post
	return s.withRelations(post), nil
}

func (s *Store) GetRetweetsByPostID(ctx context.Context, postID string) ([]*domain.Retweet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	retweets := make([]*domain.Retweet, 0)
	for _, rt := range s.retweets {
		if rt.PostID == postID {
			retweets = append(retweets, rt)
		}
	}
	sort.Slice(retweets, func(i, j int) bool {
		return retweets[i].CreatedAt.Before(retweets[j].CreatedAt)
	})
	return retweets, nil
}

// === Subscription Graph Methods ===

func (s *Store) SubscriptionExists(ctx context.Context, subscriberID, publisherID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.subscriptions[pairKey(subscriberID, publisherID)]
	return ok, nil
}

func (s *Store) PublishersSubscribedBy(ctx context.Context, subscriberID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	publishers := make([]string, 0)
	for _, sub := range s.subscriptions {
		if sub.SubscriberID == subscriberID {
			publishers = append(publishers, sub.PublisherID)
		}
	}
	return publishers, nil
}

func (s *Store) CreateSubscription(ctx context.Context, subscriberID, publisherID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := pairKey(subscriberID, publisherID)
	if _, ok := s.subscriptions[key]; ok {
		return nil
	}
	s.subscriptions[key] = &domain.Subscription{
		ID:           uuid.NewString(),
		SubscriberID: subscriberID,
		PublisherID:  publisherID,
		CreatedAt:    time.Now().UTC(),
	}
	return nil
}

func (s *Store) DeleteSubscription(ctx context.Context, subscriberID, publisherID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := pairKey(subscriberID, publisherID)
	if _, ok := s.subscriptions[key]; !ok {
		return false, nil
	}
	delete(s.subscriptions, key)
	return true, nil
}

// === Follow Methods ===

func (s *Store) FollowExists(ctx context.Context, followerID, followingID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.follows[pairKey(followerID, followingID)]
	return ok, nil
}

func (s *Store) CreateFollow(ctx context.Context, followerID, followingID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := pairKey(followerID, followingID)
	if _, ok := s.follows[key]; ok {
		return nil
	}
	s.follows[key] = &domain.Follow{
		ID:          uuid.NewString(),
		FollowerID:  followerID,
		FollowingID: followingID,
		CreatedAt:   time.Now().UTC(),
	}
	return nil
}

func (s *Store) DeleteFollow(ctx context.Context, followerID, followingID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := pairKey(followerID, followingID)
	if _, ok := s.follows[key]; !ok {
		return false, nil
	}
	delete(s.follows, key)
	return true, nil
}

func (s *Store) GetFollowers(ctx context.Context, userID string) ([]*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]*domain.User, 0)
	for _, f := range s.follows {
		if f.FollowingID == userID {
			if u, ok := s.users[f.FollowerID]; ok {
				users = append(users, u)
			}
		}
	}
	return users, nil
}

func (s *Store) GetFollowing(ctx context.Context, userID string) ([]*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]*domain.User, 0)
	for _, f := range s.follows {
		if f.FollowerID == userID {
			if u, ok := s.users[f.FollowingID]; ok {
				users = append(users, u)
			}
		}
	}
	return users, nil
}

// === Count Methods ===

func (s *Store) CountFollowers(ctx context.Context, userID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, f := range s.follows {
		if f.FollowingID == userID {
			count++
		}
	}
	return count, nil
}

func (s *Store) CountFollowing(ctx context.Context, userID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, f := range s.follows {
		if f.FollowerID == userID {
			count++
		}
	}
	return count, nil
}

func (s *Store) CountSubscribers(ctx context.Context, userID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, sub := range s.subscriptions {
		if sub.PublisherID == userID {
			count++
		}
	}
	return count, nil
}

func (s *Store) CountSubscriptions(ctx context.Context, userID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, sub := range s.subscriptions {
		if sub.SubscriberID == userID {
			count++
		}
	}
	return count, nil
}

// === Dataloader Methods ===

func (s *Store) GetUsersByIDs(ctx context.Context, ids []string) (map[string]*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]*domain.User, len(ids))
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			result[id] = u
		}
	}
	return result, nil
}

func (s *Store) GetPostStatsByIDs(ctx context.Context, postIDs []string) (map[string]domain.PostStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]domain.PostStats, len(postIDs))
	for _, id := range postIDs {
		result[id] = domain.PostStats{}
	}
	for _, l := range s.likes {
		if stats, ok := result[l.PostID]; ok {
			stats.Likes++
			result[l.PostID] = stats
		}
	}
	for _, c := range s.comments {
		if stats, ok := result[c.PostID]; ok {
			stats.Comments++
			result[c.PostID] = stats
		}
	}
	for _, rt := range s.retweets {
		if stats, ok := result[rt.PostID]; ok {
			stats.Retweets++
			result[rt.PostID] = stats
		}
	}
	return result, nil
}

// === Helpers ===

// withRelations возвращает неглубокую копию поста с подтянутым автором
// и исходным постом. Отсутствующий автор остается nil - это сигнал
// для защитного фильтра движка видимости.
func (s *Store) withRelations(post *domain.Post) *domain.Post {
	p := *post
	p.Author = s.users[p.AuthorID]
	if p.OriginalPostID != nil {
		if orig, ok := s.posts[*p.OriginalPostID]; ok {
			o := *orig
			o.Author = s.users[o.AuthorID]
			p.OriginalPost = &o
		}
	}
	return &p
}

func sortPostsByCreatedAtDesc(posts []*domain.Post) {
	sort.SliceStable(posts, func(i, j int) bool {
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})
}
