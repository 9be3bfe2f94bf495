package graph

// This file will be automatically regenerated based on the schema, any resolver implementations
// will be copied through when generating and any unknown code will be moved to the end.
// Code generated by github.com/99designs/gqlgen version v0.17.45

import (
	"context"
	"errors"
	"github.com/UkralStul/graphql-timeline-service/graph/generated"
	"github.com/UkralStul/graphql-timeline-service/internal/dataloader"
	"github.com/UkralStul/graphql-timeline-service/internal/domain"
	"github.com/UkralStul/graphql-timeline-service/internal/storage"
	"github.com/google/uuid"
)

// Commenter is the resolver for the commenter field.
func (r *commentResolver) Commenter(ctx context.Context, obj *domain.Comment) (*domain.User, error) {
	if obj.Commenter != nil {
		return obj.Commenter, nil
	}
	return r.Storage.GetUserByID(ctx, obj.UserID)
}

// Post is the resolver for the post field.
func (r *commentResolver) Post(ctx context.Context, obj *domain.Comment) (*domain.Post, error) {
	if obj.Post != nil {
		return obj.Post, nil
	}
	return r.Storage.GetPostByID(ctx, obj.PostID)
}

// User is the resolver for the user field.
func (r *likeResolver) User(ctx context.Context, obj *domain.Like) (*domain.User, error) {
	if obj.User != nil {
		return obj.User, nil
	}
	return r.Storage.GetUserByID(ctx, obj.UserID)
}

// Post is the resolver for the post field.
func (r *likeResolver) Post(ctx context.Context, obj *domain.Like) (*domain.Post, error) {
	if obj.Post != nil {
		return obj.Post, nil
	}
	return r.Storage.GetPostByID(ctx, obj.PostID)
}

// CreateUser is the resolver for the createUser field.
func (r *mutationResolver) CreateUser(ctx context.Context, username string, email string, displayName string, userType *domain.UserType) (*domain.User, error) {
	user := &domain.User{
		Username:    username,
		Email:       email,
		DisplayName: displayName,
		UserType:    domain.UserTypeNormal,
	}
	if userType != nil {
		user.UserType = *userType
	}
	return r.Storage.CreateUser(ctx, user)
}

// CreatePost is the resolver for the createPost field.
func (r *mutationResolver) CreatePost(ctx context.Context, content string, imageData *string, isSubscribersOnly *bool, userID string) (*domain.Post, error) {
	author, err := r.Storage.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	gated := isSubscribersOnly != nil && *isSubscribersOnly
	// Инвариант закрытого поста проверяется только при создании:
	// userType неизменяем, повторной валидации не нужно.
	if gated && !author.IsPremium() {
		return nil, domain.ErrPremiumRequired
	}

	post, err := r.Storage.CreatePost(ctx, &domain.Post{
		Content:           content,
		ImageURL:          imageData,
		IsSubscribersOnly: gated,
		AuthorID:          userID,
	})
	if err != nil {
		return nil, err
	}

	if !post.IsSubscribersOnly {
		r.Observer.Notify(post)
	}
	return post, nil
}

// CreateRetweet сначала схлопывает цепочку до исходного поста, затем
// применяет гард и создает связь+пост одной операцией хранилища.
func (r *mutationResolver) CreateRetweet(ctx context.Context, postID string, content string, userID string) (*domain.Post, error) {
	target, err := r.Storage.GetPostByID(ctx, postID)
	if err != nil {
		return nil, err
	}

	// Ретвит ретвита всегда указывает на оригинал, а не на обертку.
	originID := target.ID
	if target.IsRetweet && target.OriginalPostID != nil {
		originID = *target.OriginalPostID
	}

	origin, err := r.Storage.GetPostByID(ctx, originID)
	if err != nil {
		return nil, err
	}

	actor, err := r.Storage.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := r.Guard.Authorize(ctx, actor, origin); err != nil {
		return nil, err
	}

	// Предварительная проверка - только короткое замыкание;
	// авторитетно дубль отвергает уникальный индекс в CreateRetweet.
	exists, err := r.Storage.RetweetExists(ctx, userID, originID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.ErrAlreadyRetweeted
	}

	retweet, err := r.Storage.CreateRetweet(ctx, userID, originID, content)
	if err != nil {
		return nil, err
	}

	r.Observer.Notify(retweet)
	return retweet, nil
}

// LikePost is the resolver for the likePost field.
func (r *mutationResolver) LikePost(ctx context.Context, postID string, userID string) (bool, error) {
	post, err := r.Storage.GetPostByID(ctx, postID)
	if err != nil {
		return false, err
	}
	actor, err := r.Storage.GetUserByID(ctx, userID)
	if err != nil {
		return false, err
	}

	if err := r.Guard.Authorize(ctx, actor, post); err != nil {
		return false, err
	}

	exists, err := r.Storage.LikeExists(ctx, userID, postID)
	if err != nil {
		return false, err
	}
	if exists {
		// Уже лайкнуто: мягкий no-op, не ошибка.
		return false, nil
	}

	if err := r.Storage.CreateLike(ctx, userID, postID); err != nil {
		return false, err
	}
	return true, nil
}

// UnlikePost is the resolver for the unlikePost field.
func (r *mutationResolver) UnlikePost(ctx context.Context, postID string, userID string) (bool, error) {
	return r.Storage.DeleteLike(ctx, userID, postID)
}

// CommentOnPost is the resolver for the commentOnPost field.
func (r *mutationResolver) CommentOnPost(ctx context.Context, postID string, content string, userID string) (*domain.Comment, error) {
	post, err := r.Storage.GetPostByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	actor, err := r.Storage.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := r.Guard.Authorize(ctx, actor, post); err != nil {
		return nil, err
	}

	return r.Storage.CreateComment(ctx, &domain.Comment{
		Content: content,
		UserID:  userID,
		PostID:  postID,
	})
}

// FollowUser is the resolver for the followUser field.
func (r *mutationResolver) FollowUser(ctx context.Context, followerID string, followingID string) (bool, error) {
	if followerID == followingID {
		return false, domain.ErrSelfFollow
	}

	exists, err := r.Storage.FollowExists(ctx, followerID, followingID)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	if err := r.Storage.CreateFollow(ctx, followerID, followingID); err != nil {
		return false, err
	}
	return true, nil
}

// UnfollowUser is the resolver for the unfollowUser field.
func (r *mutationResolver) UnfollowUser(ctx context.Context, followerID string, followingID string) (bool, error) {
	return r.Storage.DeleteFollow(ctx, followerID, followingID)
}

// SubscribeToUser is the resolver for the subscribeToUser field.
func (r *mutationResolver) SubscribeToUser(ctx context.Context, subscriberID string, publisherID string) (bool, error) {
	if subscriberID == publisherID {
		return false, domain.ErrSelfSubscription
	}

	// Издателем может быть только существующий premium пользователь.
	publisher, err := r.Storage.GetUserByID(ctx, publisherID)
	if err != nil || !publisher.IsPremium() {
		return false, domain.ErrPublisherNotPremium
	}

	exists, err := r.Storage.SubscriptionExists(ctx, subscriberID, publisherID)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	if err := r.Storage.CreateSubscription(ctx, subscriberID, publisherID); err != nil {
		return false, err
	}
	return true, nil
}

// UnsubscribeFromUser is the resolver for the unsubscribeFromUser field.
func (r *mutationResolver) UnsubscribeFromUser(ctx context.Context, subscriberID string, publisherID string) (bool, error) {
	return r.Storage.DeleteSubscription(ctx, subscriberID, publisherID)
}

// DeletePost is the resolver for the deletePost field.
func (r *mutationResolver) DeletePost(ctx context.Context, id string) (bool, error) {
	if err := r.Storage.DeletePost(ctx, id); err != nil {
		return false, err
	}
	return true, nil
}

// DeleteComment is the resolver for the deleteComment field.
func (r *mutationResolver) DeleteComment(ctx context.Context, id string) (bool, error) {
	if err := r.Storage.DeleteComment(ctx, id); err != nil {
		return false, err
	}
	return true, nil
}

// Author отдает автора из предзагруженной связи, а при ее отсутствии
// идет через дата-лоадер, чтобы не ловить N+1 на списках постов.
func (r *postResolver) Author(ctx context.Context, obj *domain.Post) (*domain.User, error) {
	if obj.Author != nil {
		return obj.Author, nil
	}
	if loaders := dataloader.For(ctx); loaders != nil {
		user, err := loaders.LoadUser(ctx, obj.AuthorID)
		if err != nil {
			return nil, err
		}
		if user == nil {
			return nil, domain.ErrUserNotFound
		}
		return user, nil
	}
	return r.Storage.GetUserByID(ctx, obj.AuthorID)
}

// Likes is the resolver for the likes field.
func (r *postResolver) Likes(ctx context.Context, obj *domain.Post) ([]*domain.Like, error) {
	return r.Storage.GetLikesByPostID(ctx, obj.ID)
}

// Comments is the resolver for the comments field.
func (r *postResolver) Comments(ctx context.Context, obj *domain.Post) ([]*domain.Comment, error) {
	return r.Storage.GetCommentsByPostID(ctx, obj.ID)
}

// Retweets is the resolver for the retweets field.
func (r *postResolver) Retweets(ctx context.Context, obj *domain.Post) ([]*domain.Retweet, error) {
	return r.Storage.GetRetweetsByPostID(ctx, obj.ID)
}

// LikesCount is the resolver for the likesCount field.
func (r *postResolver) LikesCount(ctx context.Context, obj *domain.Post) (int, error) {
	stats, err := r.postStats(ctx, obj.ID)
	return stats.Likes, err
}

// CommentsCount is the resolver for the commentsCount field.
func (r *postResolver) CommentsCount(ctx context.Context, obj *domain.Post) (int, error) {
	stats, err := r.postStats(ctx, obj.ID)
	return stats.Comments, err
}

// RetweetsCount is the resolver for the retweetsCount field.
func (r *postResolver) RetweetsCount(ctx context.Context, obj *domain.Post) (int, error) {
	stats, err := r.postStats(ctx, obj.ID)
	return stats.Retweets, err
}

// IsLiked и IsRetweeted требуют контекста зрителя, которого на этом
// транспорте нет (идентификация - явный аргумент запроса), поэтому
// всегда false. Клиент вычисляет их сам из списков likes/retweets.
func (r *postResolver) IsLiked(ctx context.Context, obj *domain.Post) (bool, error) {
	return false, nil
}

// IsRetweeted is the resolver for the isRetweeted field.
func (r *postResolver) IsRetweeted(ctx context.Context, obj *domain.Post) (bool, error) {
	return false, nil
}

// OriginalPost is the resolver for the originalPost field.
func (r *postResolver) OriginalPost(ctx context.Context, obj *domain.Post) (*domain.Post, error) {
	if !obj.IsRetweet || obj.OriginalPostID == nil {
		return nil, nil
	}
	if obj.OriginalPost != nil {
		return obj.OriginalPost, nil
	}
	post, err := r.Storage.GetPostByID(ctx, *obj.OriginalPostID)
	if errors.Is(err, domain.ErrPostNotFound) {
		// Оригинал удален: ссылка обнуляется каскадом, поле пустое.
		return nil, nil
	}
	return post, err
}

// GetAllUsers is the resolver for the getAllUsers field.
func (r *queryResolver) GetAllUsers(ctx context.Context) ([]*domain.User, error) {
	return r.Storage.GetUsers(ctx)
}

// GetAllPosts возвращает только публичные посты. Посты с потерянным
// автором отбрасываются - защитный фильтр целостности, как в таймлайне.
func (r *queryResolver) GetAllPosts(ctx context.Context) ([]*domain.Post, error) {
	posts, err := r.Storage.GetPublicPosts(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]*domain.Post, 0, len(posts))
	for _, p := range posts {
		if p.Author != nil {
			result = append(result, p)
		}
	}
	return result, nil
}

// GetTimeline - путь чтения ядра: отбор кандидатов хранилищем и
// проекция движком видимости для конкретного зрителя.
func (r *queryResolver) GetTimeline(ctx context.Context, userID string) ([]*domain.Post, error) {
	viewer, err := r.Storage.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	candidates, err := r.Storage.GetTimelineCandidates(ctx, viewer)
	if err != nil {
		return nil, err
	}

	return r.Engine.ProjectTimeline(ctx, viewer, candidates)
}

// User is the resolver for the user field.
func (r *queryResolver) User(ctx context.Context, username string) (*domain.User, error) {
	user, err := r.Storage.GetUserByUsername(ctx, username)
	if errors.Is(err, domain.ErrUserNotFound) {
		return nil, nil
	}
	return user, err
}

// Post is the resolver for the post field.
func (r *queryResolver) Post(ctx context.Context, id string) (*domain.Post, error) {
	post, err := r.Storage.GetPostByID(ctx, id)
	if errors.Is(err, domain.ErrPostNotFound) {
		return nil, nil
	}
	return post, err
}

// UserPosts is the resolver for the userPosts field.
func (r *queryResolver) UserPosts(ctx context.Context, username string, limit *int, offset *int) ([]*domain.Post, error) {
	user, err := r.Storage.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	args := storage.PaginationArgs{Limit: defaultUserPostsLimit}
	if limit != nil {
		args.Limit = *limit
	}
	if offset != nil {
		args.Offset = *offset
	}
	return r.Storage.GetPublicPostsByAuthor(ctx, user.ID, args)
}

// Retweeter is the resolver for the retweeter field.
func (r *retweetResolver) Retweeter(ctx context.Context, obj *domain.Retweet) (*domain.User, error) {
	if obj.Retweeter != nil {
		return obj.Retweeter, nil
	}
	return r.Storage.GetUserByID(ctx, obj.UserID)
}

// RetweetedPost is the resolver for the retweetedPost field.
func (r *retweetResolver) RetweetedPost(ctx context.Context, obj *domain.Retweet) (*domain.Post, error) {
	if obj.RetweetedPost != nil {
		return obj.RetweetedPost, nil
	}
	return r.Storage.GetPostByID(ctx, obj.PostID)
}

// PostAdded is the resolver for the postAdded field.
func (r *subscriptionResolver) PostAdded(ctx context.Context) (<-chan *domain.Post, error) {
	ch := make(chan *domain.Post, 1)
	subID := uuid.NewString()

	r.Observer.Subscribe(subID, ch)

	// Горутина для очистки при отключении клиента.
	go func() {
		<-ctx.Done()
		r.Observer.Unsubscribe(subID)
	}()

	return ch, nil
}

// Posts is the resolver for the posts field.
func (r *userResolver) Posts(ctx context.Context, obj *domain.User) ([]*domain.Post, error) {
	return r.Storage.GetPostsByAuthor(ctx, obj.ID)
}

// Followers is the resolver for the followers field.
func (r *userResolver) Followers(ctx context.Context, obj *domain.User) ([]*domain.User, error) {
	return r.Storage.GetFollowers(ctx, obj.ID)
}

// Following is the resolver for the following field.
func (r *userResolver) Following(ctx context.Context, obj *domain.User) ([]*domain.User, error) {
	return r.Storage.GetFollowing(ctx, obj.ID)
}

// FollowersCount is the resolver for the followersCount field.
func (r *userResolver) FollowersCount(ctx context.Context, obj *domain.User) (int, error) {
	return r.Storage.CountFollowers(ctx, obj.ID)
}

// FollowingCount is the resolver for the followingCount field.
func (r *userResolver) FollowingCount(ctx context.Context, obj *domain.User) (int, error) {
	return r.Storage.CountFollowing(ctx, obj.ID)
}

// SubscribersCount is the resolver for the subscribersCount field.
func (r *userResolver) SubscribersCount(ctx context.Context, obj *domain.User) (int, error) {
	return r.Storage.CountSubscribers(ctx, obj.ID)
}

// SubscriptionsCount is the resolver for the subscriptionsCount field.
func (r *userResolver) SubscriptionsCount(ctx context.Context, obj *domain.User) (int, error) {
	return r.Storage.CountSubscriptions(ctx, obj.ID)
}

// Comment returns generated.CommentResolver implementation.
func (r *Resolver) Comment() generated.CommentResolver { return &commentResolver{r} }

// Like returns generated.LikeResolver implementation.
func (r *Resolver) Like() generated.LikeResolver { return &likeResolver{r} }

// Mutation returns generated.MutationResolver implementation.
func (r *Resolver) Mutation() generated.MutationResolver { return &mutationResolver{r} }

// Post returns generated.PostResolver implementation.
func (r *Resolver) Post() generated.PostResolver { return &postResolver{r} }

// Query returns generated.QueryResolver implementation.
func (r *Resolver) Query() generated.QueryResolver { return &queryResolver{r} }

// Retweet returns generated.RetweetResolver implementation.
func (r *Resolver) Retweet() generated.RetweetResolver { return &retweetResolver{r} }

// Subscription returns generated.SubscriptionResolver implementation.
func (r *Resolver) Subscription() generated.SubscriptionResolver { return &subscriptionResolver{r} }

// User returns generated.UserResolver implementation.
func (r *Resolver) User() generated.UserResolver { return &userResolver{r} }

type commentResolver struct{ *Resolver }
type likeResolver struct{ *Resolver }
type mutationResolver struct{ *Resolver }
type postResolver struct{ *Resolver }
type queryResolver struct{ *Resolver }
type retweetResolver struct{ *Resolver }
type subscriptionResolver struct{ *Resolver }
type userResolver struct{ *Resolver }

// !!! WARNING !!!
// The code below was going to be deleted when updating resolvers. It has been copied here so you have
// one last chance to move it out of harms way if you want. There are two reasons this happens:
//  - When renaming or deleting a resolver the old code will be put in here. You can safely delete
//    it when you're done.
//  - You have helper methods in this file. Move them out to keep these resolver files clean.
const defaultUserPostsLimit = 20

func (r *postResolver) postStats(ctx context.Context, postID string) (domain.PostStats, error) {
	if loaders := dataloader.For(ctx); loaders != nil {
		return loaders.LoadStats(ctx, postID)
	}
	stats, err := r.Storage.GetPostStatsByIDs(ctx, []string{postID})
	if err != nil {
		return domain.PostStats{}, err
	}
	return stats[postID], nil
}
