package storage

import (
	"context"

	"github.com/UkralStul/graphql-timeline-service/internal/domain"
)

// PaginationArgs - аргументы для пагинации по limit/offset.
type PaginationArgs struct {
	Limit  int
	Offset int
}

// Storage определяет контракт для хранилищ. Уникальные индексы на парах
// (user, post) и (subscriber, publisher) - авторитетная защита от дублей;
// предварительные проверки существования в реализациях - только
// короткое замыкание.
type Storage interface {
	// Пользователи
	CreateUser(ctx context.Context, user *domain.User) (*domain.User, error)
	GetUserByID(ctx context.Context, id string) (*domain.User, error)
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)
	GetUsers(ctx context.Context) ([]*domain.User, error)

	// Посты
	CreatePost(ctx context.Context, post *domain.Post) (*domain.Post, error)
	GetPostByID(ctx context.Context, id string) (*domain.Post, error)
	GetPublicPosts(ctx context.Context) ([]*domain.Post, error)
	GetPublicPostsByAuthor(ctx context.Context, authorID string, args PaginationArgs) ([]*domain.Post, error)
	GetPostsByAuthor(ctx context.Context, authorID string) ([]*domain.Post, error)
	// GetTimelineCandidates воспроизводит предикат visibility.CandidateFilter.
	GetTimelineCandidates(ctx context.Context, viewer *domain.User) ([]*domain.Post, error)
	DeletePost(ctx context.Context, id string) error

	// Лайки
	LikeExists(ctx context.Context, userID, postID string) (bool, error)
	CreateLike(ctx context.Context, userID, postID string) error
	// DeleteLike возвращает false, если лайка не было.
	DeleteLike(ctx context.Context, userID, postID string) (bool, error)
	GetLikesByPostID(ctx context.Context, postID string) ([]*domain.Like, error)

	// Комментарии
	CreateComment(ctx context.Context, comment *domain.Comment) (*domain.Comment, error)
	GetCommentsByPostID(ctx context.Context, postID string) ([]*domain.Comment, error)
	DeleteComment(ctx context.Context, id string) error

	// Ретвиты. CreateRetweet создает связь и новый пост одной атомарной
	// операцией; originID обязан быть исходным (не ретвитным) постом.
	RetweetExists(ctx context.Context, userID, originID string) (bool, error)
	CreateRetweet(ctx context.Context, userID, originID, content string) (*domain.Post, error)
	GetRetweetsByPostID(ctx context.Context, postID string) ([]*domain.Retweet, error)

	// Граф подписок (потребляется движком видимости и гардом)
	SubscriptionExists(ctx context.Context, subscriberID, publisherID string) (bool, error)
	PublishersSubscribedBy(ctx context.Context, subscriberID string) ([]string, error)
	CreateSubscription(ctx context.Context, subscriberID, publisherID string) error
	DeleteSubscription(ctx context.Context, subscriberID, publisherID string) (bool, error)

	// Фолловы
	FollowExists(ctx context.Context, followerID, followingID string) (bool, error)
	CreateFollow(ctx context.Context, followerID, followingID string) error
	DeleteFollow(ctx context.Context, followerID, followingID string) (bool, error)
	GetFollowers(ctx context.Context, userID string) ([]*domain.User, error)
	GetFollowing(ctx context.Context, userID string) ([]*domain.User, error)

	// Счетчики профиля
	CountFollowers(ctx context.Context, userID string) (int, error)
	CountFollowing(ctx context.Context, userID string) (int, error)
	CountSubscribers(ctx context.Context, userID string) (int, error)
	CountSubscriptions(ctx context.Context, userID string) (int, error)

	// Методы для Dataloader'ов
	GetUsersByIDs(ctx context.Context, ids []string) (map[string]*domain.User, error)
	GetPostStatsByIDs(ctx context.Context, postIDs []string) (map[string]domain.PostStats, error)
}
