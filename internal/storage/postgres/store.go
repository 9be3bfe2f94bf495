package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/UkralStul/graphql-timeline-service/internal/domain"
	"github.com/UkralStul/graphql-timeline-service/internal/storage"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Store реализует интерфейс Storage с использованием PostgreSQL.
type Store struct {
	db *gorm.DB
}

// New создает новый экземпляр хранилища PostgreSQL.
// TranslateError включен, чтобы нарушения уникальных индексов приходили
// как gorm.ErrDuplicatedKey: индекс - авторитетная защита от дублей.
func New(dsn string) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Выполняем миграцию схемы
	if err := db.AutoMigrate(
		&domain.User{},
		&domain.Post{},
		&domain.Like{},
		&domain.Comment{},
		&domain.Retweet{},
		&domain.Subscription{},
		&domain.Follow{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Store{db: db}, nil
}

// === User Methods ===

func (s *Store) CreateUser(ctx context.Context, user *domain.User) (*domain.User, error) {
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	var user domain.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	var user domain.User
	if err := s.db.WithContext(ctx).First(&user, "username = ?", username).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (s *Store) GetUsers(ctx context.Context) ([]*domain.User, error) {
	var users []*domain.User
	err := s.db.WithContext(ctx).Order("created_at ASC").Find(&users).Error
	return users, err
}

// === Post Methods ===

func (s *Store) CreatePost(ctx context.Context, post *domain.Post) (*domain.Post, error) {
	if err := s.db.WithContext(ctx).Create(post).Error; err != nil {
		return nil, err
	}
	return s.GetPostByID(ctx, post.ID)
}

func (s *Store) GetPostByID(ctx context.Context, id string) (*domain.Post, error) {
	var post domain.Post
	err := s.db.WithContext(ctx).
		Preload("Author").
		Preload("OriginalPost.Author").
		First(&post, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrPostNotFound
		}
		return nil, err
	}
	return &post, nil
}

func (s *Store) GetPublicPosts(ctx context.Context) ([]*domain.Post, error) {
	var posts []*domain.Post
	err := s.db.WithContext(ctx).
		Preload("Author").
		Preload("OriginalPost.Author").
		Where("is_subscribers_only = ?", false).
		Order("created_at DESC").
		Find(&posts).Error
	return posts, err
}

func (s *Store) GetPublicPostsByAuthor(ctx context.Context, authorID string, args storage.PaginationArgs) ([]*domain.Post, error) {
	var posts []*domain.Post
	err := s.db.WithContext(ctx).
		Preload("Author").
		Preload("OriginalPost.Author").
		Where("author_id = ? AND is_subscribers_only = ?", authorID, false).
		Order("created_at DESC").
		Limit(args.Limit).
		Offset(args.Offset).
		Find(&posts).Error
	return posts, err
}

func (s *Store) GetPostsByAuthor(ctx context.Context, authorID string) ([]*domain.Post, error) {
	var posts []*domain.Post
	err := s.db.WithContext(ctx).
		Preload("Author").
		Preload("OriginalPost.Author").
		Where("author_id = ?", authorID).
		Order("created_at DESC").
		Find(&posts).Error
	return posts, err
}

// GetTimelineCandidates выражает visibility.CandidateFilter одним WHERE.
// Для normal зрителя это все посты (публичные плюс закрытые ради тизера),
// для premium - публичные, свои и закрытые от издателей по подписке.
func (s *Store) GetTimelineCandidates(ctx context.Context, viewer *domain.User) ([]*domain.Post, error) {
	query := s.db.WithContext(ctx).
		Preload("Author").
		Preload("OriginalPost.Author").
		Order("created_at DESC")

	if viewer.IsPremium() {
		subscribed := s.db.Model(&domain.Subscription{}).
			Select("publisher_id").
			Where("subscriber_id = ?", viewer.ID)
		query = query.Where(
			"is_subscribers_only = ? OR author_id = ? OR (is_subscribers_only = ? AND author_id IN (?))",
			false, viewer.ID, true, subscribed,
		)
	}

	var posts []*domain.Post
	err := query.Find(&posts).Error
	return posts, err
}

func (s *Store) DeletePost(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).Delete(&domain.Post{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrPostNotFound
	}
	return nil
}

// === Like Methods ===

func (s *Store) LikeExists(ctx context.Context, userID, postID string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&domain.Like{}).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Count(&count).Error
	return count > 0, err
}

func (s *Store) CreateLike(ctx context.Context, userID, postID string) error {
	err := s.db.WithContext(ctx).Create(&domain.Like{UserID: userID, PostID: postID}).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// Гонка двух лайков: индекс уже защитил, операция идемпотентна.
		return nil
	}
	return err
}

func (s *Store) DeleteLike(ctx context.Context, userID, postID string) (bool, error) {
	result := s.db.WithContext(ctx).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Delete(&domain.Like{})
	return result.RowsAffected > 0, result.Error
}

func (s *Store) GetLikesByPostID(ctx context.Context, postID string) ([]*domain.Like, error) {
	var likes []*domain.Like
	err := s.db.WithContext(ctx).
		Where("post_id = ?", postID).
		Order("created_at ASC").
		Find(&likes).Error
	return likes, err
}

// === Comment Methods ===

func (s *Store) CreateComment(ctx context.Context, comment *domain.Comment) (*domain.Comment, error) {
	if err := s.db.WithContext(ctx).Create(comment).Error; err != nil {
		return nil, err
	}
	return comment, nil
}

func (s *Store) GetCommentsByPostID(ctx context.Context, postID string) ([]*domain.Comment, error) {
	var comments []*domain.Comment
	err := s.db.WithContext(ctx).
		Where("post_id = ?", postID).
		Order("created_at ASC").
		Find(&comments).Error
	return comments, err
}

func (s *Store) DeleteComment(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).Delete(&domain.Comment{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrCommentNotFound
	}
	return nil
}

// === Retweet Methods ===

func (s *Store) RetweetExists(ctx context.Context, userID, originID string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&domain.Retweet{}).
		Where("user_id = ? AND post_id = ?", userID, originID).
		Count(&count).Error
	return count > 0, err
}

// CreateRetweet создает связь-ретвит и новый пост в одной транзакции:
// падение между двумя вставками не оставляет пост без связи.
func (s *Store) CreateRetweet(ctx context.Context, userID, originID, content string) (*domain.Post, error) {
	var post domain.Post
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var originCount int64
		if err := tx.Model(&domain.Post{}).Where("id = ?", originID).Count(&originCount).Error; err != nil {
			return err
		}
		if originCount == 0 {
			return domain.ErrPostNotFound
		}

		link := domain.Retweet{UserID: userID, PostID: originID}
		if err := tx.Create(&link).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return domain.ErrAlreadyRetweeted
			}
			return err
		}

		originalPostID := originID
		post = domain.Post{
			Content:        content,
			AuthorID:       userID,
			IsRetweet:      true,
			OriginalPostID: &originalPostID,
		}
		return tx.Create(&post).Error
	})
	if err != nil {
		return nil, err
	}
	return s.GetPostByID(ctx, post.ID)
}

func (s *Store) GetRetweetsByPostID(ctx context.Context, postID string) ([]*domain.Retweet, error) {
	var retweets []*domain.Retweet
	err := s.db.WithContext(ctx).
		Where("post_id = ?", postID).
		Order("created_at ASC").
		Find(&retweets).Error
	return retweets, err
}

// === Subscription Graph Methods ===

func (s *Store) SubscriptionExists(ctx context.Context, subscriberID, publisherID string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&domain.Subscription{}).
		Where("subscriber_id = ? AND publisher_id = ?", subscriberID, publisherID).
		Count(&count).Error
	return count > 0, err
}

func (s *Store) PublishersSubscribedBy(ctx context.Context, subscriberID string) ([]string, error) {
	var publishers []string
	err := s.db.WithContext(ctx).Model(&domain.Subscription{}).
		Where("subscriber_id = ?", subscriberID).
		Pluck("publisher_id", &publishers).Error
	return publishers, err
}

func (s *Store) CreateSubscription(ctx context.Context, subscriberID, publisherID string) error {
	err := s.db.WithContext(ctx).Create(&domain.Subscription{
		SubscriberID: subscriberID,
		PublisherID:  publisherID,
	}).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil
	}
	return err
}

func (s *Store) DeleteSubscription(ctx context.Context, subscriberID, publisherID string) (bool, error) {
	result := s.db.WithContext(ctx).
		Where("subscriber_id = ? AND publisher_id = ?", subscriberID, publisherID).
		Delete(&domain.Subscription{})
	return result.RowsAffected > 0, result.Error
}

// === Follow Methods ===

func (s *Store) FollowExists(ctx context.Context, followerID, followingID string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&domain.Follow{}).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Count(&count).Error
	return count > 0, err
}

func (s *Store) CreateFollow(ctx context.Context, followerID, followingID string) error {
	err := s.db.WithContext(ctx).Create(&domain.Follow{
		FollowerID:  followerID,
		FollowingID: followingID,
	}).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil
	}
	return err
}

func (s *Store) DeleteFollow(ctx context.Context, followerID, followingID string) (bool, error) {
	result := s.db.WithContext(ctx).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Delete(&domain.Follow{})
	return result.RowsAffected > 0, result.Error
}

func (s *Store) GetFollowers(ctx context.Context, userID string) ([]*domain.User, error) {
	var users []*domain.User
	err := s.db.WithContext(ctx).Model(&domain.User{}).
		Joins("JOIN follows ON follows.follower_id = users.id").
		Where("follows.following_id = ?", userID).
		Find(&users).Error
	return users, err
}

func (s *Store) GetFollowing(ctx context.Context, userID string) ([]*domain.User, error) {
	var users []*domain.User
	err := s.db.WithContext(ctx).Model(&domain.User{}).
		Joins("JOIN follows ON follows.following_id = users.id").
		Where("follows.follower_id = ?", userID).
		Find(&users).Error
	return users, err
}

// === Count Methods ===

func (s *Store) CountFollowers(ctx context.Context, userID string) (int, error) {
	return s.count(ctx, &domain.Follow{}, "following_id = ?", userID)
}

func (s *Store) CountFollowing(ctx context.Context, userID string) (int, error) {
	return s.count(ctx, &domain.Follow{}, "follower_id = ?", userID)
}

func (s *Store) CountSubscribers(ctx context.Context, userID string) (int, error) {
	return s.count(ctx, &domain.Subscription{}, "publisher_id = ?", userID)
}

func (s *Store) CountSubscriptions(ctx context.Context, userID string) (int, error) {
	return s.count(ctx, &domain.Subscription{}, "subscriber_id = ?", userID)
}

func (s *Store) count(ctx context.Context, model interface{}, query string, args ...interface{}) (int, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(model).Where(query, args...).Count(&count).Error
	return int(count), err
}

// === Dataloader Methods ===

func (s *Store) GetUsersByIDs(ctx context.Context, ids []string) (map[string]*domain.User, error) {
	var users []*domain.User
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	result := make(map[string]*domain.User, len(users))
	for _, u := range users {
		result[u.ID] = u
	}
	return result, nil
}

func (s *Store) GetPostStatsByIDs(ctx context.Context, postIDs []string) (map[string]domain.PostStats, error) {
	result := make(map[string]domain.PostStats, len(postIDs))
	for _, id := range postIDs {
		result[id] = domain.PostStats{}
	}

	type countRow struct {
		PostID string
		Count  int
	}

	// Один GROUP BY запрос на каждую таблицу-связь вместо трех на пост.
	sources := []struct {
		model  interface{}
		assign func(*domain.PostStats, int)
	}{
		{&domain.Like{}, func(st *domain.PostStats, n int) { st.Likes = n }},
		{&domain.Comment{}, func(st *domain.PostStats, n int) { st.Comments = n }},
		{&domain.Retweet{}, func(st *domain.PostStats, n int) { st.Retweets = n }},
	}
	for _, src := range sources {
		var rows []countRow
		err := s.db.WithContext(ctx).Model(src.model).
			Select("post_id, count(*) as count").
			Where("post_id IN ?", postIDs).
			Group("post_id").
			Scan(&rows).Error
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			stats := result[row.PostID]
			src.assign(&stats, row.Count)
			result[row.PostID] = stats
		}
	}
	return result, nil
}
