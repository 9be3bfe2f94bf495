package domain

import "time"

// UserType - тип аккаунта пользователя.
type UserType string

const (
	UserTypeNormal  UserType = "normal"
	UserTypePremium UserType = "premium"
)

// User представляет пользователя в системе.
// UserType неизменяем после создания: апгрейда/даунгрейда аккаунта нет.
type User struct {
	ID           string    `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Username     string    `json:"username" gorm:"type:varchar(255);not null;uniqueIndex"`
	Email        string    `json:"email" gorm:"type:varchar(255);not null;uniqueIndex"`
	DisplayName  string    `json:"displayName" gorm:"type:varchar(255);not null"`
	ProfileImage *string   `json:"profileImage,omitempty" gorm:"type:varchar(512)"`
	UserType     UserType  `json:"userType" gorm:"type:varchar(16);not null;default:'normal'"`
	CreatedAt    time.Time `json:"createdAt" gorm:"not null;default:now()"`
}

// IsPremium сообщает, может ли пользователь публиковать закрытые посты
// и выступать издателем для подписок.
func (u *User) IsPremium() bool {
	return u.UserType == UserTypePremium
}

// Post представляет пост (включая ретвиты - ретвит это полноценная строка Post).
// OriginalPostID у ретвита всегда указывает на исходный пост, а не на
// промежуточный ретвит: цепочка схлопывается при создании.
type Post struct {
	ID                string    `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Content           string    `json:"content" gorm:"type:text;not null"`
	ImageURL          *string   `json:"imageUrl,omitempty" gorm:"type:text"`
	IsSubscribersOnly bool      `json:"isSubscribersOnly" gorm:"not null;default:false"`
	IsRetweet         bool      `json:"isRetweet" gorm:"not null;default:false"`
	AuthorID          string    `json:"authorId" gorm:"type:uuid;not null;index"`
	OriginalPostID    *string   `json:"originalPostId,omitempty" gorm:"type:uuid"`
	CreatedAt         time.Time `json:"createdAt" gorm:"not null;default:now()"`

	Author       *User `json:"author,omitempty" gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE"`
	OriginalPost *Post `json:"originalPost,omitempty" gorm:"foreignKey:OriginalPostID;constraint:OnDelete:SET NULL"`

	// IsContentTruncated - производное поле для конкретного зрителя,
	// выставляется движком видимости и не хранится в БД.
	IsContentTruncated bool `json:"isContentTruncated" gorm:"-"`
}

// Like - отметка "нравится". Не более одной на пару (user, post).
type Like struct {
	ID        string    `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	UserID    string    `json:"userId" gorm:"type:uuid;not null;uniqueIndex:idx_like_user_post"`
	PostID    string    `json:"postId" gorm:"type:uuid;not null;uniqueIndex:idx_like_user_post"`
	CreatedAt time.Time `json:"createdAt" gorm:"not null;default:now()"`

	User *User `json:"user,omitempty" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Post *Post `json:"post,omitempty" gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE"`
}

// Comment - комментарий к посту. Дубликаты не ограничиваются.
type Comment struct {
	ID        string    `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Content   string    `json:"content" gorm:"type:text;not null"`
	UserID    string    `json:"userId" gorm:"type:uuid;not null;index"`
	PostID    string    `json:"postId" gorm:"type:uuid;not null;index"`
	CreatedAt time.Time `json:"createdAt" gorm:"not null;default:now()"`

	Commenter *User `json:"commenter,omitempty" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Post      *Post `json:"post,omitempty" gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE"`
}

// Retweet - связь "пользователь ретвитнул пост". PostID всегда ссылается
// на исходный (origin) пост; уникальность пары (user, origin) - это
// авторитетная защита от дублей на границе записи.
type Retweet struct {
	ID        string    `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	UserID    string    `json:"userId" gorm:"type:uuid;not null;uniqueIndex:idx_retweet_user_post"`
	PostID    string    `json:"postId" gorm:"type:uuid;not null;uniqueIndex:idx_retweet_user_post"`
	CreatedAt time.Time `json:"createdAt" gorm:"not null;default:now()"`

	Retweeter     *User `json:"retweeter,omitempty" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	RetweetedPost *Post `json:"retweetedPost,omitempty" gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE"`
}

// Subscription - направленное ребро (subscriber -> publisher).
// Издатель должен быть premium на момент создания. Без срока действия:
// подписка бинарна и живет до явного удаления.
type Subscription struct {
	ID           string    `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	SubscriberID string    `json:"subscriberId" gorm:"type:uuid;not null;uniqueIndex:idx_sub_pair"`
	PublisherID  string    `json:"publisherId" gorm:"type:uuid;not null;uniqueIndex:idx_sub_pair"`
	CreatedAt    time.Time `json:"createdAt" gorm:"not null;default:now()"`

	Subscriber *User `json:"subscriber,omitempty" gorm:"foreignKey:SubscriberID;constraint:OnDelete:CASCADE"`
	Publisher  *User `json:"publisher,omitempty" gorm:"foreignKey:PublisherID;constraint:OnDelete:CASCADE"`
}

// Follow - направленное ребро (follower -> following). Чисто социальный
// граф: движок видимости его не читает, контент гейтят только подписки.
type Follow struct {
	ID          string    `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	FollowerID  string    `json:"followerId" gorm:"type:uuid;not null;uniqueIndex:idx_follow_pair"`
	FollowingID string    `json:"followingId" gorm:"type:uuid;not null;uniqueIndex:idx_follow_pair"`
	CreatedAt   time.Time `json:"createdAt" gorm:"not null;default:now()"`

	FollowerUser  *User `json:"-" gorm:"foreignKey:FollowerID;constraint:OnDelete:CASCADE"`
	FollowingUser *User `json:"-" gorm:"foreignKey:FollowingID;constraint:OnDelete:CASCADE"`
}

// PostStats - агрегаты поста, считаются хранилищем и батчатся дата-лоадером.
type PostStats struct {
	Likes    int
	Comments int
	Retweets int
}
