package domain

import "errors"

// Таксономия ошибок: NotFound, Forbidden, Conflict.
// Дубликаты лайков/фолловов/подписок ошибками не считаются - там
// возвращается false (мягкая конвенция, см. резолверы).
var (
	ErrUserNotFound    = errors.New("user not found")
	ErrPostNotFound    = errors.New("post not found")
	ErrCommentNotFound = errors.New("comment not found")

	// ErrSubscriptionRequired - действие над закрытым постом без подписки.
	ErrSubscriptionRequired = errors.New("subscription required")
	// ErrPremiumRequired - попытка не-premium автора создать закрытый пост.
	ErrPremiumRequired = errors.New("only premium users can create subscriber-only posts")
	// ErrPublisherNotPremium - подписаться можно только на premium пользователя.
	ErrPublisherNotPremium = errors.New("you can only subscribe to premium users")
	ErrSelfFollow          = errors.New("a user cannot follow themselves")
	ErrSelfSubscription    = errors.New("a user cannot subscribe to themselves")

	// ErrAlreadyRetweeted - повторный ретвит того же исходного поста.
	// Намеренная асимметрия с лайками: это жесткий конфликт, а не false.
	ErrAlreadyRetweeted = errors.New("you have already retweeted this post")
)
