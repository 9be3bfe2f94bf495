// Package visibility содержит движок видимости таймлайна и гард доступа
// к закрытым (subscriber-only) постам. Вся ветвящаяся бизнес-логика
// системы живет здесь; хранилище и GraphQL-слой остаются механическими.
package visibility

import (
	"context"

	"github.com/UkralStul/graphql-timeline-service/internal/domain"
)

// Decision - результат решения о видимости поста для конкретного зрителя.
// Каждый потребитель обязан обработать все три случая.
type Decision int

const (
	// DecisionFull - пост виден целиком.
	DecisionFull Decision = iota
	// DecisionTruncated - пост виден в урезанном виде: контент обрезан,
	// картинка скрыта (teaser-политика для normal пользователей).
	DecisionTruncated
	// DecisionExcluded - пост вообще не попадает в выдачу.
	DecisionExcluded
)

// SubscriptionGraph - интерфейс графа подписок, который потребляют движок
// и гард. Оба метода - точечные чтения текущего состояния, без кэша:
// изменение подписки видно немедленно.
type SubscriptionGraph interface {
	SubscriptionExists(ctx context.Context, subscriberID, publisherID string) (bool, error)
	PublishersSubscribedBy(ctx context.Context, subscriberID string) ([]string, error)
}

// Decide - единственная чистая функция правила видимости. Используется
// и на пути чтения (проекция таймлайна), и на пути записи (гард),
// чтобы две копии логики не разъезжались.
//
// subscribed - есть ли ребро подписки (viewer -> post.Author).
func Decide(viewer *domain.User, post *domain.Post, subscribed bool) Decision {
	if !post.IsSubscribersOnly {
		return DecisionFull
	}
	if viewer.ID == post.AuthorID {
		return DecisionFull
	}
	if subscribed {
		return DecisionFull
	}
	if viewer.IsPremium() {
		// Premium зритель без подписки закрытый чужой пост не видит вовсе.
		return DecisionExcluded
	}
	// Normal зритель видит тизер.
	return DecisionTruncated
}

// CandidateFilter - предикат отбора кандидатов таймлайна. Хранилища
// обязаны воспроизводить ровно его: inmemory применяет функцию напрямую,
// postgres строит эквивалентный WHERE.
//
// subscribedTo - множество издателей, на которых подписан зритель.
func CandidateFilter(viewer *domain.User, post *domain.Post, subscribedTo map[string]bool) bool {
	// Публичные посты входят всегда.
	if !post.IsSubscribersOnly {
		return true
	}
	if viewer.IsPremium() {
		// Свои посты - в любом гейтинге, чужие закрытые - только по подписке.
		return post.AuthorID == viewer.ID || subscribedTo[post.AuthorID]
	}
	// Normal пользователь получает все закрытые посты ради тизера;
	// урезание происходит позже, в проекции.
	return true
}
