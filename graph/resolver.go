// graph/resolver.go

package graph

import (
	"sync"

	"github.com/UkralStul/graphql-timeline-service/internal/domain"
	"github.com/UkralStul/graphql-timeline-service/internal/storage"
	"github.com/UkralStul/graphql-timeline-service/internal/visibility"
)

// This file will not be regenerated automatically.
//
// It serves as dependency injection for your app, add any dependencies you require here.

// PostObserver хранит каналы подписчиков на поток новых публичных постов.
type PostObserver struct {
	mu sync.RWMutex
	//          map[subscriberID] channel
	subs map[string]chan *domain.Post
}

// NewPostObserver - конструктор для нашего наблюдателя.
func NewPostObserver() *PostObserver {
	return &PostObserver{
		subs: make(map[string]chan *domain.Post),
	}
}

// Subscribe регистрирует подписчика.
func (o *PostObserver) Subscribe(subID string, ch chan *domain.Post) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.subs[subID] = ch
}

// Unsubscribe убирает подписчика.
func (o *PostObserver) Unsubscribe(subID string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.subs, subID)
}

// Notify асинхронно рассылает пост подписчикам. Закрытые посты сюда
// не попадают - вызывающая сторона транслирует только публичные.
func (o *PostObserver) Notify(post *domain.Post) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	for _, ch := range o.subs {
		// Не блокируем мутацию, если клиент не успевает читать.
		select {
		case ch <- post:
		default:
		}
	}
}

// Resolver - это корневая структура резолвера.
// Она содержит все зависимости, которые нужны для выполнения запросов.
type Resolver struct {
	Storage  storage.Storage
	Engine   *visibility.Engine
	Guard    *visibility.Guard
	Observer *PostObserver
}
