package dataloader

import (
	"context"
	"net/http"
	"time"

	"github.com/UkralStul/graphql-timeline-service/internal/domain"
	"github.com/UkralStul/graphql-timeline-service/internal/storage"
	"github.com/graph-gophers/dataloader"
)

type contextKey string

const key = contextKey("dataloaders")

// Loaders содержит все дата-лоадеры приложения.
type Loaders struct {
	UserByID      *dataloader.Loader
	StatsByPostID *dataloader.Loader
}

// Middleware для внедрения лоадеров в контекст запроса.
// Лоадеры живут в рамках одного HTTP-запроса, поэтому не кэшируют
// ничего между запросами.
func Middleware(store storage.Storage, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Батч-функция авторов: один запрос к хранилищу на пачку постов.
		userBatchFn := func(ctx context.Context, keys dataloader.Keys) []*dataloader.Result {
			ids := make([]string, len(keys))
			for i, k := range keys {
				ids[i] = k.String()
			}

			users, err := store.GetUsersByIDs(ctx, ids)
			if err != nil {
				return errorResults(len(keys), err)
			}

			// Результат должен идти в том же порядке, что и ключи.
			results := make([]*dataloader.Result, len(keys))
			for i, id := range ids {
				results[i] = &dataloader.Result{Data: users[id]}
			}
			return results
		}

		// Батч-функция агрегатов поста (лайки/комментарии/ретвиты).
		statsBatchFn := func(ctx context.Context, keys dataloader.Keys) []*dataloader.Result {
			ids := make([]string, len(keys))
			for i, k := range keys {
				ids[i] = k.String()
			}

			stats, err := store.GetPostStatsByIDs(ctx, ids)
			if err != nil {
				return errorResults(len(keys), err)
			}

			results := make([]*dataloader.Result, len(keys))
			for i, id := range ids {
				results[i] = &dataloader.Result{Data: stats[id]}
			}
			return results
		}

		loaders := Loaders{
			UserByID:      dataloader.NewBatchedLoader(userBatchFn, dataloader.WithWait(time.Millisecond*1)),
			StatsByPostID: dataloader.NewBatchedLoader(statsBatchFn, dataloader.WithWait(time.Millisecond*1)),
		}

		ctx := context.WithValue(r.Context(), key, &loaders)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// For извлекает лоадеры из контекста. Возвращает nil, если middleware
// не отработал (например, в юнит-тестах резолверов).
func For(ctx context.Context) *Loaders {
	loaders, _ := ctx.Value(key).(*Loaders)
	return loaders
}

// LoadUser загружает пользователя через лоадер.
func (l *Loaders) LoadUser(ctx context.Context, id string) (*domain.User, error) {
	data, err := l.UserByID.Load(ctx, dataloader.StringKey(id))()
	if err != nil {
		return nil, err
	}
	user, _ := data.(*domain.User)
	return user, nil
}

// LoadStats загружает агрегаты поста через лоадер.
func (l *Loaders) LoadStats(ctx context.Context, postID string) (domain.PostStats, error) {
	data, err := l.StatsByPostID.Load(ctx, dataloader.StringKey(postID))()
	if err != nil {
		return domain.PostStats{}, err
	}
	stats, _ := data.(domain.PostStats)
	return stats, nil
}

func errorResults(n int, err error) []*dataloader.Result {
	results := make([]*dataloader.Result, n)
	for i := range results {
		results[i] = &dataloader.Result{Error: err}
	}
	return results
}
