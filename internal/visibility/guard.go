package visibility

import (
	"context"

	"github.com/UkralStul/graphql-timeline-service/internal/domain"
)

// Guard решает, разрешено ли контент-мутирующее действие (лайк,
// комментарий, ретвит) над постом. Правило одно на все три действия
// и переиспользует Decide, а не дублирует его.
type Guard struct {
	graph SubscriptionGraph
}

// NewGuard создает гард доступа поверх графа подписок.
func NewGuard(graph SubscriptionGraph) *Guard {
	return &Guard{graph: graph}
}

// Authorize возвращает nil, если действие разрешено, и
// domain.ErrSubscriptionRequired, если пост закрыт, а зритель не автор
// и не подписчик. Для ретвита проверка делается уже ПОСЛЕ схлопывания
// цепочки - по исходному посту.
func (g *Guard) Authorize(ctx context.Context, viewer *domain.User, post *domain.Post) error {
	if !post.IsSubscribersOnly {
		return nil
	}
	subscribed, err := g.graph.SubscriptionExists(ctx, viewer.ID, post.AuthorID)
	if err != nil {
		return err
	}
	if Decide(viewer, post, subscribed) != DecisionFull {
		return domain.ErrSubscriptionRequired
	}
	return nil
}
