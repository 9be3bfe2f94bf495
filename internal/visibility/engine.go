package visibility

import (
	"context"
	"fmt"
	"sort"

	"github.com/UkralStul/graphql-timeline-service/internal/domain"
)

// truncatedContentRunes - сколько символов контента остается в тизере.
const truncatedContentRunes = 10

// Engine строит проекцию таймлайна для конкретного зрителя.
type Engine struct {
	graph SubscriptionGraph
}

// NewEngine создает движок видимости поверх графа подписок.
func NewEngine(graph SubscriptionGraph) *Engine {
	return &Engine{graph: graph}
}

// DecideFor вычисляет решение о видимости со свежим чтением графа подписок.
func (e *Engine) DecideFor(ctx context.Context, viewer *domain.User, post *domain.Post) (Decision, error) {
	subscribed, err := e.graph.SubscriptionExists(ctx, viewer.ID, post.AuthorID)
	if err != nil {
		return DecisionExcluded, fmt.Errorf("failed to check subscription: %w", err)
	}
	return Decide(viewer, post, subscribed), nil
}

// ProjectTimeline превращает набор кандидатов в итоговый таймлайн зрителя:
// дедупликация по id, вырезание Excluded, урезание Truncated, отбрасывание
// постов с потерянным автором и стабильная сортировка по убыванию времени
// создания - уже ПОСЛЕ дедупликации и урезания.
//
// Исходные посты не мутируются: урезанный пост - это неглубокая копия.
func (e *Engine) ProjectTimeline(ctx context.Context, viewer *domain.User, candidates []*domain.Post) ([]*domain.Post, error) {
	seen := make(map[string]bool, len(candidates))
	result := make([]*domain.Post, 0, len(candidates))

	for _, post := range candidates {
		// Пост может удовлетворять нескольким правилам отбора сразу.
		// Решение о видимости от правила не зависит (проверка ниже каждый
		// раз делает свежий lookup подписки), поэтому достаточно оставить
		// первое вхождение.
		if seen[post.ID] {
			continue
		}
		seen[post.ID] = true

		// Защитный фильтр целостности: автор удален - пост выпадает.
		if post.Author == nil {
			continue
		}

		decision, err := e.DecideFor(ctx, viewer, post)
		if err != nil {
			return nil, err
		}
		if decision == DecisionExcluded {
			continue
		}

		projected := *post
		if decision == DecisionTruncated {
			redact(&projected)
		}

		// У ретвита вложенный исходный пост показывается рядом и урезается
		// по решению, вычисленному для самого ретвита, а не для оригинала.
		if post.OriginalPost != nil {
			original := *post.OriginalPost
			if decision == DecisionTruncated {
				redact(&original)
			}
			projected.OriginalPost = &original
		}

		result = append(result, &projected)
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	return result, nil
}

// redact урезает контент до первых символов с многоточием и прячет картинку.
func redact(post *domain.Post) {
	runes := []rune(post.Content)
	if len(runes) > truncatedContentRunes {
		runes = runes[:truncatedContentRunes]
	}
	post.Content = string(runes) + "..."
	post.ImageURL = nil
	post.IsContentTruncated = true
}
