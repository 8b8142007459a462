package crm

import (
	"context"
	"strings"
	"time"

	"github.com/crm/backend/internal/domain/shared"
	"github.com/crm/backend/internal/infrastructure/i18n"
	"go.uber.org/zap"
)

// labeler resolves choice labels and list placeholders in one language
type labeler struct {
	tr   *i18n.Translator
	lang string
}

func newLabeler(tr *i18n.Translator, lang string) labeler {
	return labeler{tr: tr, lang: tr.Normalize(lang)}
}

type labelled interface {
	~string
	LabelKey() string
}

func choiceOf[T labelled](l labeler, code T) Choice {
	if code == "" {
		return Choice{}
	}
	return Choice{Code: string(code), Label: l.tr.T(l.lang, code.LabelKey())}
}

// emptyText returns the placeholder for an empty list, "" otherwise
func (l labeler) emptyText(total int64, key string) string {
	if total > 0 {
		return ""
	}
	return l.tr.T(l.lang, "empty."+key)
}

func newListResult[T any](items []T, total int64, filter shared.Filter, empty string) *ListResult[T] {
	return &ListResult[T]{
		Paginated: shared.NewPaginated(items, total, filter.Page, filter.PageSize),
		EmptyText: empty,
	}
}

type eventSource interface {
	GetDomainEvents() []shared.DomainEvent
	ClearDomainEvents()
}

// publishEvents publishes the pending events of a saved aggregate.
// The save already happened, so a failure is logged and not returned.
func publishEvents(ctx context.Context, publisher shared.EventPublisher, logger *zap.Logger, agg eventSource) {
	events := agg.GetDomainEvents()
	agg.ClearDomainEvents()
	if publisher == nil || len(events) == 0 {
		return
	}
	if err := publisher.Publish(ctx, events...); err != nil {
		logger.Warn("Failed to publish domain events",
			zap.Int("count", len(events)),
			zap.Error(err))
	}
}

// parseDate parses a yyyy-mm-dd value; an empty value yields nil
func parseDate(field, value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(DateLayout, value)
	if err != nil {
		return nil, shared.NewFieldError("INVALID_DATE", field, "Date must be in YYYY-MM-DD format")
	}
	return &t, nil
}

func formatDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}
