package dataloader

import (
	"context"
	"net/http"
	"time"

	"github.com/graph-gophers/dataloader"

	"github.com/UkralStul/pulse-social/internal/domain"
	"github.com/UkralStul/pulse-social/internal/storage"
)

type contextKey string

const key = contextKey("dataloaders")

// Loaders группирует поштучные запросы одного HTTP-запроса.
type Loaders struct {
	UserByID           *dataloader.Loader
	RepliesByCommentID *dataloader.Loader
}

// NewLoaders создает новый набор загрузчиков. Они кэшируют результаты,
// поэтому набор живет не дольше одного запроса.
func NewLoaders(store storage.Storage) *Loaders {
	usersFn := func(ctx context.Context, keys dataloader.Keys) []*dataloader.Result {
		users, err := store.GetUsersByIDs(ctx, keys.Keys())
		if err != nil {
			return failAll(len(keys), err)
		}
		// результаты должны идти в порядке ключей
		results := make([]*dataloader.Result, len(keys))
		for i, k := range keys {
			results[i] = &dataloader.Result{Data: users[k.String()]}
		}
		return results
	}

	repliesFn := func(ctx context.Context, keys dataloader.Keys) []*dataloader.Result {
		replies, err := store.GetCommentsByParentIDs(ctx, keys.Keys())
		if err != nil {
			return failAll(len(keys), err)
		}
		results := make([]*dataloader.Result, len(keys))
		for i, k := range keys {
			results[i] = &dataloader.Result{Data: replies[k.String()]}
		}
		return results
	}

	return &Loaders{
		UserByID:           dataloader.NewBatchedLoader(usersFn, dataloader.WithWait(time.Millisecond)),
		RepliesByCommentID: dataloader.NewBatchedLoader(repliesFn, dataloader.WithWait(time.Millisecond)),
	}
}

func failAll(n int, err error) []*dataloader.Result {
	results := make([]*dataloader.Result, n)
	for i := range results {
		results[i] = &dataloader.Result{Error: err}
	}
	return results
}

// Middleware кладет новый набор загрузчиков в контекст каждого запроса.
func Middleware(store storage.Storage) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), key, NewLoaders(store))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// For возвращает загрузчики запроса или nil вне Middleware.
func For(ctx context.Context) *Loaders {
	l, _ := ctx.Value(key).(*Loaders)
	return l
}

// Users загружает пользователей одним батчем. Неизвестных id в map нет.
func (l *Loaders) Users(ctx context.Context, ids []string) (map[string]*domain.User, error) {
	data, errs := l.UserByID.LoadMany(ctx, dataloader.NewKeysFromStrings(ids))()
	out := make(map[string]*domain.User, len(ids))
	for i, id := range ids {
		if i < len(errs) && errs[i] != nil {
			return nil, errs[i]
		}
		if u, ok := data[i].(*domain.User); ok && u != nil {
			out[id] = u
		}
	}
	return out, nil
}

// Replies загружает ответы на несколько комментариев одним батчем.
func (l *Loaders) Replies(ctx context.Context, commentIDs []string) (map[string][]*domain.Comment, error) {
	data, errs := l.RepliesByCommentID.LoadMany(ctx, dataloader.NewKeysFromStrings(commentIDs))()
	out := make(map[string][]*domain.Comment, len(commentIDs))
	for i, id := range commentIDs {
		if i < len(errs) && errs[i] != nil {
			return nil, errs[i]
		}
		replies, _ := data[i].([]*domain.Comment)
		out[id] = replies
	}
	return out, nil
}
