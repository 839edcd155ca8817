package service

import (
	"context"

	"github.com/sirpyerre/discussion-api/internal/core/domain"
	"github.com/sirpyerre/discussion-api/internal/core/execution"
)

// loadAuthors resolves the author of every item through the request loader.
// All keys are enqueued before the single Flush so a list of N items costs one
// store round trip at most. A missing author resolves to nil.
func loadAuthors(ctx context.Context, req *execution.Request, authorIDs []string) ([]*domain.User, error) {
	thunks := make([]execution.Thunk[*domain.User], len(authorIDs))
	for i, id := range authorIDs {
		thunks[i] = req.Users.LoadThunk(id)
	}
	req.Users.Flush()

	authors := make([]*domain.User, len(authorIDs))
	for i, th := range thunks {
		u, err := th(ctx)
		if err != nil {
			return nil, err
		}
		authors[i] = u
	}
	return authors, nil
}
