package imports

import (
	"context"
	"fmt"
)

type completedForgetter interface {
	Forget(sessionKey string)
}

type ResetImport interface {
	Execute(ctx context.Context, sessionKey string) error
}

type resetImport struct {
	store     SessionStore
	completed completedForgetter
}

func NewResetImport(store SessionStore, completed completedForgetter) ResetImport {
	return &resetImport{store: store, completed: completed}
}

// Execute is the only way a snapshot disappears other than completion.
// Losing the page or reloading never lands here.
func (uc *resetImport) Execute(ctx context.Context, sessionKey string) error {
	if err := uc.store.Clear(ctx, sessionKey); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	uc.completed.Forget(sessionKey)
	return nil
}
