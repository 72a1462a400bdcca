package observers

import (
	"context"

	einocb "github.com/cloudwego/eino/callbacks"
	callbackHelper "github.com/cloudwego/eino/utils/callbacks"
)

// NewAllCallbacks aggregates the prompt and model observers into one callbacks.Handler.
func NewAllCallbacks() einocb.Handler {
	return callbackHelper.NewHandlerHelper().
		ChatModel(newModelHandler()).
		Prompt(newPromptHandler()).
		Handler()
}

// Attach returns ctx with the observers installed. RunInfo is left unset so each
// eino component fills in its own type and component kind when it starts.
func Attach(ctx context.Context) context.Context {
	return einocb.InitCallbacks(ctx, nil, NewAllCallbacks())
}
