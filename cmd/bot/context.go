package main

import (
	"fmt"

	"github.com/samber/do"
	tele "gopkg.in/telebot.v3"
)

const (
	contextContainer    = "context-container"
	contextAdminChatIDs = "context-admin-chat-ids"
)

func getContextContainer(context tele.Context) (*do.Injector, error) {
	contextValue := context.Get(contextContainer)
	if contextValue == nil {
		return nil, fmt.Errorf("container not found")
	}

	result, ok := contextValue.(*do.Injector)
	if !ok {
		return nil, fmt.Errorf("container not valid")
	}

	return result, nil
}

// getContextService resolves a service from the container stored on the update.
func getContextService[T any](context tele.Context) (T, error) {
	var zero T
	injector, err := getContextContainer(context)
	if err != nil {
		return zero, err
	}
	return do.Invoke[T](injector)
}

func getContextAdminChatIDs(context tele.Context) []int64 {
	ids, _ := context.Get(contextAdminChatIDs).([]int64)
	return ids
}
