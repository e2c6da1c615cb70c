package main

import (
	"context"
	"os"

	Logger "github.com/dice-app/dice/utils/log"
)

func main() {
	if err := NewRootCmd().ExecuteContext(context.Background()); err != nil {
		Logger.Log.WithError(err).Error("dice command failed")
		os.Exit(1)
	}
}
