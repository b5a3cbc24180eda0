// Command pos is the coffee shop point of sale terminal.
package main

import (
	"context"

	"github.com/go-faster/sdk/app"
	"go.uber.org/zap"
)

func main() {
	app.Run(func(ctx context.Context, lg *zap.Logger, m *app.Telemetry) error {
		return newCLI(lg, m).execute(ctx)
	})
}
