package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/BearBump/ShipBox/config"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		panic(fmt.Sprintf("ошибка загрузки .env, %v", err))
	}

	app := mustBootstrapShipAPI()
	defer app.Close()

	if err := app.Run(); err != nil && !errors.Is(err, context.Canceled) {
		panic(err)
	}
}
