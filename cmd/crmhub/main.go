// Command crmhub runs the CRM task and customer API server.
package main

import (
	"context"
	"log"

	"github.com/dalemusser/crmhub/internal/app/bootstrap"
	"github.com/dalemusser/waffle/app"
)

func main() {
	if err := app.Run(context.Background(), bootstrap.Hooks); err != nil {
		log.Fatal(err)
	}
}
