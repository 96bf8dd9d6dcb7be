package main

import (
	"context"
	"log"

	"stratos-backend/internal/bootstrap"
	"stratos-backend/internal/config"
	"stratos-backend/internal/server"
	"stratos-backend/internal/tracer"
	"stratos-backend/pkg/database"
)

func main() {
	shutdownTracer := tracer.InitTracer()
	defer shutdownTracer(context.Background())

	cfg := config.Load()

	gormDB, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}

	container := bootstrap.NewContainer(gormDB, cfg)

	// The dispatcher router owns all background job execution.
	go func() {
		log.Println("Background: Starting job dispatcher...")
		if err := container.Dispatcher.Run(context.Background()); err != nil {
			log.Printf("Background dispatcher error: %v", err)
		}
	}()
	<-container.Dispatcher.Running()

	srv := server.New(cfg, container)

	log.Fatal(srv.Run())
}
