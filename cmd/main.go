package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/veloria/rapport-backend/internal/app"
)

func main() {
	application, err := app.New()
	if err != nil {
		fmt.Printf("Failed to init app: %v\n", err)
		os.Exit(1)
	}
	defer application.Close()

	application.Start()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-stop
		application.Log.Info("Shutdown signal received")
		application.Close()
		os.Exit(0)
	}()

	application.Log.Info("Server listening", "port", application.Cfg.Port)
	if err := application.Run(); err != nil {
		application.Log.Warn("Server failed", "error", err)
	}
}
