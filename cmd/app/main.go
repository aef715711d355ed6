package main

import (
	"context"
	"fmt"
	"os"

	authservice "employee-portal/internal/auth-service"
	"employee-portal/internal/config"
	"employee-portal/internal/mylogger"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: app auth-service")
		os.Exit(1)
	}

	cfg, err := config.New()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	mylog, err := mylogger.New(cfg.Log.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}

	switch os.Args[1] {
	case "auth-service":
		if err := authservice.Execute(context.Background(), mylog, cfg); err != nil {
			os.Exit(1)
		}
	default:
		fmt.Fprintf(os.Stderr, "unknown service: %s\n", os.Args[1])
		os.Exit(1)
	}
}
