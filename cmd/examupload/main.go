// Command examupload sends an exam answers archive to the backend in chunks,
// printing progress as each chunk is accepted.
//
//	examupload -exam 42 -user prof.ada answers.zip
//
// The password is read from EXAMUPLOAD_PASSWORD.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"campus-portal/internal/apiclient"
	"campus-portal/internal/config"
	"campus-portal/internal/domain"
	"campus-portal/internal/logger"
	"campus-portal/internal/resource"
	"campus-portal/internal/upload"

	"go.uber.org/zap"
)

func main() {
	examID := flag.Int64("exam", 0, "exam id")
	username := flag.String("user", "", "backend username")
	flag.Parse()
	if *examID <= 0 || *username == "" || flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: examupload -exam <id> -user <name> <answers.zip>")
		os.Exit(2)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Initialize(cfg.Logger); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, *examID, *username, os.Getenv("EXAMUPLOAD_PASSWORD"), flag.Arg(0)); err != nil {
		if errors.Is(err, domain.ErrUploadAborted) {
			fmt.Fprintln(os.Stderr, "\nupload aborted")
			os.Exit(130)
		}
		logger.Get().Error("Upload failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, examID int64, username, password, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return err
	}

	// Failures are already returned to the caller; nothing to queue them for.
	client := apiclient.New(cfg.Backend, domain.NotifierFunc(func(context.Context, domain.Notification) {}))

	login, err := resource.NewAuthRouter(client).Login(ctx, domain.Credentials{Username: username, Password: password})
	if err != nil {
		return err
	}
	role, _ := domain.ParseRole(login.User.Role)
	ctx = domain.WithSession(ctx, &domain.Session{UserID: login.User.ID, Role: role, Token: login.Token})

	chunker := upload.NewChunker(cfg.Upload, ".zip")
	name := filepath.Base(path)
	fmt.Printf("uploading %s (%d bytes, %d chunks) to exam %d\n", name, info.Size(), chunker.ChunkCount(info.Size()), examID)

	id, err := chunker.Upload(ctx, resource.NewExamRouter(client).AnswerTarget(examID), f, info.Size(), name, func(pct int) {
		fmt.Printf("\r%3d%%", pct)
	})
	if err != nil {
		return err
	}
	fmt.Printf("\ndone, upload id %s\n", id)
	return nil
}
