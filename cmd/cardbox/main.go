package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/conorfennell/cardbox/internal/config"
	"github.com/conorfennell/cardbox/internal/logger"
	"github.com/conorfennell/cardbox/internal/shell"
	"github.com/conorfennell/cardbox/internal/storage"
	"github.com/spf13/pflag"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	// 1. Pick up a local .env before reading the environment
	if err := config.LoadDotEnv(".env"); err != nil {
		return err
	}

	// 2. Define and parse command-line flags
	flags := config.NewFlagSet("cardbox")
	var req shell.Request
	flags.StringVar(&req.Question, "question", "", "card question")
	flags.StringVar(&req.Answer, "answer", "", "card answer")
	flags.StringVar(&req.Category, "category", "", "card category")
	flags.StringVar(&req.OldQuestion, "old-question", "", "question of the card to edit")
	flags.StringVar(&req.Rating, "rating", "", "rating from 1 to 5")
	flags.StringVar(&req.MinRating, "min-rating", "", "only study cards rated at least this")
	flags.SetOutput(stderr)
	flags.Usage = func() {
		fmt.Fprintln(stderr, "Usage: cardbox [flags] [add|study|rate|edit|delete|search|category|list|shell] [text]")
		flags.PrintDefaults()
	}
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	cfg, err := config.Load(flags)
	if err != nil {
		return err
	}
	logger.Setup(cfg.Log, stderr)

	// 3. Open the card store
	store, err := storage.Open(cfg.DB.Path, storage.WithSeed(cfg.Random.Seed))
	if err != nil {
		return err
	}
	defer store.Close()
	slog.Info("database opened", "path", cfg.DB.Path)

	// 4. Run one command, or the interactive shell
	sh := shell.New(store, stdout, shell.WithPrompt(cfg.Shell.Prompt))
	if flags.NArg() == 0 || flags.Arg(0) == "shell" {
		return sh.Run(stdin)
	}

	req.Args = flags.Args()[1:]
	if err := sh.Exec(flags.Arg(0), req); err != nil {
		if shell.IsInputError(err) {
			fmt.Fprintln(stdout, err)
			return errors.New("command failed")
		}
		return err
	}
	return nil
}
