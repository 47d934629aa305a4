package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/NeuralTrust/checkimage/pkg/app/classify"
	"github.com/NeuralTrust/checkimage/pkg/app/events"
	"github.com/NeuralTrust/checkimage/pkg/config"
	"github.com/NeuralTrust/checkimage/pkg/dependency_container"
	"github.com/NeuralTrust/checkimage/pkg/domain/image"
	infraLogger "github.com/NeuralTrust/checkimage/pkg/infra/logger"
	"github.com/NeuralTrust/checkimage/pkg/version"
	"github.com/joho/godotenv"
	"github.com/spf13/afero"
	"github.com/spf13/pflag"
)

const defaultImage = "images/1.jpg"

func main() {
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil {
		log.Println("no .env file found, using system environment variables")
	}

	flags := pflag.NewFlagSet(version.AppName, pflag.ExitOnError)
	config.RegisterFlags(flags)
	images := flags.String("images", "", "comma separated references to classify in one run")
	showVersion := flags.Bool("version", false, "print version and exit")
	flags.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] [image] [prompt]\n", version.AppName)
		fmt.Fprintf(os.Stderr, "       %s [flags] --images a,b [prompt]\n", version.AppName)
		flags.PrintDefaults()
	}
	_ = flags.Parse(os.Args[1:])

	if *showVersion {
		fmt.Println(version.GetInfo())
		return
	}

	configDir, _ := flags.GetString("config")
	cfg, err := config.Load(afero.NewOsFs(), configDir, flags)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, closeLog, err := infraLogger.NewLogger(infraLogger.Options{Level: cfg.Log.Level, File: cfg.Log.File})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	container, err := dependency_container.NewContainer(ctx, dependency_container.ContainerDI{
		Cfg:    cfg,
		Logger: logger,
	})
	if err != nil {
		logger.WithError(err).Error("failed to initialize dependencies")
		stop()
		closeLog()
		os.Exit(1)
	}

	single, prompt := positionalArgs(flags.Args(), *images != "")
	prompt = events.ComposePrompt(prompt, container.Events.Today(ctx))

	var refs []image.Reference
	if *images != "" {
		for _, value := range splitImages(*images) {
			refs = append(refs, container.Reference(value))
		}
	} else {
		refs = append(refs, container.Reference(single))
	}

	failed := 0
	for _, item := range container.Classifier.ClassifyAll(ctx, refs, prompt, cfg.Batch.Concurrency) {
		if item.Err != nil {
			failed++
		}
		printItem(os.Stdout, item)
	}

	if cfg.Metrics.Textfile != "" {
		if err := container.Metrics.WriteTextfile(cfg.Metrics.Textfile); err != nil {
			logger.WithError(err).Warn("failed to write metrics textfile")
		}
	}

	stop()
	closeLog()
	if failed > 0 {
		os.Exit(1)
	}
}

// positionalArgs reads [image] [prompt], or just [prompt] when the images
// come from --images.
func positionalArgs(args []string, batch bool) (single, prompt string) {
	if batch {
		if len(args) > 0 {
			prompt = args[0]
		}
		return "", prompt
	}
	single = defaultImage
	if len(args) > 0 && args[0] != "" {
		single = args[0]
	}
	if len(args) > 1 {
		prompt = args[1]
	}
	return single, prompt
}

func splitImages(list string) []string {
	var out []string
	for _, v := range strings.Split(list, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func printItem(w io.Writer, item classify.BatchItem) {
	if item.Err != nil {
		fmt.Fprintf(w, "%s: error: %v\n", item.Reference.Value, item.Err)
		return
	}
	o := item.Outcome
	status := "not flagged"
	if o.Verdict.Flagged() {
		status = "flagged as NSFW"
	}
	fmt.Fprintf(w, "%s: %s (nsfw %.2f)\n  title: %s\n", item.Reference.Value, status, o.Result.NSFW, o.Result.Title)
}
