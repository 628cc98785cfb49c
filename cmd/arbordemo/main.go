// Command arbordemo builds a small branching story, exercises the editing
// session end to end and round-trips it through the configured store.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	osfs "github.com/hack-pad/hackpadfs/os"

	"github.com/kittclouds/arbor/internal/config"
	"github.com/kittclouds/arbor/internal/store"
	"github.com/kittclouds/arbor/pkg/editor"
	"github.com/kittclouds/arbor/pkg/script"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("load config: %v", err)
		}
		cfg = loaded
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	st, err := openStore(cfg)
	if err != nil {
		log.Fatalf("open store: %v", err)
	}
	defer st.Close()

	if err := run(context.Background(), cfg, st, logger); err != nil {
		log.Fatalf("demo failed: %v", err)
	}
	fmt.Println("done")
}

func openStore(cfg *config.Config) (store.Store, error) {
	if cfg.Database != "" {
		return store.NewSQLiteStoreWithDSN(cfg.Database)
	}
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	fsys, err := osfs.NewFS().Sub(strings.TrimPrefix(wd, "/"))
	if err != nil {
		return nil, err
	}
	return store.NewFileStore(fsys, cfg.SaveDir)
}

func run(ctx context.Context, cfg *config.Config, st store.Store, logger *slog.Logger) error {
	e := editor.NewProject("demo", logger)

	if err := e.NewName("cat", "Behemoth"); err != nil {
		return err
	}
	if err := e.NewValue("rus_lit", 50); err != nil {
		return err
	}

	first, err := e.NewNode("cat", "Well, who knows, who knows", script.Pos{})
	if err != nil {
		return err
	}
	second, err := e.NewNode("cat", "'I protest!' ::cat:: exclaimed hotly.", script.Pos{X: 1})
	if err != nil {
		return err
	}
	if _, err := e.NewEdge("Dostoevsky's dead", first, second,
		script.Requirement{Kind: script.ReqLess, Key: "rus_lit", Val: 51},
		script.Effect{Kind: script.EffectSub, Key: "rus_lit", Val: 1},
	); err != nil {
		return err
	}
	fmt.Println("built story with", e.Story().Tree.NodeCount(), "nodes")

	// rewrite a line, then walk the history both ways
	if err := e.EditNode(first, "cat", "Who knows, who knows indeed"); err != nil {
		return err
	}
	if err := e.Undo(); err != nil {
		return err
	}
	if err := e.Redo(); err != nil {
		return err
	}
	_, dialogue, err := e.NodeText(first)
	if err != nil {
		return err
	}
	fmt.Println("after redo:", dialogue)

	if err := e.Validate(cfg.ValidateWorkers); err != nil {
		return err
	}
	if err := e.Rebuild(cfg.ValidateWorkers); err != nil {
		return err
	}
	fmt.Println("rebuilt, text buffer is", len(e.Story().Text), "bytes")

	if err := e.Save(ctx, st); err != nil {
		return err
	}
	reloaded, err := editor.Load(ctx, st, "demo", logger)
	if err != nil {
		return err
	}
	speaker, dialogue, err := reloaded.NodeText(first)
	if err != nil {
		return err
	}
	fmt.Printf("reloaded: %s says %q\n", speaker, dialogue)
	return nil
}
