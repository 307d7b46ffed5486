package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"

	"github.com/Joseda-hg/lazytodo/internal/config"
	"github.com/Joseda-hg/lazytodo/internal/db"
	"github.com/Joseda-hg/lazytodo/internal/jsonfile"
	"github.com/Joseda-hg/lazytodo/internal/logging"
	"github.com/Joseda-hg/lazytodo/internal/menu"
	"github.com/Joseda-hg/lazytodo/internal/tasks"
	"github.com/Joseda-hg/lazytodo/internal/tui"
	"github.com/Joseda-hg/lazytodo/internal/web"
)

var version = "dev"

func main() {
	configPathFlag := flag.String("config", "", "config file path (.json or .yaml)")
	dataPathFlag := flag.String("data", "", "task data path")
	backendFlag := flag.String("backend", "", "storage backend: json or sqlite")
	uiFlag := flag.String("ui", "", "front end: menu or tui")
	webFlag := flag.Bool("web", false, "enable web server")
	webOnlyFlag := flag.Bool("web-only", false, "run web server only")
	portFlag := flag.Int("port", 0, "web server port")
	versionFlag := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *versionFlag {
		fmt.Println("lazytodo", version)
		return
	}

	cfgPath, err := resolveConfigPath(*configPathFlag)
	if err != nil {
		log.Fatal(err)
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatal(err)
	}

	if *backendFlag != "" {
		cfg.Backend = *backendFlag
	}
	if *uiFlag != "" {
		cfg.UI = *uiFlag
	}
	if *dataPathFlag != "" {
		cfg.DataPath = *dataPathFlag
	}
	if cfg.DataPath == "" {
		cfg.DataPath = config.DefaultDataPath(cfgPath, cfg.Backend)
	}
	if cfg.LogPath == "" {
		cfg.LogPath = filepath.Join(filepath.Dir(cfgPath), "lazytodo.log")
	}
	if *webFlag || *webOnlyFlag {
		cfg.WebEnabled = true
	}
	if *portFlag != 0 {
		cfg.WebPort = *portFlag
	}
	if cfg.WebPort == 0 {
		cfg.WebPort = 8080
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	if err := config.Save(cfgPath, cfg); err != nil {
		log.Fatal(err)
	}

	logger, err := logging.New(cfg.LogPath)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Close()

	persister, closePersister, err := openPersister(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer closePersister()

	ctx := context.Background()
	store, err := tasks.Open(ctx, persister, tasks.WithLogger(logger.Named("store")))
	if err != nil {
		log.Fatal(err)
	}
	logger.Printf("opened %s store at %s", cfg.Backend, cfg.DataPath)

	if cfg.WebEnabled {
		addr := fmt.Sprintf(":%d", cfg.WebPort)
		handler := web.NewServer(store).Handler()
		if *webOnlyFlag {
			log.Printf("Web server running at http://localhost%s", addr)
			log.Fatal(http.ListenAndServe(addr, handler))
		}

		webLog := logger.Named("web")
		go func() {
			webLog.Printf("running at http://localhost%s", addr)
			if err := http.ListenAndServe(addr, handler); err != nil {
				webLog.Printf("server error: %v", err)
			}
		}()
	}

	if cfg.UI == config.UITUI {
		err = tui.Run(store)
	} else {
		err = menu.New(store, os.Stdin, os.Stdout).Run(ctx)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func resolveConfigPath(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	return config.DefaultConfigPath()
}

func openPersister(cfg config.Config) (tasks.Persister, func(), error) {
	if err := config.EnsureDir(cfg.DataPath); err != nil {
		return nil, nil, err
	}

	if cfg.Backend == config.BackendSqlite {
		sqlDB, err := db.Open(cfg.DataPath)
		if err != nil {
			return nil, nil, err
		}
		persister := db.NewPersister(sqlDB)
		return persister, func() { _ = persister.Close() }, nil
	}

	persister, err := jsonfile.New(cfg.DataPath)
	if err != nil {
		return nil, nil, err
	}
	return persister, func() {}, nil
}
