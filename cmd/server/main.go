package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/stundenapp/stundenapp-back/internal/api"
	"github.com/stundenapp/stundenapp-back/internal/auth"
	"github.com/stundenapp/stundenapp-back/internal/config"
	"github.com/stundenapp/stundenapp-back/internal/db"
	"github.com/stundenapp/stundenapp-back/internal/notify"
	"github.com/stundenapp/stundenapp-back/internal/search"
	"github.com/stundenapp/stundenapp-back/internal/store"
	"github.com/stundenapp/stundenapp-back/internal/syncer"
	"github.com/stundenapp/stundenapp-back/internal/untis"
	"github.com/stundenapp/stundenapp-back/internal/watch"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ No .env file found, using system env")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	db.InitDB(cfg.DBUrl)

	sealer, err := auth.NewSealer(cfg.CredentialKey)
	if err != nil {
		log.Fatalf("credential sealer: %v", err)
	}

	lessonStore := store.NewDB(db.Conn())
	client := untis.NewClient()
	engine := syncer.New(client, lessonStore, lessonStore)
	facade := search.New(engine, lessonStore)

	fanout := notify.NewFanout(db.Directory{}, buildProviders(cfg), nil)

	if err := startWatch(cfg, engine, lessonStore, fanout); err != nil {
		log.Fatalf("cancellation watch: %v", err)
	}

	r := api.SetupRouter(cfg, sealer, client, &api.Handler{Facade: facade})

	log.Println("Server running on", cfg.ListenAddr)
	r.Run(cfg.ListenAddr)
}

// buildProviders registers every delivery channel the config enables. Zero
// providers is a valid setup: the sweep still runs, dispatch is a no-op.
func buildProviders(cfg *config.Config) []notify.Provider {
	var providers []notify.Provider
	if cfg.TelegramToken != "" {
		providers = append(providers, notify.NewTelegram(cfg.TelegramToken))
	}
	if cfg.SMTPHost != "" {
		providers = append(providers, notify.NewMail(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPFrom, cfg.SMTPUser, cfg.SMTPPassword))
	}
	providers = append(providers, notify.NewWebhook())
	log.Printf("✅ %d notification providers registered", len(providers))
	return providers
}

func startWatch(cfg *config.Config, engine *syncer.Engine, st *store.DB, fanout *notify.Fanout) error {
	if _, err := os.Stat(cfg.WatchConfigPath); os.IsNotExist(err) {
		log.Println("⚠️ No watch config found, cancellation sweep disabled")
		return nil
	}

	watchCfg, err := watch.LoadConfig(cfg.WatchConfigPath)
	if err != nil {
		return err
	}
	creds := untis.Credentials{
		Username: cfg.UntisServiceUser,
		Secret:   cfg.UntisServiceSecret,
		Server:   cfg.UntisServer,
		School:   cfg.UntisSchool,
	}
	return watch.New(watchCfg, creds, engine, st, st, fanout).Start()
}
