package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/oauth2"

	"stridedash/internal/auth"
	"stridedash/internal/config"
	"stridedash/internal/logging"
	"stridedash/internal/service"
	"stridedash/internal/store"
	"stridedash/internal/strava"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "stridedash: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		login    = flag.Bool("login", false, "run the interactive Strava authorization flow")
		sync     = flag.Bool("sync", false, "sync recent activities, athlete profile and stats")
		syncAll  = flag.Bool("sync-all", false, "sync the full activity history")
		force    = flag.Bool("force", false, "sync even if local data is fresh")
		limit    = flag.Int("limit", 0, "max activities to sync (0 = no limit)")
		activity = flag.Int64("activity", 0, "sync a single activity by id")
		status   = flag.Bool("status", false, "print local mirror status")
	)
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load()
	if errors.Is(err, config.ErrNoConfig) {
		fmt.Println("No config file found. Creating example config...")
		if err := config.CreateExample(); err != nil {
			return fmt.Errorf("creating example config: %w", err)
		}
		configDir, _ := config.GetConfigDir()
		fmt.Printf("\nPlease edit the config file at:\n  %s/config.yaml\n\n", configDir)
		fmt.Println("You need to add your Strava API credentials.")
		fmt.Println("Get them from: https://www.strava.com/settings/api")
		return nil
	}
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		configDir, _ := config.GetConfigDir()
		fmt.Printf("Config validation failed: %v\n\n", err)
		fmt.Printf("Please edit the config file at:\n  %s/config.yaml\n", configDir)
		return nil
	}

	logging.Init(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	log := logging.Component("main")

	db, err := store.Open()
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	oauthCfg := auth.NewOAuthConfig(auth.Config{
		ClientID:     cfg.Strava.ClientID,
		ClientSecret: cfg.Strava.ClientSecret,
		RedirectURL:  fmt.Sprintf("http://localhost:%d/callback", auth.CallbackPort),
	})

	if *login {
		return authenticate(ctx, db, oauthCfg)
	}

	storedAuth, err := db.GetAuth()
	if errors.Is(err, store.ErrNoAuth) {
		fmt.Println("No authentication found. Starting authorization flow...")
		if err := authenticate(ctx, db, oauthCfg); err != nil {
			return fmt.Errorf("authentication: %w", err)
		}
		if storedAuth, err = db.GetAuth(); err != nil {
			return fmt.Errorf("fetching auth after login: %w", err)
		}
	} else if err != nil {
		return fmt.Errorf("checking auth: %w", err)
	}

	tokenSource := auth.NewTokenSource(oauthCfg, &oauth2.Token{
		AccessToken:  storedAuth.AccessToken,
		RefreshToken: storedAuth.RefreshToken,
		Expiry:       storedAuth.ExpiresAt,
	}, func(newToken *oauth2.Token) error {
		return db.UpdateTokens(newToken.AccessToken, newToken.RefreshToken, newToken.Expiry)
	})

	queue := strava.NewQueue(strava.DefaultQueueConfig(), logging.Component("queue"))
	defer queue.Close()
	cache := strava.NewCache(strava.DefaultTTL)
	client := strava.NewClient(tokenSource, queue, cache)

	syncSvc := service.NewSyncService(client, db, logging.Component("sync"), service.Options{
		PageSize:        cfg.Sync.PageSize,
		FreshnessWindow: cfg.Sync.FreshnessWindow,
	})

	switch {
	case *activity != 0:
		if err := syncSvc.SyncActivity(ctx, *activity); err != nil {
			return err
		}
		fmt.Printf("Synced activity %d\n", *activity)
		return nil

	case *sync, *syncAll:
		result := syncSvc.SyncAll(ctx, storedAuth.AthleteID, *limit, *force, *syncAll)
		fmt.Printf("Synced %d activities (athlete: %v, stats: %v)\n",
			result.ActivitiesSynced, result.AthleteSynced, result.StatsSynced)
		for _, err := range result.Errors {
			log.Warn().Err(err).Msg("partial sync failure")
			fmt.Printf("  warning: %v\n", err)
		}
		return nil

	case *status:
		return printStatus(db)

	default:
		flag.Usage()
		return nil
	}
}

func authenticate(ctx context.Context, db *store.Store, oauthCfg *oauth2.Config) error {
	result, err := auth.Authenticate(ctx, oauthCfg)
	if err != nil {
		return err
	}

	if err := db.SaveAuth(&store.Auth{
		AthleteID:    result.AthleteID,
		AccessToken:  result.Token.AccessToken,
		RefreshToken: result.Token.RefreshToken,
		ExpiresAt:    result.Token.Expiry,
	}); err != nil {
		return fmt.Errorf("saving auth: %w", err)
	}

	fmt.Println("Authentication successful.")
	return nil
}

func printStatus(db *store.Store) error {
	count, err := db.CountActivities()
	if err != nil {
		return fmt.Errorf("counting activities: %w", err)
	}
	latest, err := db.LatestActivityDate()
	if err != nil {
		return fmt.Errorf("checking latest activity: %w", err)
	}

	fmt.Printf("Activities mirrored: %d\n", count)
	if !latest.IsZero() {
		fmt.Printf("Latest activity:     %s\n", latest.Format("2006-01-02 15:04"))
	}

	entries, err := db.ListSyncLog(5)
	if err != nil {
		return fmt.Errorf("reading sync log: %w", err)
	}
	if len(entries) > 0 {
		fmt.Println("\nRecent syncs:")
		for _, e := range entries {
			line := fmt.Sprintf("  %s  %-13s %-7s %d items",
				e.CreatedAt.Format("2006-01-02 15:04"), e.SyncType, e.Status, e.ItemsSynced)
			if e.ErrorMessage != nil {
				line += "  " + *e.ErrorMessage
			}
			fmt.Println(line)
		}
	}
	return nil
}
