package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"

	"chestshop.dev/internal/config"
	"chestshop.dev/internal/economy"
	"chestshop.dev/internal/market"
	persistlog "chestshop.dev/internal/persistence/log"
	"chestshop.dev/internal/persistence/shopdb"
	"chestshop.dev/internal/transport/ws"
)

func main() {
	var (
		addr       = flag.String("addr", ":8080", "http listen address")
		dataDir    = flag.String("data", "./data", "runtime data directory")
		configPath = flag.String("config", "./configs/shop.yaml", "shop config path")
		worldName  = flag.String("world", "world", "default world name")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	cfg, err := config.Load(*configPath)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Printf("config not found (%s); using defaults", *configPath)
			cfg = config.Defaults()
		} else {
			logger.Fatalf("load config: %v", err)
		}
	}

	_ = os.MkdirAll(*dataDir, 0o755)

	store, err := shopdb.Open(filepath.Join(*dataDir, "shops.db"))
	if err != nil {
		logger.Fatalf("open shop store: %v", err)
	}
	defer store.Close()

	tradeLog := persistlog.NewTradeLogger(*dataDir)
	defer tradeLog.Close()

	world := market.NewMemoryWorld()
	hub := ws.NewHub()

	mgr := market.NewManager(cfg, market.Deps{
		World:     world,
		Economy:   economy.NewMemoryBackend(),
		Store:     store,
		Messenger: hub,
		Audit:     tradeLog,
		Logger:    logger,
	})

	if err := restoreShops(mgr, world, store, logger); err != nil {
		logger.Fatalf("restore shops: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		if err := mgr.Run(ctx); err != nil && err != context.Canceled {
			logger.Printf("coordinator stopped: %v", err)
		}
	}()

	srv := ws.NewServer(mgr, hub, &worldJoiner{world: world, name: *worldName}, logger)
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/ws", srv.Handler())

	httpSrv := &http.Server{Addr: *addr, Handler: mux}
	go func() {
		logger.Printf("listening on %s", *addr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("http: %v", err)
		}
	}()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt, syscall.SIGTERM)
	<-sigc
	logger.Printf("shutting down")

	shutCtx, shutCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutCancel()
	_ = httpSrv.Shutdown(shutCtx)
	mgr.Stop()
}

// restoreShops loads every persisted record, binds each to its container (an
// empty one when the world has none yet) and registers it.
func restoreShops(mgr *market.Manager, world *market.MemoryWorld, store *shopdb.SQLiteStore, logger *log.Logger) error {
	recs, err := store.LoadAll()
	if err != nil {
		return err
	}
	for _, rec := range recs {
		pos := market.BlockPos{World: rec.World, X: rec.X, Y: rec.Y, Z: rec.Z}
		container := world.ContainerAt(pos)
		if container == nil {
			container = market.NewBasicInventory(54)
			world.PlaceContainer(pos, container)
		}
		shop, err := market.ShopOf(rec, container)
		if err != nil {
			logger.Printf("skip bad shop record at %v: %v", pos, err)
			continue
		}
		mgr.LoadShop(shop)
	}
	logger.Printf("restored %d shops", len(recs))
	return nil
}

// worldJoiner places connecting actors into the in-memory world at spawn with
// a personal inventory.
type worldJoiner struct {
	world *market.MemoryWorld
	name  string
}

func (j *worldJoiner) OnJoin(actor uuid.UUID, _ string) {
	j.world.Join(actor, market.BlockPos{World: j.name}, market.NewBasicInventory(36))
}

func (j *worldJoiner) OnLeave(actor uuid.UUID) {
	j.world.Leave(actor)
}
