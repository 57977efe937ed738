package app

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Astemirdum/room-booking/booking/config"
	"github.com/Astemirdum/room-booking/booking/internal/handler"
	"github.com/Astemirdum/room-booking/booking/internal/model"
	"github.com/Astemirdum/room-booking/booking/internal/repository"
	"github.com/Astemirdum/room-booking/booking/internal/server"
	"github.com/Astemirdum/room-booking/booking/internal/service"
	"github.com/Astemirdum/room-booking/booking/migrations"
	"github.com/Astemirdum/room-booking/pkg/kafka"
	"github.com/Astemirdum/room-booking/pkg/logger"
	"github.com/Astemirdum/room-booking/pkg/postgres"
	"go.uber.org/zap"
)

func Run(cfg *config.Config) error {
	log := logger.NewLogger(cfg.Log, "booking")
	defer log.Sync() //nolint:errcheck

	repo, catalog, closeStore, err := newStore(cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	publisher, err := newPublisher(cfg.Kafka, log)
	if err != nil {
		return fmt.Errorf("kafka init %v", err)
	}
	defer publisher.Close() //nolint:errcheck

	svc := service.NewService(repo, catalog, publisher, log)
	h := handler.New(svc, svc, log)

	srv := server.NewServer(cfg.Server, h.NewRouter(cfg.Auth, cfg.Log))
	log.Info("http server start ON: ",
		zap.String("addr",
			net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)),
		zap.String("storage", string(cfg.Storage)))
	go func() {
		if err := srv.Run(); err != nil {
			log.Error("server run", zap.Error(err))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	termSig := <-sig

	log.Debug("Graceful shutdown", zap.Any("signal", termSig))

	closeCtx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	if err = srv.Stop(closeCtx); err != nil {
		log.Error("srv.Stop", zap.Error(err))
	}
	log.Info("Graceful shutdown finished")
	return nil
}

func newStore(cfg *config.Config, log *zap.Logger) (repository.Repository, repository.Catalog, func(), error) {
	if cfg.Storage == config.StorageMemory {
		catalog := repository.NewMemoryCatalog(
			[]model.Room{
				{Name: "Room1", Type: model.RoomTypeMeetingRoom},
				{Name: "Room2", Type: model.RoomTypeMeetingRoom},
				{Name: "Desk1", Type: model.RoomTypeWorkspace},
			},
			[]model.User{{Username: "admin", IsAdmin: true}},
		)
		return repository.NewMemoryRepository(log), catalog, func() {}, nil
	}

	db, err := postgres.NewPostgresDB(context.Background(), &cfg.Database, migrations.MigrationFiles)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("db init %v", err)
	}
	repo, err := repository.NewRepository(db, log)
	if err != nil {
		db.Close()
		return nil, nil, nil, fmt.Errorf("repo bookings %v", err)
	}
	return repo, repository.NewCatalog(db, log), db.Close, nil
}

func newPublisher(cfg kafka.Config, log *zap.Logger) (kafka.Publisher, error) {
	if !cfg.Enabled() {
		log.Info("kafka brokers not configured, booking events disabled")
		return kafka.NewNopPublisher(), nil
	}
	producer, err := kafka.NewProducer(cfg)
	if err != nil {
		return nil, err
	}
	return kafka.NewPublisher(producer, cfg.Topic, log), nil
}
