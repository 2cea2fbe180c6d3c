package main

import (
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/vhxmt/doantotnghiep-sub001/internal/config"
	httpctl "github.com/vhxmt/doantotnghiep-sub001/internal/controllers/http"
	"github.com/vhxmt/doantotnghiep-sub001/internal/infra/gateway"
	mmysql "github.com/vhxmt/doantotnghiep-sub001/internal/infra/mysql"
	"github.com/vhxmt/doantotnghiep-sub001/internal/infra/rabbitmq"
	mysqlrepo "github.com/vhxmt/doantotnghiep-sub001/internal/repository/mysql"
	"github.com/vhxmt/doantotnghiep-sub001/internal/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	db, err := mmysql.New(cfg.Database)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}

	store := mysqlrepo.NewStore(db)

	publisher, err := rabbitmq.NewPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange)
	if err != nil {
		logger.Fatal("rabbitmq connect", zap.Error(err))
	}
	defer publisher.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:         cfg.Redis.Addr,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  500 * time.Millisecond,
		WriteTimeout: 500 * time.Millisecond,
	})

	orders := services.NewOrderService(store, publisher, cfg.Pricing, logger)
	payments := services.NewPaymentService(store, orders, logger,
		gateway.NewZaloPay(cfg.ZaloPay),
		gateway.NewVNPay(cfg.VNPay),
	)

	handler := httpctl.NewHandler(orders, payments, redisClient)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	handler.RegisterRoutes(r)

	logger.Info("starting shop service", zap.String("port", cfg.Server.Port))
	if err := r.Run(":" + cfg.Server.Port); err != nil {
		logger.Fatal("server run", zap.Error(err))
	}
}
