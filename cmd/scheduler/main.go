package main

import (
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/telvora/call-scheduler/internal/config"
	gateway "github.com/telvora/call-scheduler/internal/gateways"
	"github.com/telvora/call-scheduler/internal/handlers"
	"github.com/telvora/call-scheduler/internal/poller"
	"github.com/telvora/call-scheduler/internal/repository"
	"github.com/telvora/call-scheduler/internal/services"
	xhttp "github.com/telvora/call-scheduler/pkg/http"
	"github.com/telvora/call-scheduler/pkg/logger"
	"github.com/telvora/call-scheduler/pkg/pg"
	"github.com/telvora/call-scheduler/pkg/prom"
	"github.com/telvora/call-scheduler/pkg/redis"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {

	err := config.Load(argContainsEnvPath())
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return
	}

	// transport
	s := xhttp.NewServer(xhttp.DefaultServerOption)
	s.Server.ReadBufferSize = 1024 * 16
	s.Server.WriteBufferSize = 1024 * 16
	s.Use(xhttp.CompressMiddleware(6))
	s.Use(xhttp.TimeoutMiddleware(time.Second * 5))
	s.Use(xhttp.CORSMiddleware)
	s.Use(xhttp.RequestLoggerMiddleware)
	s.Use(xhttp.RecoverMiddleware)
	s.Router = xhttp.CreateDefaultRouter()

	readConf := pg.Config{
		User:     config.Get().PostgresReadUser,
		Host:     config.Get().PostgresReadHost,
		Port:     config.Get().PostgresReadPort,
		Password: config.Get().PostgresReadPassword,
		Database: config.Get().PostgresReadDatabase,
	}
	writeConf := pg.Config{
		User:     config.Get().PostgresWriteUser,
		Host:     config.Get().PostgresWriteHost,
		Port:     config.Get().PostgresWritePort,
		Password: config.Get().PostgresWritePassword,
		Database: config.Get().PostgresWriteDatabase,
	}

	pgDebug := false
	if config.Get().AppEnv == "dev" {
		pgDebug = true
	}
	db, err := pg.CreateReadWrite(readConf, writeConf, pgDebug)
	if err != nil {
		logger.Error("failed connecting to pg", "error", err)
		return
	}

	redisAdap, err := redis.NewRedisAdapter("default", config.Get().RedisUniversalKeyPrefix, &redis.Options{
		Addrs:      []string{config.Get().RedisAddr},
		ClientName: "default",
		DB:         config.Get().RedisDatabase,
		Username:   config.Get().RedisUsername,
		Password:   config.Get().RedisPassword,
	})
	if err != nil {
		logger.Error("failed connecting to redis", "error", err)
		return
	}

	var hostname string
	hostname, err = os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	err = prom.Create(hostname, config.Get().AppEnv, config.Get().PromNamespace)
	if err != nil {
		logger.Error("failed to create prometheus metrics", "error", err)
		return
	}
	if config.Get().AppDebugMetricsAddr != "" {
		go prom.ListenAndServer(config.Get().AppDebugMetricsAddr, config.Get().AppDebugMetricsURI)
	}

	callAPI, err := gateway.NewClient(&gateway.Config{
		BaseURL: config.Get().CallAPIBaseURL,
		Timeout: config.Get().CallAPITimeout,
	})
	if err != nil {
		logger.Error("failed creating call api client", "error", err)
		return
	}

	scheduledCallRepo := repository.NewScheduledCallRepository(db)
	historyRepo := repository.NewCallHistoryRepository(db)

	// services
	statusCache := services.NewStatusCache(redisAdap, config.Get().StatusCacheTTL)
	schedulingService := services.NewSchedulingService(scheduledCallRepo, historyRepo, callAPI, statusCache, config.Get().LiveLookupBudget)
	healthService := services.NewHealthService()

	// handlers
	scheduledCallHandler := handlers.NewScheduledCallHandler(schedulingService)
	healthHandler := handlers.NewHealthHandler(healthService)

	g := s.Router.Group("/api")
	handlers.RegisterScheduledCallRoutes(g, scheduledCallHandler)
	handlers.RegisterHealthRoutes(s.Router, healthHandler)

	// background executor
	p := poller.New(scheduledCallRepo, historyRepo, callAPI, db,
		poller.WithInterval(config.Get().PollInterval),
	)
	p.Start()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		var err = s.ListenAndServe(config.Get().HttpListenAddr)
		if err != nil {
			logger.Error("error in running http-server", "error", err)
		}
	}()

	<-c
	p.Stop()
	s.Shutdown()
}

func argContainsEnvPath() string {
	for _, v := range os.Args {
		if strings.Contains(v, "--env=") {
			s := strings.Split(v, "=")
			if _, err := os.Open(s[1]); err != nil {
				logger.Error("failed to open the passed env file, got error" + err.Error())
				return ""
			}
			return s[1]
		}
	}
	return ""
}
