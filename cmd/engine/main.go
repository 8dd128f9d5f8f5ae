package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/wyfcoding/indexoptions/internal/audit"
	compliancedomain "github.com/wyfcoding/indexoptions/internal/compliance/domain"
	complianceinfra "github.com/wyfcoding/indexoptions/internal/compliance/infrastructure"
	enginehttp "github.com/wyfcoding/indexoptions/internal/engine/interfaces/http"
	execution "github.com/wyfcoding/indexoptions/internal/execution/application"
	"github.com/wyfcoding/indexoptions/internal/funding"
	ledger "github.com/wyfcoding/indexoptions/internal/ledger/domain"
	archivemysql "github.com/wyfcoding/indexoptions/internal/ledger/infrastructure/persistence/mysql"
	"github.com/wyfcoding/indexoptions/internal/marketdata"
	"github.com/wyfcoding/indexoptions/internal/notification"
	riskdomain "github.com/wyfcoding/indexoptions/internal/risk/domain"
	schedulerapp "github.com/wyfcoding/indexoptions/internal/scheduler/application"
	settlementapp "github.com/wyfcoding/indexoptions/internal/settlement/application"
	settlementdomain "github.com/wyfcoding/indexoptions/internal/settlement/domain"
	"github.com/wyfcoding/indexoptions/internal/signal/simulated"
	"github.com/wyfcoding/indexoptions/pkg/config"
	"github.com/wyfcoding/indexoptions/pkg/logger"
	"github.com/wyfcoding/indexoptions/pkg/metrics"
	"github.com/wyfcoding/indexoptions/pkg/mq"
	"github.com/wyfcoding/pkg/logging"
	"golang.org/x/sync/errgroup"
	gorm_mysql "gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "configs/config.toml", "path to config file")
	flag.Parse()

	// 1. Config
	cfg, err := config.Load(configPath)
	if err != nil {
		panic(fmt.Sprintf("load config failed: %v", err))
	}

	// 2. Logger
	if err := logger.Init(logger.Config(cfg.Logger)); err != nil {
		panic(fmt.Sprintf("init logger failed: %v", err))
	}
	extLogger := logging.NewLogger(cfg.ServiceName, "main", cfg.Logger.Level)
	slog.SetDefault(extLogger.Logger)

	// 3. Metrics
	metricsImpl := metrics.New(cfg.ServiceName)

	// 4. Account & Domain
	category, err := ledger.ParseCategory(cfg.Account.Category)
	if err != nil {
		panic(fmt.Sprintf("invalid account category: %v", err))
	}
	initialBalance := mustDecimal(cfg.Account.InitialBalance, "account.initial_balance")
	account := ledger.NewAccount(cfg.Account.UserID, category, initialBalance)

	prices := marketdata.NewCachedSource(marketdata.NewSimulatedSource(map[string]decimal.Decimal{
		"NIFTY50":   decimal.NewFromInt(23500),
		"BANKNIFTY": decimal.NewFromInt(51200),
		"FINNIFTY":  decimal.NewFromInt(23900),
	}, time.Now().UnixNano()))

	kyc := complianceinfra.NewStaticVerifier(cfg.Account.UserID)
	complianceGate := compliancedomain.NewGate(kyc)
	splitter := compliancedomain.NewSplitter()
	leverageGate := riskdomain.NewLeverageGate()

	riskGate := riskdomain.NewGate(riskdomain.GateConfig{
		MaxDailyLoss:     mustDecimal(cfg.Risk.MaxDailyLoss, "risk.max_daily_loss"),
		MaxOpenTrades:    cfg.Risk.MaxOpenTrades,
		MaxPositionValue: mustDecimal(cfg.Risk.MaxPositionValue, "risk.max_position_value"),
		ExceedFactor:     cfg.Risk.ExceedFactor,
	})

	// 5. Archival & Audit (both optional)
	var archiveRepo *archivemysql.ArchiveRepository
	if cfg.Database.Enabled {
		db, err := gorm.Open(gorm_mysql.Open(cfg.Database.DSN), &gorm.Config{})
		if err != nil {
			panic(fmt.Sprintf("connect db failed: %v", err))
		}
		sqlDB, err := db.DB()
		if err != nil {
			panic(fmt.Sprintf("access db pool failed: %v", err))
		}
		sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)

		archiveRepo = archivemysql.NewArchiveRepository(db)
		if err := archiveRepo.AutoMigrate(); err != nil {
			panic(fmt.Sprintf("migrate db failed: %v", err))
		}
	}

	var recorder audit.Recorder = audit.NoopRecorder{}
	var producer *mq.KafkaProducer
	if cfg.Kafka.Enabled {
		producer, err = mq.NewProducer(mq.KafkaConfig{
			Brokers:      cfg.Kafka.Brokers,
			MaxRetries:   cfg.Kafka.MaxRetries,
			RetryBackoff: cfg.Kafka.RetryBackoff,
		})
		if err != nil {
			panic(fmt.Sprintf("init kafka producer failed: %v", err))
		}
		recorder = audit.NewKafkaRecorder(producer, cfg.Kafka.AuditTopic)
	}

	// 6. Execution pipeline
	adapter := execution.NewSimulatedAdapter(account, prices)
	var orderArchiver execution.OrderArchiver
	if archiveRepo != nil {
		orderArchiver = archiveRepo
	}
	pipeline := execution.NewPipeline(
		complianceGate,
		splitter,
		leverageGate,
		riskGate,
		adapter,
		prices,
		recorder,
		orderArchiver,
		metricsImpl,
	)

	// 7. Signal source & scheduler
	adaptivePolicy := riskdomain.AdaptivePolicy{
		CalmBelow:      cfg.Adaptive.CalmBelow,
		NormalBelow:    cfg.Adaptive.NormalBelow,
		ElevatedBelow:  cfg.Adaptive.ElevatedBelow,
		CalmMax:        cfg.Adaptive.CalmMax,
		NormalMax:      cfg.Adaptive.NormalMax,
		ElevatedMax:    cfg.Adaptive.ElevatedMax,
		ExtremeMax:     cfg.Adaptive.ExtremeMax,
		HighConfidence: cfg.Adaptive.HighConfidence,
		LowConfidence:  cfg.Adaptive.LowConfidence,
		HighScale:      cfg.Adaptive.HighScale,
		LowScale:       cfg.Adaptive.LowScale,
	}

	volRng := rand.New(rand.NewSource(time.Now().UnixNano()))
	volatility := func(ctx context.Context) float64 {
		// 模拟 VIX 类指数，覆盖全部容量档位
		return 12.0 + volRng.Float64()*20.0
	}
	source := simulated.NewSource(adaptivePolicy, volatility, time.Now().UnixNano())

	windowMinutes := (cfg.Scheduler.CycleMinutes - cfg.Scheduler.SignalMinutes + cfg.Scheduler.Windows - 1) / cfg.Scheduler.Windows
	var cycleArchiver schedulerapp.CycleArchiver
	if archiveRepo != nil {
		cycleArchiver = archiveRepo
	}
	scheduler := schedulerapp.NewCycleScheduler(
		schedulerapp.Config{
			CycleInterval:       time.Duration(cfg.Scheduler.CycleMinutes) * time.Minute,
			SignalPhase:         time.Duration(cfg.Scheduler.SignalMinutes) * time.Minute,
			WindowLength:        time.Duration(windowMinutes) * time.Minute,
			Windows:             cfg.Scheduler.Windows,
			CyclesPerSession:    cfg.Scheduler.CyclesPerSession,
			DefaultDailyCeiling: cfg.Scheduler.DefaultDailyCeiling,
			FaultBackoff:        time.Duration(cfg.Scheduler.FaultBackoff) * time.Second,
		},
		source,
		pipeline,
		adapter,
		riskGate,
		cycleArchiver,
		metricsImpl,
		volatility,
	)

	// 8. Settlement
	var settlementArchiver settlementapp.SettlementArchiver
	if archiveRepo != nil {
		settlementArchiver = archiveRepo
	}
	settlementSvc := settlementapp.NewService(
		settlementdomain.Policy{
			TreasuryShare: decimal.NewFromFloat(cfg.Settlement.TreasuryShare),
			PartnerShare:  decimal.NewFromFloat(cfg.Settlement.PartnerShare),
			TaxRate:       decimal.NewFromFloat(cfg.Settlement.TaxRate),
		},
		funding.NewLoggingTransferor(),
		recorder,
		notification.NewCappedNotifier(),
		settlementArchiver,
		metricsImpl,
	)

	// 9. HTTP interface
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	sys := r.Group("/sys")
	{
		sys.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "UP"}) })
		sys.GET("/ready", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "READY"}) })
	}
	if cfg.Metrics.Enabled {
		r.GET(cfg.Metrics.Path, gin.WrapH(metricsImpl.Handler()))
	}
	pp := r.Group("/debug/pprof")
	{
		pp.GET("/", gin.WrapF(pprof.Index))
		pp.GET("/cmdline", gin.WrapF(pprof.Cmdline))
		pp.GET("/profile", gin.WrapF(pprof.Profile))
		pp.GET("/symbol", gin.WrapF(pprof.Symbol))
		pp.GET("/trace", gin.WrapF(pprof.Trace))
	}

	handler := enginehttp.NewHandler(pipeline, adapter, scheduler, settlementSvc)
	handler.RegisterRoutes(r.Group("/api/v1"))

	// 10. Start
	g, ctx := errgroup.WithContext(context.Background())

	scheduler.Start(ctx)

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeout) * time.Second,
	}
	g.Go(func() error {
		slog.Info("HTTP server starting", "addr", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	// 11. Graceful shutdown
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-quit:
			slog.Info("shutting down...")
		case <-ctx.Done():
			slog.Info("context cancelled, shutting down...")
		}

		scheduler.Stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("HTTP server shutdown failed", "error", err)
		}
		if producer != nil {
			if err := producer.Close(); err != nil {
				slog.Error("kafka producer close failed", "error", err)
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		slog.Error("server exited with error", "error", err)
	}
}

func mustDecimal(s, key string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(fmt.Sprintf("invalid decimal for %s: %v", key, err))
	}
	return d
}
