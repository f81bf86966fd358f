package main

import (
	"log"
	"net/http"

	"trackmate/internal/api/router"
	"trackmate/internal/cache"
	"trackmate/internal/config"
	"trackmate/internal/core/model"
	"trackmate/internal/core/repository"
	"trackmate/internal/core/service"
	"trackmate/internal/notify"
	"trackmate/internal/scheduler"
	"trackmate/internal/sms"
)

func main() {
	cfg := config.LoadConfig()

	// Repositories: MongoDB in production, in-memory under TEST_MODE.
	var (
		fixRepo      repository.FixRepository
		boundaryRepo repository.BoundaryRepository
		sessionRepo  repository.SessionRepository
		cooldownRepo repository.CooldownRepository
	)
	if cfg.TestMode {
		log.Println("TEST_MODE enabled, using in-memory storage")
		fixRepo = repository.NewInMemoryFixRepository()
		boundaryRepo = repository.NewInMemoryBoundaryRepository()
		sessionRepo = repository.NewInMemorySessionRepository()
		cooldownRepo = repository.NewInMemoryCooldownRepository()
	} else {
		mongoConfig := config.NewMongoConfig()
		db, err := config.ConnectMongoDB(mongoConfig)
		if err != nil {
			log.Fatalf("Failed to connect to MongoDB: %v", err)
		}
		fixRepo = repository.NewMongoFixRepository(db)
		boundaryRepo = repository.NewMongoBoundaryRepository(db)
		sessionRepo = repository.NewMongoSessionRepository(db)
		cooldownRepo = repository.NewMongoCooldownRepository(db)
	}

	fixCache := cache.New(cfg.RedisURL)
	defer fixCache.Close()

	// The SMS gateway carries both directions of the locator protocol and
	// doubles as the alert channel. Without a broker we still run, with
	// alerts going to the log and sends dropped.
	var (
		sender   service.SmsSender
		notifier notify.Notifier
	)
	gateway := sms.NewGateway(sms.GatewayConfig{
		BrokerURL: cfg.MQTTBrokerURL,
		ClientID:  cfg.MQTTClientID,
	})
	if cfg.MQTTBrokerURL != "" {
		sender = gateway
		notifier = gateway
	} else {
		log.Println("MQTT_BROKER_URL not set, SMS transport limited to the inbound webhook")
		sender = noopSender{}
		notifier = notify.LogNotifier{}
	}

	policy := notify.NewPolicy(cooldownRepo, notifier)
	sched := scheduler.New()

	pollingService := service.NewPollingService(sessionRepo, fixRepo, fixCache, sched, sender, policy, cfg.UserID)
	fixService := service.NewFixService(fixRepo, fixCache)
	geofenceService := service.NewGeofenceService(boundaryRepo, fixRepo, fixCache, policy)
	commandService := service.NewCommandService(pollingService, sender, fixService, cfg.UserID)
	smsRouter := sms.NewRouter(pollingService, policy, cfg.LocatorNumber)

	if cfg.MQTTBrokerURL != "" {
		gateway.OnInbound(smsRouter.HandleMessage)
		if err := gateway.Connect(); err != nil {
			log.Fatalf("Failed to connect to MQTT broker: %v", err)
		}
		defer gateway.Close()
	}

	// Pick up any poll that was in flight when the process last stopped.
	if err := pollingService.Resume(); err != nil {
		log.Printf("Failed to resume polling sessions: %v", err)
	}

	sweep := sched.Every(cfg.SweepInterval, pollingService.Sweep)
	defer sweep.Cancel()

	geofenceTick := sched.Every(cfg.GeofenceInterval, func() {
		geofenceService.Evaluate(cfg.UserID)
	})
	defer geofenceTick.Cancel()

	if cfg.PollInterval > 0 && cfg.LocatorNumber != "" {
		poll := sched.Every(cfg.PollInterval, func() {
			if err := pollingService.StartPolling(cfg.LocatorNumber, model.TriggerAutomatic); err != nil {
				log.Printf("Periodic poll failed to start: %v", err)
			}
		})
		defer poll.Cancel()
	}

	r := router.NewRouter(router.Deps{
		FixService:      fixService,
		GeofenceService: geofenceService,
		CommandService:  commandService,
		PollingService:  pollingService,
		SmsRouter:       smsRouter,
		LocatorNumber:   cfg.LocatorNumber,
		JWTSecret:       cfg.JWTSecret,
	})

	addr := cfg.Host + ":" + cfg.Port
	log.Printf("Server starting on %s", addr)
	if err := http.ListenAndServe(addr, r); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}

// noopSender stands in when no MQTT broker is configured. Sends are logged
// and dropped; the polling timeout handles the rest.
type noopSender struct{}

func (noopSender) SendText(number, body string) {
	log.Printf("[sms] no transport configured, dropping %q to %s", body, number)
}
