package main

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/sitekick/pipeline/internal/config"
	"github.com/sitekick/pipeline/internal/infra/database"
	"github.com/sitekick/pipeline/internal/infra/http/handlers"
	"github.com/sitekick/pipeline/internal/infra/http/middleware"
	"github.com/sitekick/pipeline/internal/infra/integration/paygate"
	"github.com/sitekick/pipeline/internal/infra/mail"
	"github.com/sitekick/pipeline/internal/infra/queue"
	"github.com/sitekick/pipeline/internal/infra/worker"
	"github.com/sitekick/pipeline/internal/usecase"
)

func main() {
	godotenv.Load()
	log.SetFormatter(&log.JSONFormatter{})

	cfg := config.Load()

	db, err := database.NewDBConnection(cfg.DatabaseURL)
	if err != nil {
		log.WithError(err).Fatal("database connection failed")
	}
	defer db.Close()

	rabbitMQ, err := queue.NewRabbitMQ(cfg.RabbitUser, cfg.RabbitPass, cfg.RabbitHost, cfg.RabbitPort)
	if err != nil {
		log.WithError(err).Fatal("rabbitmq connection failed")
	}
	defer rabbitMQ.Conn.Close()
	defer rabbitMQ.Ch.Close()

	// Repositories
	leadRepo := database.NewLeadRepository(db)
	dealRepo := database.NewDealRepository(db)
	proposalRepo := database.NewProposalRepository(db)
	bookingRepo := database.NewBookingRepository(db)
	serviceRepo := database.NewServiceRepository(db)
	activityRepo := database.NewActivityRepository(db)
	tokenRepo := database.NewTokenRepository(db)

	// Gateways and adapters
	gateway := paygate.NewClient(cfg.PaygateAPIKey, cfg.PaygateURL, cfg.PaygateTimeout)
	producer := queue.NewProducer(rabbitMQ.Conn, rabbitMQ.Ch)
	mailSender := mail.NewEmailSender(cfg.MailHost, cfg.MailPort, cfg.MailUser, cfg.MailPass, cfg.MailFrom)

	// Workers
	notificationWorker := queue.NewWorker(rabbitMQ.Ch, mailSender)
	go notificationWorker.Start(queue.QueueName)

	followUpWorker := worker.NewFollowUpWorker(db, producer)
	go followUpWorker.Start(context.Background())

	// Use cases
	createBookingUC := usecase.NewCreateBookingUseCase(bookingRepo, serviceRepo, leadRepo, activityRepo, producer)
	availabilityUC := usecase.NewBookingAvailabilityUseCase(bookingRepo, serviceRepo, leadRepo, cfg.OpenMinute, cfg.CloseMinute)
	bookingStatusUC := usecase.NewUpdateBookingStatusUseCase(bookingRepo, leadRepo)

	createDealUC := usecase.NewCreateDealUseCase(leadRepo, dealRepo, activityRepo, gateway,
		cfg.FeeRate, cfg.CheckoutSuccessURL, cfg.CheckoutCancelURL)
	confirmPaymentUC := usecase.NewConfirmPaymentUseCase(dealRepo, leadRepo, activityRepo, gateway)
	refundDealUC := usecase.NewRefundDealUseCase(dealRepo, leadRepo, activityRepo, gateway, producer)

	sendProposalUC := usecase.NewSendProposalUseCase(leadRepo, proposalRepo, dealRepo, activityRepo, producer, cfg.PublicBaseURL)
	viewProposalUC := usecase.NewViewProposalUseCase(proposalRepo, activityRepo)
	acceptProposalUC := usecase.NewAcceptProposalUseCase(proposalRepo, dealRepo, leadRepo, activityRepo,
		gateway, producer, cfg.FeeRate, cfg.CheckoutSuccessURL, cfg.CheckoutCancelURL)
	declineProposalUC := usecase.NewDeclineProposalUseCase(proposalRepo, leadRepo, activityRepo)

	leadStatusUC := usecase.NewUpdateLeadStatusUseCase(leadRepo, activityRepo)
	followUpUC := usecase.NewFollowUpUseCase(leadRepo, activityRepo)

	// Handlers
	bookingHandler := handlers.NewBookingHandler(createBookingUC, availabilityUC, bookingStatusUC, bookingRepo)
	proposalHandler := handlers.NewProposalHandler(sendProposalUC, viewProposalUC, acceptProposalUC, declineProposalUC)
	dealHandler := handlers.NewDealHandler(createDealUC, refundDealUC)
	leadHandler := handlers.NewLeadHandler(leadStatusUC, followUpUC, activityRepo, leadRepo)
	webhookHandler := handlers.NewWebhookHandler(confirmPaymentUC)
	healthHandler := handlers.NewHealthHandler(db, rabbitMQ.Conn)

	// Router
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(middleware.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	}))

	// Public surfaces: booking form, proposal link, payment callbacks.
	r.Post("/bookings", bookingHandler.HandleCreate)
	r.Get("/bookings/code/{code}", bookingHandler.HandleLookup)
	r.Get("/websites/{websiteId}/availability", bookingHandler.HandleAvailability)
	r.Get("/proposals/{token}", proposalHandler.HandleView)
	r.Post("/proposals/{token}/accept", proposalHandler.HandleAccept)
	r.Post("/proposals/{token}/decline", proposalHandler.HandleDecline)
	r.Post("/webhook", webhookHandler.Handle)

	r.Get("/health", healthHandler.Handle)
	r.Handle("/metrics", promhttp.Handler())

	// Owner surfaces, bearer-token scoped.
	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(tokenRepo))

		r.Post("/deals", dealHandler.HandleCreate)
		r.Post("/deals/{dealId}/refund", dealHandler.HandleRefund)
		r.Post("/leads/{leadId}/proposals", proposalHandler.HandleSend)
		r.Patch("/leads/{leadId}/status", leadHandler.HandleUpdateStatus)
		r.Post("/leads/{leadId}/follow-up", leadHandler.HandleScheduleFollowUp)
		r.Get("/leads/{leadId}/timeline", leadHandler.HandleTimeline)
		r.Get("/follow-ups/due", leadHandler.HandleDueFollowUps)
		r.Patch("/bookings/{bookingId}/status", bookingHandler.HandleUpdateStatus)
	})

	addr := ":" + cfg.Port
	log.WithField("addr", addr).Info("pipeline service listening")
	if err := http.ListenAndServe(addr, r); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}
