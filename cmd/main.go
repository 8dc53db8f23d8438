package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"charging-route-service/internal/graph"
	"charging-route-service/internal/handlers"
	"charging-route-service/internal/kinesis"
	"charging-route-service/internal/service"
	"charging-route-service/internal/storage"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	kinesisService "github.com/aws/aws-sdk-go-v2/service/kinesis"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
)

func main() {
	envErr := godotenv.Load()

	// Setup structured JSON logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(getEnv("LOG_LEVEL", "info")),
	}))
	slog.SetDefault(logger)

	if envErr != nil {
		slog.Debug("No .env file found, using process environment")
	}

	// Get configuration from environment
	port := getEnv("PORT", "8080")
	storageType := getEnv("STORAGE_TYPE", "memory")
	region := getEnv("AWS_REGION", "eu-west-1")
	stationsFile := getEnv("STATIONS_FILE", "")
	proximityThresholdKm := getEnvFloat("PROXIMITY_THRESHOLD_KM", graph.DefaultProximityThresholdKm)
	surveyWorkers := getEnvInt("SURVEY_WORKERS", 0)
	refreshInterval := getEnvDuration("GRAPH_REFRESH_INTERVAL", "0s")
	routeEventsStream := getEnv("KINESIS_ROUTE_EVENTS_STREAM", "")
	stationUpdatesStream := getEnv("KINESIS_STATION_UPDATES_STREAM", "")

	// AWS config is only needed when a managed backend is in use
	var cfg aws.Config
	if storageType == "dynamodb" || routeEventsStream != "" || stationUpdatesStream != "" {
		var err error
		cfg, err = config.LoadDefaultConfig(context.TODO(), config.WithRegion(region))
		if err != nil {
			slog.Error("Failed to load AWS config", "error", err)
			os.Exit(1)
		}
	}

	// Initialize storage based on configuration
	var stationStorage storage.StationStorage
	switch storageType {
	case "dynamodb":
		tableName := getEnv("DYNAMODB_STATIONS_TABLE", "charging-stations")
		dynamoClient := dynamodb.NewFromConfig(cfg)
		stationStorage = storage.NewDynamoDBStationStorage(dynamoClient, tableName)
		slog.Info("Using DynamoDB storage", "table_name", tableName)
	default:
		stationStorage = storage.NewMemoryStationStorage()
		slog.Info("Using in-memory storage")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if stationsFile != "" {
		stations, err := storage.LoadStationsFile(stationsFile)
		if err != nil {
			slog.Error("Failed to load stations file", "path", stationsFile, "error", err)
			os.Exit(1)
		}
		if err := storage.SeedStorage(ctx, stationStorage, stations); err != nil {
			slog.Error("Failed to seed station storage", "error", err)
			os.Exit(1)
		}
		slog.Info("Seeded station storage", "path", stationsFile, "stations", len(stations))
	}

	// Initialize service
	routingService := service.NewRoutingService(stationStorage,
		service.WithProximityThreshold(proximityThresholdKm),
		service.WithSurveyWorkers(surveyWorkers))

	if err := routingService.Reload(ctx); err != nil {
		// the graph is built once enough stations are registered
		slog.Warn("Station graph not built at startup", "error", err)
	}

	// Initialize Kinesis streamer if stream name is provided
	if routeEventsStream != "" {
		streamer := kinesis.NewStreamer(kinesisService.NewFromConfig(cfg), routeEventsStream)
		routingService.SetKinesisStreamer(streamer)
		slog.Info("Kinesis route event streaming enabled", "stream", routeEventsStream)
	}

	// Start Kinesis consumer if stream name is provided
	if stationUpdatesStream != "" {
		consumer := kinesis.NewConsumer(kinesisService.NewFromConfig(cfg), stationUpdatesStream, routingService)
		go consumer.Start(ctx)
	}

	if refreshInterval > 0 {
		refresher := service.NewGraphRefresher(routingService, refreshInterval)
		refresher.Start()
		defer refresher.Stop()
	}

	// Initialize HTTP handlers
	httpHandler := handlers.NewHTTPHandler(routingService)

	// Setup routes
	router := mux.NewRouter()

	// Use path prefix if running behind load balancer
	pathPrefix := os.Getenv("PATH_PREFIX")
	if pathPrefix != "" {
		routingRouter := router.PathPrefix(pathPrefix).Subrouter()
		httpHandler.RegisterRoutes(routingRouter)
	} else {
		httpHandler.RegisterRoutes(router)
	}

	// Add CORS middleware for frontend
	router.Use(corsMiddleware)

	server := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	// Setup graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	// Start server in a goroutine
	go func() {
		slog.Info("Charging Route Service starting", "port", port, "proximity_threshold_km", proximityThresholdKm)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Charging Route Service failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	<-c
	slog.Info("Charging Route Service shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server shutdown failed", "error", err)
	}
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets environment variable as integer with default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvFloat gets environment variable as float64 with default value
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getEnvDuration gets duration from environment variable
func getEnvDuration(key, defaultValue string) time.Duration {
	value := getEnv(key, defaultValue)
	duration, err := time.ParseDuration(value)
	if err != nil {
		slog.Warn("Invalid duration, using default", "provided", value, "default", defaultValue, "error", err)
		duration, _ = time.ParseDuration(defaultValue)
	}
	return duration
}

func parseLogLevel(value string) slog.Level {
	switch strings.ToLower(value) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// corsMiddleware adds CORS headers for frontend access
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
