package service

import (
	"context"
	"log/slog"
	"time"
)

// GraphRefresher periodically rebuilds the graph so writes made by other instances
// against shared storage show up
type GraphRefresher struct {
	routingService *RoutingService
	interval       time.Duration
	stopChan       chan struct{}
}

// NewGraphRefresher creates a new graph refresher
func NewGraphRefresher(routingService *RoutingService, interval time.Duration) *GraphRefresher {
	return &GraphRefresher{
		routingService: routingService,
		interval:       interval,
		stopChan:       make(chan struct{}),
	}
}

// Start begins the background refresh loop
func (gr *GraphRefresher) Start() {
	go gr.refreshLoop()
	slog.Info("Graph refresher started", "interval", gr.interval)
}

// Stop stops the background refresh loop
func (gr *GraphRefresher) Stop() {
	close(gr.stopChan)
	slog.Info("Graph refresher stopped")
}

func (gr *GraphRefresher) refreshLoop() {
	ticker := time.NewTicker(gr.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			gr.refresh()
		case <-gr.stopChan:
			return
		}
	}
}

func (gr *GraphRefresher) refresh() {
	ctx, cancel := context.WithTimeout(context.Background(), gr.interval)
	defer cancel()

	if err := gr.routingService.Reload(ctx); err != nil {
		slog.Error("Error refreshing station graph", "error", err)
	}
}
