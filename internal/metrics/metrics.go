package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// BlocksProcessed counts blocks covered by applied index ranges
	BlocksProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "governance_blocks_processed_total",
			Help: "Total number of blocks processed",
		},
		[]string{"source"},
	)

	// EventsIndexed counts domain events applied by the pipeline
	EventsIndexed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "governance_events_indexed_total",
			Help: "Total number of governance events applied",
		},
		[]string{"event_type"},
	)

	// DecodeErrors counts logs that could not be decoded and were skipped
	DecodeErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "governance_decode_errors_total",
			Help: "Total number of undecodable logs skipped",
		},
		[]string{"event_type"},
	)

	// ErrorsTotal counts errors by type
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "governance_errors_total",
			Help: "Total number of errors",
		},
		[]string{"component", "error_type"},
	)

	// LastProcessedBlock tracks the indexer cursor
	LastProcessedBlock = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "governance_last_processed_block",
			Help: "Last fully processed block number by cursor",
		},
		[]string{"cursor"},
	)

	// ChunkDuration tracks backfill chunk processing time
	ChunkDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "governance_backfill_chunk_duration_seconds",
			Help:    "Backfill chunk processing duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// TallyDrift counts proposals whose stored tally differs from the contract
	TallyDrift = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "governance_tally_drift_proposals",
			Help: "Number of proposals whose stored tally differs from on-chain totals",
		},
	)

	// TreasuryBalance tracks the derived treasury balance by asset
	TreasuryBalance = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "governance_treasury_balance",
			Help: "Treasury running balance by asset in base units",
		},
		[]string{"asset"},
	)

	// WebsocketConnections tracks currently registered websocket clients
	WebsocketConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "governance_websocket_connections",
			Help: "Number of connected websocket clients",
		},
	)

	// Broadcasts counts notifications fanned out by message type
	Broadcasts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "governance_broadcasts_total",
			Help: "Total number of notifications broadcast",
		},
		[]string{"type"},
	)

	// DroppedClients counts websocket clients removed by the hub
	DroppedClients = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "governance_websocket_dropped_total",
			Help: "Total number of websocket clients removed by reason",
		},
		[]string{"reason"},
	)

	// VotesStaged counts votes staged or confirmed through the API
	VotesStaged = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "governance_votes_total",
			Help: "Total number of API vote operations by status",
		},
		[]string{"status"},
	)
)
