package metrics

import (
	"context"
	"time"

	"github.com/anonto42/inkwell/backend/internal/commenttree"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the comment engine's Prometheus collectors
type Metrics struct {
	serviceCalls    *prometheus.CounterVec
	serviceDuration *prometheus.HistogramVec
	forestChanges   prometheus.Counter
}

// New registers the collectors with reg
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		serviceCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "comment_service_calls_total",
			Help: "Comment service calls by operation and result",
		}, []string{"op", "result"}),
		serviceDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "comment_service_duration_seconds",
			Help:    "Comment service call latency",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"op"}),
		forestChanges: factory.NewCounter(prometheus.CounterOpts{
			Name: "comment_forest_changes_total",
			Help: "Changes published by the comment store",
		}),
	}
}

// WatchStore counts every change the store publishes. The returned func
// stops counting.
func (m *Metrics) WatchStore(store *commenttree.Store) func() {
	return store.Subscribe(func(string) { m.forestChanges.Inc() })
}

func (m *Metrics) observe(op commenttree.Op, start time.Time, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.serviceCalls.WithLabelValues(string(op), result).Inc()
	m.serviceDuration.WithLabelValues(string(op)).Observe(time.Since(start).Seconds())
}

// Instrument wraps svc so every call is counted and timed
func (m *Metrics) Instrument(svc commenttree.Service) commenttree.Service {
	return &instrumented{next: svc, m: m}
}

type instrumented struct {
	next commenttree.Service
	m    *Metrics
}

func (s *instrumented) FetchComments(ctx context.Context, postID string) ([]commenttree.RawComment, error) {
	start := time.Now()
	raws, err := s.next.FetchComments(ctx, postID)
	s.m.observe(commenttree.OpFetch, start, err)
	return raws, err
}

func (s *instrumented) CreateComment(ctx context.Context, postID, content string, author commenttree.AuthorRef) (*commenttree.RawComment, error) {
	start := time.Now()
	raw, err := s.next.CreateComment(ctx, postID, content, author)
	s.m.observe(commenttree.OpCreate, start, err)
	return raw, err
}

func (s *instrumented) ReplyToComment(ctx context.Context, parentID, content string, author commenttree.AuthorRef) (*commenttree.RawComment, error) {
	start := time.Now()
	raw, err := s.next.ReplyToComment(ctx, parentID, content, author)
	s.m.observe(commenttree.OpReply, start, err)
	return raw, err
}

func (s *instrumented) UpdateComment(ctx context.Context, commentID, content string) (*commenttree.RawComment, error) {
	start := time.Now()
	raw, err := s.next.UpdateComment(ctx, commentID, content)
	s.m.observe(commenttree.OpUpdate, start, err)
	return raw, err
}

func (s *instrumented) DeleteComment(ctx context.Context, commentID string) error {
	start := time.Now()
	err := s.next.DeleteComment(ctx, commentID)
	s.m.observe(commenttree.OpDelete, start, err)
	return err
}

func (s *instrumented) LikeComment(ctx context.Context, commentID, userID string) (int, error) {
	start := time.Now()
	likes, err := s.next.LikeComment(ctx, commentID, userID)
	s.m.observe(commenttree.OpLike, start, err)
	return likes, err
}

func (s *instrumented) UnlikeComment(ctx context.Context, commentID, userID string) (int, error) {
	start := time.Now()
	likes, err := s.next.UnlikeComment(ctx, commentID, userID)
	s.m.observe(commenttree.OpUnlike, start, err)
	return likes, err
}
