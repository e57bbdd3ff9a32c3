package commands

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/MrEthical07/evangelho"
	"github.com/MrEthical07/evangelho/metrics/export/prometheus"
)

func loadtestCmd() *cobra.Command {
	var (
		users       int
		concurrency int
		ops         int
		metricsAddr string
	)
	cmd := &cobra.Command{
		Use:   "loadtest",
		Short: "Seed accounts and measure login/logout latency through the controller",
		RunE: func(cmd *cobra.Command, args []string) error {
			if users <= 0 || concurrency <= 0 || ops <= 0 {
				return errors.New("users, concurrency, and ops must be > 0")
			}
			return runLoadtest(cmd, users, concurrency, ops, metricsAddr)
		},
	}

	cmd.Flags().IntVar(&users, "users", 50, "number of accounts to seed")
	cmd.Flags().IntVar(&concurrency, "concurrency", 8, "number of concurrent sessions")
	cmd.Flags().IntVar(&ops, "ops", 400, "login/logout cycles to run")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address while running")
	return cmd
}

type seededUser struct {
	email    string
	password string
}

func runLoadtest(cmd *cobra.Command, users, concurrency, ops int, metricsAddr string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	workers := make([]*session, concurrency)
	for i := range workers {
		s, err := appCtx.newSession()
		if err != nil {
			return err
		}
		defer s.close()
		workers[i] = s
	}

	if metricsAddr != "" {
		srv := &http.Server{
			Addr:              metricsAddr,
			Handler:           prometheus.NewExporterFromSource(fleet(workers)).Handler(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				appCtx.logger.Error("metrics server stopped", "error", err)
			}
		}()
		defer srv.Close()
		fmt.Fprintf(out, "serving metrics on %s\n", metricsAddr)
	}

	seeded, err := seedUsers(ctx, workers[0], users)
	if err != nil {
		return err
	}

	login, logout, err := runLoginPhase(ctx, workers, seeded, ops)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, "---- results ----")
	printStats(cmd, "login", login)
	printStats(cmd, "logout", logout)
	return nil
}

func seedUsers(ctx context.Context, s *session, n int) ([]seededUser, error) {
	stamp := time.Now().UnixNano()
	out := make([]seededUser, n)

	start := time.Now()
	for i := range out {
		u := seededUser{
			email:    fmt.Sprintf("load-%d-%d@example.com", stamp, i),
			password: fmt.Sprintf("senha-%d", i),
		}
		uid, err := s.provider.CreateUser(ctx, u.email, u.password)
		if err != nil {
			return nil, fmt.Errorf("seed %s: %w", u.email, err)
		}
		if err := s.provider.PutProfile(ctx, uid, evangelho.Profile{Name: fmt.Sprintf("Load %d", i), Email: u.email}); err != nil {
			return nil, fmt.Errorf("seed profile %s: %w", u.email, err)
		}
		out[i] = u
	}
	appCtx.logger.Info("seeded accounts", "count", n, "took", time.Since(start).Round(time.Millisecond))
	return out, nil
}

// runLoginPhase gives each worker its own controller. A worker signs a
// random seeded user in, waits for the state, then signs out again.
func runLoginPhase(ctx context.Context, workers []*session, users []seededUser, ops int) (phaseStats, phaseStats, error) {
	var (
		cursor         int64
		loginFailures  int64
		logoutFailures int64
		mu             sync.Mutex
		loginLat       = make([]time.Duration, 0, ops)
		logoutLat      = make([]time.Duration, 0, ops)
	)

	g, gctx := errgroup.WithContext(ctx)
	start := time.Now()
	for w, s := range workers {
		g.Go(func() error {
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(w)*7919))
			c := s.controller
			for {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return nil
				}
				u := users[r.Intn(len(users))]

				t0 := time.Now()
				c.Login(opContext(gctx), u.email, u.password)
				c.Wait()
				dIn := time.Since(t0)
				if !c.State().Authenticated {
					atomic.AddInt64(&loginFailures, 1)
				}

				t1 := time.Now()
				c.Logout(opContext(gctx))
				c.Wait()
				dOut := time.Since(t1)
				if c.State().Authenticated {
					atomic.AddInt64(&logoutFailures, 1)
				}

				mu.Lock()
				loginLat = append(loginLat, dIn)
				logoutLat = append(logoutLat, dOut)
				mu.Unlock()
			}
		})
	}
	if err := g.Wait(); err != nil {
		return phaseStats{}, phaseStats{}, err
	}
	total := time.Since(start)
	return computeStats(total, loginLat, loginFailures), computeStats(total, logoutLat, logoutFailures), nil
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total, failures: failures}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	idx := (len(samples) - 1) * p / 100
	return samples[idx]
}

func printStats(cmd *cobra.Command, name string, s phaseStats) {
	fmt.Fprintf(cmd.OutOrStdout(), "%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}

// fleet sums the metrics of every worker controller.
type fleet []*session

func (f fleet) MetricsSnapshot() evangelho.MetricsSnapshot {
	sum := evangelho.MetricsSnapshot{
		Counters:   map[evangelho.MetricID]uint64{},
		Histograms: map[evangelho.MetricID][]uint64{},
	}
	for _, s := range f {
		snap := s.controller.MetricsSnapshot()
		for id, v := range snap.Counters {
			sum.Counters[id] += v
		}
		for id, buckets := range snap.Histograms {
			acc := sum.Histograms[id]
			if acc == nil {
				acc = make([]uint64, len(buckets))
			}
			for i, v := range buckets {
				if i < len(acc) {
					acc[i] += v
				}
			}
			sum.Histograms[id] = acc
		}
	}
	return sum
}

func (f fleet) AuditDropped() uint64 {
	var n uint64
	for _, s := range f {
		n += s.controller.AuditDropped()
	}
	return n
}
