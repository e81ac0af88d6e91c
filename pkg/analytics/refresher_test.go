package analytics

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/matzehuels/nextstep/pkg/cache"
	"github.com/matzehuels/nextstep/pkg/integrations/backend"
)

type stubSource struct {
	mu           sync.Mutex
	variantCalls int
	fitnessCalls int
	err          error
	fitnessGate  chan struct{}
}

func (s *stubSource) Variants(context.Context) (backend.Variants, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.variantCalls++
	if s.err != nil {
		return backend.Variants{}, s.err
	}
	return backend.Variants{Variants: []backend.Variant{
		{Steps: []string{"A", "B"}, Covered: true, Support: 3},
		{Steps: []string{"A"}, Support: 1},
	}}, nil
}

func (s *stubSource) Metrics(context.Context) (backend.Metrics, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return backend.Metrics{}, s.err
	}
	return backend.Metrics{VariantCoverage: 0.5, EventLogCoverage: 0.75}, nil
}

func (s *stubSource) Fitness(ctx context.Context) (backend.Fitness, error) {
	s.mu.Lock()
	s.fitnessCalls++
	gate := s.fitnessGate
	s.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return backend.Fitness{}, ctx.Err()
		}
	}
	return backend.Fitness{Fitness: 0.9}, nil
}

func (s *stubSource) counts() (variants, fitness int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.variantCalls, s.fitnessCalls
}

func TestRefresh(t *testing.T) {
	src := &stubSource{}
	r := NewRefresher(src)
	defer r.Close()

	r.Refresh("m", []byte(`{"nodes":[]}`))
	r.Wait()

	rep := r.Report()
	if rep.StatsErr != nil || rep.FitnessErr != nil {
		t.Fatalf("Report() errors = %v, %v", rep.StatsErr, rep.FitnessErr)
	}
	if rep.Matrix != "m" || rep.Variants.Covered() != 1 || rep.Metrics.EventLogCoverage != 0.75 {
		t.Errorf("Report() = %+v", rep)
	}
	if rep.Fitness == nil || *rep.Fitness != 0.9 {
		t.Errorf("Fitness = %v, want 0.9", rep.Fitness)
	}
}

func TestRefreshFailureKeepsPrevious(t *testing.T) {
	src := &stubSource{}
	r := NewRefresher(src)
	defer r.Close()

	r.RefreshStats("m", nil)
	r.Wait()

	src.mu.Lock()
	src.err = errors.New("backend down")
	src.mu.Unlock()
	r.RefreshStats("m", nil)
	r.Wait()

	rep := r.Report()
	if rep.StatsErr == nil {
		t.Error("StatsErr = nil, want the source error")
	}
	if len(rep.Variants.Variants) != 2 {
		t.Errorf("variants after failure = %v, want previous result kept", rep.Variants.Variants)
	}
}

func TestFitnessDeferredRerun(t *testing.T) {
	gate := make(chan struct{})
	src := &stubSource{fitnessGate: gate}
	r := NewRefresher(src)
	defer r.Close()

	r.Refresh("m", nil)
	deadline := time.Now().Add(5 * time.Second)
	for {
		if _, n := src.counts(); n == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("fitness run did not start")
		}
		time.Sleep(time.Millisecond)
	}

	for range 5 {
		r.Refresh("m", nil)
	}
	close(gate)
	r.Wait()

	if _, n := src.counts(); n != 2 {
		t.Errorf("fitness runs = %d, want 2 (one deferred rerun)", n)
	}
}

func TestRefreshCached(t *testing.T) {
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	src := &stubSource{}
	r := NewRefresher(src, WithCache(c, nil, time.Hour))
	defer r.Close()

	doc := []byte(`{"nodes":[{"id":"a"}]}`)
	for range 2 {
		r.RefreshStats("m", doc)
		r.Wait()
	}
	if v, _ := src.counts(); v != 1 {
		t.Errorf("variant calls = %d, want 1 (second answered from cache)", v)
	}

	r.RefreshStats("m", []byte(`{"nodes":[]}`))
	r.Wait()
	if v, _ := src.counts(); v != 2 {
		t.Errorf("variant calls = %d, want 2 after the graph changed", v)
	}
}

func TestSubscribe(t *testing.T) {
	r := NewRefresher(&stubSource{})
	defer r.Close()

	var mu sync.Mutex
	var got []Report
	cancel := r.Subscribe(func(rep Report) {
		mu.Lock()
		got = append(got, rep)
		mu.Unlock()
	})
	r.RefreshStats("m", nil)
	r.Wait()
	cancel()
	r.RefreshStats("m", nil)
	r.Wait()

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 1 {
		t.Errorf("subscriber saw %d reports, want 1", len(got))
	}
}
