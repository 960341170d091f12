package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/user/listing-scraper/internal/crawler"
	"github.com/user/listing-scraper/internal/domain"
)

const maxBodyBytes = 10 << 20

// handleReceiveProducts accepts a published batch and echoes it back.
func (s *Server) handleReceiveProducts(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		s.respondWithError(w, http.StatusRequestEntityTooLarge, "Request body too large")
		return
	}
	if !json.Valid(body) {
		s.respondWithError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	var records []domain.Record
	if err := json.Unmarshal(body, &records); err == nil {
		s.logger.Info("received records", zap.Int("records", len(records)))
	} else {
		s.logger.Info("received payload", zap.Int("bytes", len(body)))
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	w.Write(body)
}

func (s *Server) handleCrawlRequest(w http.ResponseWriter, r *http.Request) {
	if s.pool == nil || s.dispatcher == nil {
		s.respondWithError(w, http.StatusServiceUnavailable, "Crawling is not enabled on this server")
		return
	}

	var req domain.CrawlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if len(req.Keywords) == 0 {
		s.respondWithError(w, http.StatusBadRequest, "Keywords list cannot be empty")
		return
	}

	jobs := make([]domain.CrawlJob, 0, len(req.Keywords))
	for _, k := range req.Keywords {
		k = strings.TrimSpace(k)
		if k == "" {
			s.respondWithError(w, http.StatusBadRequest, "Keywords must not be blank")
			return
		}
		jobs = append(jobs, domain.CrawlJob{Keyword: k, ForceCrawl: req.ForceCrawl})
	}

	if !s.crawling.CompareAndSwap(false, true) {
		s.respondWithError(w, http.StatusConflict, "A crawl is already running")
		return
	}

	s.crawls.Add(1)
	go func() {
		defer s.crawls.Done()
		defer s.crawling.Store(false)
		s.runCrawl(s.crawlCtx, jobs)
	}()

	s.respondWithJSON(w, http.StatusAccepted, map[string]any{
		"message":  "Keywords accepted for crawling",
		"keywords": len(jobs),
		"target":   s.target.String(),
	})
}

func (s *Server) runCrawl(ctx context.Context, jobs []domain.CrawlJob) {
	results := s.pool.Run(ctx, jobs)
	records := crawler.MergeRecords(results)
	for _, res := range results {
		if res.Err != nil {
			s.logger.Warn("crawl ended with error",
				zap.String("job", res.Job.Label()),
				zap.String("stop", string(res.Stop)),
				zap.Error(res.Err),
			)
		}
	}

	// Dispatch even after cancellation so partial results are kept.
	if err := s.dispatcher.Dispatch(context.WithoutCancel(ctx), records, s.target); err != nil {
		s.logger.Error("failed to dispatch records", zap.Stringer("target", s.target), zap.Error(err))
		return
	}
	s.logger.Info("crawl batch complete", zap.Int("jobs", len(jobs)), zap.Int("records", len(records)))
}

func (s *Server) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	healthStatus := map[string]string{"status": "healthy"}
	isHealthy := true
	for name, p := range s.checks {
		if err := p.Ping(ctx); err != nil {
			healthStatus[name] = "unhealthy"
			isHealthy = false
			s.logger.Error("health check failed", zap.String("dependency", name), zap.Error(err))
			continue
		}
		healthStatus[name] = "healthy"
	}

	if !isHealthy {
		healthStatus["status"] = "unhealthy"
		s.respondWithJSON(w, http.StatusServiceUnavailable, healthStatus)
		return
	}
	s.respondWithJSON(w, http.StatusOK, healthStatus)
}

// --- Helper Functions ---

func (s *Server) respondWithError(w http.ResponseWriter, code int, message string) {
	s.respondWithJSON(w, code, map[string]string{"error": message})
}

func (s *Server) respondWithJSON(w http.ResponseWriter, code int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error("failed to encode response", zap.Error(err))
		code, response = http.StatusInternalServerError, []byte(`{"error":"internal error"}`)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}
