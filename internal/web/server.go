// Package web поднимает небольшой HTTP API для чтения отчётов:
// здоровье сервиса, статус ростера и отчёт за период в JSON.
// Записей через HTTP нет, вся запись идёт через бота.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	log "github.com/sirupsen/logrus"

	"matsuni.ru/matsuni-bot/internal/common"
	"matsuni.ru/matsuni-bot/internal/features/report"
	"matsuni.ru/matsuni-bot/internal/features/roster"
)

type memberSource interface {
	ListMembers(ctx context.Context, activeOnly bool) ([]*roster.Member, error)
}

type reportSource interface {
	BuildPeriodReport(ctx context.Context, startDate, endDate string) (*report.PeriodReport, error)
}

type totalsSource interface {
	PeriodTotals(ctx context.Context, periodID string) ([]report.MemberTotal, error)
}

type Server struct {
	httpServer *http.Server
	members    memberSource
	reports    reportSource
	totals     totalsSource
}

func NewServer(addr string, members memberSource, reports reportSource, totals totalsSource) *Server {
	s := &Server{
		members: members,
		reports: reports,
		totals:  totals,
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Get("/api/status", s.handleStatus)
	r.Get("/api/report", s.handleReport)
	r.Get("/api/totals", s.handleTotals)

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Start запускает сервер и блокируется до его остановки.
func (s *Server) Start() error {
	log.WithField("addr", s.httpServer.Addr).Info("Web API запущен")
	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown мягко останавливает сервер.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	members, err := s.members.ListMembers(r.Context(), false)
	if err != nil {
		log.WithError(err).Error("Ошибка чтения ростера")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal"})
		return
	}

	active := 0
	for _, m := range members {
		if m.IsActive() {
			active++
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"members_total":  len(members),
		"members_active": active,
	})
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	start := r.URL.Query().Get("start")
	end := r.URL.Query().Get("end")

	rpt, err := s.reports.BuildPeriodReport(r.Context(), start, end)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrInvalidDate), errors.Is(err, common.ErrInvalidPeriod):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		default:
			log.WithError(err).Error("Ошибка построения отчёта")
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal"})
		}
		return
	}
	writeJSON(w, http.StatusOK, rpt)
}

// handleTotals отдаёт сохранённые итоги периода без пересчёта —
// то, что записал последний отчёт или ночной планировщик.
func (s *Server) handleTotals(w http.ResponseWriter, r *http.Request) {
	start := r.URL.Query().Get("start")
	end := r.URL.Query().Get("end")

	if err := common.ValidatePeriod(start, end); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	totals, err := s.totals.PeriodTotals(r.Context(), start+"_"+end)
	if err != nil {
		log.WithError(err).Error("Ошибка чтения итогов периода")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal"})
		return
	}
	if totals == nil {
		totals = []report.MemberTotal{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"period_id": start + "_" + end,
		"members":   totals,
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Error("Ошибка записи ответа")
	}
}
