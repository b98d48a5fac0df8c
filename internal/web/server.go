package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/example/table-booker/internal/auth"
	"github.com/example/table-booker/internal/booking"
	"github.com/example/table-booker/internal/hotel"
	"github.com/example/table-booker/internal/slots"
	"github.com/example/table-booker/internal/watch"
)

//go:embed templates/*.html static/*
var fs embed.FS

type Server struct {
	Auth      *auth.Store
	Watches   *watch.Repo
	API       *hotel.Client
	Resolver  *slots.Resolver
	Submitter *booking.Submitter

	BaseURL string
	Log     zerolog.Logger
}

type slotView struct {
	Value string
	Label string
	Taken bool
}

type tmplData struct {
	Title string
	User  int64
	Flash string

	Branches []hotel.Branch
	Tables   []hotel.Table
	BranchID string
	TableID  string
	DateStr  string
	Slots    []slotView

	Watches []watch.Watch
	Watch   watch.Watch
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.Handle("/static/", http.FileServer(http.FS(fs)))
	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})

	mux.HandleFunc("/login", s.handleLogin)
	mux.HandleFunc("/logout", s.handleLogout)

	mux.Handle("/", s.Auth.RequireAuth(http.HandlerFunc(s.handleBranches)))
	mux.Handle("/tables", s.Auth.RequireAuth(http.HandlerFunc(s.handleTables)))
	mux.Handle("/slots", s.Auth.RequireAuth(http.HandlerFunc(s.handleSlots)))
	mux.Handle("/book", s.Auth.RequireAuth(http.HandlerFunc(s.handleBook)))
	mux.Handle("/watches", s.Auth.RequireAuth(http.HandlerFunc(s.handleWatches)))
	mux.Handle("/watches/new", s.Auth.RequireAuth(http.HandlerFunc(s.handleWatchNew)))
	mux.Handle("/watches/create", s.Auth.RequireAuth(http.HandlerFunc(s.handleWatchCreate)))

	return mux
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.render(w, "templates/login.html", tmplData{Title: "Login"})
	case http.MethodPost:
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		username := strings.TrimSpace(r.FormValue("username"))
		password := r.FormValue("password")
		id, err := s.Auth.Authenticate(r.Context(), username, password)
		if err != nil {
			s.render(w, "templates/login.html", tmplData{Title: "Login", Flash: "Invalid username/password"})
			return
		}
		if err := s.Auth.SetSession(w, r, id); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		http.Redirect(w, r, "/", http.StatusFound)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.Auth.ClearSession(w)
	http.Redirect(w, r, "/login", http.StatusFound)
}

func (s *Server) handleBranches(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	uid, _ := auth.UserIDFromContext(r.Context())
	branches, err := s.API.Branches(r.Context())
	if err != nil {
		s.Log.Error().Err(err).Msg("branch list failed")
		s.render(w, "templates/branches.html", tmplData{Title: "Branches", User: uid, Flash: "Could not load branches"})
		return
	}
	s.render(w, "templates/branches.html", tmplData{Title: "Branches", User: uid, Branches: branches})
}

func (s *Server) handleTables(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	branchID := r.URL.Query().Get("branch")
	if branchID == "" {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}
	tables, err := s.API.Tables(r.Context(), branchID)
	data := tmplData{Title: "Tables", User: uid, BranchID: branchID, Tables: tables}
	if err != nil {
		s.Log.Error().Str("branch", branchID).Err(err).Msg("table list failed")
		data.Flash = "Could not load tables"
	}
	s.render(w, "templates/tables.html", data)
}

func (s *Server) handleSlots(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	q := r.URL.Query()
	branchID := q.Get("branch")
	tableID := q.Get("table")
	if branchID == "" || tableID == "" {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	dateStr := q.Get("date")
	date, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		date = time.Now()
		dateStr = date.Format("2006-01-02")
	}

	data := s.slotPage(r.Context(), uid, branchID, tableID, dateStr, date)
	if q.Get("booked") == "1" {
		data.Flash = "Reservation confirmed"
	}
	s.render(w, "templates/slots.html", data)
}

func (s *Server) slotPage(ctx context.Context, uid int64, branchID, tableID, dateStr string, date time.Time) tmplData {
	res := s.Resolver.Resolve(ctx, tableID, date)

	grid := make([]slotView, 0, len(slots.Catalog))
	for _, sl := range slots.Catalog {
		grid = append(grid, slotView{Value: sl.Value, Label: sl.Label, Taken: res.Taken(sl.Value)})
	}
	return tmplData{
		Title:    "Time Slots",
		User:     uid,
		BranchID: branchID,
		TableID:  tableID,
		DateStr:  dateStr,
		Slots:    grid,
	}
}

func (s *Server) handleBook(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	branchID := r.FormValue("branch_id")
	tableID := r.FormValue("table_id")
	dateStr := r.FormValue("date")
	date, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		date = time.Now()
		dateStr = date.Format("2006-01-02")
	}
	guests, _ := strconv.Atoi(r.FormValue("guests"))
	if guests < 1 {
		guests = 2
	}

	input := booking.FormInput{
		CustomerName:    r.FormValue("customer_name"),
		PhoneNumber:     r.FormValue("customer_phone"),
		NumberOfGuests:  guests,
		BookingDate:     date,
		TimeSlot:        r.FormValue("time_slot"),
		SpecialRequests: r.FormValue("notes"),
		TableID:         tableID,
		BranchID:        branchID,
	}

	_, err = s.Submitter.Submit(r.Context(), input)
	if err != nil {
		data := s.slotPage(r.Context(), uid, branchID, tableID, dateStr, date)
		data.Flash = bookingFlash(err, tableID, input.TimeSlot, dateStr)
		s.render(w, "templates/slots.html", data)
		return
	}

	// form cleared and slot grid refreshed by the redirect
	http.Redirect(w, r, fmt.Sprintf("/slots?branch=%s&table=%s&date=%s&booked=1", branchID, tableID, dateStr), http.StatusFound)
}

func bookingFlash(err error, tableID, slot, dateStr string) string {
	var verr *booking.ValidationError
	if errors.As(err, &verr) {
		return verr.Message
	}
	var cerr *booking.SlotConflictError
	if errors.As(err, &cerr) {
		return fmt.Sprintf("Table %s is already booked for %s on %s", cerr.TableID, cerr.Slot, dateStr)
	}
	var ferr *booking.FailedError
	if errors.As(err, &ferr) {
		return fmt.Sprintf("Could not book table %s at %s on %s: %s", tableID, slot, dateStr, ferr.Message)
	}
	return fmt.Sprintf("Could not book table %s at %s on %s", tableID, slot, dateStr)
}

func (s *Server) handleWatches(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	ws, err := s.Watches.ListByUser(r.Context(), uid)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.render(w, "templates/watches.html", tmplData{Title: "Watches", User: uid, Watches: ws})
}

func (s *Server) handleWatchNew(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	s.render(w, "templates/new_watch.html", tmplData{
		Title: "New Watch",
		User:  uid,
		Watch: watch.Watch{GuestCount: 2, IntervalSec: 60},
	})
}

func (s *Server) handleWatchCreate(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	date, err := time.Parse("2006-01-02", r.FormValue("reservation_date"))
	if err != nil {
		s.render(w, "templates/new_watch.html", tmplData{Title: "New Watch", User: uid, Flash: "Invalid reservation date"})
		return
	}
	guests, _ := strconv.Atoi(r.FormValue("guest_count"))
	intervalSec, _ := strconv.Atoi(r.FormValue("interval_seconds"))
	windowHours, _ := strconv.Atoi(r.FormValue("window_hours"))
	if windowHours < 1 {
		windowHours = 24
	}

	now := time.Now().UTC()
	wt := watch.Watch{
		UserID:        uid,
		Name:          strings.TrimSpace(r.FormValue("name")),
		BranchID:      strings.TrimSpace(r.FormValue("branch_id")),
		TableID:       strings.TrimSpace(r.FormValue("table_id")),
		Date:          date,
		TimeSlot:      r.FormValue("time_slot"),
		CustomerName:  strings.TrimSpace(r.FormValue("customer_name")),
		CustomerPhone: strings.TrimSpace(r.FormValue("customer_phone")),
		GuestCount:    guests,
		Notes:         strings.TrimSpace(r.FormValue("notes")),
		WindowStartAt: now,
		WindowEndAt:   now.Add(time.Duration(windowHours) * time.Hour),
		IntervalSec:   intervalSec,
	}

	if err := wt.Validate(); err != nil {
		s.render(w, "templates/new_watch.html", tmplData{Title: "New Watch", User: uid, Flash: err.Error(), Watch: wt})
		return
	}
	if _, err := s.Watches.Create(r.Context(), wt); err != nil {
		s.Log.Error().Err(err).Msg("create watch failed")
		s.render(w, "templates/new_watch.html", tmplData{Title: "New Watch", User: uid, Flash: "Failed to create watch", Watch: wt})
		return
	}

	http.Redirect(w, r, "/watches", http.StatusFound)
}

func (s *Server) render(w http.ResponseWriter, name string, data tmplData) {
	t, err := template.ParseFS(fs,
		"templates/base.html",
		name,
	)
	if err != nil {
		http.Error(w, "template error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := t.ExecuteTemplate(w, "base", data); err != nil {
		http.Error(w, "render error: "+err.Error(), http.StatusInternalServerError)
	}
}

func Start(ctx context.Context, addr string, h http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	return srv.ListenAndServe()
}
