package http

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"slices"
	"strings"
	"time"

	"bilancio/internal/cache"
	"bilancio/internal/chart"
	"bilancio/internal/core"
	"bilancio/internal/export"
	applog "bilancio/internal/log"
	"bilancio/internal/services"
)

type kindOption struct {
	Value    string
	Checked  bool
	Disabled bool
}

type balanceView struct {
	Text  string
	Class string
}

type rowView struct {
	Index int
	Text  string
	Class string
}

type indexData struct {
	Today      string
	Kinds      []kindOption
	Categories []string
	Balance    balanceView
	Rows       []rowView
	Currency   string
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.startedAt).Round(time.Second).String(),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	status, code := "ready", http.StatusOK
	checks := map[string]any{}

	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status, code = "not_ready", http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	checks["ledger"] = map[string]any{"version": s.ledger.Version()}
	checks["cache"] = map[string]any{
		"categories": s.pieCache.Stats(),
		"balance":    s.lineCache.Stats(),
	}
	rl := s.limiter.GetMetrics()
	checks["rate_limiter"] = map[string]any{
		"active_clients": rl.ClientCount,
		"limited":        rl.TotalHits,
	}
	checks["security"] = map[string]any{
		"suspicious_requests": s.detector.SuspiciousRequests(),
	}

	writeJSON(w, code, map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	snap := s.ledger.Snapshot(r.Context())

	data := indexData{
		Today:      time.Now().Format(core.DateLayout),
		Kinds:      kindOptions(snap.AllowedKinds()),
		Categories: core.CategoriesFor(core.Income),
		Balance:    s.balanceView(snap),
		Rows:       s.rowViews(snap),
		Currency:   s.currency,
	}
	s.render(w, r, "index.html", data)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	in, err := parseTransactionForm(r)
	if err == nil {
		var t core.Transaction
		t, err = s.ledger.AddTransaction(ctx, in)
		if err == nil {
			NewHTMXResponse().
				TriggerTransactionCreated(t.Kind).
				TriggerFormReset().
				TriggerSuccessNotification("Transaction Added", t.Kind.String()+" of "+core.FormatMoney(t.Amount, s.currency)+" recorded.").
				Write(w)
			return
		}
	}

	appErr := toAppError(err)
	s.logFailure(ctx, applog.ComponentHTTP, "Transaction rejected", err, appErr, applog.OpAdd)

	resp := AppErrorResponse(appErr)
	if appErr == ErrIncomeRequired {
		resp.TriggerIncomeRequired()
	}
	resp.Write(w)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	index, err := parseIndexForm(r)
	if err == nil {
		var res services.RemoveResult
		res, err = s.ledger.RemoveTransaction(ctx, index)
		if err == nil {
			resp := NewHTMXResponse().TriggerTransactionDeleted(res.Index)
			if res.IncomeRequired {
				resp.TriggerIncomeRequired().
					TriggerNotification(NotificationInfo, "Income Required",
						"Transaction deleted. Record an Income before adding more expenses.", 5000)
			} else {
				resp.TriggerSuccessNotification("Deletion Successful", "Transaction deleted.")
			}
			resp.Write(w)
			return
		}
	}

	appErr := toAppError(err)
	s.logFailure(ctx, applog.ComponentHTTP, "Delete rejected", err, appErr, applog.OpRemove)
	AppErrorResponse(appErr).Write(w)
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "balance", s.balanceView(s.ledger.Snapshot(r.Context())))
}

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "transactions", s.rowViews(s.ledger.Snapshot(r.Context())))
}

// handleCategories returns the <option> list for the requested kind.
func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	snap := s.ledger.Snapshot(r.Context())
	kind := kindFromQuery(r.URL.Query(), snap.HasIncome)
	s.render(w, r, "category_options", core.CategoriesFor(kind))
}

func (s *Server) handleCategoryChart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	summary, version := s.ledger.CategorySummary(ctx)
	key := cache.VersionedKey("categories", version)

	pie, hit, err := cache.GetOrBuild[chart.PieChart](s.pieCache, key, func() (chart.PieChart, error) {
		return chart.Pie(summary)
	})
	if errors.Is(err, chart.ErrNoData) {
		if s.ledger.Snapshot(ctx).Len() == 0 {
			writeJSONError(w, ErrNoTransactions)
		} else {
			writeJSONError(w, ErrNoExpenses)
		}
		return
	}
	if err != nil {
		s.logFailure(ctx, applog.ComponentChart, "Category chart failed", err, ErrInternal, applog.OpRender)
		writeJSONError(w, ErrInternal)
		return
	}

	applog.FromContext(ctx).DebugContext(ctx, "Category chart served", "cache_hit", hit, "slices", len(pie.Slices))
	writeJSON(w, http.StatusOK, pie)
}

func (s *Server) handleBalanceChart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	series, version := s.ledger.BalanceSeries(ctx)
	key := cache.VersionedKey("balance", version)

	line, hit, err := cache.GetOrBuild[chart.LineChart](s.lineCache, key, func() (chart.LineChart, error) {
		return chart.Line(series)
	})
	if errors.Is(err, chart.ErrNoData) {
		writeJSONError(w, ErrNoTransactions)
		return
	}
	if err != nil {
		s.logFailure(ctx, applog.ComponentChart, "Balance chart failed", err, ErrInternal, applog.OpRender)
		writeJSONError(w, ErrInternal)
		return
	}

	applog.FromContext(ctx).DebugContext(ctx, "Balance chart served", "cache_hit", hit, "points", len(line.Points))
	writeJSON(w, http.StatusOK, line)
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	snap := s.ledger.Snapshot(ctx)

	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, snap.Transactions); err != nil {
		s.logFailure(ctx, applog.ComponentExport, "CSV export failed", err, ErrInternal, applog.OpExport)
		http.Error(w, ErrInternal.Message, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="transactions.csv"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		s.logFailure(r.Context(), applog.ComponentHTTP, "Template execution failed", err, ErrInternal, applog.OpRender)
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

// kindOptions checks Income and disables whatever the ledger does not
// allow yet.
func kindOptions(allowed []core.Kind) []kindOption {
	opts := make([]kindOption, 0, 2)
	for _, k := range []core.Kind{core.Income, core.Expense} {
		opts = append(opts, kindOption{
			Value:    k.String(),
			Checked:  k == core.Income,
			Disabled: !slices.Contains(allowed, k),
		})
	}
	return opts
}

func (s *Server) balanceView(snap services.Snapshot) balanceView {
	return balanceView{
		Text:  "Current Balance: " + core.FormatMoney(snap.Balance, s.currency),
		Class: balanceClass(snap.Balance),
	}
}

func (s *Server) rowViews(snap services.Snapshot) []rowView {
	rows := make([]rowView, len(snap.Transactions))
	for i, t := range snap.Transactions {
		rows[i] = rowView{Index: i, Text: formatRow(t, s.currency), Class: strings.ToLower(t.Kind.String())}
	}
	return rows
}

// logFailure logs client mistakes at warn and everything else at error.
func (s *Server) logFailure(ctx context.Context, component, msg string, err error, appErr *AppError, op string) {
	logger := applog.FromContext(ctx).WithComponent(component)
	if appErr.Status < http.StatusInternalServerError {
		logger.WarnContext(ctx, msg,
			applog.FieldError, err.Error(),
			"error_code", appErr.Code,
			applog.FieldOperation, op)
		return
	}
	logger.ErrorContext(ctx, msg,
		applog.FieldError, err.Error(),
		applog.FieldOperation, op)
}
