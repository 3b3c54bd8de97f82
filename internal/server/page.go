package server

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bobmcallan/indexboard/internal/common"
	"github.com/bobmcallan/indexboard/internal/models"
	"github.com/bobmcallan/indexboard/internal/services/dashboard"
)

// pageWait bounds how long the HTML page waits for loading sections before
// rendering them as loading and scheduling a refresh.
var pageWait = time.Second

// refreshSeconds is the auto-refresh interval while any section is loading.
const refreshSeconds = 2

// pageData is the template context for dashboard.html.
type pageData struct {
	View       dashboard.View
	TimeFrames []models.TimeFrame
	Error      string
	Refresh    int
	Currency   string
	Version    string
}

// FindPagesDir locates the pages directory.
func FindPagesDir() string {
	dirs := []string{
		"./pages",
		"../pages",
		"../../pages",
	}

	for _, dir := range dirs {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			abs, _ := filepath.Abs(dir)
			return abs
		}
	}

	return "."
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"money":     common.FormatMoneyWithCurrency,
		"pct":       common.FormatSignedPct,
		"volume":    common.FormatVolume,
		"marketcap": common.FormatMarketCap,
		"trend":     trend,
		"add1":      func(i int) int { return i + 1 },
		"dict":      dict,
	}
}

// trend returns the CSS class for a signed change.
func trend(v float64) string {
	switch {
	case v > 0:
		return "up"
	case v < 0:
		return "down"
	default:
		return "flat"
	}
}

// dict builds a map from alternating keys and values for sub-templates.
func dict(kv ...interface{}) (map[string]interface{}, error) {
	if len(kv)%2 != 0 {
		return nil, fmt.Errorf("dict requires an even number of arguments")
	}
	m := make(map[string]interface{}, len(kv)/2)
	for i := 0; i < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			return nil, fmt.Errorf("dict key %v is not a string", kv[i])
		}
		m[key] = kv[i+1]
	}
	return m, nil
}

func loadTemplates(pagesDir string) (*template.Template, error) {
	return template.New("pages").Funcs(templateFuncs()).ParseGlob(filepath.Join(pagesDir, "*.html"))
}

// handleDashboardPage handles GET /. On GET, a ?index= or ?timeframe= query
// applies a new selection and redirects back to the bare page. HEAD never
// changes the selection.
func (s *Server) handleDashboardPage(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	if s.pages == nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	var flash string
	q := r.URL.Query()
	if r.Method == http.MethodGet && (q.Has("index") || q.Has("timeframe")) {
		if err := s.selectFromQuery(q.Get("index"), q.Get("timeframe")); err != nil {
			flash = selectErrorMessage(err)
		} else {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), pageWait)
	view, _ := s.app.Dashboard.Wait(ctx)
	cancel()

	data := pageData{
		View:       view,
		TimeFrames: models.TimeFrames,
		Error:      flash,
		Currency:   s.app.Config.Display.Currency,
		Version:    common.GetVersion(),
	}
	if view.Loading() {
		data.Refresh = refreshSeconds
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.pages.ExecuteTemplate(w, "dashboard.html", data); err != nil {
		s.logger.Error().Str("template", "dashboard.html").Str("error", err.Error()).Msg("failed to render page")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// selectFromQuery fills missing values from the current selection.
func (s *Server) selectFromQuery(indexID, rawTimeFrame string) error {
	current := s.app.Dashboard.View().Selection

	indexID = strings.TrimSpace(indexID)
	if indexID == "" && current != nil {
		indexID = current.IndexID
	}

	tf := models.TimeFrameDaily
	if current != nil {
		tf = current.TimeFrame
	}
	if strings.TrimSpace(rawTimeFrame) != "" {
		parsed, err := models.ParseTimeFrame(rawTimeFrame)
		if err != nil {
			return dashboard.ErrInvalidTimeFrame
		}
		tf = parsed
	}

	return s.app.Dashboard.Select(indexID, tf)
}

func selectErrorMessage(err error) string {
	switch {
	case errors.Is(err, dashboard.ErrUnknownIndex):
		return "Unknown index. Please choose one from the list."
	case errors.Is(err, dashboard.ErrInvalidTimeFrame):
		return "Unknown time frame. Please choose one from the list."
	case errors.Is(err, dashboard.ErrCatalogUnavailable):
		return dashboard.MsgCatalogFailed
	default:
		return "Something went wrong. Please try again later."
	}
}

// handleStatic serves files under pages/static.
func (s *Server) handleStatic(w http.ResponseWriter, r *http.Request) {
	staticDir := filepath.Join(s.pagesDir, "static")

	path := strings.TrimPrefix(r.URL.Path, "/static/")
	fullPath := filepath.Join(staticDir, path)

	// Prevent directory traversal
	absStaticDir, _ := filepath.Abs(staticDir)
	absFullPath, _ := filepath.Abs(fullPath)
	if !strings.HasPrefix(absFullPath, absStaticDir+string(filepath.Separator)) {
		http.NotFound(w, r)
		return
	}

	http.ServeFile(w, r, fullPath)
}
