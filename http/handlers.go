package http

import (
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"io"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"churnguard/customer"
	"churnguard/form"
	"churnguard/logging"
	"churnguard/pipeline"
	"churnguard/render"
	"churnguard/service"
)

//go:embed templates/*.html static/*
var assets embed.FS

const maxHistory = 500

// Handler 表单页面与JSON API
type Handler struct {
	svc    *service.PredictionService
	logger *zap.Logger
	page   *template.Template
}

// NewHandler 解析内嵌模板并创建处理器
func NewHandler(svc *service.PredictionService, logger *zap.Logger) (*Handler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	page, err := template.ParseFS(assets, "templates/index.html")
	if err != nil {
		return nil, err
	}
	return &Handler{svc: svc, logger: logger, page: page}, nil
}

// Register 注册全部路由
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", h.handleIndex)
	mux.HandleFunc("POST /predict", h.handlePredictForm)
	mux.Handle("GET /static/", http.FileServer(http.FS(assets)))

	mux.HandleFunc("POST /api/predict", h.handlePredictAPI)
	mux.HandleFunc("GET /api/schema", h.handleSchema)
	mux.HandleFunc("GET /api/predictions", h.handlePredictions)
	mux.HandleFunc("GET /api/health", h.handleHealth)

	if metrics := h.svc.Metrics(); metrics != nil {
		mux.Handle("GET /metrics", metrics.Handler())
	}
}

// pageData 页面模板数据
type pageData struct {
	Title        string
	Intro        string
	Header       string
	Submit       string
	ResultHeader string
	Groups       []form.Group
	Values       map[string]string
	Errors       map[string]string
	InternetOff  bool
	Outcome      *service.Outcome
	Failure      string
}

func (h *Handler) newPage(values map[string]string) pageData {
	return pageData{
		Title:        render.PageTitle,
		Intro:        render.PageIntro,
		Header:       render.FormHeader,
		Submit:       render.SubmitLabel,
		ResultHeader: render.ResultHeader,
		Groups:       form.Groups(),
		Values:       values,
		InternetOff:  values[customer.FieldInternetService] == customer.InternetNone,
	}
}

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	h.renderPage(w, r, http.StatusOK, h.newPage(form.Values(form.Defaults())))
}

func (h *Handler) handlePredictForm(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form submission", http.StatusBadRequest)
		return
	}

	record, err := form.Collect(r.PostForm)
	if err != nil {
		var invalid *form.ValidationError
		if !errors.As(err, &invalid) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		data := h.newPage(submitted(r))
		data.Errors = invalid.Fields()
		h.renderPage(w, r, http.StatusUnprocessableEntity, data)
		return
	}

	outcome, err := h.svc.Predict(r.Context(), record)
	if err != nil {
		data := h.newPage(form.Values(record))
		data.Failure = "Prediction failed: " + err.Error()
		h.renderPage(w, r, http.StatusInternalServerError, data)
		return
	}

	data := h.newPage(form.Values(outcome.Record))
	data.Outcome = outcome
	h.renderPage(w, r, http.StatusOK, data)
}

// submitted 回显原始提交值，缺失项使用默认值
func submitted(r *http.Request) map[string]string {
	values := form.Values(form.Defaults())
	for name := range values {
		if v, ok := r.PostForm[name]; ok && len(v) > 0 {
			values[name] = v[0]
		}
	}
	return values
}

func (h *Handler) renderPage(w http.ResponseWriter, r *http.Request, status int, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := h.page.Execute(w, data); err != nil {
		logging.For(r.Context(), h.logger).Error("render page", zap.Error(err))
	}
}

func (h *Handler) handlePredictAPI(w http.ResponseWriter, r *http.Request) {
	var partial customer.Record
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(&partial); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		if errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, "request body is empty")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	record, err := form.CollectRecord(partial)
	if err != nil {
		var invalid *form.ValidationError
		if errors.As(err, &invalid) {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
				"error":  "invalid record",
				"fields": invalid.Fields(),
			})
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	outcome, err := h.svc.Predict(r.Context(), record)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"error": err.Error(),
			"stage": pipeline.Stage(err),
		})
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

func (h *Handler) handleSchema(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Schema())
}

func (h *Handler) handlePredictions(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		l, err := strconv.Atoi(limitStr)
		if err != nil || l <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(l, maxHistory)
	}

	records, err := h.svc.Recent(limit)
	if errors.Is(err, service.ErrAuditDisabled) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		logging.For(r.Context(), h.logger).Error("list predictions", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not read prediction history")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"count":       len(records),
		"predictions": records,
	})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	p := h.svc.Pipeline()
	response := map[string]interface{}{
		"status":    "ok",
		"version":   p.Version(),
		"loaded_at": p.Artifacts().LoadedAt,
	}
	if metrics := h.svc.Metrics(); metrics != nil {
		response["system"] = metrics.GetSystemStats()
	}
	writeJSON(w, http.StatusOK, response)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
