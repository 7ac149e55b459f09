package server

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"github.com/KaramelBytes/adcorr-cli/internal/export"
	"github.com/KaramelBytes/adcorr-cli/internal/period"
	"github.com/KaramelBytes/adcorr-cli/internal/report"
	"github.com/KaramelBytes/adcorr-cli/internal/session"
)

// uploadTypes are the accepted raw-body content types.
var uploadTypes = map[string]bool{
	"":                          true,
	"text/csv":                  true,
	"text/plain":                true,
	"text/tab-separated-values": true,
	"application/octet-stream":  true,
	"application/vnd.ms-excel":  true,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": true,
}

type uploadResponse struct {
	Source   string   `json:"source"`
	File     string   `json:"file"`
	Days     int      `json:"days"`
	Read     int      `json:"read"`
	Skipped  int      `json:"skipped"`
	Columns  []string `json:"columns,omitempty"`
	Unmapped []string `json:"unmapped,omitempty"`
	Ready    bool     `json:"ready"`
}

// readUpload returns the file name and bytes from a multipart "file" field or
// from the raw body, in which case ?name= supplies the name.
func (a *api) readUpload(w http.ResponseWriter, r *http.Request, fallback string) (string, []byte, *APIError) {
	r.Body = http.MaxBytesReader(w, r.Body, a.maxUpload)
	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	if mt == "multipart/form-data" {
		if err := r.ParseMultipartForm(a.maxUpload); err != nil {
			return "", nil, uploadReadError(err)
		}
		f, hdr, err := r.FormFile("file")
		if err != nil {
			return "", nil, newAPIError(http.StatusBadRequest, "MISSING_FILE", "multipart upload needs a 'file' field")
		}
		defer f.Close()
		data, err := io.ReadAll(f)
		if err != nil {
			return "", nil, uploadReadError(err)
		}
		return hdr.Filename, data, nil
	}
	if !uploadTypes[mt] {
		return "", nil, newAPIError(http.StatusUnsupportedMediaType, "UNSUPPORTED_MEDIA_TYPE",
			fmt.Sprintf("content type %q is not a supported upload type", mt))
	}
	data, err := io.ReadAll(r.Body)
	if err != nil {
		return "", nil, uploadReadError(err)
	}
	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" {
		name = fallback
	}
	return name, data, nil
}

func uploadReadError(err error) *APIError {
	e := errorFor(err)
	if e.StatusCode == http.StatusInternalServerError {
		return newAPIError(http.StatusBadRequest, "BAD_UPLOAD", err.Error())
	}
	return e
}

func (a *api) uploadOrders(w http.ResponseWriter, r *http.Request) {
	name, data, apiErr := a.readUpload(w, r, "orders.csv")
	if apiErr != nil {
		writeError(w, r, apiErr)
		return
	}
	res, err := a.sess.LoadOrders(name, bytes.NewReader(data))
	if err != nil {
		writeError(w, r, errorFor(err))
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, uploadResponse{
		Source: session.OrdersSource, File: name, Days: len(res.Rows),
		Read: res.Read, Skipped: res.Skipped, Ready: a.sess.Ready(),
	})
}

func (a *api) uploadPlatform(w http.ResponseWriter, r *http.Request) {
	platform := a.sess.CanonicalPlatform(chi.URLParam(r, "platform"))
	name, data, apiErr := a.readUpload(w, r, strings.ToLower(platform)+".csv")
	if apiErr != nil {
		writeError(w, r, apiErr)
		return
	}
	res, err := a.sess.LoadPlatform(platform, name, bytes.NewReader(data))
	if err != nil {
		writeError(w, r, errorFor(err))
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, uploadResponse{
		Source: platform, File: name, Days: len(res.Rows),
		Read: res.Read, Skipped: res.Skipped,
		Columns: res.Columns, Unmapped: res.Unmapped, Ready: a.sess.Ready(),
	})
}

func (a *api) listDatasets(w http.ResponseWriter, r *http.Request) {
	snap := a.sess.Snapshot()
	render.JSON(w, r, map[string]any{
		"ready":      snap.Ready,
		"sources":    snap.Sources,
		"scorecards": snap.Scorecards,
	})
}

// queryPeriod reads ?period= strictly. ok is false when the parameter is absent.
func queryPeriod(r *http.Request) (p period.Period, ok bool, err error) {
	spec, present := r.URL.Query()["period"]
	if !present {
		return period.Period{}, false, nil
	}
	p, err = period.ParseStrict(spec[0])
	return p, true, err
}

func (a *api) aligned(w http.ResponseWriter, r *http.Request) {
	p, ok, err := queryPeriod(r)
	if err != nil {
		writeError(w, r, errorFor(err))
		return
	}
	if !ok {
		p, _ = a.sess.Filter()
	}
	t := a.sess.Table(p)
	if strings.EqualFold(r.URL.Query().Get("format"), "csv") {
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		if err := export.WriteCSV(w, t, false); err != nil {
			a.log.ErrorContext(r.Context(), "write aligned csv", "err", err)
		}
		return
	}
	render.JSON(w, r, t)
}

type periodOption struct {
	Spec  string `json:"spec"`
	Label string `json:"label"`
}

func (a *api) periods(w http.ResponseWriter, r *http.Request) {
	kind := period.Kind(strings.ToLower(r.URL.Query().Get("kind")))
	if kind == "" {
		kind = period.Monthly
	}
	known := false
	for _, k := range period.Kinds {
		known = known || k == kind
	}
	if !known {
		writeError(w, r, newAPIError(http.StatusBadRequest, "INVALID_KIND",
			fmt.Sprintf("kind must be one of %v", period.Kinds)))
		return
	}
	opts := []periodOption{}
	for _, p := range period.Options(a.sess.Aligned().Rows, kind) {
		opts = append(opts, periodOption{Spec: p.String(), Label: p.Label()})
	}
	render.JSON(w, r, opts)
}

func (a *api) report(w http.ResponseWriter, r *http.Request) {
	p, ok, err := queryPeriod(r)
	if err != nil {
		writeError(w, r, errorFor(err))
		return
	}
	sp, sm := a.sess.Filter()
	if !ok {
		p = sp
	}
	m := r.URL.Query().Get("metric")
	if m == "" {
		m = sm
	}
	snap := a.sess.View(p, m)

	switch strings.ToLower(r.URL.Query().Get("format")) {
	case "md", "markdown":
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		_, _ = io.WriteString(w, report.Markdown(snap))
	default:
		render.JSON(w, r, snap)
	}
}

type filterResponse struct {
	Period string `json:"period"`
	Label  string `json:"label"`
	Metric string `json:"metric"`
}

func (a *api) getFilter(w http.ResponseWriter, r *http.Request) {
	p, m := a.sess.Filter()
	render.JSON(w, r, filterResponse{Period: p.String(), Label: p.Label(), Metric: m})
}

// filterRequest updates only the fields present.
type filterRequest struct {
	Period *string `json:"period" validate:"omitempty,period"`
	Metric *string `json:"metric" validate:"omitempty,max=128"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("period", func(fl validator.FieldLevel) bool {
		_, err := period.ParseStrict(fl.Field().String())
		return err == nil
	})
	return v
}

type fieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func formatValidationError(err error) []fieldError {
	var out []fieldError
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []fieldError{{Message: err.Error()}}
	}
	for _, fe := range verrs {
		msg := fmt.Sprintf("failed %s validation", fe.Tag())
		switch fe.Tag() {
		case "period":
			msg = "must be all, monthly:YYYY-MM, quarterly:YYYY-QN or yearly:YYYY"
		case "max":
			msg = fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		out = append(out, fieldError{Field: fe.Field(), Message: msg})
	}
	return out
}

func (a *api) putFilter(w http.ResponseWriter, r *http.Request) {
	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mt != "application/json" {
		writeError(w, r, newAPIError(http.StatusUnsupportedMediaType, "UNSUPPORTED_MEDIA_TYPE", "Content-Type must be application/json"))
		return
	}
	var req filterRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		writeError(w, r, newAPIError(http.StatusBadRequest, "INVALID_REQUEST", "invalid JSON body"))
		return
	}
	if err := validate.Struct(req); err != nil {
		e := newAPIError(http.StatusBadRequest, "VALIDATION_FAILED", "request validation failed")
		e.Details = formatValidationError(err)
		writeError(w, r, e)
		return
	}
	if req.Period != nil {
		a.sess.SetPeriod(*req.Period)
	}
	if req.Metric != nil {
		a.sess.SetMetric(*req.Metric)
	}
	a.getFilter(w, r)
}
