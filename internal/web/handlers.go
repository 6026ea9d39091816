package web

import (
	"bytes"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Skufu/risklens/internal/form"
	"github.com/Skufu/risklens/internal/logger"
	"github.com/Skufu/risklens/internal/predictor"
	"github.com/Skufu/risklens/internal/progress"
	"github.com/Skufu/risklens/internal/session"
	"github.com/Skufu/risklens/internal/storage"
	"github.com/Skufu/risklens/internal/view"
)

const (
	formID            = "cancerForm"
	predictErrPrefix  = "Erreur lors de la prédiction: "
	reportErrMessage  = "Erreur génération PDF"
	networkErrMessage = "Erreur réseau"
)

// outcome is what one pass of the prediction pipeline produced.
type outcome struct {
	status int
	values map[string]string
	errs   form.FieldErrors
	result *view.Result
	charts map[string]string
	alert  string
	stale  bool
}

// bindForm binds and validates the posted form. Binding and rule errors are
// merged so every field reports at most one message.
func (s *Server) bindForm(c *gin.Context) (form.Submission, form.FieldErrors, int) {
	var sub form.Submission
	bindErr := c.ShouldBind(&sub)
	var tooLarge *http.MaxBytesError
	if errors.As(bindErr, &tooLarge) {
		return sub, form.FieldErrors{{Message: "Requête trop volumineuse"}}, http.StatusRequestEntityTooLarge
	}
	errs := form.FromBindingError(bindErr).Merge(sub.Validate(s.deps.Rules))
	if len(errs) > 0 {
		return sub, errs, http.StatusUnprocessableEntity
	}
	return sub, nil, http.StatusOK
}

func (s *Server) predict(c *gin.Context) outcome {
	ctx := c.Request.Context()
	clientID := session.ClientID(c)
	s.deps.Analytics.For(clientID).TrackFormSubmit(formID)

	sub, errs, status := s.bindForm(c)
	st := sub.State()
	values := st.Map()
	if status != http.StatusOK {
		return outcome{status: status, values: values, errs: errs}
	}

	bar := s.deps.Progress.For(clientID)
	bar.Start(progress.DefaultMessage)
	reqCtx, gen, done := s.deps.Sequencer.Begin(ctx, clientID)
	defer done()

	bar.Set(progress.Sent)
	resp, err := s.deps.Predictor.Predict(reqCtx, st)
	if !s.deps.Sequencer.IsCurrent(clientID, gen) {
		logger.Debugf("client %s: dropping superseded prediction %d", clientID, gen)
		return outcome{status: http.StatusConflict, values: values, stale: true}
	}
	bar.Set(progress.Received)
	if err != nil {
		bar.Hide()
		msg := predictErrPrefix + userMessage(err)
		logger.Warnf("predict for %s: %v", clientID, err)
		s.deps.Notify.For(clientID).Error(msg)
		return outcome{status: http.StatusBadGateway, values: values, alert: msg}
	}

	res := view.BuildResult(resp)
	s.deps.Storage.Set(ctx, clientID, storage.ScopeSession, keyLastForm, values)
	s.deps.Storage.Set(ctx, clientID, storage.ScopeSession, keyLastResult, res)
	bar.Finish()

	return outcome{
		status: http.StatusOK,
		values: values,
		result: &res,
		charts: renderCharts(&res),
	}
}

// userMessage prefers the backend's own error text.
func userMessage(err error) string {
	var rej *predictor.RejectedError
	if errors.As(err, &rej) && rej.Message != "" {
		return rej.Message
	}
	return err.Error()
}

func (s *Server) handleIndex(c *gin.Context) {
	ctx := c.Request.Context()
	clientID := session.ClientID(c)
	s.deps.Analytics.For(clientID).TrackPageView(c.Request.URL.Path)

	page := s.newPage(ctx, clientID, s.lastValues(ctx, clientID))
	if res := s.lastResult(ctx, clientID); res != nil {
		page.Result = res
		page.Charts = renderCharts(res)
	}
	s.render(c, http.StatusOK, "index", page)
}

func (s *Server) handlePredictPage(c *gin.Context) {
	out := s.predict(c)
	if out.stale {
		c.AbortWithStatus(http.StatusConflict)
		return
	}
	clientID := session.ClientID(c)
	page := s.newPage(c.Request.Context(), clientID, out.values)
	page.Errors = out.errs
	page.Result = out.result
	page.Charts = out.charts
	s.render(c, out.status, "index", page)
}

func (s *Server) handlePredictAPI(c *gin.Context) {
	out := s.predict(c)
	clientID := session.ClientID(c)

	body := gin.H{"success": out.status == http.StatusOK, "stale": out.stale}
	if len(out.errs) > 0 {
		body["errors"] = out.errs
	}
	if out.alert != "" {
		body["error"] = out.alert
	}
	if out.result != nil {
		page := s.newPage(c.Request.Context(), clientID, out.values)
		page.Result = out.result
		page.Charts = out.charts
		html, err := s.fragment("result", page)
		if err != nil {
			logger.Errorf("render result: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "render failed"})
			return
		}
		body["result"] = out.result
		body["html"] = html
	}
	if !out.stale {
		body["alerts"] = s.deps.Notify.For(clientID).List()
	}
	c.JSON(out.status, body)
}

func (s *Server) handleVisibility(c *gin.Context) {
	category := c.Query(form.FieldAgeCategory)
	c.JSON(http.StatusOK, gin.H{
		"minAge":          form.ParseMinAge(category),
		"diabeticVisible": form.ConditionalVisible(category, s.deps.Rules.DiabeticMinAge),
	})
}

func (s *Server) handleProgress(c *gin.Context) {
	c.JSON(http.StatusOK, s.deps.Progress.For(session.ClientID(c)).Snapshot())
}

func (s *Server) handleReport(c *gin.Context) {
	clientID := session.ClientID(c)
	sub, errs, status := s.bindForm(c)
	if status != http.StatusOK {
		c.JSON(status, gin.H{"success": false, "errors": errs})
		return
	}

	rep, err := s.deps.Predictor.Report(c.Request.Context(), sub.State())
	if err != nil {
		msg := reportErrMessage
		var netErr *url.Error
		if errors.As(err, &netErr) {
			msg = networkErrMessage
		}
		logger.Warnf("report for %s: %v", clientID, err)
		s.deps.Notify.For(clientID).Error(msg)
		c.JSON(http.StatusBadGateway, gin.H{"success": false, "error": msg})
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+s.deps.ReportFilename+`"`)
	c.Data(http.StatusOK, rep.ContentType, rep.Data)
}

func (s *Server) render(c *gin.Context, status int, name string, page *pageData) {
	var buf bytes.Buffer
	if err := s.tmpl.ExecuteTemplate(&buf, name, page); err != nil {
		logger.Errorf("render %s: %v", name, err)
		c.String(http.StatusInternalServerError, "internal error")
		return
	}
	c.Data(status, "text/html; charset=utf-8", buf.Bytes())
}

func (s *Server) fragment(name string, page *pageData) (string, error) {
	var b strings.Builder
	if err := s.tmpl.ExecuteTemplate(&b, name, page); err != nil {
		return "", err
	}
	return b.String(), nil
}
