package ui

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"gosynergy/adapters/excel"
	"gosynergy/adapters/export"
	"gosynergy/app"
	"gosynergy/domain/analysis"
	"gosynergy/domain/core"
	"gosynergy/internal/config"
	apperrors "gosynergy/internal/errors"
	"gosynergy/internal/report"

	"github.com/gin-gonic/gin"
)

type createExperimentRequest struct {
	AdditiveA       string `json:"additive_a" binding:"required"`
	AdditiveB       string `json:"additive_b" binding:"required"`
	Unit            string `json:"unit" binding:"required"`
	EffectParameter string `json:"effect_parameter" binding:"required"`
}

type conditionRequest struct {
	AmountA float64   `json:"amount_a"`
	AmountB float64   `json:"amount_b"`
	Values  []float64 `json:"values" binding:"required"`
}

type batchRequest struct {
	ExperimentIDs []string `json:"experiment_ids" binding:"required"`
}

func (s *Server) handleCreateExperiment(c *gin.Context) {
	var req createExperimentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	exp, err := s.service.CreateExperiment(analysis.Metadata{
		AdditiveAName:   req.AdditiveA,
		AdditiveBName:   req.AdditiveB,
		Unit:            req.Unit,
		EffectParameter: req.EffectParameter,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, experimentView(exp))
}

func (s *Server) handleListExperiments(c *gin.Context) {
	experiments := s.service.ListExperiments()
	views := make([]gin.H, 0, len(experiments))
	for _, exp := range experiments {
		views = append(views, experimentView(exp))
	}
	c.JSON(http.StatusOK, gin.H{"experiments": views})
}

func (s *Server) handleGetExperiment(c *gin.Context) {
	exp, err := s.service.GetExperiment(core.ExperimentID(c.Param("id")))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, experimentView(exp))
}

func (s *Server) handleDeleteExperiment(c *gin.Context) {
	if err := s.service.DeleteExperiment(c.Request.Context(), core.ExperimentID(c.Param("id"))); err != nil {
		s.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleUpsertCondition(c *gin.Context) {
	var req conditionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := s.service.UpsertCondition(
		core.ExperimentID(c.Param("id")),
		core.ConditionKey(c.Param("key")),
		req.AmountA, req.AmountB, req.Values)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleRemoveCondition(c *gin.Context) {
	err := s.service.RemoveCondition(core.ExperimentID(c.Param("id")), core.ConditionKey(c.Param("key")))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// handleImportConditions accepts an uploaded xlsx or csv file in long format
// and replaces the experiment's condition set with its contents.
func (s *Server) handleImportConditions(c *gin.Context) {
	id := core.ExperimentID(c.Param("id"))
	if _, err := s.service.GetExperiment(id); err != nil {
		s.respondError(c, err)
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing file upload"})
		return
	}

	tmp := filepath.Join(os.TempDir(), fmt.Sprintf("import_%d%s", time.Now().UnixNano(), filepath.Ext(file.Filename)))
	if err := c.SaveUploadedFile(file, tmp); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store upload"})
		return
	}
	defer os.Remove(tmp)

	reader := excel.NewDataReader(tmp)
	reader.Confidence = s.cfg.Analysis.ConfidenceLevel
	conditions, err := reader.ReadConditions()
	if err != nil {
		s.respondError(c, err)
		return
	}
	if err := s.service.ReplaceConditions(id, conditions); err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"conditions_imported": len(conditions)})
}

func (s *Server) handleSuggestions(c *gin.Context) {
	suggestions, err := s.service.Suggestions(core.ExperimentID(c.Param("id")))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"suggestions": suggestions})
}

func (s *Server) handleAnalyze(c *gin.Context) {
	result, err := s.service.Analyze(c.Request.Context(), core.ExperimentID(c.Param("id")))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result.ToMap())
}

func (s *Server) handleGetResult(c *gin.Context) {
	result, err := s.service.GetResult(c.Request.Context(), core.ExperimentID(c.Param("id")))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result.ToMap())
}

func (s *Server) handleReport(c *gin.Context) {
	result, err := s.service.GetResult(c.Request.Context(), core.ExperimentID(c.Param("id")))
	if err != nil {
		s.respondError(c, err)
		return
	}

	switch c.DefaultQuery("format", "markdown") {
	case "html":
		c.Data(http.StatusOK, "text/html; charset=utf-8", report.HTML(result))
	default:
		c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(report.Markdown(result)))
	}
}

func (s *Server) handleExportCSV(c *gin.Context) {
	result, err := s.service.GetResult(c.Request.Context(), core.ExperimentID(c.Param("id")))
	if err != nil {
		s.respondError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, result, s.cfg.Export.FloatPrecision); err != nil {
		s.respondError(c, err)
		return
	}

	c.Header("Content-Disposition", attachment(c.Param("id"), "csv"))
	c.Data(http.StatusOK, "text/csv", buf.Bytes())
}

func (s *Server) handleExportReplicates(c *gin.Context) {
	result, err := s.service.GetResult(c.Request.Context(), core.ExperimentID(c.Param("id")))
	if err != nil {
		s.respondError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := export.ReplicateRows(&buf, result); err != nil {
		s.respondError(c, err)
		return
	}

	c.Header("Content-Disposition", attachment(c.Param("id")+"_replicates", "csv"))
	c.Data(http.StatusOK, "text/csv", buf.Bytes())
}

func (s *Server) handleExportXLSX(c *gin.Context) {
	result, err := s.service.GetResult(c.Request.Context(), core.ExperimentID(c.Param("id")))
	if err != nil {
		s.respondError(c, err)
		return
	}

	var buf bytes.Buffer
	writer := excel.NewWriter(s.cfg.Export.FloatPrecision)
	if err := writer.Write(&buf, result); err != nil {
		s.respondError(c, err)
		return
	}

	c.Header("Content-Disposition", attachment(c.Param("id"), "xlsx"))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

func (s *Server) handleBatchAnalyze(c *gin.Context) {
	var req batchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ids := make([]core.ExperimentID, len(req.ExperimentIDs))
	for i, raw := range req.ExperimentIDs {
		id, err := core.ParseExperimentID(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		ids[i] = id
	}

	outcomes := s.batch.RunAll(c.Request.Context(), ids)
	views := make([]gin.H, len(outcomes))
	for i, outcome := range outcomes {
		view := gin.H{"experiment_id": outcome.ExperimentID.String()}
		if outcome.Err != nil {
			view["error"] = outcome.Err.Error()
		} else if outcome.Result != nil {
			view["summary"] = outcome.Result.Summarize()
		}
		views[i] = view
	}
	c.JSON(http.StatusOK, gin.H{"outcomes": views})
}

func (s *Server) handleEffectParameters(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"parameters": config.EffectParameters})
}

func (s *Server) handleConcentrationUnits(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"units": config.ConcentrationUnits})
}

func experimentView(exp *app.Experiment) gin.H {
	conditions := make(gin.H, len(exp.Conditions))
	for key, cond := range exp.Conditions {
		conditions[string(key)] = gin.H{
			"amount_a": cond.AmountA,
			"amount_b": cond.AmountB,
			"n":        cond.N(),
			"mean":     cond.Mean(),
		}
	}
	return gin.H{
		"id":               exp.ID.String(),
		"additive_a":       exp.Metadata.AdditiveAName,
		"additive_b":       exp.Metadata.AdditiveBName,
		"unit":             exp.Metadata.Unit,
		"effect_parameter": exp.Metadata.EffectParameter,
		"conditions":       conditions,
		"has_result":       exp.Result != nil,
		"created_at":       exp.CreatedAt.String(),
		"updated_at":       exp.UpdatedAt.String(),
	}
}

func attachment(name, ext string) string {
	return fmt.Sprintf(`attachment; filename="synergy_%s.%s"`, name, ext)
}

// respondError maps domain and application errors onto HTTP status codes.
func (s *Server) respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, core.ErrExperimentNotFound), errors.Is(err, core.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, core.ErrMissingCondition), errors.Is(err, core.ErrNoCombination),
		errors.Is(err, core.ErrEmptyReplicates), errors.Is(err, core.ErrTooManyValues),
		errors.Is(err, core.ErrNonFiniteValue), errors.Is(err, core.ErrNegativeAmount):
		status = http.StatusUnprocessableEntity
	default:
		switch apperrors.GetCode(err) {
		case apperrors.CodeValidationError, apperrors.CodeInvalidInput:
			status = http.StatusBadRequest
		case apperrors.CodeNotFound:
			status = http.StatusNotFound
		case apperrors.CodeExportError, apperrors.CodeFitFailed:
			status = http.StatusInternalServerError
		}
	}

	if status == http.StatusInternalServerError {
		s.log.Error("request failed: %v", err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
