package api

import (
	"errors"
	"net/http"
	"sort"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/pharmaguard-server/internal/domain"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// validateRequest carries the raw VCF text for a structural validation check.
type validateRequest struct {
	VCFContent string `json:"vcf_content" binding:"required"`
}

// assessRequest resolves a (drug, phenotype) pair without a VCF upload.
type assessRequest struct {
	Drug          string  `json:"drug" binding:"required"`
	PhenotypeCode string  `json:"phenotype_code" binding:"required"`
	Confidence    float64 `json:"confidence"`
}

// handleValidateVCF runs the structural checks on uploaded VCF text. The
// result is advisory: an invalid file yields 200 with valid=false, not an
// error status.
func (s *Server) handleValidateVCF(c *gin.Context) {
	var req validateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, domain.ErrInvalidInput,
			"Request body must contain vcf_content", err.Error())
		return
	}

	c.JSON(http.StatusOK, s.parser.ValidateContent(req.VCFContent))
}

// handleAnalyze runs the full pipeline for one (VCF, drug) pair and persists
// the resulting report.
func (s *Server) handleAnalyze(c *gin.Context) {
	var req domain.AnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, domain.ErrInvalidInput,
			"Request body must contain vcf_content and drug", err.Error())
		return
	}

	report, err := s.analyzer.Analyze(c.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrVCFValidation):
			s.respondError(c, http.StatusBadRequest, domain.ErrInvalidVCF,
				"Uploaded file is not a valid VCF", err.Error())
		case errors.Is(err, domain.ErrNoSampleData):
			s.respondError(c, http.StatusBadRequest, domain.ErrInvalidVCF,
				"VCF file has no sample data", err.Error())
		case errors.Is(err, domain.ErrUnknownDrug):
			s.respondError(c, http.StatusBadRequest, domain.ErrInvalidInput,
				"Drug is not covered by the risk knowledge base", err.Error())
		default:
			s.respondError(c, http.StatusBadGateway, domain.ErrExternalAPI,
				"Analysis failed", err.Error())
		}
		return
	}

	if err := s.reports.Save(c.Request.Context(), report); err != nil {
		s.respondError(c, http.StatusInternalServerError, domain.ErrDatabaseError,
			"Failed to persist analysis report", err.Error())
		return
	}

	if s.variants != nil && len(report.Variants) > 0 {
		if err := s.variants.SaveVariants(c.Request.Context(), report.ID, report.Variants); err != nil {
			// The report itself is already persisted; variant rows are a
			// secondary projection.
			s.logger.WithFields(logrus.Fields{
				"report_id": report.ID,
				"error":     err,
			}).Warn("Failed to persist report variant rows")
		}
	}

	c.JSON(http.StatusOK, report)
}

// handleAssessRisk resolves a drug risk directly from a phenotype code,
// skipping VCF handling. The resolution is total; unknown pairs come back as
// an explicit Unknown classification.
func (s *Server) handleAssessRisk(c *gin.Context) {
	var req assessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, domain.ErrInvalidInput,
			"Request body must contain drug and phenotype_code", err.Error())
		return
	}

	c.JSON(http.StatusOK, s.risk.Assess(req.Drug, req.PhenotypeCode, req.Confidence))
}

// handleListReports returns stored report summaries, newest first.
func (s *Server) handleListReports(c *gin.Context) {
	limit := queryInt(c, "limit", defaultListLimit)
	if limit <= 0 || limit > maxListLimit {
		limit = defaultListLimit
	}
	offset := queryInt(c, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	summaries, err := s.reports.List(c.Request.Context(), limit, offset)
	if err != nil {
		s.respondError(c, http.StatusInternalServerError, domain.ErrDatabaseError,
			"Failed to list reports", err.Error())
		return
	}

	total, err := s.reports.Count(c.Request.Context())
	if err != nil {
		s.respondError(c, http.StatusInternalServerError, domain.ErrDatabaseError,
			"Failed to count reports", err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"reports": summaries,
		"total":   total,
		"limit":   limit,
		"offset":  offset,
	})
}

// handleGetReport returns one stored report with its full variant payload.
func (s *Server) handleGetReport(c *gin.Context) {
	id := c.Param("id")

	report, err := s.reports.Get(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, http.StatusInternalServerError, domain.ErrDatabaseError,
			"Failed to load report", err.Error())
		return
	}
	if report == nil {
		s.respondError(c, http.StatusNotFound, domain.ErrInvalidInput,
			"Report not found", "no report with id "+id)
		return
	}

	c.JSON(http.StatusOK, report)
}

// handleDeleteReport removes one stored report.
func (s *Server) handleDeleteReport(c *gin.Context) {
	id := c.Param("id")

	if err := s.reports.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.respondError(c, http.StatusNotFound, domain.ErrInvalidInput,
				"Report not found", "no report with id "+id)
			return
		}
		s.respondError(c, http.StatusInternalServerError, domain.ErrDatabaseError,
			"Failed to delete report", err.Error())
		return
	}

	c.Status(http.StatusNoContent)
}

// handleGetReportVariants returns the relational variant rows of one report.
// Only available when a PostgreSQL variant repository is configured.
func (s *Server) handleGetReportVariants(c *gin.Context) {
	if s.variants == nil {
		s.respondError(c, http.StatusNotImplemented, domain.ErrInvalidInput,
			"Variant storage is not configured", "")
		return
	}

	id := c.Param("id")
	variants, err := s.variants.GetByReport(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, http.StatusInternalServerError, domain.ErrDatabaseError,
			"Failed to load report variants", err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"report_id": id,
		"variants":  variants,
	})
}

// handleListDrugs returns every drug the risk knowledge base covers, with
// its associated pharmacogene list.
func (s *Server) handleListDrugs(c *gin.Context) {
	type drugInfo struct {
		Drug        string   `json:"drug"`
		Genes       []string `json:"genes"`
		PrimaryGene string   `json:"primary_gene"`
	}

	drugs := s.risk.KnownDrugs()
	infos := make([]drugInfo, 0, len(drugs))
	for _, drug := range drugs {
		genes, _ := s.risk.DrugGenes(drug)
		infos = append(infos, drugInfo{
			Drug:        drug,
			Genes:       genes,
			PrimaryGene: genes.Primary(),
		})
	}

	c.JSON(http.StatusOK, gin.H{"drugs": infos})
}

// handleListGenes returns the pharmacogene panel, sorted.
func (s *Server) handleListGenes(c *gin.Context) {
	genes := make([]string, 0, len(domain.TargetGenes))
	for gene := range domain.TargetGenes {
		genes = append(genes, gene)
	}
	sort.Strings(genes)

	c.JSON(http.StatusOK, gin.H{"genes": genes})
}

// respondError writes a standardized error payload tagged with the request ID.
func (s *Server) respondError(c *gin.Context, status int, code, message, details string) {
	requestID, _ := c.Get("request_id")
	id, _ := requestID.(string)

	s.logger.WithFields(logrus.Fields{
		"status":     status,
		"code":       code,
		"request_id": id,
		"details":    details,
	}).Warn(message)

	c.AbortWithStatusJSON(status, domain.NewAPIError(code, message, details, id))
}

func queryInt(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
