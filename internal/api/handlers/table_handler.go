package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/invdash/internal/domain"
	"github.com/andresuchdata/invdash/internal/export"
	"github.com/andresuchdata/invdash/internal/format"
	"github.com/andresuchdata/invdash/internal/service"
	"github.com/andresuchdata/invdash/internal/session"
	"github.com/andresuchdata/invdash/internal/table"
)

type TableHandler struct {
	service *service.DashboardService
	now     func() time.Time
}

func NewTableHandler(service *service.DashboardService) *TableHandler {
	return &TableHandler{service: service, now: time.Now}
}

type filterRequest struct {
	Query string `json:"query"`
}

type sortRequest struct {
	Column string `json:"column" binding:"required"`
	Type   string `json:"type"`
}

// Row is one table line as sent to the renderer.
type Row struct {
	*domain.InventoryItem
	ReorderStatus      string  `json:"reorderStatus"`
	EffectiveValue     float64 `json:"effectiveValue"`
	PriceDisplay       string  `json:"priceDisplay"`
	ValueDisplay       string  `json:"valueDisplay"`
	StockDisplay       string  `json:"stockDisplay"`
	DescriptionDisplay string  `json:"descriptionDisplay"`
}

type tableResponse struct {
	ID    string      `json:"id"`
	State table.State `json:"state"`
	Rows  []Row       `json:"rows"`
}

func toResponse(id string, e *table.Engine) tableResponse {
	view := e.CurrentView()
	rows := make([]Row, len(view))
	for i, it := range view {
		value := it.EffectiveValue()
		rows[i] = Row{
			InventoryItem:      it,
			ReorderStatus:      e.Policy().Label(*it),
			EffectiveValue:     value,
			PriceDisplay:       format.Currency(it.Price),
			ValueDisplay:       format.Currency(value),
			StockDisplay:       format.Number(float64(it.Stock)),
			DescriptionDisplay: format.Truncate(it.Description, format.DefaultTruncation),
		}
	}
	return tableResponse{ID: id, State: e.State(), Rows: rows}
}

// CreateTable opens a new table session over the active dataset.
func (h *TableHandler) CreateTable(c *gin.Context) {
	sess, err := h.service.CreateTable()
	if err != nil {
		respondError(c, err)
		return
	}
	h.render(c, http.StatusCreated, sess)
}

func (h *TableHandler) GetTable(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	h.render(c, http.StatusOK, sess)
}

func (h *TableHandler) Filter(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	var req filterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid filter request", err)
		return
	}

	_ = sess.Do(func(e *table.Engine) error {
		e.Filter(req.Query)
		return nil
	})
	h.render(c, http.StatusOK, sess)
}

func (h *TableHandler) Sort(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	var req sortRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid sort request", err)
		return
	}

	column, err := table.ParseColumn(req.Column)
	if err != nil {
		respondError(c, err)
		return
	}
	kind, err := table.ParseKind(req.Type)
	if err != nil {
		respondError(c, err)
		return
	}

	if err := sess.Do(func(e *table.Engine) error { return e.SortBy(column, kind) }); err != nil {
		respondError(c, err)
		return
	}
	h.render(c, http.StatusOK, sess)
}

// ExportCSV downloads the current view. With ?upload=true the file is also
// stored in object storage and its key returned in X-Export-Key.
func (h *TableHandler) ExportCSV(c *gin.Context) {
	h.export(c, export.Filename, export.CSVContentType, func(rows []*domain.InventoryItem, p domain.ReorderPolicy) ([]byte, error) {
		return export.CSV(rows, p), nil
	})
}

func (h *TableHandler) ExportXLSX(c *gin.Context) {
	h.export(c, export.XLSXFilename, export.XLSXContentType, export.XLSX)
}

func (h *TableHandler) export(
	c *gin.Context,
	filename func(time.Time) string,
	contentType string,
	encode func([]*domain.InventoryItem, domain.ReorderPolicy) ([]byte, error),
) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	var data []byte
	err := sess.Do(func(e *table.Engine) error {
		var err error
		data, err = encode(e.CurrentView(), e.Policy())
		return err
	})
	if err != nil {
		respondError(c, err)
		return
	}

	name := filename(h.now())
	if upload, _ := strconv.ParseBool(c.Query("upload")); upload {
		key, err := h.service.UploadExport(c.Request.Context(), name, data, contentType)
		if err != nil {
			log.Warn().Err(err).Str("file", name).Msg("export upload failed")
		} else {
			c.Header("X-Export-Key", key)
		}
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	c.Data(http.StatusOK, contentType, data)
}

func (h *TableHandler) DeleteTable(c *gin.Context) {
	if err := h.service.Sessions().Delete(c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *TableHandler) session(c *gin.Context) (*session.Session, bool) {
	sess, err := h.service.Sessions().Get(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	return sess, true
}

func (h *TableHandler) render(c *gin.Context, status int, sess *session.Session) {
	var resp tableResponse
	_ = sess.Do(func(e *table.Engine) error {
		resp = toResponse(sess.ID, e)
		return nil
	})
	c.JSON(status, resp)
}
