package httpserver

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"hardware-catalog/internal/domain"
	"hardware-catalog/internal/importer"
	"hardware-catalog/internal/service/catalog"
)

type productHandlers struct {
	svc      *catalog.Service
	importer *importer.CSVImporter
	pageSize int
}

func (h *productHandlers) list(c *gin.Context) {
	page, _ := strconv.Atoi(c.Query("page"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(c.Query("pageSize"))
	if pageSize < 1 {
		pageSize = h.pageSize
	}
	filter := strings.TrimSpace(c.Query("q"))

	items, total, err := h.svc.List(c.Request.Context(), filter, page, pageSize)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toListResponse(items, total, page, pageSize))
}

func (h *productHandlers) get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	p, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toProductResponse(*p))
}

func (h *productHandlers) create(c *gin.Context) {
	in, ok := formInput(c)
	if !ok {
		return
	}
	p, err := h.svc.Create(c.Request.Context(), in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toProductResponse(*p))
}

func (h *productHandlers) update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	in, ok := formInput(c)
	if !ok {
		return
	}
	p, err := h.svc.Update(c.Request.Context(), id, in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toProductResponse(*p))
}

func (h *productHandlers) delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *productHandlers) replaceImage(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	image, ok := fileBytes(c, "image", true)
	if !ok {
		return
	}
	p, err := h.svc.ReplaceImage(c.Request.Context(), id, image)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toProductResponse(*p))
}

func (h *productHandlers) removeImage(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	err := h.svc.RemoveImage(c.Request.Context(), id)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	case errors.Is(err, domain.ErrNothingToRemove):
		// A distinct outcome, not a failure.
		c.JSON(http.StatusOK, gin.H{"status": "nothing to remove"})
	default:
		writeError(c, err)
	}
}

func (h *productHandlers) importBatch(c *gin.Context) {
	raw, ok := fileBytes(c, "file", true)
	if !ok {
		return
	}
	sum, err := h.importer.Run(c.Request.Context(), raw)
	if err != nil {
		writeError(c, err)
		return
	}
	if sum.Rejected == nil {
		sum.Rejected = []importer.RejectedRow{}
	}
	c.JSON(http.StatusOK, sum)
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product id", "field": "id"})
		return 0, false
	}
	return id, true
}

// formInput reads the multipart product form: code, name, description,
// price and an optional image file.
func formInput(c *gin.Context) (catalog.Input, bool) {
	in := catalog.Input{
		Code:        c.PostForm("code"),
		Name:        c.PostForm("name"),
		Description: c.PostForm("description"),
	}

	priceRaw := strings.TrimSpace(c.PostForm("price"))
	if priceRaw == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "required", "field": "price"})
		return in, false
	}
	price, err := strconv.ParseFloat(priceRaw, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "must be a number", "field": "price"})
		return in, false
	}
	in.Price = price

	image, ok := fileBytes(c, "image", false)
	if !ok {
		return in, false
	}
	in.Image = image
	return in, true
}

func fileBytes(c *gin.Context, field string, required bool) ([]byte, bool) {
	fh, err := c.FormFile(field)
	if err != nil {
		if !required {
			return nil, true
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "file required", "field": field})
		return nil, false
	}
	data, err := readAll(fh)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable file", "field": field})
		return nil, false
	}
	return data, true
}

func readAll(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
