package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/3Eeeecho/go-pdfvault/internal/pkg/logger"
	"github.com/3Eeeecho/go-pdfvault/internal/pkg/search"
	"github.com/3Eeeecho/go-pdfvault/internal/pkg/utils"
	"github.com/3Eeeecho/go-pdfvault/internal/pkg/xerr"
	"github.com/3Eeeecho/go-pdfvault/internal/services/explorer"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type DocumentHandler struct {
	documentService explorer.DocumentService
}

func NewDocumentHandler(documentService explorer.DocumentService) *DocumentHandler {
	return &DocumentHandler{documentService: documentService}
}

// parseDocumentID 从路径参数解析文档ID
func parseDocumentID(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		xerr.Error(c, http.StatusBadRequest, xerr.InvalidParamsCode, "无效的文档ID")
		return 0, false
	}
	return id, true
}

// Upload 上传 PDF 文档
// @Summary 上传 PDF 文档
// @Description 接收 multipart 表单上传的 PDF，写入对象存储并异步解析
// @Tags 文档
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "PDF 文件"
// @Success 200 {object} xerr.Response "上传成功"
// @Failure 400 {object} xerr.Response "文件类型或大小不合法"
// @Router /api/v1/documents [post]
func (h *DocumentHandler) Upload(c *gin.Context) {
	userID, ok := utils.GetUserIDFromContext(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		xerr.Error(c, http.StatusBadRequest, xerr.InvalidParamsCode, "缺少上传文件: "+err.Error())
		return
	}

	src, err := fileHeader.Open()
	if err != nil {
		xerr.Error(c, http.StatusInternalServerError, xerr.InternalServerErrorCode, "读取上传文件失败")
		return
	}
	defer src.Close()

	doc, err := h.documentService.Upload(c.Request.Context(), userID, fileHeader.Filename, fileHeader.Size, src)
	if err != nil {
		switch {
		case errors.Is(err, xerr.ErrFileTypeInvalid):
			xerr.Error(c, http.StatusBadRequest, xerr.FileTypeInvalidCode, err.Error())
		case errors.Is(err, xerr.ErrFileTooLarge):
			xerr.Error(c, http.StatusBadRequest, xerr.FileTooLargeCode, err.Error())
		case errors.Is(err, xerr.ErrStorageError):
			xerr.Error(c, http.StatusInternalServerError, xerr.StorageErrorCode, "存储服务不可用")
		default:
			logger.Error("Upload: 上传文档失败", zap.Error(err))
			xerr.Error(c, http.StatusInternalServerError, xerr.InternalServerErrorCode, "上传文档失败")
		}
		return
	}

	xerr.Success(c, http.StatusOK, "上传成功", doc)
}

// List 分页列出当前用户的文档
// @Summary 我的文档列表
// @Tags 文档
// @Produce json
// @Security BearerAuth
// @Param page query int false "页码，从1开始"
// @Success 200 {object} xerr.Response "文档列表"
// @Router /api/v1/documents [get]
func (h *DocumentHandler) List(c *gin.Context) {
	userID, ok := utils.GetUserIDFromContext(c)
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))

	docs, total, err := h.documentService.ListUserDocuments(c.Request.Context(), userID, page)
	if err != nil {
		logger.Error("List: 查询文档列表失败", zap.Uint64("userID", userID), zap.Error(err))
		xerr.Error(c, http.StatusInternalServerError, xerr.DatabaseErrorCode, "查询文档列表失败")
		return
	}

	xerr.Success(c, http.StatusOK, "查询成功", gin.H{
		"documents": docs,
		"total":     total,
		"page":      page,
	})
}

// Get 获取单个文档的元数据
// @Summary 文档详情
// @Tags 文档
// @Produce json
// @Security BearerAuth
// @Param id path int true "文档ID"
// @Success 200 {object} xerr.Response "文档详情"
// @Failure 404 {object} xerr.Response "文档不存在"
// @Router /api/v1/documents/{id} [get]
func (h *DocumentHandler) Get(c *gin.Context) {
	userID, ok := utils.GetUserIDFromContext(c)
	if !ok {
		return
	}
	docID, ok := parseDocumentID(c)
	if !ok {
		return
	}

	doc, err := h.documentService.GetDocument(c.Request.Context(), userID, docID)
	if err != nil {
		h.respondDocumentError(c, err)
		return
	}
	xerr.Success(c, http.StatusOK, "查询成功", doc)
}

// Search 检索文档
// @Summary 检索文档
// @Description 按文件名或内容检索当前用户的文档
// @Tags 文档
// @Produce json
// @Security BearerAuth
// @Param q query string true "检索词"
// @Param mode query string false "检索范围: filename / content / all"
// @Success 200 {object} xerr.Response "命中的文档"
// @Router /api/v1/documents/search [get]
func (h *DocumentHandler) Search(c *gin.Context) {
	userID, ok := utils.GetUserIDFromContext(c)
	if !ok {
		return
	}
	query := c.Query("q")
	mode := c.DefaultQuery("mode", search.ModeAll)

	docs, err := h.documentService.Search(c.Request.Context(), userID, query, mode)
	if err != nil {
		if errors.Is(err, xerr.ErrInvalidParams) {
			xerr.Error(c, http.StatusBadRequest, xerr.InvalidParamsCode, "检索词不能为空")
			return
		}
		logger.Error("Search: 检索失败", zap.String("query", query), zap.Error(err))
		xerr.Error(c, http.StatusInternalServerError, xerr.SearchErrorCode, "检索失败")
		return
	}

	xerr.Success(c, http.StatusOK, "查询成功", gin.H{
		"documents": docs,
		"total":     len(docs),
	})
}

// Download 下载文档原始文件
// @Summary 下载文档
// @Tags 文档
// @Produce octet-stream
// @Security BearerAuth
// @Param id path int true "文档ID"
// @Success 200 {file} binary "PDF 内容"
// @Failure 404 {object} xerr.Response "文档不存在"
// @Router /api/v1/documents/{id}/download [get]
func (h *DocumentHandler) Download(c *gin.Context) {
	userID, ok := utils.GetUserIDFromContext(c)
	if !ok {
		return
	}
	docID, ok := parseDocumentID(c)
	if !ok {
		return
	}

	doc, err := h.documentService.GetDocument(c.Request.Context(), userID, docID)
	if err != nil {
		h.respondDocumentError(c, err)
		return
	}

	reader, err := h.documentService.OpenContent(c.Request.Context(), doc)
	if err != nil {
		xerr.Error(c, http.StatusInternalServerError, xerr.StorageErrorCode, "读取文档内容失败")
		return
	}
	defer reader.Close()

	streamPDF(c, doc.OriginalFilename, int64(doc.Size), reader)
}

// PresignedURL 获取限时下载链接
// @Summary 获取限时下载链接
// @Tags 文档
// @Produce json
// @Security BearerAuth
// @Param id path int true "文档ID"
// @Success 200 {object} xerr.Response "预签名URL"
// @Router /api/v1/documents/{id}/url [get]
func (h *DocumentHandler) PresignedURL(c *gin.Context) {
	userID, ok := utils.GetUserIDFromContext(c)
	if !ok {
		return
	}
	docID, ok := parseDocumentID(c)
	if !ok {
		return
	}

	doc, err := h.documentService.GetDocument(c.Request.Context(), userID, docID)
	if err != nil {
		h.respondDocumentError(c, err)
		return
	}

	url, err := h.documentService.PresignedURL(c.Request.Context(), doc)
	if err != nil {
		xerr.Error(c, http.StatusInternalServerError, xerr.StorageErrorCode, "生成下载链接失败")
		return
	}
	xerr.Success(c, http.StatusOK, "查询成功", gin.H{"url": url})
}

// Thumbnail 获取文档首页缩略图
// @Summary 获取缩略图
// @Tags 文档
// @Produce png
// @Security BearerAuth
// @Param id path int true "文档ID"
// @Success 200 {file} binary "PNG 缩略图"
// @Failure 404 {object} xerr.Response "缩略图不存在"
// @Router /api/v1/documents/{id}/thumbnail [get]
func (h *DocumentHandler) Thumbnail(c *gin.Context) {
	userID, ok := utils.GetUserIDFromContext(c)
	if !ok {
		return
	}
	docID, ok := parseDocumentID(c)
	if !ok {
		return
	}

	doc, err := h.documentService.GetDocument(c.Request.Context(), userID, docID)
	if err != nil {
		h.respondDocumentError(c, err)
		return
	}

	reader, err := h.documentService.OpenThumbnail(c.Request.Context(), doc)
	if err != nil {
		xerr.Error(c, http.StatusNotFound, xerr.DocumentNotFoundCode, "缩略图不存在")
		return
	}
	defer reader.Close()

	c.Header("Content-Type", "image/png")
	c.Status(http.StatusOK)
	_, _ = io.Copy(c.Writer, reader)
}

// Delete 删除文档
// @Summary 删除文档
// @Tags 文档
// @Produce json
// @Security BearerAuth
// @Param id path int true "文档ID"
// @Success 200 {object} xerr.Response "删除成功"
// @Failure 403 {object} xerr.Response "无权操作"
// @Failure 404 {object} xerr.Response "文档不存在"
// @Router /api/v1/documents/{id} [delete]
func (h *DocumentHandler) Delete(c *gin.Context) {
	userID, ok := utils.GetUserIDFromContext(c)
	if !ok {
		return
	}
	docID, ok := parseDocumentID(c)
	if !ok {
		return
	}

	err := h.documentService.Delete(c.Request.Context(), userID, utils.IsAdminFromContext(c), docID)
	if err != nil {
		h.respondDocumentError(c, err)
		return
	}
	xerr.Success(c, http.StatusOK, "删除成功", nil)
}

func (h *DocumentHandler) respondDocumentError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, xerr.ErrDocumentNotFound):
		xerr.Error(c, http.StatusNotFound, xerr.DocumentNotFoundCode, err.Error())
	case errors.Is(err, xerr.ErrPermissionDenied):
		xerr.Error(c, http.StatusForbidden, xerr.PermissionDeniedCode, err.Error())
	case errors.Is(err, xerr.ErrDatabaseError):
		xerr.Error(c, http.StatusInternalServerError, xerr.DatabaseErrorCode, "数据库操作失败")
	default:
		logger.Error("document handler: 未分类错误", zap.Error(err))
		xerr.Error(c, http.StatusInternalServerError, xerr.InternalServerErrorCode, "服务器内部错误")
	}
}

// streamPDF 以附件形式输出 PDF 内容，文件名做 RFC 5987 编码
func streamPDF(c *gin.Context, filename string, size int64, reader io.Reader) {
	encodedName := url.PathEscape(filename)
	c.Header("Content-Type", "application/pdf")
	c.Header("Content-Disposition",
		fmt.Sprintf(`attachment; filename="%s"; filename*=UTF-8''%s`, encodedName, encodedName))
	if size > 0 {
		c.Header("Content-Length", strconv.FormatInt(size, 10))
	}
	c.Status(http.StatusOK)
	_, _ = io.Copy(c.Writer, reader)
}
