package handlers

import (
	"net/http"
	"strconv"

	"github.com/3Eeeecho/go-pdfvault/internal/pkg/logger"
	"github.com/3Eeeecho/go-pdfvault/internal/pkg/utils"
	"github.com/3Eeeecho/go-pdfvault/internal/pkg/xerr"
	"github.com/3Eeeecho/go-pdfvault/internal/services/admin"
	"github.com/3Eeeecho/go-pdfvault/internal/services/explorer"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AdminHandler 管理端接口，路由层已由管理员中间件把守
type AdminHandler struct {
	userService     admin.UserService
	documentService explorer.DocumentService
}

func NewAdminHandler(userService admin.UserService, documentService explorer.DocumentService) *AdminHandler {
	return &AdminHandler{
		userService:     userService,
		documentService: documentService,
	}
}

// ListUsers 分页列出全部用户
// @Summary 用户列表（管理员）
// @Tags 管理
// @Produce json
// @Security BearerAuth
// @Param page query int false "页码"
// @Param page_size query int false "每页数量"
// @Success 200 {object} xerr.Response "用户列表"
// @Router /api/v1/admin/users [get]
func (h *AdminHandler) ListUsers(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	users, total, err := h.userService.ListUsers(c.Request.Context(), page, pageSize)
	if err != nil {
		logger.Error("ListUsers: 查询用户列表失败", zap.Error(err))
		xerr.Error(c, http.StatusInternalServerError, xerr.DatabaseErrorCode, "查询用户列表失败")
		return
	}

	xerr.Success(c, http.StatusOK, "查询成功", gin.H{
		"users": users,
		"total": total,
		"page":  page,
	})
}

// ListDocuments 分页列出全部文档
// @Summary 文档列表（管理员）
// @Tags 管理
// @Produce json
// @Security BearerAuth
// @Param page query int false "页码"
// @Success 200 {object} xerr.Response "文档列表"
// @Router /api/v1/admin/documents [get]
func (h *AdminHandler) ListDocuments(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))

	docs, total, err := h.documentService.ListAllDocuments(c.Request.Context(), page)
	if err != nil {
		logger.Error("ListDocuments: 查询文档列表失败", zap.Error(err))
		xerr.Error(c, http.StatusInternalServerError, xerr.DatabaseErrorCode, "查询文档列表失败")
		return
	}

	xerr.Success(c, http.StatusOK, "查询成功", gin.H{
		"documents": docs,
		"total":     total,
		"page":      page,
	})
}

// DeleteDocument 管理员删除任意文档
// @Summary 删除文档（管理员）
// @Tags 管理
// @Produce json
// @Security BearerAuth
// @Param id path int true "文档ID"
// @Success 200 {object} xerr.Response "删除成功"
// @Failure 404 {object} xerr.Response "文档不存在"
// @Router /api/v1/admin/documents/{id} [delete]
func (h *AdminHandler) DeleteDocument(c *gin.Context) {
	docID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || docID == 0 {
		xerr.Error(c, http.StatusBadRequest, xerr.InvalidParamsCode, "无效的文档ID")
		return
	}
	userID, ok := utils.GetUserIDFromContext(c)
	if !ok {
		return
	}

	if err := h.documentService.Delete(c.Request.Context(), userID, true, docID); err != nil {
		if err == xerr.ErrDocumentNotFound {
			xerr.Error(c, http.StatusNotFound, xerr.DocumentNotFoundCode, err.Error())
			return
		}
		logger.Error("DeleteDocument: 删除文档失败", zap.Uint64("documentID", docID), zap.Error(err))
		xerr.Error(c, http.StatusInternalServerError, xerr.InternalServerErrorCode, "删除文档失败")
		return
	}
	xerr.Success(c, http.StatusOK, "删除成功", nil)
}
