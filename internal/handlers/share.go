package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/3Eeeecho/go-pdfvault/internal/models"
	"github.com/3Eeeecho/go-pdfvault/internal/pkg/logger"
	"github.com/3Eeeecho/go-pdfvault/internal/pkg/utils"
	"github.com/3Eeeecho/go-pdfvault/internal/pkg/xerr"
	"github.com/3Eeeecho/go-pdfvault/internal/services/explorer"
	"github.com/3Eeeecho/go-pdfvault/internal/services/share"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ShareHandler struct {
	shareService    share.ShareService
	documentService explorer.DocumentService
}

func NewShareHandler(shareService share.ShareService, documentService explorer.DocumentService) *ShareHandler {
	return &ShareHandler{
		shareService:    shareService,
		documentService: documentService,
	}
}

type CreateShareRequest struct {
	DocumentID uint64 `json:"document_id" binding:"required"`
	// 过期策略: never / on_date / after_days / after_downloads
	Expires       string     `json:"expires" binding:"required"`
	ExpiryDate    *time.Time `json:"expiry_date"`    // on_date 时必填
	ExpiryDays    int        `json:"expiry_days"`    // after_days 时必填，>=1
	MaxDownloads  int        `json:"max_downloads"`  // after_downloads 时必填，>=1
	Password      string     `json:"password"`       // 非空则访问需要密码
	AllowDownload bool       `json:"allow_download"` // 是否允许下载完整文件
	Description   string     `json:"description"`
}

// shareView 是返回给创建者的分享视图
type shareView struct {
	Token              string     `json:"token"`
	ShareURL           string     `json:"share_url"`
	DocumentID         uint64     `json:"document_id"`
	ExpiresAt          time.Time  `json:"expires_at"`
	MaxAccessCount     uint32     `json:"max_access_count"`
	CurrentAccessCount uint32     `json:"current_access_count"`
	LastAccessedAt     *time.Time `json:"last_accessed_at"`
	AllowDownload      bool       `json:"allow_download"`
	HasPassword        bool       `json:"has_password"`
	Description        *string    `json:"description"`
	CreatedAt          time.Time  `json:"created_at"`
}

func (h *ShareHandler) toView(s *models.Share) shareView {
	return shareView{
		Token:              s.Token,
		ShareURL:           h.shareService.ShareURL(s.Token),
		DocumentID:         s.DocumentID,
		ExpiresAt:          s.ExpiresAt,
		MaxAccessCount:     s.MaxAccessCount,
		CurrentAccessCount: s.CurrentAccessCount,
		LastAccessedAt:     s.LastAccessedAt,
		AllowDownload:      s.AllowDownload,
		HasPassword:        s.PasswordHash != nil,
		Description:        s.Description,
		CreatedAt:          s.CreatedAt,
	}
}

// CreateShare 创建分享链接
// @Summary 创建分享链接
// @Description 为指定文档创建分享链接，支持过期策略、访问次数上限和密码保护
// @Tags 分享
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateShareRequest true "分享链接信息"
// @Success 200 {object} xerr.Response "分享链接创建成功"
// @Failure 400 {object} xerr.Response "请求参数或过期策略无效"
// @Failure 403 {object} xerr.Response "无权分享该文档"
// @Failure 404 {object} xerr.Response "文档未找到"
// @Router /api/v1/shares [post]
func (h *ShareHandler) CreateShare(c *gin.Context) {
	var req CreateShareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		xerr.Error(c, http.StatusBadRequest, xerr.InvalidParamsCode, "请求参数解析失败: "+err.Error())
		return
	}

	userID, ok := utils.GetUserIDFromContext(c)
	if !ok {
		return
	}

	policy := share.ExpirationPolicy{
		Choice:    share.ExpirationChoice(req.Expires),
		Days:      req.ExpiryDays,
		Downloads: req.MaxDownloads,
	}
	if req.ExpiryDate != nil {
		policy.Date = *req.ExpiryDate
	}
	if policy.Choice == share.ExpireOnDate && req.ExpiryDate == nil {
		xerr.Error(c, http.StatusBadRequest, xerr.InvalidExpiryCode, "on_date 策略需要提供 expiry_date")
		return
	}

	opts := share.CreateShareOptions{
		AllowDownload: req.AllowDownload,
		Password:      req.Password,
		Description:   req.Description,
	}

	created, err := h.shareService.CreateShare(c.Request.Context(), userID, req.DocumentID, policy, opts)
	if err != nil {
		switch {
		case errors.Is(err, xerr.ErrDocumentNotFound):
			xerr.Error(c, http.StatusNotFound, xerr.DocumentNotFoundCode, err.Error())
		case errors.Is(err, xerr.ErrPermissionDenied):
			xerr.Error(c, http.StatusForbidden, xerr.PermissionDeniedCode, err.Error())
		case errors.Is(err, xerr.ErrInvalidExpiry):
			xerr.Error(c, http.StatusBadRequest, xerr.InvalidExpiryCode, err.Error())
		default:
			logger.Error("CreateShare: 创建分享链接失败", zap.Error(err))
			xerr.Error(c, http.StatusInternalServerError, xerr.InternalServerErrorCode, "创建分享链接失败")
		}
		return
	}

	xerr.Success(c, http.StatusOK, "分享链接创建成功", h.toView(created))
}

// ListMyShares 列出当前用户的分享
// @Summary 我的分享列表
// @Description 返回当前用户的全部分享，按活跃状态分组
// @Tags 分享
// @Produce json
// @Security BearerAuth
// @Success 200 {object} xerr.Response "分享列表"
// @Router /api/v1/shares/my [get]
func (h *ShareHandler) ListMyShares(c *gin.Context) {
	userID, ok := utils.GetUserIDFromContext(c)
	if !ok {
		return
	}

	active, expired, err := h.shareService.ListUserShares(c.Request.Context(), userID)
	if err != nil {
		logger.Error("ListMyShares: 查询分享列表失败", zap.Uint64("userID", userID), zap.Error(err))
		xerr.Error(c, http.StatusInternalServerError, xerr.DatabaseErrorCode, "查询分享列表失败")
		return
	}

	activeViews := make([]shareView, 0, len(active))
	for i := range active {
		activeViews = append(activeViews, h.toView(&active[i]))
	}
	expiredViews := make([]shareView, 0, len(expired))
	for i := range expired {
		expiredViews = append(expiredViews, h.toView(&expired[i]))
	}

	xerr.Success(c, http.StatusOK, "查询成功", gin.H{
		"active":  activeViews,
		"expired": expiredViews,
	})
}

// RevokeShare 撤销分享链接
// @Summary 撤销分享链接
// @Description 物理删除分享记录，token 立即失效且不会复用
// @Tags 分享
// @Produce json
// @Security BearerAuth
// @Param token path string true "分享 token"
// @Success 200 {object} xerr.Response "撤销成功"
// @Failure 403 {object} xerr.Response "仅创建者或管理员可撤销"
// @Failure 404 {object} xerr.Response "分享链接不存在"
// @Router /api/v1/shares/{token} [delete]
func (h *ShareHandler) RevokeShare(c *gin.Context) {
	token := c.Param("token")
	userID, ok := utils.GetUserIDFromContext(c)
	if !ok {
		return
	}

	err := h.shareService.RevokeShare(c.Request.Context(), token, userID, utils.IsAdminFromContext(c))
	if err != nil {
		switch {
		case errors.Is(err, xerr.ErrShareNotFound):
			xerr.Error(c, http.StatusNotFound, xerr.ShareNotFoundCode, err.Error())
		case errors.Is(err, xerr.ErrPermissionDenied):
			xerr.Error(c, http.StatusForbidden, xerr.PermissionDeniedCode, err.Error())
		default:
			logger.Error("RevokeShare: 撤销分享失败", zap.String("token", token), zap.Error(err))
			xerr.Error(c, http.StatusInternalServerError, xerr.InternalServerErrorCode, "撤销分享失败")
		}
		return
	}

	xerr.Success(c, http.StatusOK, "分享已撤销", nil)
}

// resolveShare 解析一次公开访问，统一处理密码与失效语义的错误映射。
// 返回 nil 时响应已写出
func (h *ShareHandler) resolveShare(c *gin.Context) *models.Share {
	token := c.Param("token")
	if token == "" {
		xerr.Error(c, http.StatusBadRequest, xerr.InvalidParamsCode, "分享token不能为空")
		return nil
	}

	// 密码通过查询参数或表单携带
	var password *string
	if p := c.Query("password"); p != "" {
		password = &p
	} else if p := c.PostForm("password"); p != "" {
		password = &p
	}

	resolved, err := h.shareService.ResolveAccess(c.Request.Context(), token, password)
	if err != nil {
		switch {
		case errors.Is(err, xerr.ErrShareNotFound):
			xerr.Error(c, http.StatusNotFound, xerr.ShareNotFoundCode, err.Error())
		case errors.Is(err, xerr.ErrShareExpired):
			xerr.Error(c, http.StatusGone, xerr.ShareExpiredCode, err.Error())
		case errors.Is(err, xerr.ErrShareQuotaExhausted):
			xerr.Error(c, http.StatusGone, xerr.ShareQuotaExhaustedCode, err.Error())
		case errors.Is(err, xerr.ErrSharePasswordRequired):
			xerr.Error(c, http.StatusForbidden, xerr.SharePasswordRequiredCode, err.Error())
		case errors.Is(err, xerr.ErrSharePasswordIncorrect):
			xerr.Error(c, http.StatusForbidden, xerr.SharePasswordIncorrectCode, err.Error())
		default:
			// 存储故障不伪装成"不存在"，对访问者是可重试的 503
			logger.Error("resolveShare: 解析分享访问失败", zap.String("token", token), zap.Error(err))
			xerr.Error(c, http.StatusServiceUnavailable, xerr.DatabaseErrorCode, "服务暂时不可用，请稍后重试")
		}
		return nil
	}
	return resolved
}

// ViewShared 访问分享的文档
// @Summary 访问分享链接
// @Description 解析分享 token 并记录一次访问，返回文档元数据
// @Tags 分享
// @Produce json
// @Param token path string true "分享 token"
// @Param password query string false "分享密码"
// @Success 200 {object} xerr.Response "文档信息"
// @Failure 403 {object} xerr.Response "需要密码或密码不正确"
// @Failure 404 {object} xerr.Response "分享链接不存在"
// @Failure 410 {object} xerr.Response "分享已过期或访问次数用尽"
// @Router /shared/{token} [get]
func (h *ShareHandler) ViewShared(c *gin.Context) {
	resolved := h.resolveShare(c)
	if resolved == nil {
		return
	}

	// 一次内容查看记一次访问；记录失败不阻断本次访问
	if err := h.shareService.RecordAccess(c.Request.Context(), resolved.Token); err != nil {
		logger.Error("ViewShared: 记录访问失败", zap.String("token", resolved.Token), zap.Error(err))
	}

	doc, err := h.documentService.GetByID(c.Request.Context(), resolved.DocumentID)
	if err != nil {
		// 文档被删除后分享悬空，对访问者等同于分享不存在
		xerr.Error(c, http.StatusNotFound, xerr.ShareNotFoundCode, "分享的文档已不存在")
		return
	}

	xerr.Success(c, http.StatusOK, "查询成功", gin.H{
		"document": gin.H{
			"id":                resolved.DocumentID,
			"original_filename": doc.OriginalFilename,
			"title":             doc.Title,
			"author":            doc.Author,
			"page_count":        doc.PageCount,
			"size":              doc.Size,
		},
		"allow_download": resolved.AllowDownload,
		"expires_at":     resolved.ExpiresAt,
		"description":    resolved.Description,
	})
}

// DownloadShared 通过分享链接下载文档
// @Summary 通过分享链接下载
// @Description 在分享允许下载时输出完整 PDF 内容。下载不重复计数，访问在查看时已记录
// @Tags 分享
// @Produce octet-stream
// @Param token path string true "分享 token"
// @Param password query string false "分享密码"
// @Success 200 {file} binary "PDF 内容"
// @Failure 403 {object} xerr.Response "不允许下载、需要密码或密码不正确"
// @Failure 404 {object} xerr.Response "分享链接不存在"
// @Failure 410 {object} xerr.Response "分享已过期或访问次数用尽"
// @Router /shared/{token}/download [get]
func (h *ShareHandler) DownloadShared(c *gin.Context) {
	resolved := h.resolveShare(c)
	if resolved == nil {
		return
	}

	if !resolved.AllowDownload {
		xerr.Error(c, http.StatusForbidden, xerr.ShareDownloadDeniedCode, xerr.ErrShareDownloadDenied.Error())
		return
	}

	doc, err := h.documentService.GetByID(c.Request.Context(), resolved.DocumentID)
	if err != nil {
		xerr.Error(c, http.StatusNotFound, xerr.ShareNotFoundCode, "分享的文档已不存在")
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
