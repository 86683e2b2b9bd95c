package xerr

import "errors"

var (
	// 通用错误
	ErrInternalServer = errors.New("服务器内部错误")

	// 客户端请求错误
	ErrInvalidParams    = errors.New("无效的请求参数")
	ErrValidationFailed = errors.New("参数验证失败")
	ErrFileTooLarge     = errors.New("上传文件过大，超出限制")
	ErrFileTypeInvalid  = errors.New("仅支持上传 PDF 文件")
	ErrInvalidExpiry    = errors.New("无效的过期策略参数")

	// 认证与授权错误
	ErrUnauthorized       = errors.New("用户未授权")
	ErrTokenInvalid       = errors.New("认证 Token 无效或已过期")
	ErrInvalidCredentials = errors.New("用户名或密码不正确")
	ErrUserAlreadyExists  = errors.New("该用户名已被注册")
	ErrEmailAlreadyExists = errors.New("邮箱已被注册")

	// 权限错误
	ErrForbidden              = errors.New("禁止访问")
	ErrPermissionDenied       = errors.New("您没有操作此资源的权限")
	ErrSharePasswordRequired  = errors.New("分享链接需要密码")
	ErrSharePasswordIncorrect = errors.New("分享链接密码不正确")
	ErrShareDownloadDenied    = errors.New("该分享链接不允许下载文件")

	// 资源未找到错误
	ErrUserNotFound     = errors.New("用户不存在")
	ErrDocumentNotFound = errors.New("文档不存在")
	ErrShareNotFound    = errors.New("分享链接不存在")

	// 分享终态（与未找到严格区分）
	ErrShareExpired        = errors.New("分享链接已过期")
	ErrShareQuotaExhausted = errors.New("分享链接访问次数已用尽")

	// 数据库与外部服务错误
	// 基础设施失败必须与"资源不存在"区分开，调用方可以重试
	ErrDatabaseError = errors.New("数据库操作失败")
	ErrStorageError  = errors.New("存储服务操作失败")
	ErrMQError       = errors.New("消息队列操作失败")
	ErrSearchError   = errors.New("全文检索服务操作失败")
)
