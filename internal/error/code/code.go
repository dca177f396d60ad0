package code

// HTTP状态码.
const (
	// StatusOK - 200: 成功.
	StatusOK = 200
	// StatusCreated - 201: 已创建.
	StatusCreated = 201
	// StatusBadRequest - 400: 请求参数错误.
	StatusBadRequest = 400
	// StatusUnauthorized - 401: 未授权.
	StatusUnauthorized = 401
	// StatusForbidden - 403: 禁止访问.
	StatusForbidden = 403
	// StatusNotFound - 404: 资源不存在.
	StatusNotFound = 404
	// StatusInternalServerError - 500: 服务器内部错误.
	StatusInternalServerError = 500
	// StatusTooManyRequests - 429: 请求过多.
	StatusTooManyRequests = 429
)

// 通用错误码 (100xxx).
const (
	// ErrSuccess - 200: 成功.
	ErrSuccess int = iota + 100000
	// ErrUnknown - 500: 未知错误.
	ErrUnknown
	// ErrBind - 400: 请求参数绑定错误.
	ErrBind
	// ErrValidation - 400: 请求参数验证错误.
	ErrValidation
	// ErrTokenInvalid - 401: 令牌无效.
	ErrTokenInvalid
	// ErrTooManyRequests - 429: 请求频率过高.
	ErrTooManyRequests
	// ErrForbidden - 403: 无权操作.
	ErrForbidden
	// ErrTokenRevoked - 401: 令牌已注销.
	ErrTokenRevoked
)

// 用户相关错误码 (101xxx).
const (
	// ErrUserNotFound - 404: 用户不存在.
	ErrUserNotFound int = iota + 101000
	// ErrUserAlreadyExist - 400: 用户已存在.
	ErrUserAlreadyExist
	// ErrUserPasswordIncorrect - 401: 用户密码错误.
	ErrUserPasswordIncorrect
	// ErrUserNotVerified - 401: 邮箱未验证.
	ErrUserNotVerified
	// ErrUserMissingProvince - 400: 用户未设置省份.
	ErrUserMissingProvince
	// ErrVerificationTokenInvalid - 400: 验证链接无效.
	ErrVerificationTokenInvalid
	// ErrLoginAttemptsExceeded - 429: 登录失败次数过多.
	ErrLoginAttemptsExceeded
)

// 基础数据相关错误码 (102xxx).
const (
	// ErrProvinceNotFound - 404: 省份不存在.
	ErrProvinceNotFound int = iota + 102000
	// ErrBloodTypeNotFound - 404: 血型不存在.
	ErrBloodTypeNotFound
	// ErrInvalidLocation - 400: 无效的地区.
	ErrInvalidLocation
	// ErrInvalidBloodType - 400: 无效的血型.
	ErrInvalidBloodType
)

// 库存相关错误码 (103xxx).
const (
	// ErrInventoryNotFound - 404: 库存记录不存在.
	ErrInventoryNotFound int = iota + 103000
	// ErrBloodUnavailable - 404: 所选地区暂无该血型库存.
	ErrBloodUnavailable
)

// 紧急请求相关错误码 (104xxx).
const (
	// ErrEmergencyRequestNotFound - 404: 紧急请求不存在.
	ErrEmergencyRequestNotFound int = iota + 104000
	// ErrEmergencyRequestClosed - 400: 紧急请求已结束.
	ErrEmergencyRequestClosed
	// ErrInvalidStatus - 400: 无效的状态.
	ErrInvalidStatus
	// ErrInvalidStatusTransition - 400: 不允许的状态变更.
	ErrInvalidStatusTransition
)

// 数据库相关错误码 (105xxx).
const (
	// ErrDatabase - 500: 数据库错误.
	ErrDatabase int = iota + 105000
	// ErrRecordNotFound - 404: 记录不存在.
	ErrRecordNotFound
)

// 志愿登记相关错误码 (106xxx).
const (
	// ErrHelpOfferNotFound - 404: 志愿登记不存在.
	ErrHelpOfferNotFound int = iota + 106000
)

// 预约相关错误码 (107xxx).
const (
	// ErrAppointmentNotFound - 404: 预约不存在.
	ErrAppointmentNotFound int = iota + 107000
	// ErrAppointmentDateInvalid - 400: 预约时间必须在未来.
	ErrAppointmentDateInvalid
)

// 献血活动相关错误码 (108xxx).
const (
	// ErrBloodDriveNotFound - 404: 献血活动不存在.
	ErrBloodDriveNotFound int = iota + 108000
	// ErrBloodDriveDateInvalid - 400: 活动时间必须在未来.
	ErrBloodDriveDateInvalid
)
