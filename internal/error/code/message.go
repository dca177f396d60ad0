package code

// 错误码消息映射
var codeMessageMap = map[int]string{
	// 通用错误码
	ErrSuccess:         "成功",
	ErrUnknown:         "未知错误",
	ErrBind:            "请求参数绑定错误",
	ErrValidation:      "请求参数验证错误",
	ErrTokenInvalid:    "无效的认证令牌",
	ErrTooManyRequests: "请求频率过高",
	ErrForbidden:       "无权执行该操作",
	ErrTokenRevoked:    "认证令牌已注销",

	// 用户相关错误码
	ErrUserNotFound:             "用户不存在",
	ErrUserAlreadyExist:         "用户已存在",
	ErrUserPasswordIncorrect:    "用户名或密码错误",
	ErrUserNotVerified:          "邮箱尚未验证",
	ErrUserMissingProvince:      "用户未设置省份",
	ErrVerificationTokenInvalid: "验证链接无效或已使用",
	ErrLoginAttemptsExceeded:    "登录失败次数过多，请稍后再试",

	// 基础数据相关错误码
	ErrProvinceNotFound:  "省份不存在",
	ErrBloodTypeNotFound: "血型不存在",
	ErrInvalidLocation:   "无效的地区",
	ErrInvalidBloodType:  "无效的血型",

	// 库存相关错误码
	ErrInventoryNotFound: "库存记录不存在",
	ErrBloodUnavailable:  "所选地区暂无该血型库存",

	// 紧急请求相关错误码
	ErrEmergencyRequestNotFound: "紧急请求不存在",
	ErrEmergencyRequestClosed:   "紧急请求已结束",
	ErrInvalidStatus:            "无效的状态",
	ErrInvalidStatusTransition:  "不允许的状态变更",

	// 数据库相关错误码
	ErrDatabase:       "数据库错误",
	ErrRecordNotFound: "记录不存在",

	// 志愿登记相关错误码
	ErrHelpOfferNotFound: "志愿登记不存在",

	// 预约相关错误码
	ErrAppointmentNotFound:    "预约不存在",
	ErrAppointmentDateInvalid: "预约时间必须在未来",

	// 献血活动相关错误码
	ErrBloodDriveNotFound:    "献血活动不存在",
	ErrBloodDriveDateInvalid: "活动时间必须在未来",
}

// 错误码HTTP状态码映射
var codeStatusMap = map[int]int{
	// 通用错误码
	ErrSuccess:         StatusOK,
	ErrUnknown:         StatusInternalServerError,
	ErrBind:            StatusBadRequest,
	ErrValidation:      StatusBadRequest,
	ErrTokenInvalid:    StatusUnauthorized,
	ErrTooManyRequests: StatusTooManyRequests,
	ErrForbidden:       StatusForbidden,
	ErrTokenRevoked:    StatusUnauthorized,

	// 用户相关错误码
	ErrUserNotFound:             StatusNotFound,
	ErrUserAlreadyExist:         StatusBadRequest,
	ErrUserPasswordIncorrect:    StatusUnauthorized,
	ErrUserNotVerified:          StatusUnauthorized,
	ErrUserMissingProvince:      StatusBadRequest,
	ErrVerificationTokenInvalid: StatusBadRequest,
	ErrLoginAttemptsExceeded:    StatusTooManyRequests,

	// 基础数据相关错误码
	ErrProvinceNotFound:  StatusNotFound,
	ErrBloodTypeNotFound: StatusNotFound,
	ErrInvalidLocation:   StatusBadRequest,
	ErrInvalidBloodType:  StatusBadRequest,

	// 库存相关错误码
	ErrInventoryNotFound: StatusNotFound,
	ErrBloodUnavailable:  StatusNotFound,

	// 紧急请求相关错误码
	ErrEmergencyRequestNotFound: StatusNotFound,
	ErrEmergencyRequestClosed:   StatusBadRequest,
	ErrInvalidStatus:            StatusBadRequest,
	ErrInvalidStatusTransition:  StatusBadRequest,

	// 数据库相关错误码
	ErrDatabase:       StatusInternalServerError,
	ErrRecordNotFound: StatusNotFound,

	// 志愿登记相关错误码
	ErrHelpOfferNotFound: StatusNotFound,

	// 预约相关错误码
	ErrAppointmentNotFound:    StatusNotFound,
	ErrAppointmentDateInvalid: StatusBadRequest,

	// 献血活动相关错误码
	ErrBloodDriveNotFound:    StatusNotFound,
	ErrBloodDriveDateInvalid: StatusBadRequest,
}

// GetMessage 获取错误码对应的消息
func GetMessage(code int) string {
	if msg, ok := codeMessageMap[code]; ok {
		return msg
	}
	return "未知错误"
}

// GetStatus 获取错误码对应的HTTP状态码
func GetStatus(code int) int {
	if status, ok := codeStatusMap[code]; ok {
		return status
	}
	return StatusInternalServerError
}
